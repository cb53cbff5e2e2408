package vm

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
)

// ErrStepLimit is the cause of a run cancelled by WithMaxSteps.
var ErrStepLimit = stderrors.New("step limit reached")

// State is the engine lifecycle state.
type State int

const (
	StateReady State = iota
	StateRunning
	StateHalted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine executes one instruction stream. It owns its heap, stack, register
// file, call stack and accumulator; it is not safe for concurrent use.
type Engine struct {
	heap    *Heap
	stack   *Stack
	io      *IO
	fault   *errors.Error
	program bytecode.Stream
	jumps   []int
	calls   CallStack
	opts    options
	regs    Registers
	ip      int
	argEnd  int
	acc     uint64
	steps   uint64
	state   State
}

// New creates an engine with an empty program.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		opts: o,
		io:   NewIO(o.output),
	}
	e.io.Feed(o.input)
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.heap = NewHeap(e.opts.heapSize)
	e.stack = NewStack(e.opts.stackSize)
	e.regs = Registers{}
	e.calls = CallStack{}
	e.fault = nil
	e.ip = 0
	e.acc = 0
	e.steps = 0
	e.state = StateReady
}

// Load installs s as the program, clears the machine state and builds the
// jump table. The IO queues are kept.
func (e *Engine) Load(s bytecode.Stream) {
	e.reset()
	e.program = s
	e.jumps = bytecode.FunctionTable(s)
}

// Execute loads s and runs it to completion.
func (e *Engine) Execute(ctx context.Context, s bytecode.Stream) error {
	e.Load(s)
	return e.Run(ctx)
}

// Run executes until the program halts or faults. ctx is checked before
// every instruction; cancellation faults the run.
func (e *Engine) Run(ctx context.Context) error {
	Logger().Info("run started",
		zap.Int("operands", len(e.program)),
		zap.Int("functions", len(e.jumps)),
		zap.Int("ip", e.ip))

	for e.state == StateReady || e.state == StateRunning {
		if err := ctx.Err(); err != nil {
			return e.abort(errors.Cancelled(e.ip, err))
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return e.Fault()
}

// Step executes one instruction. Stepping a halted engine is a no-op;
// stepping a faulted one returns its fault again.
func (e *Engine) Step() error {
	switch e.state {
	case StateHalted:
		return nil
	case StateFaulted:
		return e.fault
	}
	if e.ip >= len(e.program) {
		return e.halt()
	}
	e.state = StateRunning

	if e.opts.maxSteps > 0 && e.steps >= e.opts.maxSteps {
		return e.abort(errors.Cancelled(e.ip, ErrStepLimit))
	}
	e.steps++

	pos := e.ip
	head := e.program[pos]
	if head.Tag != bytecode.TagOp {
		return e.abort(errors.New(errors.PhaseRuntime, errors.KindInvalidOpcode).
			Position(pos).Value(head.Payload).
			Detail("expected an opcode, found %s operand", head.Tag).Build())
	}
	op := head.Opcode()
	if head.Payload > 0xFF || !op.Valid() {
		return e.abort(errors.InvalidOpcode(pos, head.Payload))
	}

	e.ip = pos + 1
	e.argEnd = e.ip
	if err := e.exec(op); err != nil {
		// The pointer stays on the faulting instruction.
		e.ip = pos
		return e.abort(locate(err, pos, op))
	}
	if e.opts.trace {
		Logger().Debug("exec",
			zap.Int("ip", pos),
			zap.Stringer("op", op),
			zap.Stringers("args", []bytecode.Operand(e.program[pos+1 : e.argEnd])),
			zap.Uint64("acc", e.acc),
			zap.Int("sp", e.stack.Len()))
	}

	if e.ip >= len(e.program) {
		return e.halt()
	}
	return nil
}

func (e *Engine) halt() error {
	if e.opts.flushOnHalt {
		if err := e.io.Flush(); err != nil {
			return e.abort(locate(err, e.ip, bytecode.NOP))
		}
	}
	e.state = StateHalted
	Logger().Info("run halted", zap.Int("ip", e.ip), zap.Uint64("steps", e.steps))
	return nil
}

func (e *Engine) abort(err *errors.Error) error {
	e.state = StateFaulted
	e.fault = err
	Logger().Error("run faulted",
		zap.String("kind", string(err.Kind)),
		zap.Int("ip", err.Position),
		zap.String("op", err.Opcode),
		zap.Uint64("steps", e.steps),
		zap.Error(err))
	return err
}

// locate fills in the instruction position and opcode of a fault raised
// below the dispatch loop.
func locate(err error, pos int, op bytecode.Opcode) *errors.Error {
	var fe *errors.Error
	if !stderrors.As(err, &fe) {
		fe = errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "unexpected failure")
	}
	if fe.Position == errors.NoPosition {
		fe.Position = pos
	}
	if fe.Opcode == "" {
		fe.Opcode = op.String()
	}
	return fe
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Fault returns the error that faulted the engine, or nil.
func (e *Engine) Fault() error {
	if e.fault == nil {
		return nil
	}
	return e.fault
}

// IP returns the instruction pointer.
func (e *Engine) IP() int { return e.ip }

// Accumulator returns the accumulator value.
func (e *Engine) Accumulator() uint64 { return e.acc }

// Steps returns the number of instructions started since Load.
func (e *Engine) Steps() uint64 { return e.steps }

// Registers returns a copy of the register file.
func (e *Engine) Registers() Registers { return e.regs }

// Heap returns the engine heap.
func (e *Engine) Heap() *Heap { return e.heap }

// Stack returns the engine stack.
func (e *Engine) Stack() *Stack { return e.stack }

// IO returns the I/O boundary.
func (e *Engine) IO() *IO { return e.io }

// CallDepth returns the number of pending returns.
func (e *Engine) CallDepth() int { return e.calls.Depth() }

// Program returns the loaded stream.
func (e *Engine) Program() bytecode.Stream { return e.program }

// JumpTable returns a copy of the jump table.
func (e *Engine) JumpTable() []int { return append([]int(nil), e.jumps...) }
