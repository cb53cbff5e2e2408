package vm

import (
	"fmt"

	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
)

// fetch reads the next operand of the current instruction.
func (e *Engine) fetch() (bytecode.Operand, error) {
	if e.ip >= len(e.program) {
		return bytecode.Operand{}, errors.New(errors.PhaseRuntime, errors.KindTruncated).
			Detail("operand at %d is past the end of the stream", e.ip).Build()
	}
	o := e.program[e.ip]
	e.ip++
	e.argEnd = e.ip
	return o, nil
}

// typed fetches an operand and resolves it through its tag.
func (e *Engine) typed() (uint64, error) {
	o, err := e.fetch()
	if err != nil {
		return 0, err
	}
	return e.resolve(o)
}

// untyped fetches an operand and takes its payload literally.
func (e *Engine) untyped() (uint64, error) {
	o, err := e.fetch()
	return o.Payload, err
}

// dest fetches a register index.
func (e *Engine) dest() (uint64, error) {
	return e.untyped()
}

// function fetches a jump table index and returns its position.
func (e *Engine) function() (int, error) {
	idx, err := e.untyped()
	if err != nil {
		return 0, err
	}
	return e.target(idx)
}

func (e *Engine) target(idx uint64) (int, error) {
	if idx >= uint64(len(e.jumps)) {
		return 0, errors.OutOfBounds(errors.KindCallFault, "function", idx, len(e.jumps))
	}
	return e.jumps[idx], nil
}

func (e *Engine) resolve(o bytecode.Operand) (uint64, error) {
	switch r := o.Ref().(type) {
	case bytecode.Immediate:
		return r.Value, nil
	case bytecode.RegisterValue:
		return e.regs.Get(r.Index)
	case bytecode.StackSlot:
		b, err := e.stack.Get(r.Depth)
		return uint64(b), err
	case bytecode.StackSlotViaRegister:
		depth, err := e.regs.Get(r.Index)
		if err != nil {
			return 0, err
		}
		b, err := e.stack.Get(depth)
		return uint64(b), err
	case bytecode.HeapViaRegister:
		addr, err := e.regs.Get(r.Index)
		if err != nil {
			return 0, err
		}
		b, err := e.heap.Read(addr)
		return uint64(b), err
	case bytecode.FunctionIndex:
		pos, err := e.target(r.Index)
		return uint64(pos), err
	default:
		panic(fmt.Sprintf("vm: unhandled operand reference %T", r))
	}
}
