package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // raw bytes to operand stream
	PhaseParse   Phase = "parse"   // hex text or mnemonic text
	PhaseLoad    Phase = "load"    // reading programs and dumps
	PhaseRuntime Phase = "runtime" // instruction execution
	PhaseConfig  Phase = "config"  // configuration files
)

// Kind categorizes the error
type Kind string

const (
	KindDecodeAnomaly   Kind = "decode_anomaly"
	KindTruncated       Kind = "truncated"
	KindInvalidOpcode   Kind = "invalid_opcode"
	KindMemoryFault     Kind = "memory_fault"
	KindArithmeticFault Kind = "arithmetic_fault"
	KindStackFault      Kind = "stack_fault"
	KindRegisterFault   Kind = "register_fault"
	KindCallFault       Kind = "call_fault"
	KindIOFault         Kind = "io_fault"
	KindInvalidInput    Kind = "invalid_input"
	KindCancelled       Kind = "cancelled"
	KindNotFound        Kind = "not_found"
)

// Sentinels for errors.Is matching on runtime faults.
var (
	ErrInvalidOpcode   = sentinel(KindInvalidOpcode)
	ErrMemoryFault     = sentinel(KindMemoryFault)
	ErrArithmeticFault = sentinel(KindArithmeticFault)
	ErrStackFault      = sentinel(KindStackFault)
	ErrRegisterFault   = sentinel(KindRegisterFault)
	ErrCallFault       = sentinel(KindCallFault)
	ErrIOFault         = sentinel(KindIOFault)
	ErrTruncated       = sentinel(KindTruncated)
	ErrCancelled       = sentinel(KindCancelled)
)

func sentinel(kind Kind) *Error {
	return &Error{Phase: PhaseRuntime, Kind: kind, Position: NoPosition}
}

// NoPosition marks an error that is not tied to an instruction position.
const NoPosition = -1

// Error is the structured error type used throughout the VM
type Error struct {
	Value    any
	Cause    error
	Address  *uint64
	Phase    Phase
	Kind     Kind
	Opcode   string
	Detail   string
	Position int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Position >= 0 {
		fmt.Fprintf(&b, " at %d", e.Position)
	}
	if e.Opcode != "" {
		b.WriteString(" (")
		b.WriteString(e.Opcode)
		b.WriteByte(')')
	}
	if e.Address != nil {
		fmt.Fprintf(&b, " address 0x%x", *e.Address)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error aborts a run. Decode anomalies are the
// only non-fatal kind.
func (e *Error) Fatal() bool {
	return e.Kind != KindDecodeAnomaly
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:    phase,
			Kind:     kind,
			Position: NoPosition,
		},
	}
}

// Position sets the instruction stream position
func (b *Builder) Position(pos int) *Builder {
	b.err.Position = pos
	return b
}

// Opcode sets the opcode mnemonic involved
func (b *Builder) Opcode(name string) *Builder {
	b.err.Opcode = name
	return b
}

// Address sets the offending heap or stack address
func (b *Builder) Address(addr uint64) *Builder {
	b.err.Address = &addr
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common fault patterns

// MemoryFault creates a heap access fault for addr
func MemoryFault(addr uint64, detail string) *Error {
	return New(PhaseRuntime, KindMemoryFault).Address(addr).Detail("%s", detail).Build()
}

// AllocationFailed creates a memory fault for an allocation with no fitting gap
func AllocationFailed(size, capacity uint64) *Error {
	return &Error{
		Phase:    PhaseRuntime,
		Kind:     KindMemoryFault,
		Position: NoPosition,
		Detail:   fmt.Sprintf("failed to allocate %d bytes (heap size %d)", size, capacity),
		Value:    size,
	}
}

// DivisionByZero creates an arithmetic fault
func DivisionByZero(op string) *Error {
	return &Error{
		Phase:    PhaseRuntime,
		Kind:     KindArithmeticFault,
		Position: NoPosition,
		Opcode:   op,
		Detail:   "division by zero",
	}
}

// StackFault creates a stack overflow/underflow fault
func StackFault(detail string, args ...any) *Error {
	return New(PhaseRuntime, KindStackFault).Detail(detail, args...).Build()
}

// InvalidOpcode creates a fault for an unrecognized opcode byte
func InvalidOpcode(pos int, value uint64) *Error {
	return &Error{
		Phase:    PhaseRuntime,
		Kind:     KindInvalidOpcode,
		Position: pos,
		Detail:   fmt.Sprintf("unknown opcode 0x%02x", value),
		Value:    value,
	}
}

// OutOfBounds creates a fault of the given kind for an index past length
func OutOfBounds(kind Kind, what string, index uint64, length int) *Error {
	return &Error{
		Phase:    PhaseRuntime,
		Kind:     kind,
		Position: NoPosition,
		Detail:   fmt.Sprintf("%s %d out of bounds (length %d)", what, index, length),
		Value:    index,
	}
}

// Truncated creates an error for input that ends inside an item
func Truncated(phase Phase, pos int, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTruncated,
		Position: pos,
		Detail:   detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindInvalidInput,
		Position: NoPosition,
		Detail:   detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotFound,
		Position: NoPosition,
		Detail:   fmt.Sprintf("%s %q not found", what, name),
	}
}

// Cancelled wraps a context error that stopped a run
func Cancelled(pos int, cause error) *Error {
	return &Error{
		Phase:    PhaseRuntime,
		Kind:     KindCancelled,
		Position: pos,
		Detail:   "run aborted",
		Cause:    cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     kind,
		Position: NoPosition,
		Detail:   detail,
		Cause:    cause,
	}
}

// Load creates a program loading error
func Load(detail string, cause error) *Error {
	return Wrap(PhaseLoad, KindInvalidInput, cause, detail)
}

// ParseFailed creates a parsing error at a line
func ParseFailed(line int, detail string, args ...any) *Error {
	return New(PhaseParse, KindInvalidInput).Position(line).Detail(detail, args...).Build()
}

// FaultKind returns the Kind of the first *Error in err's chain.
func FaultKind(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
