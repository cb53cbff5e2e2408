// Package errors provides structured error types for the tagvm virtual machine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Runtime faults carry the instruction position, the opcode mnemonic and the
// offending heap or stack address so a caller can report a precise diagnostic.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRuntime, errors.KindMemoryFault).
//		Position(12).
//		Opcode("STORE").
//		Address(0x40).
//		Detail("write outside any live extent").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DivisionByZero("DIV")
//	err := errors.AllocationFailed(16, 8)
//
// All errors implement the standard error interface and support errors.Is/As.
// Sentinels such as ErrMemoryFault match any error of the same Phase and Kind:
//
//	if errors.Is(err, errors.ErrMemoryFault) { ... }
package errors
