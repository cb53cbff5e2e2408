// Package vm implements the execution engine for tagged-operand bytecode.
//
// An Engine owns a first-fit Heap, a fixed-capacity byte Stack, a file of
// NumRegisters 64-bit registers, a CallStack, an accumulator and an IO
// boundary. Load builds the jump table from the FUNC markers of a stream;
// Step executes one instruction and Run loops until the program halts or
// faults.
//
//	var out bytes.Buffer
//	e := vm.New(vm.WithOutput(&out), vm.WithHeapSize(1024))
//	if err := e.Execute(ctx, stream); err != nil {
//		// err is an *errors.Error with Phase runtime and a fault Kind
//	}
//
// Every fault is returned as a structured error and leaves the engine in
// StateFaulted; Snapshot captures the machine state for a core dump.
//
// Logging goes through a package-level zap logger, a no-op until SetLogger
// is called. WithTrace logs every executed instruction at debug level.
package vm
