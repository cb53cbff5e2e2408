// Package tagvm is a virtual machine for a tagged-operand bytecode.
//
// A program is a flat stream of (tag, payload) operands. The tag of each
// operand says how its payload is read at execution time: as a literal, as a
// register index, as a stack depth, as a heap address held in a register, or
// as a function index. Instructions are an Op-tagged opcode followed by the
// operands that opcode expects.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	tagvm/
//	├── bytecode/   Tags, opcodes, operands, streams and their encodings
//	├── asm/        Mnemonic assembler and disassembler
//	├── vm/         Execution engine: heap, stack, registers, IO, snapshots
//	├── config/     tagvm.toml engine configuration
//	├── errors/     Structured error types with phase and kind
//	└── cmd/tagvm/  Command line runner, viewer and interactive stepper
//
// # Quick Start
//
// Build and run a program:
//
//	prog := bytecode.NewBuilder().
//		Func("main").
//		Instr(bytecode.ALLOC, bytecode.Reg(1), bytecode.U64(5)).
//		Instr(bytecode.STORE, bytecode.Reg(1), bytecode.U64(5)).Text("main\n").
//		Instr(bytecode.WRITE, bytecode.Reg(1), bytecode.U64(5)).
//		Instr(bytecode.FLUSH).
//		Build()
//
//	e := vm.New(vm.WithOutput(os.Stdout))
//	if err := e.Execute(ctx, prog); err != nil {
//		// err is an *errors.Error with Phase runtime and a fault Kind
//	}
//
// Or from the command line:
//
//	tagvm compile -o hello.cb hello.tasm
//	tagvm run hello.cb
//
// # Error Handling
//
// Every failure is an *errors.Error carrying the phase it happened in
// (decode, parse, load, runtime, config) and a kind. Runtime faults also
// carry the stream position and opcode of the faulting instruction:
//
//	var e *errors.Error
//	if stderrors.As(err, &e) && e.Kind == errors.KindMemoryFault {
//		log.Printf("bad access at %d by %s", e.Position, e.Opcode)
//	}
package tagvm
