// Package bytecode defines the tagged-operand instruction encoding.
//
// An instruction stream is a flat sequence of Operands. Each Operand is a
// (Tag, payload) pair; the first operand of every instruction carries TagOp
// and the opcode as payload, and the operands that follow are consumed
// according to that opcode's shape (see Lookup).
//
// # Building streams
//
//	s := bytecode.NewBuilder().
//		Func("main").
//		Instr(bytecode.ALLOC, bytecode.Reg(1), bytecode.U64(5)).
//		Instr(bytecode.STORE, bytecode.Reg(1), bytecode.U64(5)).Text("main\n").
//		Instr(bytecode.WRITE, bytecode.Reg(1), bytecode.U64(5)).
//		Instr(bytecode.FLUSH).
//		Build()
//
// # Encodings
//
// The canonical binary form writes one tag byte followed by a little-endian
// payload whose width depends on the tag (1, 4, 8 or 16 bytes). The compact
// form writes a single payload byte per operand. The hex text form renders
// each operand as "TT:PPPP" with fixed-width hex. Op and NoType operands
// also carry payload digits (2 and 16) so that every stream round-trips.
//
//	raw := bytecode.Encode(s)
//	back, err := bytecode.Decode(raw)
//
//	text := bytecode.FormatText(s)
//	back, report, err := bytecode.ParseText(text)
//
// Decoding never validates opcodes. Unknown tag bytes degrade to TagNoType
// and are listed in the Report; only a payload cut short by the end of input
// is an error.
//
// # Resolution
//
// Operand.Ref classifies an operand into one of the closed set of resolution
// strategies (Immediate, RegisterValue, StackSlot, StackSlotViaRegister,
// HeapViaRegister, FunctionIndex). The execution engine switches on it.
package bytecode
