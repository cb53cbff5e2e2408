// Package asm converts between instruction streams and a line-oriented
// mnemonic text.
//
// One instruction per line; the mnemonic is case-insensitive and operands
// are separated by whitespace or commas. ';' starts a comment.
//
//	func main
//	  alloc r1, 5
//	  store r1, 5, "main\n"
//	  write r1, 5
//	  flush
//	  call @helper
//
// Operand forms:
//
//	5, -5, 2.5       U64, I64 and F64 immediates
//	u8:7 i8:-3       explicit immediate types (u8 u64 i8 i64 f32 f64 u128 i128)
//	"text" 'c'       a U8 operand per byte
//	r3               register
//	&0x40            heap address
//	@2 @name         function index, by number or by declared name
//	^1 ^r3           stack slot by depth, or by depth held in a register
//	*r3              heap byte at the address held in a register
//	!9               untyped value
//	#0x01 #add       raw opcode operand
//	main             label, as written after func
//
// The .raw directive emits its operands without an opcode. Disassemble
// produces text that Assemble turns back into the same stream.
package asm
