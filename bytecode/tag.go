package bytecode

import "fmt"

// Tag is the type code carried by every operand. The tag alone decides how
// the payload is resolved at execution time.
type Tag byte

// Tag codes as they appear on the wire.
const (
	TagU8            Tag = 0x00
	TagU64           Tag = 0x01
	TagI8            Tag = 0x02
	TagI64           Tag = 0x03
	TagF32           Tag = 0x04
	TagF64           Tag = 0x05
	TagU128          Tag = 0x06
	TagI128          Tag = 0x07
	TagAddr          Tag = 0x08 // literal heap address
	TagReg           Tag = 0x09 // register index, resolves to the register value
	TagFunc          Tag = 0x0A // jump table index, or a label after FUNC
	TagOp            Tag = 0x0B // opcode byte, first operand of an instruction
	TagDerefStack    Tag = 0x0C // stack depth offset
	TagDerefHeapReg  Tag = 0x0D // register holding a heap address
	TagDerefStackReg Tag = 0x0E // register holding a stack depth offset
	TagNoType        Tag = 0x0F // fallback, payload taken literally
)

var tagNames = [...]string{
	TagU8:            "U8",
	TagU64:           "U64",
	TagI8:            "I8",
	TagI64:           "I64",
	TagF32:           "F32",
	TagF64:           "F64",
	TagU128:          "U128",
	TagI128:          "I128",
	TagAddr:          "Addr",
	TagReg:           "Reg",
	TagFunc:          "Func",
	TagOp:            "Op",
	TagDerefStack:    "DerefStack",
	TagDerefHeapReg:  "DerefHeapReg",
	TagDerefStackReg: "DerefStackReg",
	TagNoType:        "NoType",
}

// TagFromByte maps a wire byte to a Tag. Unknown bytes degrade to
// TagNoType; ok reports whether the byte was recognized.
func TagFromByte(b byte) (tag Tag, ok bool) {
	if b <= byte(TagNoType) {
		return Tag(b), true
	}
	return TagNoType, false
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(0x%02x)", byte(t))
}

// Width returns the payload width in bytes used by the canonical binary and
// text encodings.
func (t Tag) Width() int {
	switch t {
	case TagU8, TagI8, TagOp:
		return 1
	case TagF32:
		return 4
	case TagU128, TagI128:
		return 16
	default:
		return 8
	}
}

// Immediate reports whether the tag carries a literal value.
func (t Tag) Immediate() bool {
	switch t {
	case TagU8, TagU64, TagI8, TagI64, TagF32, TagF64, TagU128, TagI128:
		return true
	}
	return false
}
