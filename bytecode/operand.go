package bytecode

import (
	"fmt"
	"math"
)

// Operand is a (tag, payload) pair, the atomic unit of an instruction stream.
type Operand struct {
	Payload uint64
	Tag     Tag
}

func (o Operand) String() string {
	if o.Tag == TagOp {
		return Opcode(o.Payload).String()
	}
	return fmt.Sprintf("%s(%#x)", o.Tag, o.Payload)
}

// IsOp reports whether the operand is an opcode marker.
func (o Operand) IsOp() bool {
	return o.Tag == TagOp
}

// Opcode returns the opcode carried by an Op-tagged operand. Only the low
// byte is kept; payloads above 0xFF are not valid opcodes.
func (o Operand) Opcode() Opcode {
	return Opcode(o.Payload)
}

// Ref is the resolution strategy of an operand. It is a closed set: every
// implementation is declared in this file.
type Ref interface {
	isRef()
}

// Immediate is a literal value.
type Immediate struct{ Value uint64 }

// RegisterValue resolves to the value held in a register.
type RegisterValue struct{ Index uint64 }

// StackSlot resolves to the stack byte Depth slots below the pointer.
type StackSlot struct{ Depth uint64 }

// StackSlotViaRegister resolves to the stack byte at the depth held in a register.
type StackSlotViaRegister struct{ Index uint64 }

// HeapViaRegister resolves to the heap byte at the address held in a register.
type HeapViaRegister struct{ Index uint64 }

// FunctionIndex resolves to a jump table position.
type FunctionIndex struct{ Index uint64 }

func (Immediate) isRef()            {}
func (RegisterValue) isRef()        {}
func (StackSlot) isRef()            {}
func (StackSlotViaRegister) isRef() {}
func (HeapViaRegister) isRef()      {}
func (FunctionIndex) isRef()        {}

// Ref classifies the operand by its tag.
func (o Operand) Ref() Ref {
	switch o.Tag {
	case TagReg:
		return RegisterValue{Index: o.Payload}
	case TagDerefStack:
		return StackSlot{Depth: o.Payload}
	case TagDerefStackReg:
		return StackSlotViaRegister{Index: o.Payload}
	case TagDerefHeapReg:
		return HeapViaRegister{Index: o.Payload}
	case TagFunc:
		return FunctionIndex{Index: o.Payload}
	default:
		// Immediates, Addr, Op and NoType are all taken literally.
		return Immediate{Value: o.Payload}
	}
}

// Operand constructors.

func Op(op Opcode) Operand { return Operand{Tag: TagOp, Payload: uint64(op)} }
func U8(v uint8) Operand { return Operand{Tag: TagU8, Payload: uint64(v)} }
func U64(v uint64) Operand { return Operand{Tag: TagU64, Payload: v} }
func I8(v int8) Operand { return Operand{Tag: TagI8, Payload: uint64(uint8(v))} }
func I64(v int64) Operand { return Operand{Tag: TagI64, Payload: uint64(v)} }
func U128(v uint64) Operand { return Operand{Tag: TagU128, Payload: v} }
func I128(v int64) Operand { return Operand{Tag: TagI128, Payload: uint64(v)} }
func Addr(a uint64) Operand { return Operand{Tag: TagAddr, Payload: a} }
func Reg(i uint64) Operand { return Operand{Tag: TagReg, Payload: i} }
func Func(i uint64) Operand { return Operand{Tag: TagFunc, Payload: i} }
func DerefStack(d uint64) Operand { return Operand{Tag: TagDerefStack, Payload: d} }
func DerefHeapReg(r uint64) Operand { return Operand{Tag: TagDerefHeapReg, Payload: r} }
func DerefStackReg(r uint64) Operand { return Operand{Tag: TagDerefStackReg, Payload: r} }

// F32 stores the IEEE-754 bits of v.
func F32(v float32) Operand {
	return Operand{Tag: TagF32, Payload: uint64(math.Float32bits(v))}
}

// F64 stores the IEEE-754 bits of v.
func F64(v float64) Operand {
	return Operand{Tag: TagF64, Payload: math.Float64bits(v)}
}

// Label packs up to the first 8 bytes of name into a Func label operand, for
// use right after a FUNC opcode.
func Label(name string) Operand {
	var v uint64
	for i := 0; i < len(name) && i < 8; i++ {
		v = v<<8 | uint64(name[i])
	}
	return Operand{Tag: TagFunc, Payload: v}
}

// LabelName reverses Label for printable labels. ok is false when the payload
// contains non-printable bytes.
func LabelName(payload uint64) (name string, ok bool) {
	if payload == 0 {
		return "", false
	}
	var buf [8]byte
	n := 0
	for shift := 56; shift >= 0; shift -= 8 {
		b := byte(payload >> uint(shift))
		if b == 0 && n == 0 {
			continue
		}
		if b < 0x21 || b > 0x7e {
			return "", false
		}
		buf[n] = b
		n++
	}
	return string(buf[:n]), true
}
