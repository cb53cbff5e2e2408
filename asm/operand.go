package asm

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/tagvm/bytecode"
)

// formatOperand renders o in the mnemonic operand syntax.
func formatOperand(o bytecode.Operand) string {
	switch o.Tag {
	case bytecode.TagU64:
		return strconv.FormatUint(o.Payload, 10)
	case bytecode.TagU8:
		return "u8:" + strconv.FormatUint(o.Payload, 10)
	case bytecode.TagI8:
		return "i8:" + strconv.FormatInt(int64(int8(o.Payload)), 10)
	case bytecode.TagI64:
		return "i64:" + strconv.FormatInt(int64(o.Payload), 10)
	case bytecode.TagU128:
		return "u128:" + strconv.FormatUint(o.Payload, 10)
	case bytecode.TagI128:
		return "i128:" + strconv.FormatInt(int64(o.Payload), 10)
	case bytecode.TagF32:
		return "f32:" + formatFloat(o.Payload, 32)
	case bytecode.TagF64:
		return "f64:" + formatFloat(o.Payload, 64)
	case bytecode.TagAddr:
		return "&0x" + strconv.FormatUint(o.Payload, 16)
	case bytecode.TagReg:
		return "r" + strconv.FormatUint(o.Payload, 10)
	case bytecode.TagFunc:
		return "@" + strconv.FormatUint(o.Payload, 10)
	case bytecode.TagOp:
		return "#0x" + strconv.FormatUint(o.Payload, 16)
	case bytecode.TagDerefStack:
		return "^" + strconv.FormatUint(o.Payload, 10)
	case bytecode.TagDerefStackReg:
		return "^r" + strconv.FormatUint(o.Payload, 10)
	case bytecode.TagDerefHeapReg:
		return "*r" + strconv.FormatUint(o.Payload, 10)
	default:
		return "!" + strconv.FormatUint(o.Payload, 10)
	}
}

// formatFloat prints the decimal value when it reproduces the exact bits,
// otherwise the raw bits in hex.
func formatFloat(bits uint64, size int) string {
	var s string
	var back uint64
	if size == 32 {
		f := math.Float32frombits(uint32(bits))
		s = strconv.FormatFloat(float64(f), 'g', -1, 32)
		v, err := strconv.ParseFloat(s, 32)
		if err == nil {
			back = uint64(math.Float32bits(float32(v)))
		}
	} else {
		f := math.Float64frombits(bits)
		s = strconv.FormatFloat(f, 'g', -1, 64)
		v, err := strconv.ParseFloat(s, 64)
		if err == nil {
			back = math.Float64bits(v)
		}
	}
	if back != bits {
		return "0x" + strconv.FormatUint(bits, 16)
	}
	return s
}

// formatLabel renders a FUNC label by name when the name reads back as the
// same label, otherwise as a function index.
func formatLabel(o bytecode.Operand) string {
	if o.Tag != bytecode.TagFunc {
		return formatOperand(o)
	}
	name, ok := bytecode.LabelName(o.Payload)
	if !ok || isReserved(name) || bytecode.Label(name) != o {
		return formatOperand(o)
	}
	return name
}

// isReserved reports whether a bare identifier would not parse as a label.
func isReserved(name string) bool {
	if _, ok := parseRegister(name); ok {
		return true
	}
	if strings.ContainsAny(name, ":.") || strings.ContainsAny(name[:1], "0123456789-+") {
		return true
	}
	// Only identifier characters survive tokenizing as a single token.
	for _, c := range name {
		if !isIdentRune(c) {
			return true
		}
	}
	return false
}

func isIdentRune(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '+'
}

func parseRegister(s string) (uint64, bool) {
	if len(s) < 2 || (s[0] != 'r' && s[0] != 'R') {
		return 0, false
	}
	n, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseTyped reads a "type:value" immediate.
func parseTyped(typ, value string) (bytecode.Operand, error) {
	switch strings.ToLower(typ) {
	case "u8":
		v, err := strconv.ParseUint(value, 0, 8)
		return bytecode.U8(uint8(v)), err
	case "u64":
		v, err := strconv.ParseUint(value, 0, 64)
		return bytecode.U64(v), err
	case "u128":
		v, err := strconv.ParseUint(value, 0, 64)
		return bytecode.U128(v), err
	case "i8":
		v, err := strconv.ParseInt(value, 0, 8)
		return bytecode.I8(int8(v)), err
	case "i64":
		v, err := strconv.ParseInt(value, 0, 64)
		return bytecode.I64(v), err
	case "i128":
		v, err := strconv.ParseInt(value, 0, 64)
		return bytecode.I128(v), err
	case "f32":
		if bits, ok := parseBits(value); ok {
			return bytecode.Operand{Tag: bytecode.TagF32, Payload: bits & math.MaxUint32}, nil
		}
		v, err := strconv.ParseFloat(value, 32)
		return bytecode.F32(float32(v)), err
	case "f64":
		if bits, ok := parseBits(value); ok {
			return bytecode.Operand{Tag: bytecode.TagF64, Payload: bits}, nil
		}
		v, err := strconv.ParseFloat(value, 64)
		return bytecode.F64(v), err
	}
	return bytecode.Operand{}, errUnknownType
}

// parseBits accepts a plain 0x-prefixed hex integer as raw float bits. Hex
// float literals carry a 'p' exponent and are left to ParseFloat.
func parseBits(s string) (uint64, bool) {
	if !strings.HasPrefix(s, "0x") || strings.ContainsAny(s, "pP.") {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	return v, err == nil
}

// parseBare reads an untyped number: U64 if it fits, else I64, else F64.
func parseBare(s string) (bytecode.Operand, error) {
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return bytecode.U64(v), nil
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return bytecode.I64(v), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return bytecode.Operand{}, err
	}
	return bytecode.F64(v), nil
}
