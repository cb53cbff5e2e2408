package asm

import (
	"strconv"
	"strings"

	"github.com/wippyai/tagvm/bytecode"
)

// Line is one disassembled instruction.
type Line struct {
	Text string
	Pos  int
	// Func marks a FUNC declaration, printed unindented.
	Func bool
}

// Disassemble renders s as mnemonic text, one instruction per line.
func Disassemble(s bytecode.Stream) string {
	var b strings.Builder
	for _, l := range Lines(s) {
		if !l.Func {
			b.WriteString("  ")
		}
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Lines disassembles s into one Line per statically split instruction.
func Lines(s bytecode.Stream) []Line {
	instrs := bytecode.Split(s)
	names := functionNames(s, instrs)
	var out []Line

	for _, in := range instrs {
		if !in.Valid {
			out = append(out, Line{Pos: in.Pos, Text: ".raw " + formatOperand(in.Operands[0])})
			continue
		}

		parts := []string{strings.ToLower(in.Op.String())}
		args := in.Operands
		switch {
		case in.Op == bytecode.FUNC && len(args) > 0:
			parts = append(parts, formatLabel(args[0]))
			args = args[1:]
		case in.Op == bytecode.STORE && len(args) > 2 && allBytes(args[2:]):
			parts = append(parts, formatOperand(args[0]), formatOperand(args[1]), quoteBytes(args[2:]))
			args = nil
		}
		for _, a := range args {
			if a.Tag == bytecode.TagFunc {
				if name, ok := names[a.Payload]; ok {
					parts = append(parts, "@"+name)
					continue
				}
			}
			parts = append(parts, formatOperand(a))
		}

		out = append(out, Line{
			Pos:  in.Pos,
			Text: strings.Join(parts, " "),
			Func: in.Op == bytecode.FUNC,
		})
	}
	return out
}

// functionNames maps jump table indices to printable function names. Only
// labels of FUNC instructions are named, and a name is only used for the
// first index that declares it.
func functionNames(s bytecode.Stream, instrs []bytecode.Instruction) map[uint64]string {
	declared := make(map[int]bool)
	for _, in := range instrs {
		if in.Valid && in.Op == bytecode.FUNC && len(in.Operands) > 0 {
			declared[in.Pos+1] = true
		}
	}

	names := make(map[uint64]string)
	seen := make(map[string]bool)
	for i, target := range bytecode.FunctionTable(s) {
		if !declared[target-1] {
			continue
		}
		text := formatLabel(s[target-1])
		if strings.HasPrefix(text, "@") || seen[text] {
			continue
		}
		seen[text] = true
		names[uint64(i)] = text
	}
	return names
}

func allBytes(ops []bytecode.Operand) bool {
	for _, o := range ops {
		if o.Tag != bytecode.TagU8 || o.Payload > 0xFF {
			return false
		}
	}
	return true
}

func quoteBytes(ops []bytecode.Operand) string {
	buf := make([]byte, len(ops))
	for i, o := range ops {
		buf[i] = byte(o.Payload)
	}
	return strconv.Quote(string(buf))
}
