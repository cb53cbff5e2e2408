package asm_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/tagvm/asm"
	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
)

func helloProgram() bytecode.Stream {
	return bytecode.NewBuilder().
		Func("main").
		Instr(bytecode.ALLOC, bytecode.Reg(1), bytecode.U64(5)).
		Instr(bytecode.STORE, bytecode.Reg(1), bytecode.U64(5)).Text("main\n").
		Instr(bytecode.WRITE, bytecode.Reg(1), bytecode.U64(5)).
		Instr(bytecode.FLUSH).
		Instr(bytecode.CALL, bytecode.Func(1)).
		Func("helper").
		Instr(bytecode.RET).
		Build()
}

func TestDisassemble(t *testing.T) {
	want := `func main
  alloc r1 5
  store r1 5 "main\n"
  write r1 5
  flush
  call @helper
func helper
  ret
`
	if got := asm.Disassemble(helloProgram()); got != want {
		t.Errorf("Disassemble:\n%s\nwant:\n%s", got, want)
	}
}

func TestAssemble(t *testing.T) {
	src := `; prints main
func main
  ALLOC r1, 5
  store r1, 5, "main\n"   ; data
  write r1, 5
  flush
  call @helper

func helper
  ret
`
	got, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if want := helloProgram(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestAssembleOperandForms(t *testing.T) {
	tests := []struct {
		src  string
		want bytecode.Operand
	}{
		{"5", bytecode.U64(5)},
		{"0x10", bytecode.U64(16)},
		{"-5", bytecode.I64(-5)},
		{"2.5", bytecode.F64(2.5)},
		{"u8:7", bytecode.U8(7)},
		{"i8:-3", bytecode.I8(-3)},
		{"i64:-42", bytecode.I64(-42)},
		{"u128:9", bytecode.U128(9)},
		{"i128:-1", bytecode.I128(-1)},
		{"f32:1.5", bytecode.F32(1.5)},
		{"f64:-2.25", bytecode.F64(-2.25)},
		{"f32:0x7fc00001", bytecode.Operand{Tag: bytecode.TagF32, Payload: 0x7fc00001}},
		{"'A'", bytecode.U8('A')},
		{"r3", bytecode.Reg(3)},
		{"&0x40", bytecode.Addr(0x40)},
		{"@2", bytecode.Func(2)},
		{"^1", bytecode.DerefStack(1)},
		{"^r4", bytecode.DerefStackReg(4)},
		{"*r6", bytecode.DerefHeapReg(6)},
		{"!9", bytecode.Operand{Tag: bytecode.TagNoType, Payload: 9}},
		{"#0x01", bytecode.Op(bytecode.ADD)},
		{"#sub", bytecode.Op(bytecode.SUB)},
		{"main", bytecode.Label("main")},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := asm.Assemble(".raw " + tt.src)
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
		line int
		msg  string
	}{
		{"unknown_mnemonic", "nop\nbogus", errors.KindInvalidInput, 2, "unknown mnemonic"},
		{"leading_number", "5", errors.KindInvalidInput, 1, "expected mnemonic"},
		{"bad_type", "push q9:1", errors.KindInvalidInput, 1, "bad immediate"},
		{"overflow", "push u8:300", errors.KindInvalidInput, 1, "bad immediate"},
		{"dangling_sigil", "push *", errors.KindInvalidInput, 1, "must be followed"},
		{"heap_needs_register", "push *5", errors.KindInvalidInput, 1, "expected register"},
		{"addr_needs_number", "push &r1", errors.KindInvalidInput, 1, "expected number"},
		{"long_label", "func verylonglabel", errors.KindInvalidInput, 1, "longer than 8"},
		{"wide_char", "push '€'", errors.KindInvalidInput, 1, "single byte"},
		{"undeclared", "nop\ncall @nowhere", errors.KindNotFound, 2, "not declared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := asm.Assemble(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if e.Phase != errors.PhaseParse || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want parse/%s", e.Phase, e.Kind, tt.kind)
			}
			if e.Position != tt.line {
				t.Errorf("line = %d, want %d", e.Position, tt.line)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q missing %q", err, tt.msg)
			}
		})
	}
}

func TestFunctionNamesFollowJumpTable(t *testing.T) {
	src := `func a
  call @b
func b
  call @a
func a
  ret`
	s, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// The second "a" gets its own table slot but @a refers to the first.
	if got := s[3]; got != bytecode.Func(1) {
		t.Errorf("call @b = %v, want Func(1)", got)
	}
	if got := s[7]; got != bytecode.Func(0) {
		t.Errorf("call @a = %v, want Func(0)", got)
	}
	if n := len(bytecode.FunctionTable(s)); n != 3 {
		t.Errorf("table size = %d, want 3", n)
	}
}

func TestRoundTrip(t *testing.T) {
	streams := map[string]bytecode.Stream{
		"hello": helloProgram(),
		"every_tag": bytecode.NewBuilder().
			Instr(bytecode.PUSH, bytecode.U8(1)).
			Instr(bytecode.ADD, bytecode.I8(-1), bytecode.I64(-9)).
			Instr(bytecode.MUL, bytecode.F32(0.1), bytecode.F64(1e300)).
			Instr(bytecode.SUB, bytecode.U128(3), bytecode.I128(-3)).
			Instr(bytecode.LOAD, bytecode.Reg(2), bytecode.Addr(0x80)).
			Instr(bytecode.MOV, bytecode.Reg(3), bytecode.DerefStack(1)).
			Instr(bytecode.MOV, bytecode.Reg(3), bytecode.DerefStackReg(2)).
			Instr(bytecode.MOV, bytecode.Reg(3), bytecode.DerefHeapReg(2)).
			Instr(bytecode.PUSH, bytecode.Operand{Tag: bytecode.TagNoType, Payload: 77}).
			Build(),
		"raw": bytecode.Stream{
			bytecode.U8(4),
			bytecode.Op(bytecode.Opcode(0xEE)),
			bytecode.Op(bytecode.FUNC), bytecode.Func(0x7231), // label spelling "r1"
			bytecode.Op(bytecode.STORE), bytecode.Reg(1), bytecode.Reg(2), bytecode.U8(0xFF), bytecode.U8('"'),
			bytecode.Op(bytecode.ADD), bytecode.Op(bytecode.NOP),
		},
		"nan": {bytecode.Op(bytecode.PUSH), {Tag: bytecode.TagF64, Payload: 0x7ff8000000000001}},
	}

	for name, s := range streams {
		t.Run(name, func(t *testing.T) {
			text := asm.Disassemble(s)
			got, err := asm.Assemble(text)
			if err != nil {
				t.Fatalf("Assemble(%q): %v", text, err)
			}
			if !reflect.DeepEqual(got, s) {
				t.Errorf("round trip via\n%s\n got %v\nwant %v", text, got, s)
			}
		})
	}
}

func TestLines(t *testing.T) {
	lines := asm.Lines(helloProgram())
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	if !lines[0].Func || lines[0].Pos != 0 {
		t.Errorf("line 0 = %+v", lines[0])
	}
	if lines[1].Pos != 2 || lines[1].Text != "alloc r1 5" {
		t.Errorf("line 1 = %+v", lines[1])
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add(bytecode.Encode(helloProgram()))
	f.Add([]byte{0x0B, 0x64, 0x0A, 1, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{0x42, 0, 0, 0, 0, 0, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := bytecode.Decode(data)
		if err != nil {
			return
		}
		text := asm.Disassemble(s)
		got, err := asm.Assemble(text)
		if err != nil {
			t.Fatalf("Assemble(%q): %v", text, err)
		}
		if len(got) != len(s) {
			t.Fatalf("length %d, want %d", len(got), len(s))
		}
		for i := range s {
			if got[i] != s[i] {
				t.Fatalf("operand %d = %v, want %v\n%s", i, got[i], s[i], text)
			}
		}
	})
}
