package token

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	nl := func(line int) Token { return Token{"\n", Newline, line} }

	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			"empty",
			"",
			nil,
		},
		{
			"blank_lines",
			"\n\n  \n",
			nil,
		},
		{
			"mnemonic",
			"nop",
			[]Token{{"nop", Ident, 1}, nl(1)},
		},
		{
			"comment",
			"; header\nflush ; trailing",
			[]Token{{"flush", Ident, 2}, nl(2)},
		},
		{
			"commas",
			"add r1, 5",
			[]Token{{"add", Ident, 1}, {"r1", Ident, 1}, {"5", Number, 1}, nl(1)},
		},
		{
			"typed_immediate",
			"i8:-3 f64:2.5",
			[]Token{{"i8:-3", Ident, 1}, {"f64:2.5", Ident, 1}, nl(1)},
		},
		{
			"negative_number",
			"-42",
			[]Token{{"-42", Number, 1}, nl(1)},
		},
		{
			"hex_number",
			"0xFF",
			[]Token{{"0xFF", Number, 1}, nl(1)},
		},
		{
			"sigils",
			"*r1 ^2 ^r3 @main &0x10 !7 #0x01",
			[]Token{
				{"*", Sigil, 1}, {"r1", Ident, 1},
				{"^", Sigil, 1}, {"2", Number, 1},
				{"^", Sigil, 1}, {"r3", Ident, 1},
				{"@", Sigil, 1}, {"main", Ident, 1},
				{"&", Sigil, 1}, {"0x10", Number, 1},
				{"!", Sigil, 1}, {"7", Number, 1},
				{"#", Sigil, 1}, {"0x01", Number, 1},
				nl(1),
			},
		},
		{
			"string",
			`store r1 2 "a\"b"`,
			[]Token{{"store", Ident, 1}, {"r1", Ident, 1}, {"2", Number, 1}, {`a\"b`, String, 1}, nl(1)},
		},
		{
			"char",
			`'x'`,
			[]Token{{"x", Char, 1}, nl(1)},
		},
		{
			"lines",
			"func main\n\n  ret\n",
			[]Token{{"func", Ident, 1}, {"main", Ident, 1}, nl(1), {"ret", Ident, 3}, nl(3)},
		},
		{
			"directive",
			".raw !1",
			[]Token{{".raw", Ident, 1}, {"!", Sigil, 1}, {"1", Number, 1}, nl(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q)\n got %v\nwant %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	got := Tokenize("\"abc\nnop")
	want := []Token{{"abc", String, 1}, {"\n", Newline, 1}, {"nop", Ident, 2}, {"\n", Newline, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTypeString(t *testing.T) {
	if Sigil.String() != "sigil" || Type(99).String() != "unknown" {
		t.Error("unexpected Type names")
	}
}
