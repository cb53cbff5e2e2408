package token

import (
	"unicode"
)

type Type int

const (
	Newline Type = iota
	Ident
	Number
	String
	Char
	Sigil
)

func (t Type) String() string {
	switch t {
	case Newline:
		return "newline"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	case Char:
		return "char"
	case Sigil:
		return "sigil"
	}
	return "unknown"
}

// Sigils prefix an operand and select its tag.
const sigils = "*^@&!#"

type Token struct {
	Value string
	Type  Type
	Line  int
}

// Tokenize splits mnemonic source into tokens. Commas are separators like
// whitespace; ';' starts a comment that runs to the end of the line. A
// Newline token ends every non-empty line.
func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	runes := []rune(input)

	endLine := func() {
		if len(tokens) > 0 && tokens[len(tokens)-1].Type != Newline {
			tokens = append(tokens, Token{"\n", Newline, line})
		}
		line++
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			endLine()
			continue
		}
		if unicode.IsSpace(r) || r == ',' {
			continue
		}

		// Line comment
		if r == ';' {
			for i+1 < len(runes) && runes[i+1] != '\n' {
				i++
			}
			continue
		}

		if r == '"' || r == '\'' {
			quote := r
			start := i + 1
			i++
			for i < len(runes) && runes[i] != quote && runes[i] != '\n' {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			end := min(i, len(runes))
			typ := String
			if quote == '\'' {
				typ = Char
			}
			tokens = append(tokens, Token{string(runes[start:end]), typ, line})
			if i < len(runes) && runes[i] == '\n' {
				i--
			}
			continue
		}

		if containsRune(sigils, r) {
			tokens = append(tokens, Token{string(r), Sigil, line})
			continue
		}

		// Number, including a leading sign and 0x/0b prefixes
		if unicode.IsDigit(r) || ((r == '-' || r == '+') && i+1 < len(runes) && unicode.IsDigit(runes[i+1])) {
			start := i
			i++
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		// Identifier (mnemonics, registers, labels, directives and type:value forms)
		if unicode.IsLetter(r) || r == '_' || r == '.' {
			start := i
			for i < len(runes) {
				c := runes[i]
				if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == ':' || c == '-' || c == '+' {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		// Anything else is kept as a one-rune identifier so the parser can
		// report it with its line.
		tokens = append(tokens, Token{string(r), Ident, line})
	}
	if len(tokens) > 0 && tokens[len(tokens)-1].Type != Newline {
		tokens = append(tokens, Token{"\n", Newline, line})
	}

	return tokens
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
