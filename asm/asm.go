package asm

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/wippyai/tagvm/asm/internal/token"
	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
)

var errUnknownType = stderrors.New("unknown immediate type")

// Assemble parses mnemonic text into a stream. Errors carry the source line
// as their Position.
func Assemble(source string) (bytecode.Stream, error) {
	p := &parser{
		tokens: token.Tokenize(source),
		labels: make(map[string]int),
	}
	return p.parse()
}

type fixup struct {
	name string
	pos  int
	line int
}

type parser struct {
	labels map[string]int // function name -> position of its label operand
	tokens []token.Token
	out    bytecode.Stream
	fixups []fixup
	pos    int
}

func (p *parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) expect(typ token.Type, line int) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, errors.ParseFailed(line, "unexpected end of input")
	}
	if t.Type != typ {
		return nil, errors.ParseFailed(t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *parser) parse() (bytecode.Stream, error) {
	for t := p.next(); t != nil; t = p.next() {
		if t.Type == token.Newline {
			continue
		}
		if t.Type != token.Ident {
			return nil, errors.ParseFailed(t.Line, "expected mnemonic, got %q", t.Value)
		}
		if err := p.parseLine(t); err != nil {
			return nil, err
		}
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p.out, nil
}

func (p *parser) parseLine(head *token.Token) error {
	if strings.EqualFold(head.Value, ".raw") {
		return p.parseOperands(head.Line, false)
	}
	op, ok := bytecode.LookupName(head.Value)
	if !ok {
		return errors.ParseFailed(head.Line, "unknown mnemonic %q", head.Value)
	}
	p.out = append(p.out, bytecode.Op(op))
	return p.parseOperands(head.Line, op == bytecode.FUNC)
}

// parseOperands reads operands up to the end of the line. For FUNC the first
// bare identifier declares a function name.
func (p *parser) parseOperands(line int, declares bool) error {
	first := true
	for {
		t := p.peek()
		if t == nil || t.Type == token.Newline {
			return nil
		}
		if declares && first && t.Type == token.Ident && !isOperandIdent(t.Value) {
			p.next()
			if len(t.Value) > 8 {
				return errors.ParseFailed(t.Line, "label %q longer than 8 bytes", t.Value)
			}
			if _, dup := p.labels[t.Value]; !dup {
				p.labels[t.Value] = len(p.out)
			}
			p.out = append(p.out, bytecode.Label(t.Value))
			first = false
			continue
		}
		if err := p.parseOperand(); err != nil {
			return err
		}
		first = false
	}
}

// isOperandIdent reports whether an identifier has a meaning other than a label.
func isOperandIdent(s string) bool {
	if _, ok := parseRegister(s); ok {
		return true
	}
	return strings.Contains(s, ":")
}

func (p *parser) parseOperand() error {
	t := p.next()
	switch t.Type {
	case token.Number:
		o, err := parseBare(t.Value)
		if err != nil {
			return p.wrap(t, err, "bad number %q", t.Value)
		}
		p.out = append(p.out, o)

	case token.String:
		s, err := strconv.Unquote(`"` + t.Value + `"`)
		if err != nil {
			return p.wrap(t, err, "bad string literal")
		}
		for i := 0; i < len(s); i++ {
			p.out = append(p.out, bytecode.U8(s[i]))
		}

	case token.Char:
		s, err := strconv.Unquote(`'` + t.Value + `'`)
		if err != nil {
			return p.wrap(t, err, "bad char literal")
		}
		r := []rune(s)
		if len(r) != 1 || r[0] > 0xFF {
			return errors.ParseFailed(t.Line, "char literal %q is not a single byte", t.Value)
		}
		p.out = append(p.out, bytecode.U8(byte(r[0])))

	case token.Ident:
		if n, ok := parseRegister(t.Value); ok {
			p.out = append(p.out, bytecode.Reg(n))
			return nil
		}
		if typ, value, ok := strings.Cut(t.Value, ":"); ok {
			o, err := parseTyped(typ, value)
			if err != nil {
				return p.wrap(t, err, "bad immediate %q", t.Value)
			}
			p.out = append(p.out, o)
			return nil
		}
		if len(t.Value) > 8 {
			return errors.ParseFailed(t.Line, "label %q longer than 8 bytes", t.Value)
		}
		p.out = append(p.out, bytecode.Label(t.Value))

	case token.Sigil:
		return p.parseSigil(t)

	default:
		return errors.ParseFailed(t.Line, "unexpected %v %q", t.Type, t.Value)
	}
	return nil
}

func (p *parser) parseSigil(sigil *token.Token) error {
	t := p.next()
	if t == nil || t.Type == token.Newline {
		return errors.ParseFailed(sigil.Line, "%q must be followed by a value", sigil.Value)
	}

	number := func() (uint64, error) {
		if t.Type != token.Number {
			return 0, errors.ParseFailed(t.Line, "expected number after %q, got %q", sigil.Value, t.Value)
		}
		v, err := strconv.ParseUint(t.Value, 0, 64)
		if err != nil {
			return 0, p.wrap(t, err, "bad number %q", t.Value)
		}
		return v, nil
	}
	register := func() (uint64, error) {
		n, ok := parseRegister(t.Value)
		if t.Type != token.Ident || !ok {
			return 0, errors.ParseFailed(t.Line, "expected register after %q, got %q", sigil.Value, t.Value)
		}
		return n, nil
	}

	var o bytecode.Operand
	var err error
	var v uint64
	switch sigil.Value {
	case "*":
		v, err = register()
		o = bytecode.DerefHeapReg(v)
	case "^":
		if t.Type == token.Ident {
			v, err = register()
			o = bytecode.DerefStackReg(v)
		} else {
			v, err = number()
			o = bytecode.DerefStack(v)
		}
	case "@":
		if t.Type == token.Ident {
			p.fixups = append(p.fixups, fixup{name: t.Value, pos: len(p.out), line: t.Line})
			o = bytecode.Func(0)
		} else {
			v, err = number()
			o = bytecode.Func(v)
		}
	case "&":
		v, err = number()
		o = bytecode.Addr(v)
	case "!":
		v, err = number()
		o = bytecode.Operand{Tag: bytecode.TagNoType, Payload: v}
	case "#":
		if t.Type == token.Ident {
			op, ok := bytecode.LookupName(t.Value)
			if !ok {
				return errors.ParseFailed(t.Line, "unknown mnemonic %q", t.Value)
			}
			o = bytecode.Op(op)
		} else {
			v, err = number()
			o = bytecode.Operand{Tag: bytecode.TagOp, Payload: v}
		}
	}
	if err != nil {
		return err
	}
	p.out = append(p.out, o)
	return nil
}

// resolve patches @name references with jump table indices. Indices follow
// the table the engine builds at load time, so they match what CALL sees.
func (p *parser) resolve() error {
	if len(p.fixups) == 0 {
		return nil
	}
	index := make(map[int]uint64)
	for i, target := range bytecode.FunctionTable(p.out) {
		index[target-1] = uint64(i)
	}
	for _, f := range p.fixups {
		labelPos, ok := p.labels[f.name]
		if !ok {
			return errors.New(errors.PhaseParse, errors.KindNotFound).
				Position(f.line).Detail("function %q is not declared", f.name).Build()
		}
		idx, ok := index[labelPos]
		if !ok {
			return errors.New(errors.PhaseParse, errors.KindNotFound).
				Position(f.line).Detail("function %q has no jump table entry", f.name).Build()
		}
		p.out[f.pos].Payload = idx
	}
	return nil
}

func (p *parser) wrap(t *token.Token, err error, detail string, args ...any) error {
	return errors.New(errors.PhaseParse, errors.KindInvalidInput).
		Position(t.Line).Cause(err).Detail(detail, args...).Build()
}
