package bytecode

// Stream is an ordered instruction stream. Positions are indices into the
// slice, not memory addresses.
type Stream []Operand

// Len returns the number of operands.
func (s Stream) Len() int {
	return len(s)
}

// FunctionTable scans s in order and returns, for every FUNC marker followed
// by a Func-tagged label, the position right after the label. Index i of the
// result is function i.
func FunctionTable(s Stream) []int {
	var table []int
	for i := 0; i+1 < len(s); i++ {
		if s[i].Tag == TagOp && s[i].Payload == uint64(FUNC) && s[i+1].Tag == TagFunc {
			table = append(table, i+2)
			i++
		}
	}
	return table
}

// Builder assembles a Stream operand by operand.
type Builder struct {
	ops []Operand
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends operands as-is.
func (b *Builder) Emit(ops ...Operand) *Builder {
	b.ops = append(b.ops, ops...)
	return b
}

// EmitStream appends every operand of s.
func (b *Builder) EmitStream(s Stream) *Builder {
	b.ops = append(b.ops, s...)
	return b
}

// Instr appends an opcode followed by its operands.
func (b *Builder) Instr(op Opcode, args ...Operand) *Builder {
	b.ops = append(b.ops, Op(op))
	b.ops = append(b.ops, args...)
	return b
}

// Func appends a FUNC marker with a label packed from name.
func (b *Builder) Func(name string) *Builder {
	return b.Instr(FUNC, Label(name))
}

// Bytes appends one U8 operand per byte, the shape STORE expects for data.
func (b *Builder) Bytes(data []byte) *Builder {
	for _, c := range data {
		b.ops = append(b.ops, U8(c))
	}
	return b
}

// Text is Bytes for a string.
func (b *Builder) Text(s string) *Builder {
	return b.Bytes([]byte(s))
}

// Len returns the current position, which is where the next operand lands.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Build returns a copy of the assembled stream.
func (b *Builder) Build() Stream {
	out := make(Stream, len(b.ops))
	copy(out, b.ops)
	return out
}
