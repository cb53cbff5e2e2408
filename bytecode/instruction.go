package bytecode

// Instruction is a statically split view of one instruction in a Stream.
type Instruction struct {
	Operands []Operand
	Pos      int
	Op       Opcode
	// Valid is false for a stray operand without an Op tag or an unknown opcode.
	Valid bool
}

// Split walks s and groups operands into instructions using the operand-shape
// tables. A STORE whose length operand is not an immediate consumes operands
// up to the next Op-tagged one. Split never fails; malformed operands come
// back as single-operand instructions with Valid unset.
func Split(s Stream) []Instruction {
	var out []Instruction
	for pos := 0; pos < len(s); {
		head := s[pos]
		info, known := Lookup(Opcode(head.Payload))
		if head.Tag != TagOp || head.Payload > 0xFF || !known {
			out = append(out, Instruction{Pos: pos, Op: Opcode(head.Payload), Operands: s[pos : pos+1]})
			pos++
			continue
		}

		end := pos + 1 + len(info.Args)
		if end > len(s) {
			end = len(s)
		}
		if info.Variadic && end == pos+1+len(info.Args) {
			count := s[end-1]
			if count.Tag.Immediate() || count.Tag == TagAddr || count.Tag == TagNoType {
				end += int(min(count.Payload, uint64(len(s)-end)))
			} else {
				for end < len(s) && s[end].Tag != TagOp {
					end++
				}
			}
		}

		out = append(out, Instruction{
			Pos:      pos,
			Op:       Opcode(head.Payload),
			Operands: s[pos+1 : end],
			Valid:    true,
		})
		pos = end
	}
	return out
}
