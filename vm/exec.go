package vm

import (
	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
)

// exec runs one instruction whose opcode has been consumed. Operands are
// fetched in the order of the opcode's shape.
func (e *Engine) exec(op bytecode.Opcode) error {
	switch op {
	case bytecode.NOP:
		return nil

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.AND, bytecode.OR, bytecode.XOR,
		bytecode.EQ, bytecode.NEQ, bytecode.LT, bytecode.GT:
		l, err := e.typed()
		if err != nil {
			return err
		}
		r, err := e.typed()
		if err != nil {
			return err
		}
		v, err := alu(op, l, r)
		if err != nil {
			return err
		}
		e.acc = v
		return nil

	case bytecode.NOT:
		d, err := e.dest()
		if err != nil {
			return err
		}
		v, err := e.regs.Get(d)
		if err != nil {
			return err
		}
		return e.regs.Set(d, ^v)

	case bytecode.PUSH:
		v, err := e.typed()
		if err != nil {
			return err
		}
		return e.stack.Push(byte(v))

	case bytecode.POP:
		d, err := e.dest()
		if err != nil {
			return err
		}
		b, err := e.stack.Pop()
		if err != nil {
			return err
		}
		return e.regs.Set(d, uint64(b))

	case bytecode.DUP:
		return e.stack.Dup()

	case bytecode.SWAP:
		return e.stack.Swap()

	case bytecode.DROP:
		_, err := e.stack.Pop()
		return err

	case bytecode.JMP:
		v, err := e.typed()
		if err != nil {
			return err
		}
		e.jump(v)
		return nil

	case bytecode.JZ, bytecode.JNZ:
		pos, err := e.function()
		if err != nil {
			return err
		}
		if (e.acc == 0) == (op == bytecode.JZ) {
			e.ip = pos
		}
		return nil

	case bytecode.CALL:
		pos, err := e.function()
		if err != nil {
			return err
		}
		e.calls.Push(e.ip)
		e.ip = pos
		return nil

	case bytecode.RET:
		pos, err := e.calls.Pop()
		if err != nil {
			return err
		}
		e.ip = pos
		return nil

	case bytecode.FUNC:
		if _, err := e.untyped(); err != nil {
			return err
		}
		e.register(e.ip)
		return nil

	case bytecode.LOAD:
		d, err := e.dest()
		if err != nil {
			return err
		}
		addr, err := e.typed()
		if err != nil {
			return err
		}
		b, err := e.heap.Read(addr)
		if err != nil {
			return err
		}
		return e.regs.Set(d, uint64(b))

	case bytecode.STORE:
		return e.store()

	case bytecode.WRITE:
		addr, n, err := e.pair()
		if err != nil {
			return err
		}
		if n > uint64(e.heap.Size()) {
			return errors.MemoryFault(addr, "write length exceeds heap size")
		}
		buf := make([]byte, 0, n)
		for i := range n {
			b, err := e.heap.Read(addr + i)
			if err != nil {
				return err
			}
			buf = append(buf, b)
		}
		e.io.Write(buf)
		return nil

	case bytecode.READ:
		addr, n, err := e.pair()
		if err != nil {
			return err
		}
		p, err := e.io.Read(n)
		if err != nil {
			return err
		}
		for i, b := range p {
			if err := e.heap.Write(addr+uint64(i), b); err != nil {
				return err
			}
		}
		return nil

	case bytecode.FLUSH:
		return e.io.Flush()

	case bytecode.MOV:
		d, err := e.dest()
		if err != nil {
			return err
		}
		v, err := e.typed()
		if err != nil {
			return err
		}
		return e.regs.Set(d, v)

	case bytecode.INC:
		return e.step(1)

	case bytecode.DEC:
		return e.step(^uint64(0))

	case bytecode.ALLOC:
		d, err := e.dest()
		if err != nil {
			return err
		}
		n, err := e.typed()
		if err != nil {
			return err
		}
		addr, err := e.heap.Alloc(n)
		if err != nil {
			return err
		}
		return e.regs.Set(d, addr)

	case bytecode.FREE:
		addr, err := e.typed()
		if err != nil {
			return err
		}
		return e.heap.Free(addr)

	case bytecode.REALLOC:
		d, err := e.dest()
		if err != nil {
			return err
		}
		n, err := e.typed()
		if err != nil {
			return err
		}
		addr, err := e.regs.Get(d)
		if err != nil {
			return err
		}
		moved, err := e.heap.Realloc(addr, n)
		if err != nil {
			return err
		}
		return e.regs.Set(d, moved)

	case bytecode.SIZEOF:
		d, err := e.dest()
		if err != nil {
			return err
		}
		addr, err := e.typed()
		if err != nil {
			return err
		}
		n, err := e.heap.SizeOf(addr)
		if err != nil {
			return err
		}
		return e.regs.Set(d, n)

	case bytecode.WRACC:
		v, err := e.typed()
		if err != nil {
			return err
		}
		e.acc = v
		return nil

	case bytecode.REACC:
		d, err := e.dest()
		if err != nil {
			return err
		}
		return e.regs.Set(d, e.acc)
	}

	return errors.InvalidOpcode(e.ip-1, uint64(op))
}

func alu(op bytecode.Opcode, l, r uint64) (uint64, error) {
	switch op {
	case bytecode.ADD:
		return l + r, nil
	case bytecode.SUB:
		return uint64(int64(l) - int64(r)), nil
	case bytecode.MUL:
		return l * r, nil
	case bytecode.DIV:
		if r == 0 {
			return 0, errors.DivisionByZero(op.String())
		}
		return l / r, nil
	case bytecode.MOD:
		if r == 0 {
			return 0, errors.DivisionByZero(op.String())
		}
		return l % r, nil
	case bytecode.AND:
		return l & r, nil
	case bytecode.OR:
		return l | r, nil
	case bytecode.XOR:
		return l ^ r, nil
	case bytecode.EQ:
		return flag(l == r), nil
	case bytecode.NEQ:
		return flag(l != r), nil
	case bytecode.LT:
		return flag(l < r), nil
	case bytecode.GT:
		return flag(l > r), nil
	}
	return 0, errors.InvalidInput(errors.PhaseRuntime, "not an arithmetic opcode: "+op.String())
}

func flag(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// jump moves the pointer to an absolute position. Targets past the end halt.
func (e *Engine) jump(v uint64) {
	if v >= uint64(len(e.program)) {
		e.ip = len(e.program)
		return
	}
	e.ip = int(v)
}

// register appends pos to the jump table unless it is already there.
func (e *Engine) register(pos int) {
	for _, p := range e.jumps {
		if p == pos {
			return
		}
	}
	e.jumps = append(e.jumps, pos)
}

// pair fetches two typed operands, an address and a length.
func (e *Engine) pair() (addr, n uint64, err error) {
	if addr, err = e.typed(); err != nil {
		return 0, 0, err
	}
	if n, err = e.typed(); err != nil {
		return 0, 0, err
	}
	return addr, n, nil
}

// store writes the N data operands that follow the address and length.
func (e *Engine) store() error {
	addr, n, err := e.pair()
	if err != nil {
		return err
	}
	for i := range n {
		v, err := e.typed()
		if err != nil {
			return err
		}
		if err := e.heap.Write(addr+i, byte(v)); err != nil {
			return err
		}
	}
	return nil
}

// step adds delta to a register when the operand is Reg-tagged, otherwise
// to the heap byte at the resolved address.
func (e *Engine) step(delta uint64) error {
	o, err := e.fetch()
	if err != nil {
		return err
	}
	if o.Tag == bytecode.TagReg {
		v, err := e.regs.Get(o.Payload)
		if err != nil {
			return err
		}
		return e.regs.Set(o.Payload, v+delta)
	}
	addr, err := e.resolve(o)
	if err != nil {
		return err
	}
	b, err := e.heap.Read(addr)
	if err != nil {
		return err
	}
	return e.heap.Write(addr, b+byte(delta))
}
