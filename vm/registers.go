package vm

import "github.com/wippyai/tagvm/errors"

// NumRegisters is the size of the register file.
const NumRegisters = 60

// Registers is the general-purpose register file.
type Registers [NumRegisters]uint64

func (r *Registers) Get(i uint64) (uint64, error) {
	if i >= NumRegisters {
		return 0, errors.OutOfBounds(errors.KindRegisterFault, "register", i, NumRegisters)
	}
	return r[i], nil
}

func (r *Registers) Set(i, v uint64) error {
	if i >= NumRegisters {
		return errors.OutOfBounds(errors.KindRegisterFault, "register", i, NumRegisters)
	}
	r[i] = v
	return nil
}

// CallStack holds return positions pushed by CALL.
type CallStack struct {
	frames []int
}

func (c *CallStack) Push(pos int) {
	c.frames = append(c.frames, pos)
}

func (c *CallStack) Pop() (int, error) {
	if len(c.frames) == 0 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindCallFault).
			Detail("return with empty call stack").Build()
	}
	pos := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return pos, nil
}

// Depth returns the number of pending returns.
func (c *CallStack) Depth() int {
	return len(c.frames)
}

// Frames returns a copy of the return positions, oldest first.
func (c *CallStack) Frames() []int {
	return append([]int(nil), c.frames...)
}
