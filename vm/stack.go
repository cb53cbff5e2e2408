package vm

import (
	"slices"

	"github.com/wippyai/tagvm/errors"
)

// DefaultStackSize is the stack capacity used when none is configured.
const DefaultStackSize = 8192

// Stack is a fixed-capacity byte stack. ptr is the next free slot.
type Stack struct {
	mem []byte
	ptr int
}

// NewStack creates an empty stack holding at most capacity bytes.
func NewStack(capacity int) *Stack {
	return &Stack{mem: make([]byte, capacity)}
}

// Len returns the number of bytes on the stack.
func (s *Stack) Len() int { return s.ptr }

// Cap returns the stack capacity.
func (s *Stack) Cap() int { return len(s.mem) }

// Bytes returns a copy of the live stack, bottom first.
func (s *Stack) Bytes() []byte {
	return slices.Clone(s.mem[:s.ptr])
}

func (s *Stack) Push(b byte) error {
	if s.ptr >= len(s.mem) {
		return errors.StackFault("stack overflow (capacity %d)", len(s.mem))
	}
	s.mem[s.ptr] = b
	s.ptr++
	return nil
}

func (s *Stack) Pop() (byte, error) {
	if s.ptr == 0 {
		return 0, errors.StackFault("pop from empty stack")
	}
	s.ptr--
	b := s.mem[s.ptr]
	s.mem[s.ptr] = 0
	return b, nil
}

// Peek returns the top byte without removing it.
func (s *Stack) Peek() (byte, error) {
	return s.Get(1)
}

// Dup pushes a copy of the top byte.
func (s *Stack) Dup() error {
	b, err := s.Peek()
	if err != nil {
		return err
	}
	return s.Push(b)
}

// Swap exchanges the top two bytes.
func (s *Stack) Swap() error {
	if s.ptr < 2 {
		return errors.StackFault("swap needs two bytes, stack has %d", s.ptr)
	}
	s.mem[s.ptr-1], s.mem[s.ptr-2] = s.mem[s.ptr-2], s.mem[s.ptr-1]
	return nil
}

// Get returns the byte offset slots below the pointer; offset 1 is the top.
func (s *Stack) Get(offset uint64) (byte, error) {
	if offset == 0 || offset > uint64(s.ptr) {
		return 0, errors.StackFault("depth %d outside stack of %d bytes", offset, s.ptr)
	}
	return s.mem[uint64(s.ptr)-offset], nil
}
