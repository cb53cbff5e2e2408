package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a copy of the machine state, written as a core dump when a
// run faults.
type Snapshot struct {
	Fault     *FaultRecord `cbor:"1,keyasint,omitempty"`
	State     string       `cbor:"2,keyasint"`
	Program   []byte       `cbor:"3,keyasint"` // canonical binary encoding
	Registers []uint64     `cbor:"4,keyasint"`
	Stack     []byte       `cbor:"5,keyasint,omitempty"`
	Calls     []int        `cbor:"6,keyasint,omitempty"`
	Jumps     []int        `cbor:"7,keyasint,omitempty"`
	Extents   []Extent     `cbor:"8,keyasint,omitempty"`
	Heap      []byte       `cbor:"9,keyasint"`
	Out       []byte       `cbor:"10,keyasint,omitempty"`
	IP        int          `cbor:"11,keyasint"`
	Acc       uint64       `cbor:"12,keyasint"`
	Steps     uint64       `cbor:"13,keyasint"`
}

// FaultRecord is the serializable form of a runtime fault.
type FaultRecord struct {
	Address  *uint64 `cbor:"1,keyasint,omitempty"`
	Phase    string  `cbor:"2,keyasint"`
	Kind     string  `cbor:"3,keyasint"`
	Opcode   string  `cbor:"4,keyasint,omitempty"`
	Detail   string  `cbor:"5,keyasint,omitempty"`
	Position int     `cbor:"6,keyasint"`
}

// Snapshot captures the current machine state.
func (e *Engine) Snapshot() *Snapshot {
	s := &Snapshot{
		State:     e.state.String(),
		Program:   bytecode.Encode(e.program),
		Registers: append([]uint64(nil), e.regs[:]...),
		Stack:     e.stack.Bytes(),
		Calls:     e.calls.Frames(),
		Jumps:     e.JumpTable(),
		Extents:   e.heap.Extents(),
		Heap:      e.heap.Bytes(),
		Out:       e.io.Out(),
		IP:        e.ip,
		Acc:       e.acc,
		Steps:     e.steps,
	}
	if f := e.fault; f != nil {
		s.Fault = &FaultRecord{
			Address:  f.Address,
			Phase:    string(f.Phase),
			Kind:     string(f.Kind),
			Opcode:   f.Opcode,
			Detail:   f.Detail,
			Position: f.Position,
		}
	}
	return s
}

// Err rebuilds the recorded fault, or returns nil for a clean snapshot.
func (s *Snapshot) Err() error {
	if s.Fault == nil {
		return nil
	}
	return &errors.Error{
		Address:  s.Fault.Address,
		Phase:    errors.Phase(s.Fault.Phase),
		Kind:     errors.Kind(s.Fault.Kind),
		Opcode:   s.Fault.Opcode,
		Detail:   s.Fault.Detail,
		Position: s.Fault.Position,
	}
}

// Stream decodes the program recorded in the snapshot.
func (s *Snapshot) Stream() (bytecode.Stream, error) {
	return bytecode.Decode(s.Program)
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, errors.Load("unmarshal snapshot", err)
	}
	return &s, nil
}
