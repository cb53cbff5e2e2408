package vm_test

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
	"github.com/wippyai/tagvm/vm"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := bytecode.NewBuilder().
		Func("main").
		Instr(bytecode.PUSH, bytecode.U8(3)).
		Instr(bytecode.ALLOC, bytecode.Reg(1), bytecode.U64(5)).
		Instr(bytecode.ALLOC, bytecode.Reg(2), bytecode.U64(5)).
		Build()

	e, err := run(t, s, vm.WithHeapSize(8))
	if err == nil {
		t.Fatal("expected fault")
	}

	data, err := vm.MarshalSnapshot(e.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	again, err := vm.MarshalSnapshot(e.Snapshot())
	if err != nil || !bytes.Equal(data, again) {
		t.Error("snapshot encoding is not deterministic")
	}

	snap, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	if snap.State != "faulted" || snap.IP != 7 || snap.Steps != 4 {
		t.Errorf("state/ip/steps = %s/%d/%d", snap.State, snap.IP, snap.Steps)
	}
	if len(snap.Registers) != vm.NumRegisters || len(snap.Heap) != 8 {
		t.Errorf("registers %d, heap %d", len(snap.Registers), len(snap.Heap))
	}
	if !reflect.DeepEqual(snap.Stack, []byte{3}) {
		t.Errorf("stack = %v", snap.Stack)
	}
	if !reflect.DeepEqual(snap.Extents, []vm.Extent{{Start: 0, End: 5}}) {
		t.Errorf("extents = %v", snap.Extents)
	}

	prog, err := snap.Stream()
	if err != nil || !reflect.DeepEqual(prog, s) {
		t.Errorf("program = %v, %v", prog, err)
	}

	ferr := snap.Err()
	if !stderrors.Is(ferr, errors.ErrMemoryFault) {
		t.Fatalf("recorded fault = %v", ferr)
	}
	var fe *errors.Error
	if stderrors.As(ferr, &fe) && (fe.Position != 7 || fe.Opcode != "ALLOC") {
		t.Errorf("recorded fault at %d (%s)", fe.Position, fe.Opcode)
	}
}

func TestSnapshotClean(t *testing.T) {
	e := mustRun(t, bytecode.NewBuilder().Instr(bytecode.NOP).Build())
	snap := e.Snapshot()
	if snap.Err() != nil || snap.State != "halted" {
		t.Errorf("clean snapshot: %s, %v", snap.State, snap.Err())
	}
}

func TestUnmarshalSnapshotGarbage(t *testing.T) {
	_, err := vm.UnmarshalSnapshot([]byte{0xFF, 0x00})
	kind, ok := errors.FaultKind(err)
	if !ok || kind != errors.KindInvalidInput {
		t.Errorf("err = %v", err)
	}
}
