package vm_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/vm"
)

func TestTraceLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	vm.SetLogger(zap.New(core))
	t.Cleanup(func() { vm.SetLogger(zap.NewNop()) })

	s := bytecode.NewBuilder().
		Instr(bytecode.ADD, bytecode.U8(1), bytecode.U8(2)).
		Instr(bytecode.NOP).
		Build()
	mustRun(t, s, vm.WithTrace(true))

	execs := logs.FilterMessage("exec").All()
	if len(execs) != 2 {
		t.Fatalf("got %d exec entries, want 2", len(execs))
	}
	fields := execs[0].ContextMap()
	if fields["op"] != "ADD" || fields["acc"] != uint64(3) {
		t.Errorf("first exec fields = %v", fields)
	}
	if logs.FilterMessage("run halted").Len() != 1 {
		t.Error("missing halt entry")
	}
}

func TestFaultLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	vm.SetLogger(zap.New(core))
	t.Cleanup(func() { vm.SetLogger(zap.NewNop()) })

	run(t, bytecode.NewBuilder().Instr(bytecode.RET).Build())

	entries := logs.FilterMessage("run faulted").All()
	if len(entries) != 1 {
		t.Fatalf("got %d fault entries, want 1", len(entries))
	}
	if entries[0].ContextMap()["kind"] != "call_fault" {
		t.Errorf("fault fields = %v", entries[0].ContextMap())
	}
	if logs.FilterMessage("exec").Len() != 0 {
		t.Error("trace entries logged without WithTrace")
	}
}
