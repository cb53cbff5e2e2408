package main

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/errors"
	"github.com/wippyai/tagvm/vm"
)

func TestCompileThenRead(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.tasm")
	out := filepath.Join(dir, "hello.cb")
	if err := os.WriteFile(src, []byte("func main\n  alloc r1 5\n  flush\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := compileCmd([]string{"-o", out, src}); err != nil {
		t.Fatalf("compile: %v", err)
	}
	prog, err := readProgram(out, false)
	if err != nil {
		t.Fatalf("readProgram: %v", err)
	}
	want := bytecode.NewBuilder().
		Func("main").
		Instr(bytecode.ALLOC, bytecode.Reg(1), bytecode.U64(5)).
		Instr(bytecode.FLUSH).
		Build()
	if bytecode.FormatText(prog) != bytecode.FormatText(want) {
		t.Errorf("got %v, want %v", prog, want)
	}
}

func TestCompileReportsLine(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.tasm")
	if err := os.WriteFile(src, []byte("func main\n  bogus r1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := compileCmd([]string{"-o", filepath.Join(dir, "out.cb"), src})
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.cb")); statErr == nil {
		t.Error("output written for a failed compile")
	}
}

func TestReadProgramCompact(t *testing.T) {
	prog := bytecode.NewBuilder().Instr(bytecode.PUSH, bytecode.U8(7)).Build()
	path := filepath.Join(t.TempDir(), "p.cb")
	if err := os.WriteFile(path, bytecode.EncodeCompact(prog), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := readProgram(path, true)
	if err != nil {
		t.Fatalf("readProgram: %v", err)
	}
	if len(got) != 2 || got[1] != bytecode.U8(7) {
		t.Errorf("got %v", got)
	}
}

func TestReadProgramMissing(t *testing.T) {
	_, err := readProgram(filepath.Join(t.TempDir(), "nope.cb"), false)
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want a not-exist error", err)
	}
}

func TestWriteCore(t *testing.T) {
	prog := bytecode.NewBuilder().Instr(bytecode.POP, bytecode.Reg(0)).Build()
	e := vm.New()
	if err := e.Execute(context.Background(), prog); err == nil {
		t.Fatal("expected a stack fault")
	}

	path := filepath.Join(t.TempDir(), "core")
	if err := writeCore(path, e); err != nil {
		t.Fatalf("writeCore: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	if kind, ok := errors.FaultKind(snap.Err()); !ok || kind != errors.KindStackFault {
		t.Errorf("fault kind = %v, %v", kind, ok)
	}
}
