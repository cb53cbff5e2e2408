package vm_test

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/tagvm/errors"
	"github.com/wippyai/tagvm/vm"
)

func TestHeapFirstFit(t *testing.T) {
	h := vm.NewHeap(16)

	a, err := h.Alloc(4)
	if err != nil || a != 0 {
		t.Fatalf("Alloc(4) = %d, %v", a, err)
	}
	b, _ := h.Alloc(4)
	c, _ := h.Alloc(4)
	if b != 4 || c != 8 {
		t.Fatalf("addresses = %d, %d; want 4, 8", b, c)
	}

	if err := h.Free(b); err != nil {
		t.Fatalf("Free: %v", err)
	}
	// A 2-byte request lands in the freed gap, not after c.
	d, _ := h.Alloc(2)
	if d != 4 {
		t.Errorf("Alloc(2) after free = %d, want 4", d)
	}
	// 4 bytes no longer fit at 6, so the next fit is the tail at 12.
	e, _ := h.Alloc(4)
	if e != 12 {
		t.Errorf("Alloc(4) = %d, want 12", e)
	}

	want := []vm.Extent{{Start: 0, End: 4}, {Start: 4, End: 6}, {Start: 8, End: 12}, {Start: 12, End: 16}}
	if got := h.Extents(); !reflect.DeepEqual(got, want) {
		t.Errorf("extents = %v, want %v", got, want)
	}

	// Only the 2-byte gap at 6 is left.
	if _, err := h.Alloc(3); !stderrors.Is(err, errors.ErrMemoryFault) {
		t.Errorf("Alloc(3) with a 2-byte gap: %v", err)
	}
}

func TestHeapAllocFailures(t *testing.T) {
	tests := []struct {
		name string
		size uint64
	}{
		{"zero", 0},
		{"larger_than_heap", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := vm.NewHeap(8)
			_, err := h.Alloc(tt.size)
			if !stderrors.Is(err, errors.ErrMemoryFault) {
				t.Errorf("Alloc(%d) err = %v, want memory fault", tt.size, err)
			}
		})
	}
}

func TestHeapZeroesOnFreeAndAlloc(t *testing.T) {
	h := vm.NewHeap(4)
	a, _ := h.Alloc(4)
	for i := range uint64(4) {
		if err := h.Write(a+i, 0xAA); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := h.Free(a + 2); err != nil {
		t.Fatalf("Free inside extent: %v", err)
	}
	if got := h.Bytes(); !reflect.DeepEqual(got, []byte{0, 0, 0, 0}) {
		t.Errorf("heap after free = %v", got)
	}
	if len(h.Extents()) != 0 {
		t.Errorf("extents after free = %v", h.Extents())
	}
}

func TestHeapAccessChecks(t *testing.T) {
	h := vm.NewHeap(8)
	a, _ := h.Alloc(2)

	if err := h.Write(a+2, 1); !stderrors.Is(err, errors.ErrMemoryFault) {
		t.Errorf("write outside extent: %v", err)
	}
	if err := h.Free(5); !stderrors.Is(err, errors.ErrMemoryFault) {
		t.Errorf("free outside extent: %v", err)
	}
	if _, err := h.SizeOf(7); !stderrors.Is(err, errors.ErrMemoryFault) {
		t.Errorf("size of unallocated: %v", err)
	}
	// Reads are only checked against the heap size.
	if _, err := h.Read(7); err != nil {
		t.Errorf("read inside heap: %v", err)
	}
	if _, err := h.Read(8); !stderrors.Is(err, errors.ErrMemoryFault) {
		t.Errorf("read past heap: %v", err)
	}

	var fe *errors.Error
	if err := h.Free(5); stderrors.As(err, &fe) {
		if fe.Address == nil || *fe.Address != 5 {
			t.Errorf("fault address = %v, want 5", fe.Address)
		}
	}
}

func TestHeapRealloc(t *testing.T) {
	t.Run("grow_in_place", func(t *testing.T) {
		h := vm.NewHeap(8)
		a, _ := h.Alloc(2)
		_ = h.Write(a, 'x')
		got, err := h.Realloc(a, 6)
		if err != nil || got != a {
			t.Fatalf("Realloc = %d, %v; want %d", got, err, a)
		}
		if n, _ := h.SizeOf(a); n != 6 {
			t.Errorf("size = %d, want 6", n)
		}
		if b, _ := h.Read(a); b != 'x' {
			t.Errorf("content lost: %q", b)
		}
	})

	t.Run("shrink_in_place", func(t *testing.T) {
		h := vm.NewHeap(8)
		a, _ := h.Alloc(4)
		_ = h.Write(a+3, 9)
		got, err := h.Realloc(a, 2)
		if err != nil || got != a {
			t.Fatalf("Realloc = %d, %v", got, err)
		}
		if b, _ := h.Read(a + 3); b != 0 {
			t.Errorf("released tail not zeroed: %d", b)
		}
		if err := h.Write(a+3, 1); err == nil {
			t.Error("write to released tail should fault")
		}
	})

	t.Run("move", func(t *testing.T) {
		h := vm.NewHeap(16)
		a, _ := h.Alloc(2)
		b, _ := h.Alloc(2)
		_ = h.Write(a, 'a')
		_ = h.Write(a+1, 'b')

		got, err := h.Realloc(a, 4)
		if err != nil {
			t.Fatalf("Realloc: %v", err)
		}
		if got != 4 {
			t.Errorf("moved to %d, want 4", got)
		}
		mem := h.Bytes()
		if string(mem[got:got+2]) != "ab" || mem[got+2] != 0 {
			t.Errorf("moved contents = %q", mem[got:got+4])
		}
		if mem[a] != 0 || mem[a+1] != 0 {
			t.Error("old extent not zeroed")
		}
		want := []vm.Extent{{Start: b, End: b + 2}, {Start: 4, End: 8}}
		if !reflect.DeepEqual(h.Extents(), want) {
			t.Errorf("extents = %v, want %v", h.Extents(), want)
		}
	})

	t.Run("move_into_own_space", func(t *testing.T) {
		// [0,2) free, [2,4) live, [4,6) live: growing [2,4) to 4 bytes
		// reuses 0..3 because the old extent counts as free.
		h := vm.NewHeap(6)
		pad, _ := h.Alloc(2)
		a, _ := h.Alloc(2)
		_, _ = h.Alloc(2)
		_ = h.Free(pad)
		_ = h.Write(a, 'p')
		_ = h.Write(a+1, 'q')

		got, err := h.Realloc(a, 4)
		if err != nil || got != 0 {
			t.Fatalf("Realloc = %d, %v; want 0", got, err)
		}
		mem := h.Bytes()
		if string(mem[:4]) != "pq\x00\x00" {
			t.Errorf("contents = %q", mem[:4])
		}
	})

	t.Run("no_room", func(t *testing.T) {
		h := vm.NewHeap(4)
		a, _ := h.Alloc(2)
		_, _ = h.Alloc(2)
		if _, err := h.Realloc(a, 3); !stderrors.Is(err, errors.ErrMemoryFault) {
			t.Errorf("err = %v, want memory fault", err)
		}
		if n, _ := h.SizeOf(a); n != 2 {
			t.Errorf("failed realloc changed size to %d", n)
		}
	})

	t.Run("unallocated", func(t *testing.T) {
		h := vm.NewHeap(4)
		if _, err := h.Realloc(1, 2); !stderrors.Is(err, errors.ErrMemoryFault) {
			t.Errorf("err = %v", err)
		}
	})
}
