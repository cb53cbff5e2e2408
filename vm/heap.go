package vm

import (
	"slices"

	"github.com/wippyai/tagvm/errors"
)

// DefaultHeapSize is the heap size used when none is configured.
const DefaultHeapSize = 8192

// Extent is a live allocation covering [Start, End).
type Extent struct {
	Start uint64 `cbor:"1,keyasint"`
	End   uint64 `cbor:"2,keyasint"`
}

// Size returns the number of bytes covered.
func (e Extent) Size() uint64 {
	return e.End - e.Start
}

// Contains reports whether addr lies inside the extent.
func (e Extent) Contains(addr uint64) bool {
	return addr >= e.Start && addr < e.End
}

// Heap is a fixed-size byte region with first-fit allocation. Extents are
// disjoint and kept sorted by start address, so the gaps between them are
// exactly the free space.
type Heap struct {
	mem     []byte
	extents []Extent
}

// NewHeap creates a zeroed heap of size bytes.
func NewHeap(size int) *Heap {
	return &Heap{mem: make([]byte, size)}
}

// Size returns the heap capacity in bytes.
func (h *Heap) Size() int {
	return len(h.mem)
}

// Extents returns a copy of the live extents in address order.
func (h *Heap) Extents() []Extent {
	return slices.Clone(h.extents)
}

// Bytes returns a copy of the heap contents.
func (h *Heap) Bytes() []byte {
	return slices.Clone(h.mem)
}

// Alloc reserves size bytes in the lowest gap that fits and returns its
// start address. The bytes are zeroed.
func (h *Heap) Alloc(size uint64) (uint64, error) {
	if size == 0 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindMemoryFault).
			Value(size).Detail("zero-size allocation").Build()
	}
	start, i, ok := h.fit(size, -1)
	if !ok {
		return 0, errors.AllocationFailed(size, uint64(len(h.mem)))
	}
	h.extents = slices.Insert(h.extents, i, Extent{Start: start, End: start + size})
	clear(h.mem[start : start+size])
	return start, nil
}

// fit finds the first gap of at least size bytes, ignoring the extent at
// index skip. It returns the gap start and the insertion index.
func (h *Heap) fit(size uint64, skip int) (start uint64, index int, ok bool) {
	capacity := uint64(len(h.mem))
	if size > capacity {
		return 0, 0, false
	}
	var cursor uint64
	for i, e := range h.extents {
		if i == skip {
			continue
		}
		if e.Start-cursor >= size {
			return cursor, i, true
		}
		cursor = e.End
	}
	if capacity-cursor >= size {
		return cursor, len(h.extents), true
	}
	return 0, 0, false
}

// find returns the index of the extent containing addr.
func (h *Heap) find(addr uint64) (int, bool) {
	i, found := slices.BinarySearchFunc(h.extents, addr, func(e Extent, a uint64) int {
		switch {
		case e.End <= a:
			return -1
		case e.Start > a:
			return 1
		}
		return 0
	})
	return i, found
}

// Free releases the extent containing addr and zeroes its bytes.
func (h *Heap) Free(addr uint64) error {
	i, ok := h.find(addr)
	if !ok {
		return errors.MemoryFault(addr, "free of unallocated address")
	}
	e := h.extents[i]
	clear(h.mem[e.Start:e.End])
	h.extents = slices.Delete(h.extents, i, i+1)
	return nil
}

// SizeOf returns the size of the extent containing addr.
func (h *Heap) SizeOf(addr uint64) (uint64, error) {
	i, ok := h.find(addr)
	if !ok {
		return 0, errors.MemoryFault(addr, "size query of unallocated address")
	}
	return h.extents[i].Size(), nil
}

// Realloc resizes the extent containing addr to size bytes. It grows or
// shrinks in place when the following gap allows, otherwise it allocates a
// new extent, copies the contents and frees the old one. The returned
// address is the start of the resulting extent.
func (h *Heap) Realloc(addr, size uint64) (uint64, error) {
	i, ok := h.find(addr)
	if !ok {
		return 0, errors.MemoryFault(addr, "realloc of unallocated address")
	}
	if size == 0 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindMemoryFault).
			Address(addr).Value(size).Detail("zero-size reallocation").Build()
	}

	e := h.extents[i]
	limit := uint64(len(h.mem))
	if i+1 < len(h.extents) {
		limit = h.extents[i+1].Start
	}
	if size <= limit-e.Start {
		end := e.Start + size
		if end < e.End {
			clear(h.mem[end:e.End])
		} else {
			clear(h.mem[e.End:end])
		}
		h.extents[i].End = end
		return e.Start, nil
	}

	// The old extent counts as free space, so the new one may overlap it.
	start, j, ok := h.fit(size, i)
	if !ok {
		return 0, errors.AllocationFailed(size, uint64(len(h.mem)))
	}
	data := slices.Clone(h.mem[e.Start:e.End])
	clear(h.mem[e.Start:e.End])
	clear(h.mem[start : start+size])
	copy(h.mem[start:], data)

	h.extents = slices.Delete(h.extents, i, i+1)
	if j > i {
		j--
	}
	h.extents = slices.Insert(h.extents, j, Extent{Start: start, End: start + size})
	return start, nil
}

// Read returns the byte at addr. Reads are only checked against the heap
// size, not against live extents.
func (h *Heap) Read(addr uint64) (byte, error) {
	if addr >= uint64(len(h.mem)) {
		return 0, errors.MemoryFault(addr, "read past end of heap")
	}
	return h.mem[addr], nil
}

// Write stores b at addr, which must lie inside a live extent.
func (h *Heap) Write(addr uint64, b byte) error {
	if _, ok := h.find(addr); !ok {
		return errors.MemoryFault(addr, "write to unallocated address")
	}
	h.mem[addr] = b
	return nil
}
