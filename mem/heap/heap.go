// First-fit boundary-tagged heap allocator
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package heap implements the kernel's general-purpose allocator: a
// single contiguous range of boundary-tagged blocks, first-fit allocation,
// coalescing free, aligned allocation, and realloc (spec.md §3, §4.5,
// §8). It is bootstrapped over a region chosen by SelectRegion from the
// Multiboot memory map.
//
// The allocator owns a raw byte range (Heap.mem). In production this
// slice is built with unsafe over the physical address SelectRegion
// picked, the same "view a fixed address range as a Go slice" technique
// the DMA descriptor allocator uses (see dma.Region); in tests it is an
// ordinary Go-allocated []byte, which exercises identical logic.
package heap

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

// Magic identifies a live block header; Free() rejects any header whose
// magic does not match (spec.md §4.5, §7 "Invalid free").
const Magic = 0x4b484150 // "KHAP"

// Align is the compile-time allocation alignment (spec.md §4.5).
const Align = 16

// headerSize is the in-memory size of a blockHeader.
const headerSize = 20

// sentinel marks the ends of the address-ordered chain.
const sentinel = 0xffffffff

var (
	ErrCorrupt  = errors.New("heap: corrupt block header")
	ErrTooSmall = errors.New("heap: region smaller than one header")
)

// blockHeader is the boundary tag preceding every block, header-inclusive
// in Size (spec.md §3). Next/Prev are byte offsets from the start of
// Heap.mem, not pointers, so the allocator works identically whether mem
// is backed by real physical memory or a test slice.
type blockHeader struct {
	Magic uint32
	Size  uint32
	Free  uint32
	Next  uint32
	Prev  uint32
}

func (h *blockHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Size)
	binary.LittleEndian.PutUint32(buf[8:12], h.Free)
	binary.LittleEndian.PutUint32(buf[12:16], h.Next)
	binary.LittleEndian.PutUint32(buf[16:20], h.Prev)
}

func decodeHeader(buf []byte) blockHeader {
	return blockHeader{
		Magic: binary.LittleEndian.Uint32(buf[0:4]),
		Size:  binary.LittleEndian.Uint32(buf[4:8]),
		Free:  binary.LittleEndian.Uint32(buf[8:12]),
		Next:  binary.LittleEndian.Uint32(buf[12:16]),
		Prev:  binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// Heap is a single contiguous boundary-tagged free-store.
type Heap struct {
	mem []byte
}

// New bootstraps a heap over mem, which must be at least one header plus
// Align bytes. The entire range starts as a single free block.
func New(mem []byte) (*Heap, error) {
	if len(mem) < headerSize+Align {
		return nil, ErrTooSmall
	}

	h := &Heap{mem: mem}

	hdr := blockHeader{
		Magic: Magic,
		Size:  uint32(len(mem)),
		Free:  1,
		Next:  sentinel,
		Prev:  sentinel,
	}
	hdr.encode(h.mem)

	return h, nil
}

// Size returns the total heap size in bytes.
func (h *Heap) Size() int {
	return len(h.mem)
}

func (h *Heap) headerAt(off uint32) blockHeader {
	return decodeHeader(h.mem[off:])
}

func (h *Heap) putHeader(off uint32, hdr blockHeader) {
	hdr.encode(h.mem[off:])
}

// Alloc returns a byte slice of at least size bytes, or nil if no block
// is large enough (or size is zero — spec.md §8 "Allocation of size 0
// returns null"). First-fit from the head of the address-ordered chain;
// a fitting block larger than the request (plus header and alignment
// slop) is split in place (spec.md §4.5).
func (h *Heap) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}

	need := alignUp32(uint32(size)+headerSize, Align)

	off := uint32(0)
	for {
		hdr := h.headerAt(off)

		if hdr.Free == 1 && hdr.Size >= need {
			h.splitAndUse(off, hdr, need)
			return h.mem[off+headerSize : off+headerSize+uint32(size)]
		}

		if hdr.Next == sentinel {
			break
		}
		off = hdr.Next
	}

	return nil
}

// splitAndUse marks the block at off in-use, splitting off a trailing
// free block if the remainder is large enough to hold a header
// (spec.md §8 "a residual smaller than one header is not split").
func (h *Heap) splitAndUse(off uint32, hdr blockHeader, need uint32) {
	remainder := hdr.Size - need

	if remainder >= headerSize+Align {
		newOff := off + need

		newHdr := blockHeader{
			Magic: Magic,
			Size:  remainder,
			Free:  1,
			Next:  hdr.Next,
			Prev:  off,
		}
		h.putHeader(newOff, newHdr)

		if hdr.Next != sentinel {
			next := h.headerAt(hdr.Next)
			next.Prev = newOff
			h.putHeader(hdr.Next, next)
		}

		hdr.Size = need
		hdr.Next = newOff
	}

	hdr.Free = 0
	h.putHeader(off, hdr)
}

// Free marks the block that owns buf as free and merges it with an
// adjacent free predecessor and/or successor. Headers with a corrupt
// magic are rejected (logged and ignored at the caller's discretion, per
// spec.md §7); Free reports this via the returned error.
func (h *Heap) Free(buf []byte) error {
	off, err := h.offsetOf(buf)
	if err != nil {
		return err
	}

	return h.freeAt(off)
}

func (h *Heap) freeAt(off uint32) error {
	hdr := h.headerAt(off)
	if hdr.Magic != Magic {
		return ErrCorrupt
	}

	hdr.Free = 1
	h.putHeader(off, hdr)

	h.coalesce(off)

	return nil
}

// memOffset returns the absolute byte offset of buf[0] within h.mem.
func (h *Heap) memOffset(buf []byte) (int, error) {
	if len(h.mem) == 0 || len(buf) == 0 {
		return 0, ErrCorrupt
	}

	base := uintptr(unsafe.Pointer(&h.mem[0]))
	addr := uintptr(unsafe.Pointer(&buf[0]))

	if addr < base {
		return 0, ErrCorrupt
	}

	off := int(addr - base)
	if off >= len(h.mem) {
		return 0, ErrCorrupt
	}

	return off, nil
}

// offsetOf returns the header offset of the block that owns buf, where
// buf is a data slice returned directly by Alloc/Realloc (its first byte
// is exactly headerSize past the header).
func (h *Heap) offsetOf(buf []byte) (uint32, error) {
	memOff, err := h.memOffset(buf)
	if err != nil {
		return 0, err
	}

	off := memOff - headerSize
	if off < 0 || off >= len(h.mem) {
		return 0, ErrCorrupt
	}

	return uint32(off), nil
}

// coalesce merges the block at off with its free neighbors in either
// direction (spec.md §4.5, §8: "no two adjacent blocks are both free").
func (h *Heap) coalesce(off uint32) {
	hdr := h.headerAt(off)

	// merge with successor
	if hdr.Next != sentinel {
		next := h.headerAt(hdr.Next)
		if next.Free == 1 {
			hdr.Size += next.Size
			hdr.Next = next.Next
			if next.Next != sentinel {
				nn := h.headerAt(next.Next)
				nn.Prev = off
				h.putHeader(next.Next, nn)
			}
			h.putHeader(off, hdr)
		}
	}

	// merge with predecessor
	if hdr.Prev != sentinel {
		prev := h.headerAt(hdr.Prev)
		if prev.Free == 1 {
			prev.Size += hdr.Size
			prev.Next = hdr.Next
			if hdr.Next != sentinel {
				n := h.headerAt(hdr.Next)
				n.Prev = hdr.Prev
				h.putHeader(hdr.Next, n)
			}
			h.putHeader(hdr.Prev, prev)
		}
	}
}

// Realloc tries to grow buf in place by absorbing a free successor; if
// that is not possible it allocates a new block, copies the overlapping
// prefix, and frees the original (spec.md §4.5).
func (h *Heap) Realloc(buf []byte, newSize int) []byte {
	if newSize <= 0 {
		h.Free(buf)
		return nil
	}

	off, err := h.offsetOf(buf)
	if err != nil {
		return nil
	}

	hdr := h.headerAt(off)
	need := alignUp32(uint32(newSize)+headerSize, Align)

	if need <= hdr.Size {
		h.splitAndUse(off, hdr, maxu32(need, headerSize+Align))
		return h.mem[off+headerSize : off+headerSize+uint32(newSize)]
	}

	if hdr.Next != sentinel {
		next := h.headerAt(hdr.Next)
		if next.Free == 1 && hdr.Size+next.Size >= need {
			merged := hdr
			merged.Size = hdr.Size + next.Size
			merged.Next = next.Next
			if next.Next != sentinel {
				nn := h.headerAt(next.Next)
				nn.Prev = off
				h.putHeader(next.Next, nn)
			}
			h.putHeader(off, merged)
			h.splitAndUse(off, merged, need)
			return h.mem[off+headerSize : off+headerSize+uint32(newSize)]
		}
	}

	newBuf := h.Alloc(newSize)
	if newBuf == nil {
		return nil
	}

	copy(newBuf, buf)
	h.Free(buf)

	return newBuf
}

// AllocAligned allocates size bytes aligned to align (a power of two),
// storing the raw block's header offset in the 4 bytes immediately before
// the returned aligned address so FreeAligned can recover it
// symmetrically (spec.md §4.5).
func (h *Heap) AllocAligned(size int, align int) []byte {
	if size <= 0 || align <= 0 {
		return nil
	}

	raw := h.Alloc(size + align + 4)
	if raw == nil {
		return nil
	}

	rawHeaderOff, _ := h.offsetOf(raw)
	dataStart := int(rawHeaderOff) + headerSize

	pad := (align - (dataStart+4)%align) % align
	pad += 4

	binary.LittleEndian.PutUint32(h.mem[dataStart+pad-4:dataStart+pad], rawHeaderOff)

	return raw[pad : pad+size]
}

// FreeAligned frees a block obtained from AllocAligned.
func (h *Heap) FreeAligned(buf []byte) error {
	memOff, err := h.memOffset(buf)
	if err != nil {
		return err
	}
	if memOff < 4 {
		return ErrCorrupt
	}

	rawHeaderOff := binary.LittleEndian.Uint32(h.mem[memOff-4 : memOff])

	return h.freeAt(rawHeaderOff)
}

// Validate walks the address-ordered chain and checks the invariants of
// spec.md §8: every header's magic is intact, linked order matches
// address order, sizes sum to the heap size, and no block has zero size.
func (h *Heap) Validate() error {
	var total uint64
	var off uint32
	var prevOff uint32 = sentinel

	for {
		hdr := h.headerAt(off)

		if hdr.Magic != Magic {
			return ErrCorrupt
		}
		if hdr.Size == 0 {
			return errors.New("heap: zero-size block")
		}
		if hdr.Prev != prevOff {
			return errors.New("heap: broken prev link")
		}

		total += uint64(hdr.Size)

		if hdr.Next == sentinel {
			break
		}
		if hdr.Next <= off {
			return errors.New("heap: links out of address order")
		}

		prevOff = off
		off = hdr.Next
	}

	if total != uint64(len(h.mem)) {
		return errors.New("heap: sizes do not sum to heap size")
	}

	return nil
}

func alignUp32(v uint32, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
