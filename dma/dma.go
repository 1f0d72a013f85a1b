// First-fit memory allocator for DMA-visible buffers
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dma provides a first-fit allocator over a fixed, pre-reserved
// physical address range, returning plain byte slices that alias that
// memory directly (via unsafe) instead of ordinary Go-heap allocations.
//
// The USB host controllers need exactly this: queue heads and transfer
// descriptors are hardware-walked structures that must live at stable
// physical addresses the controller can DMA into and out of, never moved
// by the Go garbage collector (spec.md §4.6). The general-purpose kernel
// heap (mem/heap) is unsuitable for this because nothing stops the
// allocator or the runtime from treating its blocks as ordinary Go memory.
package dma

import "container/list"

// Init initializes the global DMA region, spanning [start, start+size).
// The caller must guarantee this range is excluded from both the Go
// runtime's heap and the kernel's general-purpose allocator.
func Init(start uint, size uint) {
	r := &Region{
		start: start,
		size:  size,
	}

	b := &block{addr: start, size: size}

	r.freeBlocks = list.New()
	r.freeBlocks.PushFront(b)
	r.usedBlocks = make(map[uint]*block)

	dma = r
}

// Reserve is the equivalent of Region.Reserve on the global DMA region.
func Reserve(size int, align int) (addr uint, buf []byte) {
	return dma.Reserve(size, align)
}

// Reserved is the equivalent of Region.Reserved on the global DMA region.
func Reserved(buf []byte) (res bool, addr uint) {
	return dma.Reserved(buf)
}

// Alloc is the equivalent of Region.Alloc on the global DMA region.
func Alloc(buf []byte, align int) (addr uint) {
	return dma.Alloc(buf, align)
}

// Read is the equivalent of Region.Read on the global DMA region.
func Read(addr uint, off int, buf []byte) {
	dma.Read(addr, off, buf)
}

// Write is the equivalent of Region.Write on the global DMA region.
func Write(addr uint, off int, buf []byte) {
	dma.Write(addr, off, buf)
}

// Free is the equivalent of Region.Free on the global DMA region.
func Free(addr uint) {
	dma.Free(addr)
}

// Release is the equivalent of Region.Release on the global DMA region.
func Release(addr uint) {
	dma.Release(addr)
}
