// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import (
	"testing"
	"unsafe"
)

// backingRegion allocates a real, GC-owned byte array and returns its
// address, so Init has an actual mapped range to hand out pointers into
// (the same "view owned memory as a fixed address" technique bootinfo's
// tests use) instead of an arbitrary small integer no process owns.
func backingRegion(t *testing.T, size int) uint {
	t.Helper()
	buf := make([]byte, size)
	return uint(uintptr(unsafe.Pointer(&buf[0])))
}

func TestAllocWriteReadRoundTrip(t *testing.T) {
	Init(backingRegion(t, 1024*1024), 1024*1024)

	want := []byte("transfer descriptor")
	addr := Alloc(want, 16)
	if addr == 0 {
		t.Fatalf("Alloc returned 0")
	}
	if addr%16 != 0 {
		t.Fatalf("Alloc address %#x is not 16-byte aligned", addr)
	}

	got := make([]byte, len(want))
	Read(addr, 0, got)
	if string(got) != string(want) {
		t.Fatalf("Read = %q, want %q", got, want)
	}

	Free(addr)
}

func TestReserveProducesRegionLocalSlice(t *testing.T) {
	Init(backingRegion(t, 1024*1024), 1024*1024)

	addr, buf := Reserve(64, 8)
	if addr == 0 {
		t.Fatalf("Reserve returned 0")
	}
	if len(buf) != 64 {
		t.Fatalf("Reserve buf len = %d, want 64", len(buf))
	}

	res, gotAddr := Reserved(buf)
	if !res {
		t.Fatalf("Reserved() = false for a buffer obtained from Reserve()")
	}
	if gotAddr != addr {
		t.Fatalf("Reserved() addr = %#x, want %#x", gotAddr, addr)
	}

	Release(addr)
}

func TestFreeDoesNotReleaseReservedBlock(t *testing.T) {
	Init(backingRegion(t, 1024*1024), 1024*1024)

	addr, _ := Reserve(32, 0)

	// Free (not Release) must refuse: res flag mismatch.
	Free(addr)

	if _, ok := dma.usedBlocks[addr]; !ok {
		t.Fatalf("Free() removed a block reserved with Reserve()")
	}

	Release(addr)
}
