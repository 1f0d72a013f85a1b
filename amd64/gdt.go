// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package amd64

import "unsafe"

// GDT entry indices; the segment selector is index << 3.
const (
	NullSegment = 0
	CodeSegment = 1
	DataSegment = 2
	UserCodeSegment = 3
	UserDataSegment = 4
	TSSSegment = 5

	gdtEntries = 6
)

// Access byte bits (Intel SDM Vol 3A, 3.4.5).
const (
	AccessPresent  = 1 << 7
	AccessRing0    = 0 << 5
	AccessRing3    = 3 << 5
	AccessDescType = 1 << 4
	AccessExec     = 1 << 3
	AccessRW       = 1 << 1
)

// Granularity nibble bits.
const (
	Gran4KB  = 1 << 7
	Gran32Bit = 1 << 6
)

// GDTEntry is an 8-byte x86 segment descriptor.
type GDTEntry struct {
	LimitLow    uint16
	BaseLow     uint16
	BaseMiddle  uint8
	Access      uint8
	Granularity uint8
	BaseHigh    uint8
}

// Set populates the descriptor from a base/limit/access/granularity tuple,
// matching the classic `gdt_set_entry` shape used by flat-memory-model
// kernels.
func (e *GDTEntry) Set(base uint32, limit uint32, access uint8, granularity uint8) {
	e.BaseLow = uint16(base & 0xffff)
	e.BaseMiddle = uint8((base >> 16) & 0xff)
	e.BaseHigh = uint8((base >> 24) & 0xff)

	e.LimitLow = uint16(limit & 0xffff)
	e.Granularity = uint8((limit>>16)&0x0f) | (granularity & 0xf0)

	e.Access = access
}

// GDTPointer is the operand to LGDT.
type GDTPointer struct {
	Limit uint16
	Base  uint32
}

var gdt [gdtEntries]GDTEntry
var gdtPtr GDTPointer

// defined in gdt.s, reloads CS/DS/ES/FS/GS/SS and far-jumps to flush the
// instruction prefetch queue with the new code selector.
func loadGDT(ptr *GDTPointer)

// InitGDT installs the flat GDT: null, kernel code, kernel data, user code,
// user data, and a TSS placeholder (spec.md §3).
func InitGDT() {
	gdtPtr.Limit = uint16(len(gdt)*8 - 1)
	gdtPtr.Base = uint32(uintptr(gdtAddr()))

	gdt[NullSegment].Set(0, 0, 0, 0)

	gdt[CodeSegment].Set(0, 0xffffffff,
		AccessPresent|AccessRing0|AccessDescType|AccessExec|AccessRW,
		Gran4KB|Gran32Bit)

	gdt[DataSegment].Set(0, 0xffffffff,
		AccessPresent|AccessRing0|AccessDescType|AccessRW,
		Gran4KB|Gran32Bit)

	gdt[UserCodeSegment].Set(0, 0xffffffff,
		AccessPresent|AccessRing3|AccessDescType|AccessExec|AccessRW,
		Gran4KB|Gran32Bit)

	gdt[UserDataSegment].Set(0, 0xffffffff,
		AccessPresent|AccessRing3|AccessDescType|AccessRW,
		Gran4KB|Gran32Bit)

	// TSS descriptor is left zeroed; the kernel does not use ring
	// transitions (spec.md Non-goals: no user mode).
	gdt[TSSSegment].Set(0, 0, 0, 0)

	loadGDT(&gdtPtr)
}

func gdtAddr() uintptr {
	return uintptr(unsafe.Pointer(&gdt[0]))
}
