// Multiboot memory map parsing and reserved-region bookkeeping
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package memmap parses the Multiboot memory map into an ordered list of
// regions and provides the reserved-area overlap tests the heap allocator
// uses to pick a safe range (spec.md §3, §4.5, §9).
package memmap

// RegionType classifies a memory map entry (spec.md §3, §6).
type RegionType uint32

const (
	Available RegionType = 1
	Reserved  RegionType = 2
	ACPIReclaimable RegionType = 3
	ACPINVS   RegionType = 4
	Bad       RegionType = 5
)

// Region is one entry of the memory map.
type Region struct {
	Base uint64
	Size uint64
	Type RegionType
	Used bool
}

// End returns the exclusive end address of the region.
func (r Region) End() uint64 {
	return r.Base + r.Size
}

// Overlaps reports whether r and other share any address.
func (r Region) Overlaps(other Region) bool {
	return r.Base < other.End() && other.Base < r.End()
}

// RawEntryV1 is the on-the-wire Multiboot v1 memory map entry
// (spec.md §6): size:u32, base:u64, length:u64, type:u32, preceded by the
// 4-byte size field that is itself not counted in Size.
type RawEntryV1 struct {
	Size   uint32
	Base   uint64
	Length uint64
	Type   uint32
}

// FromRawV1 decodes a slice of Multiboot v1 memory map entries into
// Regions, in the order given (ascending by convention, but callers should
// not assume it — see Sorted).
func FromRawV1(entries []RawEntryV1) []Region {
	regions := make([]Region, 0, len(entries))

	for _, e := range entries {
		t := RegionType(e.Type)
		if t < Available || t > Bad {
			t = Bad
		}

		regions = append(regions, Region{
			Base: e.Base,
			Size: e.Length,
			Type: t,
		})
	}

	return regions
}

// Sorted returns a copy of regions ordered by ascending base address.
func Sorted(regions []Region) []Region {
	out := make([]Region, len(regions))
	copy(out, regions)

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Base > out[j].Base; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}

	return out
}

// Reserved computes the list of reserved ranges that the heap must avoid:
// every non-Available region of the memory map, plus the fixed areas
// named by spec.md §4.5 (kernel image, BIOS/IVT, VGA memory) passed in by
// the caller since they are not part of the Multiboot map itself.
func Reserved(regions []Region, extra ...Region) []Region {
	out := make([]Region, 0, len(regions)+len(extra))

	for _, r := range regions {
		if r.Type != Available {
			out = append(out, r)
		}
	}

	out = append(out, extra...)

	return out
}

// OverlapsAny reports whether candidate intersects any region in areas.
func OverlapsAny(candidate Region, areas []Region) bool {
	for _, a := range areas {
		if candidate.Overlaps(a) {
			return true
		}
	}

	return false
}

// Fixed well-known reserved ranges on a PC (spec.md §4.5, §9): the real
// mode IVT + BIOS data area, and legacy VGA/video memory.
var (
	IVTAndBIOSData = Region{Base: 0x00000000, Size: 0x00001000, Type: Reserved}
	VGAMemory      = Region{Base: 0x000a0000, Size: 0x00020000, Type: Reserved}
)

// KernelImage builds the reserved region for the running kernel image,
// using the loader-provided `_start`..`end` symbol addresses
// (spec.md §4.5).
func KernelImage(start, end uintptr) Region {
	return Region{Base: uint64(start), Size: uint64(end - start), Type: Reserved}
}
