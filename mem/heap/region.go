// Heap region selection
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heap

import "github.com/kestrel-kernel/kestrel/mem/memmap"

const (
	pageSize = 4096

	oneMiB   = 1 << 20
	minSize  = 16 * oneMiB
	bigBonus = 128 * oneMiB
	fourGiB  = uint64(1) << 32

	fallbackKernelGap = 4 * oneMiB
	fallbackMaxSize   = 256 * oneMiB
)

func alignUp(v uint64, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

func alignDown(v uint64, align uint64) uint64 {
	return v &^ (align - 1)
}

// candidate is a page-aligned sub-range of an Available region, scored for
// heap placement (spec.md §4.5 step 3).
type candidate struct {
	region memmap.Region
	score  int64
}

// SelectRegion implements spec.md §4.5 steps 2-4: it scores every
// qualifying Available region above 1 MiB that is >= 16 MiB after page
// alignment and does not overlap any reserved area, preferring larger
// regions, a bonus for regions based above 128 MiB, and a bonus for
// staying entirely under the 4 GiB 32-bit limit. If nothing qualifies it
// falls back to "kernel end + 4 MiB", sized to
// min(256 MiB, available/2, >= 16 MiB), still rejecting overlap.
//
// kernelEnd is the address immediately after the kernel image
// (loader-provided `end` symbol). The "available" term of the fallback
// sizing rule is the size of the largest Available region in regions.
func SelectRegion(regions []memmap.Region, reserved []memmap.Region, kernelEnd uint64) (memmap.Region, bool) {
	var best *candidate

	for _, r := range regions {
		if r.Type != memmap.Available {
			continue
		}

		aligned := pageAlign(r)
		if aligned.Base < oneMiB {
			continue
		}
		if aligned.Size < minSize {
			continue
		}
		if memmap.OverlapsAny(aligned, reserved) {
			continue
		}

		c := candidate{region: aligned, score: scoreRegion(aligned)}
		if best == nil || c.score > best.score {
			best = &c
		}
	}

	if best != nil {
		return best.region, true
	}

	return fallbackRegion(regions, reserved, kernelEnd)
}

// pageAlign shrinks r to page-aligned boundaries: base rounds up, end
// rounds down.
func pageAlign(r memmap.Region) memmap.Region {
	base := alignUp(r.Base, pageSize)
	end := alignDown(r.End(), pageSize)

	if end <= base {
		return memmap.Region{Base: base, Size: 0, Type: r.Type}
	}

	return memmap.Region{Base: base, Size: end - base, Type: r.Type}
}

func scoreRegion(r memmap.Region) int64 {
	score := int64(r.Size)

	if r.Base >= bigBonus {
		score += int64(r.Size) / 4
	}

	if r.End() <= fourGiB {
		score += oneMiB
	}

	return score
}

func fallbackRegion(regions []memmap.Region, reserved []memmap.Region, kernelEnd uint64) (memmap.Region, bool) {
	base := alignUp(kernelEnd+fallbackKernelGap, pageSize)

	var largest uint64
	for _, r := range regions {
		if r.Type == memmap.Available && r.Size > largest {
			largest = r.Size
		}
	}

	size := uint64(fallbackMaxSize)
	if half := largest / 2; half < size {
		size = half
	}
	if size < minSize {
		size = minSize
	}

	candidate := memmap.Region{Base: base, Size: size, Type: memmap.Available}

	if memmap.OverlapsAny(candidate, reserved) {
		return memmap.Region{}, false
	}

	return candidate, true
}
