// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hwscan

import "encoding/binary"

// cpuid is declared without a body; it is implemented in cpuid_amd64.s,
// the same asm-stub-by-design pattern internal/reg uses for port I/O
// (spec.md §4.9 "CPUID leaf 0/1 fingerprinting").
func cpuid(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

// cpuidFn is a variable indirection over cpuid so tests can substitute a
// fake, matching the portIn8/portRead seam pattern used throughout the
// soc/intel drivers.
var cpuidFn = cpuid

// CPUInfo is the CPU fingerprint read from CPUID leaves 0 and 1.
type CPUInfo struct {
	VendorID           string
	Family, Model, Stepping uint8
	Features           uint32 // leaf 1 EDX feature bits, as-is
}

// scanCPU fingerprints the running CPU via CPUID leaf 0 (vendor string)
// and leaf 1 (family/model/stepping/features).
func scanCPU() CPUInfo {
	_, ebx, ecx, edx := cpuidFn(0, 0)

	var raw [12]byte
	binary.LittleEndian.PutUint32(raw[0:4], ebx)
	binary.LittleEndian.PutUint32(raw[4:8], edx)
	binary.LittleEndian.PutUint32(raw[8:12], ecx)

	eax1, _, _, edx1 := cpuidFn(1, 0)

	stepping := uint8(eax1 & 0xf)
	model := uint8((eax1 >> 4) & 0xf)
	family := uint8((eax1 >> 8) & 0xf)

	// Extended family/model apply when the base fields are at their
	// maximum encodable value (Intel SDM Vol. 2A, CPUID leaf 1 EAX); the
	// extended model is keyed on the base family, not the summed one.
	baseFamily := family
	if baseFamily == 0xf {
		family += uint8((eax1 >> 20) & 0xff)
	}
	if baseFamily == 0x6 || baseFamily == 0xf {
		model += uint8((eax1>>16)&0xf) << 4
	}

	return CPUInfo{
		VendorID: string(raw[:]),
		Family:   family,
		Model:    model,
		Stepping: stepping,
		Features: edx1,
	}
}
