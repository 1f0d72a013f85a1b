// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hwscan

// Inventory is the result of a full hardware scan: every PCI function
// reachable from bus 0, the fixed and live-probed ISA peripherals, and
// the CPU fingerprint.
type Inventory struct {
	PCI []PCIDevice
	ISA []ISADevice
	CPU CPUInfo
}

// Scan performs a full hardware inventory (spec.md §4.9).
func Scan() Inventory {
	return Inventory{
		PCI: scanPCI(),
		ISA: scanISA(),
		CPU: scanCPU(),
	}
}

// ByClass returns every PCI device matching the given base class code.
func (inv Inventory) ByClass(class uint8) []PCIDevice {
	var out []PCIDevice
	for _, d := range inv.PCI {
		if d.Class == class {
			out = append(out, d)
		}
	}
	return out
}

// ByVendorDevice returns the PCI device matching (vendor, device), or nil.
func (inv Inventory) ByVendorDevice(vendor, device uint16) *PCIDevice {
	for i := range inv.PCI {
		if inv.PCI[i].Vendor == vendor && inv.PCI[i].Device == device {
			return &inv.PCI[i]
		}
	}
	return nil
}

// ByISAPort returns the ISA device record at the given port, or nil.
func (inv Inventory) ByISAPort(port uint16) *ISADevice {
	for i := range inv.ISA {
		if inv.ISA[i].Port == port {
			return &inv.ISA[i]
		}
	}
	return nil
}

// ByName returns every device (PCI or ISA) whose name matches exactly.
func (inv Inventory) ByName(name string) (pciMatches []PCIDevice, isaMatches []ISADevice) {
	for _, d := range inv.PCI {
		if d.Name == name {
			pciMatches = append(pciMatches, d)
		}
	}
	for _, d := range inv.ISA {
		if d.Name == name {
			isaMatches = append(isaMatches, d)
		}
	}
	return
}

// IOPortConflicts returns the set of I/O ports claimed by more than one
// device across the PCI BARs and the present ISA devices (spec.md §4.9
// "conflict checks").
func (inv Inventory) IOPortConflicts() []uint16 {
	owners := make(map[uint16]int)
	for _, d := range inv.ISA {
		if d.Present {
			owners[d.Port]++
		}
	}
	for _, d := range inv.PCI {
		for _, bar := range d.BAR {
			if bar != 0 && bar < 0x10000 {
				owners[uint16(bar)]++
			}
		}
	}

	var conflicts []uint16
	for port, n := range owners {
		if n > 1 {
			conflicts = append(conflicts, port)
		}
	}
	return conflicts
}

// IRQConflicts returns the set of IRQ lines claimed by more than one
// present ISA device.
func (inv Inventory) IRQConflicts() []int {
	owners := make(map[int]int)
	for _, d := range inv.ISA {
		if d.Present && d.IRQ >= 0 {
			owners[d.IRQ]++
		}
	}

	var conflicts []int
	for irq, n := range owners {
		if n > 1 {
			conflicts = append(conflicts, irq)
		}
	}
	return conflicts
}
