// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hwscan walks the machine's PCI bus tree and a fixed set of
// legacy ISA peripherals, fingerprints the CPU, and assembles the result
// into a queryable inventory (spec.md §4.9).
package hwscan

import "github.com/kestrel-kernel/kestrel/soc/intel/pci"

// PCIDevice is a single PCI function discovered during the bus walk, with
// a best-effort human name resolved from a small built-in vendor/device
// table.
type PCIDevice struct {
	Bus, Slot, Func  uint32
	Vendor, Device   uint16
	Class, Subclass  uint8
	ProgIF           uint8
	BAR              [6]uint
	InterruptLine    uint8
	Name             string
}

// knownVendors maps a handful of well-known PCI vendor IDs to a display
// name, used when a (vendor, device) pair is not in knownDevices.
var knownVendors = map[uint16]string{
	0x8086: "Intel",
	0x1af4: "Red Hat / Virtio",
	0x1234: "QEMU / Bochs",
	0x10de: "NVIDIA",
	0x1002: "AMD/ATI",
}

// knownDevices maps specific (vendor, device) pairs to a full product
// name for the devices this kernel is most likely to meet under
// emulation or on real Intel chipset hardware.
var knownDevices = map[[2]uint16]string{
	{0x8086, 0x7010}: "Intel PIIX3 IDE",
	{0x8086, 0x7020}: "Intel PIIX3 USB (UHCI)",
	{0x8086, 0x2934}: "Intel ICH9 USB (UHCI)",
	{0x8086, 0x293a}: "Intel ICH9 USB (EHCI)",
	{0x1af4, 0x1000}: "Virtio network device",
	{0x1af4, 0x1001}: "Virtio block device",
	{0x1234, 0x1111}: "Bochs/QEMU VGA",
}

// className gives a coarse human label for a PCI base class code.
var className = map[uint8]string{
	0x00: "Unclassified",
	0x01: "Mass Storage Controller",
	0x02: "Network Controller",
	0x03: "Display Controller",
	0x06: "Bridge Device",
	0x0c: "Serial Bus Controller",
}

func nameFor(vendor, device uint16, class uint8) string {
	if name, ok := knownDevices[[2]uint16{vendor, device}]; ok {
		return name
	}
	vendorName, ok := knownVendors[vendor]
	if !ok {
		vendorName = "Unknown vendor"
	}
	if cn, ok := className[class]; ok {
		return vendorName + " " + cn
	}
	return vendorName + " device"
}

// scanPCI walks the PCI bus tree from bus 0, recursing into bridges
// exactly as soc/intel/pci.Walk does, and converts each function into a
// PCIDevice inventory record.
func scanPCI() []PCIDevice {
	var out []PCIDevice

	for _, d := range pci.Walk(0) {
		rec := PCIDevice{
			Bus:    d.Bus,
			Slot:   d.Slot,
			Func:   d.Func,
			Vendor: d.Vendor,
			Device: d.Device,
			Class:  d.Class,
			Subclass: d.Subclass,
			ProgIF: d.ProgIF,
		}
		for i := 0; i < 6; i++ {
			if d.IsBridge() && i >= 2 {
				break
			}
			rec.BAR[i] = d.BaseAddress(i)
		}
		rec.Name = nameFor(d.Vendor, d.Device, d.Class)
		out = append(out, rec)
	}

	return out
}
