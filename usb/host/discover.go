// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package host

import "github.com/kestrel-kernel/kestrel/soc/intel/pci"

const (
	classSerialBus = 0x0c
	subclassUSB    = 0x03

	progIfUHCI = 0x00
	progIfOHCI = 0x10
	progIfEHCI = 0x20
	progIfXHCI = 0x30
)

// KindFromPCI classifies a PCI device as a USB host controller variant by
// class 0x0C / subclass 0x03, reading prog-if to pick UHCI/OHCI/EHCI
// (spec.md §4.6 "A controller is discovered by walking PCI configuration
// space..."). The second return value is false for any non-USB or
// unrecognized prog-if device.
func KindFromPCI(d *pci.Device) (Kind, bool) {
	if d.Class != classSerialBus || d.Subclass != subclassUSB {
		return 0, false
	}

	switch d.ProgIF {
	case progIfUHCI:
		return UHCI, true
	case progIfOHCI:
		return OHCI, true
	case progIfEHCI:
		return EHCI, true
	case progIfXHCI:
		return XHCI, true
	default:
		return 0, false
	}
}

// Discover walks PCI bus 0 (and any bridges beneath it) looking for USB
// host controllers and returns one Device entry per match, in bus-walk
// order. It does not initialize any controller; see uhci.New / ohci.New /
// ehci.New for that.
func Discover() []*pci.Device {
	var out []*pci.Device

	for _, d := range pci.Walk(0) {
		if _, ok := KindFromPCI(d); ok {
			out = append(out, d)
		}
	}

	return out
}
