// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hwscan

import "testing"

func TestNameForKnownDevice(t *testing.T) {
	name := nameFor(0x8086, 0x7020, 0x0c)
	if name != "Intel PIIX3 USB (UHCI)" {
		t.Fatalf("expected exact product name match, got %q", name)
	}
}

func TestNameForUnknownDeviceFallsBackToVendorClass(t *testing.T) {
	name := nameFor(0x8086, 0xdead, 0x02)
	if name != "Intel Network Controller" {
		t.Fatalf("expected vendor+class fallback, got %q", name)
	}
}

func TestNameForFullyUnknownDevice(t *testing.T) {
	name := nameFor(0x9999, 0xdead, 0xff)
	if name != "Unknown vendor device" {
		t.Fatalf("expected generic fallback, got %q", name)
	}
}

func fakeISAPorts(t *testing.T, present map[uint16]bool) func() {
	t.Helper()
	savedIn, savedOut := portIn8, portOut8
	scratch := make(map[uint16]uint8)

	portIn8 = func(port uint16) uint8 {
		base := port
		if port == 0x378+lptStatusOffset {
			if present[0x378] {
				return 0x00
			}
			return 0xff
		}
		for _, d := range probedISA {
			if port == d.Port+scratchRegister {
				base = d.Port
				if !present[base] {
					return 0xff
				}
				return scratch[base]
			}
		}
		return 0
	}
	portOut8 = func(port uint16, val uint8) {
		for _, d := range probedISA {
			if port == d.Port+scratchRegister && present[d.Port] {
				scratch[d.Port] = val
			}
		}
	}

	return func() { portIn8, portOut8 = savedIn, savedOut }
}

func TestScanISAReportsFixedDevicesAlwaysPresent(t *testing.T) {
	restore := fakeISAPorts(t, map[uint16]bool{})
	defer restore()

	devices := scanISA()
	for _, d := range fixedISA {
		found := false
		for _, got := range devices {
			if got.Name == d.Name {
				found = true
				if !got.Present {
					t.Fatalf("expected fixed device %s to be present", d.Name)
				}
			}
		}
		if !found {
			t.Fatalf("expected fixed device %s in scan", d.Name)
		}
	}
}

func TestScanISAProbesLiveSerialPort(t *testing.T) {
	restore := fakeISAPorts(t, map[uint16]bool{0x3f8: true})
	defer restore()

	devices := scanISA()
	for _, d := range devices {
		if d.Name == "COM1" && !d.Present {
			t.Fatalf("expected COM1 detected present")
		}
		if d.Name == "COM2" && d.Present {
			t.Fatalf("expected COM2 detected absent")
		}
	}
}

func TestScanCPUDecodesLeafZeroAndOne(t *testing.T) {
	saved := cpuidFn
	defer func() { cpuidFn = saved }()

	cpuidFn = func(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32) {
		switch leaf {
		case 0:
			// "GenuineIntel" split across ebx/edx/ecx per the CPUID ABI.
			return 0, 0x756e6547, 0x6c65746e, 0x49656e69
		case 1:
			// family=6 (base field), model nibble 0xa, stepping 3.
			return (6 << 8) | (0xa << 4) | 3, 0, 0, 0
		}
		return
	}

	info := scanCPU()
	if info.VendorID != "GenuineIntel" {
		t.Fatalf("expected vendor string decoded, got %q", info.VendorID)
	}
	if info.Family != 6 || info.Model != 0xa || info.Stepping != 3 {
		t.Fatalf("expected family=6 model=0xa stepping=3, got %+v", info)
	}
}

func TestInventoryLookupsAndConflicts(t *testing.T) {
	inv := Inventory{
		PCI: []PCIDevice{
			{Vendor: 0x8086, Device: 0x7020, Class: 0x0c, Name: "a", BAR: [6]uint{0x3f8}},
		},
		ISA: []ISADevice{
			{Name: "COM1", Port: 0x3f8, IRQ: 4, Present: true},
			{Name: "8259 PIC (slave)", Port: 0xa0, IRQ: 2, Present: true},
			{Name: "8042 PS/2 controller", Port: 0x60, IRQ: 2, Present: true},
		},
	}

	if d := inv.ByVendorDevice(0x8086, 0x7020); d == nil {
		t.Fatalf("expected vendor/device lookup to hit")
	}
	if d := inv.ByISAPort(0x3f8); d == nil || d.Name != "COM1" {
		t.Fatalf("expected ISA port lookup to hit COM1")
	}
	if got := inv.ByClass(0x0c); len(got) != 1 {
		t.Fatalf("expected 1 device of class 0x0c, got %d", len(got))
	}

	conflicts := inv.IOPortConflicts()
	if len(conflicts) != 1 || conflicts[0] != 0x3f8 {
		t.Fatalf("expected a single I/O port conflict at 0x3f8, got %v", conflicts)
	}

	irqConflicts := inv.IRQConflicts()
	if len(irqConflicts) != 1 || irqConflicts[0] != 2 {
		t.Fatalf("expected a single IRQ conflict at 2, got %v", irqConflicts)
	}
}
