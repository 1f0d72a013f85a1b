// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hwscan

import "github.com/kestrel-kernel/kestrel/internal/reg"

// portIn8/portOut8 are the port I/O strategy ISA probing uses; variables
// so tests can substitute a fake, matching the seam established by
// soc/intel/ps2 and soc/intel/rtc.
var (
	portIn8  = reg.In8
	portOut8 = reg.Out8
)

// ISADevice is a fixed or live-probed legacy ISA peripheral.
type ISADevice struct {
	Name    string
	Port    uint16
	IRQ     int
	Present bool
}

// fixedISA lists the well-known ISA devices every PC-compatible machine
// carries at these ports; they are always reported present since their
// absence would mean the machine cannot boot this kernel at all (spec.md
// §4.9 "fixed table").
var fixedISA = []ISADevice{
	{Name: "8259 PIC (master)", Port: 0x20, IRQ: -1},
	{Name: "8259 PIC (slave)", Port: 0xa0, IRQ: 2},
	{Name: "8254 PIT", Port: 0x40, IRQ: 0},
	{Name: "8042 PS/2 controller", Port: 0x60, IRQ: 1},
	{Name: "MC146818A RTC/CMOS", Port: 0x70, IRQ: 8},
}

// probedISA lists the COM/LPT ports this scan attempts to live-probe; not
// every machine has all of them wired up.
var probedISA = []ISADevice{
	{Name: "COM1", Port: 0x3f8, IRQ: 4},
	{Name: "COM2", Port: 0x2f8, IRQ: 3},
	{Name: "LPT1", Port: 0x378, IRQ: 7},
}

// scratchRegister is the 16550 UART's scribble register offset, used as a
// cheap presence test: a real UART holds back whatever byte it is
// written, an unpopulated port reads back 0xff (floating bus).
const scratchRegister = 7

// lptStatusOffset is the parallel port status register offset; a
// populated LPT controller never reports all status bits set.
const lptStatusOffset = 1

// scanISA reports the always-present fixed ISA devices plus the result of
// live-probing each serial/parallel port.
func scanISA() []ISADevice {
	out := make([]ISADevice, 0, len(fixedISA)+len(probedISA))
	for _, d := range fixedISA {
		d.Present = true
		out = append(out, d)
	}
	for _, d := range probedISA {
		d.Present = probeISA(d)
		out = append(out, d)
	}
	return out
}

func probeISA(d ISADevice) bool {
	if d.Name == "LPT1" {
		return portIn8(d.Port+lptStatusOffset) != 0xff
	}

	const testByte = 0x5a
	saved := portIn8(d.Port + scratchRegister)
	portOut8(d.Port+scratchRegister, testByte)
	ok := portIn8(d.Port+scratchRegister) == testByte
	portOut8(d.Port+scratchRegister, saved)
	return ok
}
