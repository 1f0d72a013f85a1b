// Intel 8259A Programmable Interrupt Controller driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package pic implements a driver for the legacy cascaded 8259A
// Programmable Interrupt Controller pair found on PC-compatible systems,
// remapping IRQs 0..15 to interrupt vectors 32..47 (spec.md §4.2).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=amd64` as
// supported by the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package pic

import "github.com/kestrel-kernel/kestrel/internal/reg"

// Controller ports.
const (
	MasterCommand = 0x20
	MasterData    = 0x21
	SlaveCommand  = 0xa0
	SlaveData     = 0xa1
)

// Initialization Command Words.
const (
	icw1Init = 0x11 // ICW4 needed, cascade mode, edge triggered
	icw4_8086 = 0x01

	// VectorOffsetMaster is the vector at which IRQ0 is remapped.
	VectorOffsetMaster = 32
	// VectorOffsetSlave is the vector at which IRQ8 is remapped.
	VectorOffsetSlave = 40

	cascadeIRQ = 2
)

// Remap reprograms both 8259 controllers so that IRQs 0..7 map to vectors
// 32..39 and IRQs 8..15 map to 40..47, with the slave cascaded on IRQ2, and
// clears every mask bit so that all IRQ lines are enabled (spec.md §4.2:
// "individual drivers rely on handler installation rather than masking").
func Remap() {
	// ICW1: start initialization sequence
	reg.Out8(MasterCommand, icw1Init)
	reg.Out8(SlaveCommand, icw1Init)

	// ICW2: vector offsets
	reg.Out8(MasterData, VectorOffsetMaster)
	reg.Out8(SlaveData, VectorOffsetSlave)

	// ICW3: cascade wiring
	reg.Out8(MasterData, 1<<cascadeIRQ)
	reg.Out8(SlaveData, cascadeIRQ)

	// ICW4: 8086 mode
	reg.Out8(MasterData, icw4_8086)
	reg.Out8(SlaveData, icw4_8086)

	// unmask everything
	reg.Out8(MasterData, 0x00)
	reg.Out8(SlaveData, 0x00)
}

// Mask sets the mask bit for irq (0..15), disabling that line.
func Mask(irq int) {
	port, bit := portAndBit(irq)
	v := reg.In8(port)
	reg.Out8(port, v|(1<<bit))
}

// Unmask clears the mask bit for irq (0..15), enabling that line.
func Unmask(irq int) {
	port, bit := portAndBit(irq)
	v := reg.In8(port)
	reg.Out8(port, v&^(1<<bit))
}

func portAndBit(irq int) (port uint16, bit uint) {
	if irq >= 8 {
		return SlaveData, uint(irq - 8)
	}
	return MasterData, uint(irq)
}
