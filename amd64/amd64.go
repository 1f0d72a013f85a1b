// i386 processor support
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package amd64 provides the 32-bit protected-mode CPU control plane: flat
// segmentation (GDT), interrupt dispatch (IDT, exception and IRQ vectors),
// and the handful of processor operations the kernel needs directly
// (halt, reset, triple fault).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=amd64` as
// supported by the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago. The kernel runs the processor in
// 32-bit protected mode; only the subset of the AMD64 core relevant to that
// mode is used.
package amd64

import (
	"runtime"

	"github.com/kestrel-kernel/kestrel/internal/reg"
)

// Keyboard controller port, used for CPU reset.
const KBD_PORT = 0x64

// defined in amd64.s
func exit(int32)
func halt()

// Fault generates a triple fault by loading a deliberately invalid IDT and
// executing an `int`. This is the reset path of last resort (spec.md §6).
func Fault()

// CPU represents the (single, non-SMP) processor instance.
type CPU struct {
	// Freq is the calibrated core frequency in Hz, if known.
	Freq uint32
}

// Init performs initialization of the CPU: sets the runtime exit hook and
// wires the runtime idle hook to HLT, installs the flat GDT, and builds the
// IDT with vectors 0..47 pointing at their entry stubs.
func (cpu *CPU) Init() {
	runtime.Exit = exit
	runtime.Idle = func(pollUntil int64) {
		halt()
	}

	InitGDT()
	InitIDT()
}

// Name returns the CPU identifier string.
func (cpu *CPU) Name() string {
	return runtime.CPU()
}

// Halt suspends execution until an interrupt is received.
func (cpu *CPU) Halt() {
	halt()
}

// Reset pulses the CPU reset line via the 8042 keyboard controller.
func (cpu *CPU) Reset() {
	reg.Out8(KBD_PORT, 0xfe)
}

// EnableInterrupts unmasks external interrupts (sets IF).
func (cpu *CPU) EnableInterrupts() {
	enableInterrupts()
}

// DisableInterrupts masks external interrupts (clears IF).
func (cpu *CPU) DisableInterrupts() {
	disableInterrupts()
}
