// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package amd64

import "github.com/kestrel-kernel/kestrel/internal/reg"

// RegisterFrame is the canonical register frame pushed by every interrupt
// stub before it calls Dispatch (spec.md §3). It is read-only to handlers
// except where a handler deliberately returns modified values (e.g. a
// syscall-style return value in EAX); nothing in this kernel does that
// today, but the field is left mutable to match the hardware contract.
type RegisterFrame struct {
	// pushed by the generic stub, listed from the lowest address up (so
	// EDI, first here, is the last register pushed)
	EDI, ESI, EBP, ESP0, EBX, EDX, ECX, EAX uint32
	DS, ES, FS, GS                         uint32

	IntNo  uint32
	ErrCode uint32

	// pushed by the CPU
	EIP, CS, EFLAGS uint32
	ESP, SS         uint32
}

// Handler is an exception or IRQ handler.
type Handler func(frame *RegisterFrame)

var exceptionHandlers [32]Handler
var irqHandlers [16]Handler

// masked tracks whether the CPU is currently halted with interrupts masked
// following an unhandled exception (spec.md §4.1, §7).
var masked bool

// InstallHandler replaces any previously registered handler for vector and
// returns the one it replaced (nil if none). Vectors 0..31 are CPU
// exceptions, 32..47 are IRQs 0..15; any other vector is rejected by
// returning nil without installing anything.
func InstallHandler(vector int, fn Handler) Handler {
	switch {
	case vector >= 0 && vector < 32:
		prev := exceptionHandlers[vector]
		exceptionHandlers[vector] = fn
		return prev
	case vector >= 32 && vector < 48:
		irq := vector - 32
		prev := irqHandlers[irq]
		irqHandlers[irq] = fn
		return prev
	default:
		return nil
	}
}

// Dispatch is called by every interrupt stub with the frame it built. It
// routes to the registered exception or IRQ handler and, for IRQs, issues
// EOI to the PIC(s) after the handler returns (spec.md §4.1: "EOI is
// issued by the dispatcher, not the handler").
func Dispatch(frame *RegisterFrame) {
	switch {
	case frame.IntNo < 32:
		dispatchException(frame)
	case frame.IntNo < 48:
		dispatchIRQ(frame)
	}
}

func dispatchException(frame *RegisterFrame) {
	if h := exceptionHandlers[frame.IntNo]; h != nil {
		h(frame)
		return
	}

	// Unhandled exception: halt the CPU with interrupts masked
	// (spec.md §7 "Fatal CPU exception").
	haltMasked()
}

func dispatchIRQ(frame *RegisterFrame) {
	irq := int(frame.IntNo - 32)

	if h := irqHandlers[irq]; h != nil {
		h(frame)
	}

	sendEOI(irq)
}

// haltMasked disables interrupts and halts the processor indefinitely. It
// never returns.
func haltMasked() {
	masked = true
	disableInterrupts()

	for {
		halt()
	}
}

// defined in irq.s
func disableInterrupts()
func enableInterrupts()

// PIC command/data ports (legacy 8259, spec.md §4.2).
const (
	picMasterCommand = 0x20
	picSlaveCommand  = 0xa0
	picEOI           = 0x20
)

// eoi is the EOI strategy Dispatch uses; it is a variable so tests can
// substitute a recorder in place of real port I/O.
var eoi = portEOI

// sendEOI issues End-Of-Interrupt to the slave PIC first (if irq >= 8),
// then always to the master (spec.md §4.1, §5, §8).
func sendEOI(irq int) {
	eoi(irq)
}

func portEOI(irq int) {
	if irq >= 8 {
		reg.Out8(picSlaveCommand, picEOI)
	}

	reg.Out8(picMasterCommand, picEOI)
}

// Masked reports whether the CPU halted on an unhandled exception.
func Masked() bool {
	return masked
}
