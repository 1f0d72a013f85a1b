// Intel 8254 Programmable Interval Timer driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package pit implements a driver for the legacy 8254 Programmable
// Interval Timer, channel 0, used as the kernel's periodic tick source
// (spec.md §4.2).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=amd64` as
// supported by the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package pit

import (
	"sync/atomic"

	"github.com/kestrel-kernel/kestrel/internal/reg"
)

// Ports and constants.
const (
	Channel0 = 0x40
	Command  = 0x43

	// InputFrequency is the 8254's fixed oscillator frequency.
	InputFrequency = 1193180

	// DefaultFrequency is the kernel's default tick rate (spec.md §4.2).
	DefaultFrequency = 100

	// modeSquareWave selects channel 0, access lo/hi byte, mode 3.
	modeSquareWave = 0b00110110

	// ticksPerLogicalEvent is the number of 100 Hz ticks between
	// EVENT_TIMER_TICK posts, giving a 10 Hz logical rate.
	ticksPerLogicalEvent = 10
)

var ticks uint64

// TickFunc is called once per hardware tick from the IRQ0 handler; it is
// overridable so the kernel can post EVENT_TIMER_TICK without this
// package importing the event queue (avoids an import cycle).
var TickFunc func(tick uint64)

// Init programs channel 0 in mode 3 (square wave) at the given frequency.
func Init(frequency uint32) {
	if frequency == 0 {
		frequency = DefaultFrequency
	}

	divisor := uint16(InputFrequency / frequency)

	reg.Out8(Command, modeSquareWave)
	reg.Out8(Channel0, uint8(divisor&0xff))
	reg.Out8(Channel0, uint8(divisor>>8))
}

// Handle is the IRQ0 handler: it increments the monotonic tick counter and,
// every ticksPerLogicalEvent ticks, invokes TickFunc.
func Handle() {
	t := atomic.AddUint64(&ticks, 1)

	if t%ticksPerLogicalEvent == 0 && TickFunc != nil {
		TickFunc(t)
	}
}

// Ticks returns the current monotonic hardware tick count.
func Ticks() uint64 {
	return atomic.LoadUint64(&ticks)
}
