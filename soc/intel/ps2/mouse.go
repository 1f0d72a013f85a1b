// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package ps2

import "github.com/kestrel-kernel/kestrel/event"

const (
	cmdPort = 0x64

	statusAuxData = 1 << 5

	packetAlwaysOne = 1 << 3
	packetSignX     = 1 << 4
	packetSignY     = 1 << 5
)

// Mouse is the PS/2 mouse driver's state, owned by the handler that runs
// on IRQ12. It accumulates a 3-byte relative-motion packet and integrates
// it into an absolute, screen-clamped cursor position (spec.md §4.4).
type Mouse struct {
	X, Y          int32
	Width, Height int32
	Buttons       uint8

	cycle  uint8
	packet [3]uint8
}

// NewMouse returns a Mouse with its cursor centered on a screen of the
// given dimensions.
func NewMouse(width, height int32) *Mouse {
	return &Mouse{
		X: width / 2, Y: height / 2,
		Width: width, Height: height,
	}
}

// Handle accumulates one packet byte from the data port. Bytes that did
// not originate from the auxiliary (mouse) device are ignored, so the
// shared IRQ1/IRQ12 demultiplexing can call both handlers unconditionally.
// Once a full 3-byte packet is assembled it is validated (bit 3 of the
// first byte must be set) and integrated, posting MouseMove followed by
// per-button MouseClick/MouseRelease edge events.
func (m *Mouse) Handle(q *event.Queue) {
	if portIn8(StatusPort)&statusAuxData == 0 {
		return
	}

	data := portIn8(DataPort)
	m.packet[m.cycle] = data
	m.cycle++

	if m.cycle < 3 {
		return
	}
	m.cycle = 0

	if m.packet[0]&packetAlwaysOne == 0 {
		// Desynchronized packet stream; drop and resync on the next byte.
		return
	}

	oldButtons := m.Buttons
	m.Buttons = m.packet[0] & 0x07

	dx := int32(m.packet[1])
	if m.packet[0]&packetSignX != 0 {
		dx -= 256
	}

	dy := int32(m.packet[2])
	if m.packet[0]&packetSignY != 0 {
		dy -= 256
	}
	dy = -dy // PS/2 Y increases upward; screen Y increases downward.

	m.X = clamp(m.X+dx, 0, m.Width-1)
	m.Y = clamp(m.Y+dy, 0, m.Height-1)

	q.Post(event.Event{
		Kind:  event.MouseMove,
		Data1: uint32(m.X),
		Data2: uint32(m.Y),
	})

	changed := m.Buttons ^ oldButtons
	for i := uint(0); i < 3; i++ {
		bit := uint8(1 << i)
		if changed&bit == 0 {
			continue
		}
		kind := event.MouseRelease
		if m.Buttons&bit != 0 {
			kind = event.MouseClick
		}
		q.Post(event.Event{
			Kind:  kind,
			Data1: uint32(m.X),
			Data2: uint32(m.Y) | uint32(i)<<16,
		})
	}
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
