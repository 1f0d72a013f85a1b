// USB HID boot-protocol report decoding
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hid decodes USB HID boot-protocol reports — the simplified
// keyboard and mouse report layout that does not require parsing a report
// descriptor (spec.md §4.6, §GLOSSARY "Boot protocol (HID)") — and posts
// the same event kinds the PS/2 drivers use. Mouse events carry the same
// payload layout as soc/intel/ps2's. Keyboard events do not: Data1 holds
// the HID usage ID rather than a PS/2 set-1 scancode, and Data2 (the
// ASCII translation for PS/2 keys) is always 0.
package hid

import "github.com/kestrel-kernel/kestrel/event"

// Boot-protocol keyboard report: 1 modifier byte, 1 reserved byte, 6
// simultaneously-pressed key codes (USB HID 1.11 Appendix B.1).
const keyboardReportSize = 8

// Boot-protocol mouse report: 1 button byte, signed dX, dY (USB HID 1.11
// Appendix B.2). Some devices append a third (wheel) byte, ignored here.
const mouseReportMinSize = 3

// KeyboardState tracks the previous report so DecodeKeyboardReport can
// emit press/release edges, mirroring the PS/2 driver's up/down framing
// even though HID boot reports carry a full "currently held" snapshot
// rather than discrete make/break codes.
type KeyboardState struct {
	pressed [6]byte
}

// DecodeKeyboardReport compares report against the previously held keys
// and posts KeyPress for newly-appearing codes and KeyRelease for codes
// that disappeared, in USB HID usage-ID form (data1).
func DecodeKeyboardReport(st *KeyboardState, report []byte, q *event.Queue) {
	if len(report) < keyboardReportSize {
		return
	}

	var cur [6]byte
	copy(cur[:], report[2:8])

	for _, code := range cur {
		if code == 0 {
			continue
		}
		if !contains(st.pressed[:], code) {
			q.Post(event.Event{Kind: event.KeyPress, Data1: uint32(code)})
		}
	}

	for _, code := range st.pressed {
		if code == 0 {
			continue
		}
		if !contains(cur[:], code) {
			q.Post(event.Event{Kind: event.KeyRelease, Data1: uint32(code)})
		}
	}

	st.pressed = cur
}

func contains(set []byte, v byte) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// MouseState tracks integrated absolute position and the previous button
// mask, mirroring soc/intel/ps2's mouse packet integration so both input
// paths converge on the same event shapes.
type MouseState struct {
	X, Y    int32
	Buttons uint8
}

// DecodeMouseReport integrates a relative dX/dY boot-protocol report into
// absolute coordinates clamped to [0,width) x [0,height), and posts
// MouseMove plus per-button click/release edge events by XOR of the old
// and new button mask (spec.md §4.4).
func DecodeMouseReport(st *MouseState, report []byte, width, height int32, q *event.Queue) {
	if len(report) < mouseReportMinSize {
		return
	}

	buttons := report[0] & 0x07
	dx := int32(int8(report[1]))
	dy := int32(int8(report[2]))

	st.X = clamp(st.X+dx, 0, width-1)
	st.Y = clamp(st.Y+dy, 0, height-1)

	q.Post(event.Event{Kind: event.MouseMove, Data1: uint32(st.X), Data2: uint32(st.Y)})

	changed := buttons ^ st.Buttons
	for i := uint(0); i < 3; i++ {
		bit := uint8(1 << i)
		if changed&bit == 0 {
			continue
		}
		kind := event.MouseRelease
		if buttons&bit != 0 {
			kind = event.MouseClick
		}
		q.Post(event.Event{Kind: kind, Data1: uint32(st.X), Data2: uint32(st.Y) | uint32(i)<<16})
	}

	st.Buttons = buttons
}

func packXY(x, y int32) uint32 {
	return uint32(uint16(x))<<16 | uint32(uint16(y))
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
