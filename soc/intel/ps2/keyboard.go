// PS/2 keyboard driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ps2 implements the legacy PS/2 keyboard (IRQ1) and mouse (IRQ12)
// controller drivers, posting decoded input into the shared event queue
// (spec.md §4.4).
package ps2

import (
	"github.com/kestrel-kernel/kestrel/event"
	"github.com/kestrel-kernel/kestrel/internal/reg"
)

const (
	DataPort   = 0x60
	StatusPort = 0x64

	statusOutputFull = 1 << 0
)

// Scancode set 1 codes for the modifier keys (spec.md §4.4).
const (
	keyLShift     = 0x2a
	keyRShift     = 0x36
	keyLCtrl      = 0x1d
	keyLAlt       = 0x38
	keyCapsLock   = 0x3a
	keyNumLock    = 0x45
	keyScrollLock = 0x46
)

const releaseBit = 0x80

// portIn8 is the port-read strategy Handle uses; it is a variable so
// tests can substitute a fake in place of real port I/O.
var portIn8 = reg.In8

// Modifiers tracks the live modifier state (spec.md §4.4 "shift/ctrl/alt/
// caps/num/scroll").
type Modifiers struct {
	Shift      bool
	Ctrl       bool
	Alt        bool
	CapsLock   bool
	NumLock    bool
	ScrollLock bool
}

// Keyboard is the PS/2 keyboard driver's state, owned by the handler that
// runs on IRQ1.
type Keyboard struct {
	Mods Modifiers
}

// Handle reads one scancode from the data port and posts KeyPress or
// KeyRelease with the raw scancode in Data1 and the ASCII translation (0
// if none) in Data2 — the decoded print column is computed here rather
// than overwritten afterward, per the "preserve ASCII" resolution (spec.md
// §9 open question 2).
func (k *Keyboard) Handle(q *event.Queue) {
	if portIn8(StatusPort)&statusOutputFull == 0 {
		return
	}

	scancode := portIn8(DataPort)
	code := scancode &^ releaseBit
	released := scancode&releaseBit != 0

	k.updateModifiers(code, released)

	kind := event.KeyPress
	if released {
		kind = event.KeyRelease
	}

	ascii := translate(code, k.Mods)

	q.Post(event.Event{
		Kind:  kind,
		Data1: uint32(code),
		Data2: uint32(ascii),
	})
}

func (k *Keyboard) updateModifiers(code uint8, released bool) {
	switch code {
	case keyLShift, keyRShift:
		k.Mods.Shift = !released
	case keyLCtrl:
		k.Mods.Ctrl = !released
	case keyLAlt:
		k.Mods.Alt = !released
	case keyCapsLock:
		if !released {
			k.Mods.CapsLock = !k.Mods.CapsLock
		}
	case keyNumLock:
		if !released {
			k.Mods.NumLock = !k.Mods.NumLock
		}
	case keyScrollLock:
		if !released {
			k.Mods.ScrollLock = !k.Mods.ScrollLock
		}
	}
}

// translate maps a make-code to its printable ASCII character for a US
// QWERTY layout, honoring Shift and CapsLock (letters only), or 0 for
// non-printable/unmapped codes.
func translate(code uint8, m Modifiers) byte {
	if int(code) >= len(scancodeMap) {
		return 0
	}

	c := scancodeMap[code]
	if m.Shift {
		c = scancodeMapShift[code]
	}

	if m.CapsLock && c != 0 {
		switch {
		case c >= 'a' && c <= 'z':
			c -= 32
		case c >= 'A' && c <= 'Z':
			c += 32
		}
	}

	return c
}

var scancodeMap = [128]byte{
	0, 0, '1', '2', '3', '4', '5', '6',
	'7', '8', '9', '0', '-', '=', '\b', '\t',
	'q', 'w', 'e', 'r', 't', 'y', 'u', 'i',
	'o', 'p', '[', ']', '\n', 0, 'a', 's',
	'd', 'f', 'g', 'h', 'j', 'k', 'l', ';',
	'\'', '`', 0, '\\', 'z', 'x', 'c', 'v',
	'b', 'n', 'm', ',', '.', '/', 0, '*',
	0, ' ', 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, '7',
	'8', '9', '-', '4', '5', '6', '+', '1',
	'2', '3', '0', '.', 0, 0, 0, 0,
}

var scancodeMapShift = [128]byte{
	0, 0, '!', '@', '#', '$', '%', '^',
	'&', '*', '(', ')', '_', '+', '\b', '\t',
	'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I',
	'O', 'P', '{', '}', '\n', 0, 'A', 'S',
	'D', 'F', 'G', 'H', 'J', 'K', 'L', ':',
	'"', '~', 0, '|', 'Z', 'X', 'C', 'V',
	'B', 'N', 'M', '<', '>', '?', 0, '*',
	0, ' ', 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, '7',
	'8', '9', '-', '4', '5', '6', '+', '1',
	'2', '3', '0', '.', 0, 0, 0, 0,
}
