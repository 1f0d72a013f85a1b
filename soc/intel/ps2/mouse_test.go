// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package ps2

import (
	"testing"

	"github.com/kestrel-kernel/kestrel/event"
)

// fakeMousePorts feeds a sequence of raw status/data bytes to portIn8, one
// entry consumed per call (unlike fakePorts, since a mouse packet spans
// three independent byte reads rather than a fixed status+data pair).
func fakeMousePorts(t *testing.T, bytes []uint8) func() {
	t.Helper()
	i := 0
	prev := portIn8
	portIn8 = func(port uint16) uint8 {
		if port == StatusPort {
			return statusAuxData
		}
		if i >= len(bytes) {
			t.Fatalf("portIn8(data) called more times than scripted")
		}
		v := bytes[i]
		i++
		return v
	}
	return func() { portIn8 = prev }
}

func TestMouseHandleAccumulatesPacketAndMoves(t *testing.T) {
	// header: always-one bit set, no sign bits; dx=+10, dy=+5 (PS/2 frame,
	// inverted to screen frame on integration)
	restore := fakeMousePorts(t, []uint8{packetAlwaysOne, 10, 5})
	defer restore()

	m := NewMouse(100, 100)
	q := event.NewQueue(8)

	m.Handle(q)
	m.Handle(q)
	m.Handle(q)

	if m.X != 60 || m.Y != 45 {
		t.Fatalf("got (%d,%d), want (60,45)", m.X, m.Y)
	}

	var e event.Event
	if !q.Poll(&e) || e.Kind != event.MouseMove {
		t.Fatalf("expected MouseMove, got %+v", e)
	}
}

func TestMouseHandleRejectsBadHeader(t *testing.T) {
	restore := fakeMousePorts(t, []uint8{0x00, 10, 5}) // always-one bit missing
	defer restore()

	m := NewMouse(100, 100)
	q := event.NewQueue(8)

	m.Handle(q)
	m.Handle(q)
	m.Handle(q)

	if q.Len() != 0 {
		t.Fatalf("expected no event for a desynchronized packet")
	}
	if m.X != 50 || m.Y != 50 {
		t.Fatalf("position should not move on a rejected packet")
	}
}

func TestMouseHandleClampsToScreen(t *testing.T) {
	// dx raw=246 (-10 with sign bit), dy raw=236 (-20 with sign bit,
	// inverted to screen frame as +20) — both push past the 10x10 bounds
	restore := fakeMousePorts(t, []uint8{packetAlwaysOne | packetSignX | packetSignY, 246, 236})
	defer restore()

	m := NewMouse(10, 10)
	m.X, m.Y = 1, 1
	q := event.NewQueue(8)

	m.Handle(q)
	m.Handle(q)
	m.Handle(q)

	if m.X != 0 || m.Y != 9 {
		t.Fatalf("got (%d,%d), want (0,9)", m.X, m.Y)
	}
}

func TestMouseHandlePostsClickAndReleaseEdges(t *testing.T) {
	restore := fakeMousePorts(t, []uint8{packetAlwaysOne | 0x01, 0, 0})
	defer restore()

	m := NewMouse(100, 100)
	q := event.NewQueue(8)

	m.Handle(q)
	m.Handle(q)
	m.Handle(q)

	var e event.Event
	q.Poll(&e) // move
	if !q.Poll(&e) || e.Kind != event.MouseClick {
		t.Fatalf("expected MouseClick, got %+v", e)
	}
}
