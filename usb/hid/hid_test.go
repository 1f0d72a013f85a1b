// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hid

import (
	"testing"

	"github.com/kestrel-kernel/kestrel/event"
)

func TestDecodeKeyboardReportEmitsPressThenRelease(t *testing.T) {
	q := event.NewQueue(8)
	var st KeyboardState

	DecodeKeyboardReport(&st, []byte{0, 0, 0x04, 0, 0, 0, 0, 0}, q)

	var e event.Event
	if !q.Poll(&e) || e.Kind != event.KeyPress || e.Data1 != 0x04 {
		t.Fatalf("expected KeyPress(0x04), got %+v", e)
	}

	DecodeKeyboardReport(&st, []byte{0, 0, 0, 0, 0, 0, 0, 0}, q)

	if !q.Poll(&e) || e.Kind != event.KeyRelease || e.Data1 != 0x04 {
		t.Fatalf("expected KeyRelease(0x04), got %+v", e)
	}
	if q.Len() != 0 {
		t.Fatalf("unexpected extra events: %d", q.Len())
	}
}

func TestDecodeMouseReportIntegratesAndClamps(t *testing.T) {
	q := event.NewQueue(8)
	st := MouseState{X: 5, Y: 5}

	DecodeMouseReport(&st, []byte{0x00, 0xf6, 0xf6}, 100, 100, q) // dX = dY = -10

	if st.X != 0 || st.Y != 0 {
		t.Fatalf("expected clamp to (0,0), got (%d,%d)", st.X, st.Y)
	}

	var e event.Event
	if !q.Poll(&e) || e.Kind != event.MouseMove {
		t.Fatalf("expected MouseMove, got %+v", e)
	}
}

func TestDecodeMouseReportPostsClickAndReleaseEdges(t *testing.T) {
	q := event.NewQueue(8)
	st := MouseState{X: 50, Y: 50}

	DecodeMouseReport(&st, []byte{0x01, 0, 0}, 100, 100, q) // button 0 down

	var e event.Event
	q.Poll(&e) // move
	// Data2 = y (50) in the low 16 bits, button index 0 above them
	if !q.Poll(&e) || e.Kind != event.MouseClick || e.Data2 != 50 {
		t.Fatalf("expected MouseClick(button 0), got %+v", e)
	}

	DecodeMouseReport(&st, []byte{0x00, 0, 0}, 100, 100, q) // button 0 up

	q.Poll(&e) // move
	if !q.Poll(&e) || e.Kind != event.MouseRelease || e.Data2 != 50 {
		t.Fatalf("expected MouseRelease(button 0), got %+v", e)
	}
}
