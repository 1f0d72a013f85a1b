// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

import (
	"testing"

	"github.com/kestrel-kernel/kestrel/event"
)

func clickEvent(x, y int32, button uint32) event.Event {
	return event.Event{Kind: event.MouseClick, Data1: uint32(x), Data2: uint32(y) | button<<16}
}

func moveEvent(x, y int32) event.Event {
	return event.Event{Kind: event.MouseMove, Data1: uint32(x), Data2: uint32(y)}
}

func releaseEvent(x, y int32, button uint32) event.Event {
	return event.Event{Kind: event.MouseRelease, Data1: uint32(x), Data2: uint32(y) | button<<16}
}

func TestRouterClickFocusesAndBeginsDrag(t *testing.T) {
	m := NewManager(800, 600)
	back := m.CreateWindow("back", 0, 0, 200, 200, Flags{})
	front := m.CreateWindow("front", 300, 300, 200, 200, Flags{})
	r := NewRouter(m)

	r.Dispatch(clickEvent(50, 50, 0))
	if m.Focused() != back {
		t.Fatalf("expected click on back window to focus it")
	}
	if r.capture != captureWindow || r.captureWinID != back.ID {
		t.Fatalf("expected drag capture initiated on back window")
	}

	r.Dispatch(moveEvent(100, 120))
	if back.X == 0 && back.Y == 0 {
		t.Fatalf("expected window to move under drag")
	}

	r.Dispatch(releaseEvent(100, 120, 0))
	if r.capture != captureNone {
		t.Fatalf("expected capture cleared on release")
	}
	_ = front
}

func TestRouterDragTakesPriorityOverOtherDispatch(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 200, 200, Flags{})
	r := NewRouter(m)
	r.capture = captureWindow
	r.captureWinID = w.ID
	r.dragOffX, r.dragOffY = 10, 10

	// A move that would otherwise land on the taskbar strip must still be
	// treated as a drag update, since capture is checked before anything
	// else in the chain.
	r.Dispatch(moveEvent(40, 590))
	if w.Y == 0 {
		t.Fatalf("expected drag update to move window even near taskbar band")
	}
}

func TestRouterTitleBarCloseButton(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 200, 100, Flags{})
	r := NewRouter(m)

	closeX := w.W - buttonSize/2
	r.Dispatch(clickEvent(closeX, 5, 0))

	if m.Lookup(w.ID) != nil {
		t.Fatalf("expected close button click to close the window")
	}
}

func TestRouterFunctionKeyF11TogglesMaximize(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 10, 10, 100, 100, Flags{Maximizable: true})
	m.Focus(w.ID)
	r := NewRouter(m)

	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeF11})
	if !w.Maximized {
		t.Fatalf("expected F11 to maximize focused window")
	}
	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeF11})
	if w.Maximized {
		t.Fatalf("expected second F11 to restore")
	}
}

func TestRouterFunctionKeyF1TogglesDebugOverlay(t *testing.T) {
	m := NewManager(800, 600)
	r := NewRouter(m)

	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeF1})
	if !m.DebugOverlay {
		t.Fatalf("expected F1 to enable the debug overlay")
	}
	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeF1})
	if m.DebugOverlay {
		t.Fatalf("expected second F1 to disable the debug overlay")
	}
}

func TestRouterWindowsKeyTogglesStartMenu(t *testing.T) {
	m := NewManager(800, 600)
	r := NewRouter(m)

	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeLWin})
	if !m.startMenuOpen {
		t.Fatalf("expected Windows key to open the start menu")
	}
	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeLWin})
	if m.startMenuOpen {
		t.Fatalf("expected second Windows key press to close the start menu")
	}
}

func TestRouterFunctionKeyF2InvokesHook(t *testing.T) {
	m := NewManager(800, 600)
	r := NewRouter(m)

	calls := 0
	r.OnFunctionKey = func(scancode uint32) {
		calls++
		if scancode != scancodeF2 {
			t.Fatalf("expected hook called with F2 scancode, got %#x", scancode)
		}
	}

	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeF2})
	if calls != 1 {
		t.Fatalf("expected OnFunctionKey invoked once, got %d", calls)
	}
	if m.DebugOverlay {
		t.Fatalf("expected F2 not to touch the debug overlay")
	}
}

func TestRouterWidgetClickTakesPriorityOverDragInit(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 200, 100, Flags{})
	clicked := false
	w.AddWidget(&Widget{X: 10, Y: 10, W: 30, H: 20, Kind: Button, OnClick: func(*Widget) {
		clicked = true
	}})
	r := NewRouter(m)

	// widget at window-relative (10,10)-(40,30); titleBarHeight=20, so
	// client-area y=10 maps to absolute y = titleBarHeight+10 = 30.
	r.Dispatch(clickEvent(20, 30, 0))

	if !clicked {
		t.Fatalf("expected widget OnClick to fire")
	}
	if r.capture != captureNone {
		t.Fatalf("expected no drag to start when a widget was hit")
	}
}

func TestRouterSliderDragUpdatesValue(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 200, 100, Flags{})
	sl := w.AddWidget(&Widget{X: 0, Y: 0, W: 100, H: 10, Kind: Slider, Min: 0, Max: 100})
	r := NewRouter(m)

	// slider spans absolute x [0,100), y band [titleBarHeight, titleBarHeight+10)
	r.Dispatch(clickEvent(0, titleBarHeight, 0))
	if r.capture != captureSlider {
		t.Fatalf("expected slider capture")
	}
	r.Dispatch(moveEvent(50, titleBarHeight))
	if sl.Value != 50 {
		t.Fatalf("expected slider value ~50, got %d", sl.Value)
	}
	r.Dispatch(releaseEvent(50, titleBarHeight, 0))
	if r.capture != captureNone {
		t.Fatalf("expected capture released")
	}
}

func TestRouterShutdownModalGateBlocksInput(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 100, 100, Flags{})
	m.Shutdown.Begin(m)
	r := NewRouter(m)

	r.Dispatch(clickEvent(50, 50, 0))
	if m.Focused() == w && w.Visible {
		// window was hidden by Begin; clicking should not re-show it
	}
	if w.Visible {
		t.Fatalf("expected window to stay hidden while shutdown modal is active")
	}
}

func TestRouterShutdownEscCancels(t *testing.T) {
	m := NewManager(800, 600)
	m.CreateWindow("a", 0, 0, 100, 100, Flags{})
	m.Shutdown.Begin(m)

	r := NewRouter(m)
	r.Dispatch(event.Event{Kind: event.KeyPress, Data1: scancodeEsc})

	if m.Shutdown.State != Canceling {
		t.Fatalf("expected Esc to move shutdown into Canceling, got %v", m.Shutdown.State)
	}
}

func TestRouterTaskbarClickRestoresAndFocuses(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 100, 100, Flags{InTaskbar: true, Minimizable: true})
	m.Minimize(w.ID)

	r := NewRouter(m)
	// taskbar band starts at ScreenH-TaskbarHeight; first button after the
	// start-menu button occupies [startButtonWidth, startButtonWidth+buttonWidth).
	r.Dispatch(clickEvent(startButtonWidth+10, m.ScreenH-5, 0))

	if w.Minimized {
		t.Fatalf("expected taskbar click to restore the minimized window")
	}
	if m.Focused() != w {
		t.Fatalf("expected taskbar click to focus the window")
	}
}
