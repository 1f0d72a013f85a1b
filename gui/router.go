// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

import "github.com/kestrel-kernel/kestrel/event"

// Scancode-set-1 codes for the keys the router treats as function keys
// (spec.md §4.8 "function keys"). Kept local to gui rather than imported
// from ps2 — the router only cares about the raw codes keyboard.Handle
// already places in Event.Data1.
const (
	scancodeEsc  = 0x01
	scancodeF1   = 0x3b
	scancodeF2   = 0x3c
	scancodeF11  = 0x57
	scancodeLWin = 0x5b
)

const (
	titleBarHeight     = 20
	buttonSize         = 16
	startButtonWidth   = 80
	titleBarMinVisible = 30
)

type captureKind int

const (
	captureNone captureKind = iota
	captureWindow
	captureSlider
)

// Router dispatches posted input events to the desktop in strict priority
// order (spec.md §4.8 "event router"):
//
//  1. shutdown modal gate
//  2. function keys (F1 debug overlay, F2 WM-state dump, F11 maximize
//     toggle, Esc close/cancel, Windows key start-menu toggle)
//  3. a pending drag or slider capture
//  4. taskbar clicks
//  5. start menu capture
//  6. topmost-window hit test (widgets, then title bar buttons, then drag-init)
//  7. hover tracking on a plain mouse move
type Router struct {
	m *Manager

	capture      captureKind
	captureWinID uint32
	captureWidg  *Widget
	dragOffX     int32
	dragOffY     int32

	// OnFunctionKey is called for F2, which has no built-in behavior of
	// its own; the kernel wires it to dumping the WM state to serial
	// (spec.md §6 "F2 dumps WM state to serial").
	OnFunctionKey func(scancode uint32)
}

// NewRouter returns a Router bound to m.
func NewRouter(m *Manager) *Router {
	return &Router{m: m}
}

// Dispatch routes a single event through the priority chain. It is the
// only entry point; callers drain the event queue and call Dispatch once
// per polled event.
func (r *Router) Dispatch(e event.Event) {
	m := r.m

	if m.Shutdown.Active() {
		if e.Kind == event.KeyPress && e.Data1 == scancodeEsc && m.Shutdown.State == Dialog {
			m.Shutdown.Cancel()
		}
		return
	}

	if e.Kind == event.KeyPress {
		switch e.Data1 {
		case scancodeF1:
			m.DebugOverlay = !m.DebugOverlay
			return
		case scancodeF2:
			if r.OnFunctionKey != nil {
				r.OnFunctionKey(e.Data1)
			}
			return
		case scancodeLWin:
			m.startMenuOpen = !m.startMenuOpen
			return
		case scancodeF11:
			if w := m.Focused(); w != nil && w.Maximizable {
				if w.Maximized {
					m.Restore(w.ID)
				} else {
					m.Maximize(w.ID)
				}
			}
			return
		case scancodeEsc:
			if w := m.Focused(); w != nil && w.Closable {
				m.Close(w.ID)
			}
			return
		}
		return
	}

	if r.capture != captureNone {
		switch e.Kind {
		case event.MouseMove:
			r.updateCapture(int32(e.Data1), int32(e.Data2))
			return
		case event.MouseRelease:
			r.capture = captureNone
			r.captureWidg = nil
			return
		}
	}

	if e.Kind != event.MouseMove && e.Kind != event.MouseClick && e.Kind != event.MouseRelease {
		return
	}

	x := int32(e.Data1)
	y := int32(e.Data2 & 0xffff)

	if e.Kind == event.MouseClick && y >= m.ScreenH-TaskbarHeight {
		r.handleTaskbarClick(x)
		return
	}

	if m.startMenuOpen {
		if e.Kind == event.MouseClick {
			m.startMenuOpen = false
		}
		return
	}

	switch e.Kind {
	case event.MouseClick:
		win := m.TopmostAt(x, y)
		if win == nil {
			return
		}
		m.Focus(win.ID)
		r.handleWindowClick(win, x, y)

	case event.MouseMove:
		r.updateHover(x, y)
	}
}

func (r *Router) handleTaskbarClick(x int32) {
	m := r.m
	if x < startButtonWidth {
		m.startMenuOpen = !m.startMenuOpen
		return
	}
	if id := m.Taskbar.ButtonAt(x - startButtonWidth); id != 0 {
		m.Taskbar.HandleClick(id)
	}
}

// handleWindowClick applies the within-window priority: title bar buttons
// take precedence when the click is in the title bar band; otherwise
// widgets are hit-tested before falling back to drag initiation on empty
// client area (spec.md §4.8 "widgets before titlebar buttons before drag
// init" — NOTE: the title bar band itself is checked first since widgets
// never occupy it).
func (r *Router) handleWindowClick(win *Window, x, y int32) {
	relX := x - win.X
	relY := y - win.Y

	if relY < titleBarHeight {
		r.handleTitleBarClick(win, relX)
		return
	}

	clientY := relY - titleBarHeight
	if wd := win.HitTest(relX, clientY); wd != nil {
		r.activateWidget(win, wd, relX)
		return
	}

	if win.Movable {
		r.capture = captureWindow
		r.captureWinID = win.ID
		r.dragOffX, r.dragOffY = x-win.X, y-win.Y
	}
}

func (r *Router) handleTitleBarClick(win *Window, relX int32) {
	m := r.m
	btnX := win.W - buttonSize
	if win.Closable && relX >= btnX && relX < btnX+buttonSize {
		m.Close(win.ID)
		return
	}
	btnX -= buttonSize
	if win.Maximizable && relX >= btnX && relX < btnX+buttonSize {
		if win.Maximized {
			m.Restore(win.ID)
		} else {
			m.Maximize(win.ID)
		}
		return
	}
	btnX -= buttonSize
	if win.Minimizable && relX >= btnX && relX < btnX+buttonSize {
		m.Minimize(win.ID)
		return
	}

	if win.Movable {
		r.capture = captureWindow
		r.captureWinID = win.ID
		// offset captured relative to the window origin; the title bar
		// y component is irrelevant since drag only moves X/Y together.
		r.dragOffX, r.dragOffY = relX, 0
	}
}

func (r *Router) activateWidget(win *Window, wd *Widget, relX int32) {
	switch wd.Kind {
	case Slider:
		r.capture = captureSlider
		r.captureWinID = win.ID
		r.captureWidg = wd
		wd.SetValue(wd.valueFromX(relX))
	default:
		wd.Pressed = true
		if wd.OnClick != nil {
			wd.OnClick(wd)
		}
	}
}

func (r *Router) updateCapture(x, y int32) {
	m := r.m
	win := m.Lookup(r.captureWinID)
	if win == nil {
		r.capture = captureNone
		r.captureWidg = nil
		return
	}

	switch r.capture {
	case captureWindow:
		if !win.Movable {
			return
		}
		newX := clampI32(x-r.dragOffX, -(win.W - titleBarMinVisible), m.ScreenW-titleBarMinVisible)
		newY := clampI32(y-r.dragOffY, 0, m.ScreenH-TaskbarHeight-titleBarHeight)
		win.X, win.Y = newX, newY

	case captureSlider:
		if r.captureWidg == nil {
			return
		}
		relX := x - win.X
		r.captureWidg.SetValue(r.captureWidg.valueFromX(relX))
	}
}

func (r *Router) updateHover(x, y int32) {
	m := r.m
	win := m.TopmostAt(x, y)
	for _, w := range m.Windows() {
		for _, wd := range w.Widgets {
			wd.Hover = false
		}
	}
	if win == nil {
		return
	}
	relX := x - win.X
	relY := y - win.Y - titleBarHeight
	if wd := win.HitTest(relX, relY); wd != nil {
		wd.Hover = true
	}
}

func clampI32(v, lo, hi int32) int32 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
