// Window manager core
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package gui implements the window manager, widget toolkit, taskbar, and
// shutdown state machine (spec.md §4.8).
package gui

import (
	"fmt"
	"strings"
)

// TaskbarHeight is the strip reserved at the bottom of the screen for the
// taskbar; maximized windows size to screen height minus this.
const TaskbarHeight = 32

// Flags are the capability bits a window is created with; Movable,
// Resizable and Closable default on, Maximizable/Minimizable/InTaskbar
// are opt-in (spec.md §4.8 "Window lifecycle").
type Flags struct {
	Maximizable bool
	Minimizable bool
	InTaskbar   bool
}

type savedGeometry struct {
	x, y, w, h       int32
	movable, resizable bool
}

// Window is a single top-level window. ParentWindow back-references from
// widgets are resolved through Manager's registry, never stored as raw
// pointers (spec.md §9 "Window back-references").
type Window struct {
	ID    uint32
	Title string

	X, Y, W, H int32

	Movable     bool
	Resizable   bool
	Closable    bool
	Maximizable bool
	Minimizable bool
	InTaskbar   bool

	Visible   bool
	Minimized bool
	Maximized bool

	ZIndex int

	Widgets []*Widget

	saved savedGeometry
}

// Manager owns the window registry, z-order list, taskbar, and shutdown
// state machine — the GUI's singleton state (spec.md §9 "Global mutable
// state").
type Manager struct {
	ScreenW, ScreenH int32

	registry map[uint32]*Window
	order    []uint32 // z-order, index 0 = bottom, last = topmost
	nextID   uint32

	focusedID uint32

	Taskbar  Taskbar
	Shutdown Shutdown

	startMenuOpen bool

	// DebugOverlay toggles the F1 debug overlay (spec.md §6 "F1 toggles
	// debug overlay"); the kernel's render pass reads it to decide
	// whether to draw the overlay text.
	DebugOverlay bool
}

// NewManager constructs an empty desktop sized to the given screen
// dimensions (typically the VESA framebuffer's).
func NewManager(screenW, screenH int32) *Manager {
	m := &Manager{
		ScreenW:  screenW,
		ScreenH:  screenH,
		registry: make(map[uint32]*Window),
		nextID:   1,
	}
	m.Taskbar.manager = m
	return m
}

// CreateWindow allocates a new window, registers it, and places it at the
// top of the z-order (becoming focused).
func (m *Manager) CreateWindow(title string, x, y, w, h int32, f Flags) *Window {
	win := &Window{
		ID:          m.nextID,
		Title:       title,
		X:           x,
		Y:           y,
		W:           w,
		H:           h,
		Movable:     true,
		Resizable:   true,
		Closable:    true,
		Maximizable: f.Maximizable,
		Minimizable: f.Minimizable,
		InTaskbar:   f.InTaskbar,
		Visible:     true,
	}
	m.nextID++

	m.registry[win.ID] = win
	m.order = append(m.order, win.ID)
	m.renumber()
	m.focusedID = win.ID

	if win.InTaskbar {
		m.Taskbar.Add(win)
	}

	return win
}

// Lookup validates id against the registry, returning nil for any id that
// does not name a live window (spec.md §8 "gui.registry[W.id % N] equals
// W iff W is live").
func (m *Manager) Lookup(id uint32) *Window {
	return m.registry[id]
}

// Focused returns the focused window, re-validating the back-reference
// against the registry before every use (spec.md §9).
func (m *Manager) Focused() *Window {
	return m.registry[m.focusedID]
}

// Focus brings id's window to the top of the z-order and makes it the
// focused window. Returns false for an invalid handle (spec.md §7
// "Invalid window handle").
func (m *Manager) Focus(id uint32) bool {
	win := m.registry[id]
	if win == nil {
		return false
	}

	idx := m.indexOf(id)
	if idx < 0 {
		return false
	}
	m.order = append(m.order[:idx], m.order[idx+1:]...)
	m.order = append(m.order, id)
	m.renumber()
	m.focusedID = id
	return true
}

func (m *Manager) indexOf(id uint32) int {
	for i, wid := range m.order {
		if wid == id {
			return i
		}
	}
	return -1
}

// renumber assigns ZIndex 0..N-1 by position in m.order (spec.md §4.8
// "Z-order").
func (m *Manager) renumber() {
	for i, id := range m.order {
		if w := m.registry[id]; w != nil {
			w.ZIndex = i
		}
	}
}

// Windows returns the window list sorted by z-index ascending (bottom to
// top), the order rendering consumes it in.
func (m *Manager) Windows() []*Window {
	out := make([]*Window, 0, len(m.order))
	for _, id := range m.order {
		if w := m.registry[id]; w != nil {
			out = append(out, w)
		}
	}
	return out
}

// DumpState formats the z-order, from bottom to top, as one line per
// window: ID, title, geometry, and visible/minimized/maximized flags
// (spec.md §6 "F2 dumps WM state to serial"). The kernel logs the result
// verbatim; there is no machine-readable contract on its layout.
func (m *Manager) DumpState() string {
	var b strings.Builder
	fmt.Fprintf(&b, "wm state: %d window(s), focused=%d, startMenuOpen=%v\n", len(m.order), m.focusedID, m.startMenuOpen)
	for i, id := range m.order {
		w := m.registry[id]
		if w == nil {
			continue
		}
		fmt.Fprintf(&b, "  [%d] id=%d %q x=%d y=%d w=%d h=%d visible=%v minimized=%v maximized=%v\n",
			i, w.ID, w.Title, w.X, w.Y, w.W, w.H, w.Visible, w.Minimized, w.Maximized)
	}
	return b.String()
}

// Topmost returns the topmost visible, non-minimized window, or nil.
func (m *Manager) Topmost() *Window {
	for i := len(m.order) - 1; i >= 0; i-- {
		if w := m.registry[m.order[i]]; w != nil && w.Visible && !w.Minimized {
			return w
		}
	}
	return nil
}

// TopmostAt returns the topmost visible, non-minimized window containing
// (x,y), or nil.
func (m *Manager) TopmostAt(x, y int32) *Window {
	for i := len(m.order) - 1; i >= 0; i-- {
		w := m.registry[m.order[i]]
		if w == nil || !w.Visible || w.Minimized {
			continue
		}
		if w.Contains(x, y) {
			return w
		}
	}
	return nil
}

// Contains reports whether (x,y) is within the window's screen-space
// bounding box.
func (w *Window) Contains(x, y int32) bool {
	return x >= w.X && x < w.X+w.W && y >= w.Y && y < w.Y+w.H
}

// Close removes the window from the registry and z-order, drops its
// widgets, and removes its taskbar entry (spec.md §4.8 "close").
func (m *Manager) Close(id uint32) bool {
	win := m.registry[id]
	if win == nil {
		return false
	}

	idx := m.indexOf(id)
	if idx >= 0 {
		m.order = append(m.order[:idx], m.order[idx+1:]...)
	}
	delete(m.registry, id)
	m.renumber()

	if win.InTaskbar {
		m.Taskbar.Remove(id)
	}
	if m.focusedID == id {
		m.focusedID = 0
	}

	return true
}

// Minimize hides the window without altering geometry (spec.md §4.8
// "minimize").
func (m *Manager) Minimize(id uint32) bool {
	win := m.registry[id]
	if win == nil || !win.Minimizable {
		return false
	}
	win.Visible = false
	win.Minimized = true
	return true
}

// Maximize saves the current geometry and capability flags, then resizes
// the window to fill the screen above the taskbar (spec.md §4.8
// "maximize").
func (m *Manager) Maximize(id uint32) bool {
	win := m.registry[id]
	if win == nil || !win.Maximizable || win.Maximized {
		return false
	}

	win.saved = savedGeometry{
		x: win.X, y: win.Y, w: win.W, h: win.H,
		movable: win.Movable, resizable: win.Resizable,
	}

	win.X, win.Y = 0, 0
	win.W, win.H = m.ScreenW, m.ScreenH-TaskbarHeight
	win.Movable = false
	win.Resizable = false
	win.Maximized = true

	return true
}

// Restore reverses Minimize or Maximize, whichever is active, returning
// the window to its prior geometry and capability flags verbatim
// (spec.md §8 "minimize ∘ restore = identity", "maximize ∘ restore =
// identity").
func (m *Manager) Restore(id uint32) bool {
	win := m.registry[id]
	if win == nil {
		return false
	}

	switch {
	case win.Minimized:
		win.Visible = true
		win.Minimized = false
		return true
	case win.Maximized:
		win.X, win.Y, win.W, win.H = win.saved.x, win.saved.y, win.saved.w, win.saved.h
		win.Movable, win.Resizable = win.saved.movable, win.saved.resizable
		win.Maximized = false
		return true
	}
	return false
}
