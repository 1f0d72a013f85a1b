// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

// buttonWidth is the on-screen width of a single taskbar window button.
const buttonWidth = 120

// clockTickPeriod is how many TimerTick events elapse between clock
// re-reads, approximating the original's ~0.5s refresh at a 10Hz tick
// rate (spec.md §4.8 "taskbar clock").
const clockTickPeriod = 5

// Taskbar tracks the strip of buttons for windows created with
// Flags.InTaskbar, scrolling when they overflow the screen width, plus an
// RTC-driven clock string refreshed periodically rather than every tick.
type Taskbar struct {
	manager *Manager

	ids    []uint32
	scroll int

	ClockText string
	ticks     uint32

	// ReadClock is called on the clock refresh cadence to format the
	// current time; wired by the kernel to soc/intel/rtc.RTC.Now. Left
	// nil (no-op) in tests.
	ReadClock func() string
}

// Add appends a window's taskbar button at the end of the list.
func (tb *Taskbar) Add(w *Window) {
	tb.ids = append(tb.ids, w.ID)
}

// Remove drops a window's taskbar button, if present.
func (tb *Taskbar) Remove(id uint32) {
	for i, wid := range tb.ids {
		if wid == id {
			tb.ids = append(tb.ids[:i], tb.ids[i+1:]...)
			if tb.scroll > len(tb.ids) {
				tb.scroll = len(tb.ids)
			}
			return
		}
	}
}

// visibleCount returns how many buttons fit across the screen width.
func (tb *Taskbar) visibleCount() int {
	n := int(tb.manager.ScreenW) / buttonWidth
	if n < 1 {
		n = 1
	}
	return n
}

// ScrollBy adjusts the first-visible-button offset, clamped so the window
// never scrolls past the point where the last button is the rightmost
// visible one.
func (tb *Taskbar) ScrollBy(delta int) {
	max := len(tb.ids) - tb.visibleCount()
	if max < 0 {
		max = 0
	}
	tb.scroll += delta
	if tb.scroll < 0 {
		tb.scroll = 0
	}
	if tb.scroll > max {
		tb.scroll = max
	}
}

// Visible returns the window IDs currently scrolled into view.
func (tb *Taskbar) Visible() []uint32 {
	n := tb.visibleCount()
	start := tb.scroll
	if start > len(tb.ids) {
		start = len(tb.ids)
	}
	end := start + n
	if end > len(tb.ids) {
		end = len(tb.ids)
	}
	return tb.ids[start:end]
}

// ButtonAt returns the window ID whose button occupies x, measured from
// the right edge of the start button, or 0 if x falls on empty space.
func (tb *Taskbar) ButtonAt(x int32) uint32 {
	visible := tb.Visible()
	idx := int(x) / buttonWidth
	if idx < 0 || idx >= len(visible) {
		return 0
	}
	return visible[idx]
}

// Tick advances the clock refresh cadence, re-reading the clock text every
// clockTickPeriod ticks rather than on every call.
func (tb *Taskbar) Tick() {
	tb.ticks++
	if tb.ticks%clockTickPeriod != 0 {
		return
	}
	if tb.ReadClock != nil {
		tb.ClockText = tb.ReadClock()
	}
}

// HandleClick brings the clicked window to the front, restoring it first
// if minimized (spec.md §4.8 "taskbar clicks").
func (tb *Taskbar) HandleClick(id uint32) {
	win := tb.manager.Lookup(id)
	if win == nil {
		return
	}
	if win.Minimized {
		tb.manager.Restore(id)
	}
	tb.manager.Focus(id)
}
