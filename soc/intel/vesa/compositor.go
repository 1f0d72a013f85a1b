// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package vesa

// Renderer draws the current GUI scene into the back buffer, marking
// dirty rects as it goes (spec.md §4.7 step 3). The caller of Tick (the
// kernel's main loop, passing its render method) supplies this.
type Renderer func(d *Display)

// Tick runs the five-stage compositor once: hide cursor, restore dirty
// background, render, draw cursor, swap (spec.md §4.7, §5 main-loop
// structure).
func (d *Display) Tick(render Renderer) {
	d.hideCursor()
	d.restoreDirtyBackground()
	if render != nil {
		render(d)
	}
	d.drawCursor()
	d.Swap()
}
