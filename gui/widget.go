// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

// WidgetKind identifies what a Widget renders as and how the router
// treats its hit-test and drag behavior.
type WidgetKind int

const (
	Button WidgetKind = iota
	Label
	Slider
)

// Widget is a control owned by a Window. It back-references its parent by
// window ID, not pointer, so a stale Widget can never dereference a freed
// Window — the same registry-validated discipline as Manager.Focused
// (spec.md §9 "Window back-references").
type Widget struct {
	ParentID uint32
	Kind     WidgetKind

	// X, Y, W, H are relative to the parent window's client area.
	X, Y, W, H int32

	Label string

	Hover   bool
	Pressed bool

	// Min, Max, Value apply to Slider widgets; Value is clamped to
	// [Min, Max] by SetValue.
	Min, Max, Value int32

	OnClick func(*Widget)
}

// AddWidget attaches a widget to a window and returns it.
func (w *Window) AddWidget(wd *Widget) *Widget {
	wd.ParentID = w.ID
	w.Widgets = append(w.Widgets, wd)
	return wd
}

// Contains reports whether (x,y), in the parent window's client-area
// coordinates, falls within the widget's bounds.
func (wd *Widget) Contains(x, y int32) bool {
	return x >= wd.X && x < wd.X+wd.W && y >= wd.Y && y < wd.Y+wd.H
}

// HitTest returns the topmost (last-added) widget containing the given
// window-relative point, or nil.
func (w *Window) HitTest(x, y int32) *Widget {
	for i := len(w.Widgets) - 1; i >= 0; i-- {
		if w.Widgets[i].Contains(x, y) {
			return w.Widgets[i]
		}
	}
	return nil
}

// SetValue clamps and stores a slider's value, firing OnClick as the
// generic "changed" callback, mirroring how a Button's OnClick fires on
// activation.
func (wd *Widget) SetValue(v int32) {
	if wd.Kind != Slider {
		return
	}
	lo, hi := wd.Min, wd.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	wd.Value = v
	if wd.OnClick != nil {
		wd.OnClick(wd)
	}
}

// valueFromX maps a window-relative x (the track starts at wd.X) to a
// clamped value, used by the router to translate a drag position into
// Value.
func (wd *Widget) valueFromX(x int32) int32 {
	if wd.W <= 0 {
		return wd.Min
	}
	frac := x - wd.X
	if frac < 0 {
		frac = 0
	}
	if frac > wd.W {
		frac = wd.W
	}
	span := wd.Max - wd.Min
	return wd.Min + (span*frac)/wd.W
}
