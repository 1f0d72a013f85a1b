// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

import (
	"strings"
	"testing"
)

func TestCreateWindowBecomesFocusedAndTopmost(t *testing.T) {
	m := NewManager(800, 600)
	w1 := m.CreateWindow("a", 0, 0, 100, 100, Flags{})
	w2 := m.CreateWindow("b", 0, 0, 100, 100, Flags{})

	if m.Focused() != w2 {
		t.Fatalf("expected newest window focused")
	}
	if m.Topmost() != w2 {
		t.Fatalf("expected newest window topmost")
	}
	if w1.ZIndex != 0 || w2.ZIndex != 1 {
		t.Fatalf("expected z-index 0,1 got %d,%d", w1.ZIndex, w2.ZIndex)
	}
}

func TestFocusRenumbersZIndex(t *testing.T) {
	m := NewManager(800, 600)
	w1 := m.CreateWindow("a", 0, 0, 10, 10, Flags{})
	w2 := m.CreateWindow("b", 0, 0, 10, 10, Flags{})
	_ = w2

	m.Focus(w1.ID)
	if m.Topmost() != w1 {
		t.Fatalf("expected w1 topmost after focus")
	}
	if w1.ZIndex != 1 {
		t.Fatalf("expected w1 renumbered to top, got %d", w1.ZIndex)
	}
}

func TestLookupInvalidHandleReturnsNil(t *testing.T) {
	m := NewManager(800, 600)
	if m.Lookup(9999) != nil {
		t.Fatalf("expected nil for unregistered id")
	}
	if m.Focus(9999) {
		t.Fatalf("expected Focus to fail for invalid handle")
	}
}

func TestCloseRemovesFromRegistryAndOrder(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 10, 10, Flags{})
	id := w.ID

	if !m.Close(id) {
		t.Fatalf("expected Close to succeed")
	}
	if m.Lookup(id) != nil {
		t.Fatalf("expected window gone from registry")
	}
	if len(m.order) != 0 {
		t.Fatalf("expected window removed from z-order")
	}
	if m.Focused() != nil {
		t.Fatalf("expected focus cleared")
	}
}

func TestMinimizeRestoreRoundTrip(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 10, 20, 300, 200, Flags{Minimizable: true})

	if !m.Minimize(w.ID) {
		t.Fatalf("expected Minimize to succeed")
	}
	if w.Visible || !w.Minimized {
		t.Fatalf("expected window hidden and minimized")
	}
	if w.X != 10 || w.Y != 20 || w.W != 300 || w.H != 200 {
		t.Fatalf("minimize must not alter geometry, got %d,%d,%d,%d", w.X, w.Y, w.W, w.H)
	}

	if !m.Restore(w.ID) {
		t.Fatalf("expected Restore to succeed")
	}
	if !w.Visible || w.Minimized {
		t.Fatalf("expected window visible and not minimized after restore")
	}
	if w.X != 10 || w.Y != 20 || w.W != 300 || w.H != 200 {
		t.Fatalf("restore must preserve geometry, got %d,%d,%d,%d", w.X, w.Y, w.W, w.H)
	}
}

func TestMaximizeRestoreRoundTrip(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 10, 20, 300, 200, Flags{Maximizable: true})

	if !m.Maximize(w.ID) {
		t.Fatalf("expected Maximize to succeed")
	}
	if w.X != 0 || w.Y != 0 || w.W != 800 || w.H != 600-TaskbarHeight {
		t.Fatalf("expected maximize to fill screen above taskbar, got %d,%d,%d,%d", w.X, w.Y, w.W, w.H)
	}
	if w.Movable || w.Resizable {
		t.Fatalf("expected movable/resizable cleared on maximize")
	}

	if !m.Restore(w.ID) {
		t.Fatalf("expected Restore to succeed")
	}
	if w.X != 10 || w.Y != 20 || w.W != 300 || w.H != 200 {
		t.Fatalf("expected geometry restored verbatim, got %d,%d,%d,%d", w.X, w.Y, w.W, w.H)
	}
	if !w.Movable || !w.Resizable {
		t.Fatalf("expected movable/resizable restored")
	}
	if w.Maximized {
		t.Fatalf("expected Maximized cleared")
	}
}

func TestMaximizeRequiresFlagAndIsIdempotentWhileMaximized(t *testing.T) {
	m := NewManager(800, 600)
	w := m.CreateWindow("a", 0, 0, 10, 10, Flags{})
	if m.Maximize(w.ID) {
		t.Fatalf("expected Maximize to fail without the capability flag")
	}

	w2 := m.CreateWindow("b", 0, 0, 10, 10, Flags{Maximizable: true})
	m.Maximize(w2.ID)
	if m.Maximize(w2.ID) {
		t.Fatalf("expected a second Maximize to be a no-op while already maximized")
	}
}

func TestDumpStateListsWindowsInZOrder(t *testing.T) {
	m := NewManager(800, 600)
	m.CreateWindow("back", 10, 10, 100, 100, Flags{})
	m.CreateWindow("front", 20, 20, 50, 50, Flags{})

	out := m.DumpState()
	if !strings.Contains(out, `"back"`) || !strings.Contains(out, `"front"`) {
		t.Fatalf("expected both window titles in dump, got %q", out)
	}
	if strings.Index(out, `"back"`) > strings.Index(out, `"front"`) {
		t.Fatalf("expected back window listed before front (bottom-to-top order), got %q", out)
	}
}

func TestTopmostAtHitTestsZOrder(t *testing.T) {
	m := NewManager(800, 600)
	m.CreateWindow("back", 0, 0, 200, 200, Flags{})
	front := m.CreateWindow("front", 0, 0, 200, 200, Flags{})

	if got := m.TopmostAt(50, 50); got != front {
		t.Fatalf("expected front window to win overlapping hit test")
	}
	if m.TopmostAt(500, 500) != nil {
		t.Fatalf("expected nil outside any window")
	}
}
