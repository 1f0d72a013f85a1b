// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gui

// ShutdownState is one state of the shutdown confirmation dialog's state
// machine, named after the C original's SHUTDOWN_STATE_* enum
// (original_source/pozitron_os/include/gui/shutdown.h).
type ShutdownState int

const (
	Idle ShutdownState = iota
	Dialog
	Canceling
	Confirming
)

// maxDarken is the fully-darkened overlay level (spec.md §4.8 "darken
// level L in 0..200").
const maxDarken = 200

// midDarken is the plateau an open Dialog holds at (spec.md §4.8 "DIALOG:
// L ramps 0->100"); Confirming then continues the ramp from here up to
// maxDarken, and Canceling ramps back down from here to zero (spec.md §8
// scenario 6, "100 -> 0").
const midDarken = 100

// darkenStep is how much the darken level moves per Tick while animating.
const darkenStep = 20

// Shutdown is the desktop's shutdown-confirmation state machine: entering
// Dialog hides every window but the dialog itself and ramps the darken
// overlay up to its midDarken plateau; Cancel ramps it back down from
// there to zero and restores exactly the windows that were hidden;
// Confirm continues the ramp from midDarken to maxDarken and then invokes
// the platform shutdown hook once (spec.md §4.8 "shutdown state machine").
type Shutdown struct {
	manager *Manager

	State       ShutdownState
	DarkenLevel uint8

	hidden []uint32

	// OnConfirm is invoked exactly once, after the darken animation
	// reaches maxDarken in the Confirming state. Wired by the kernel to
	// the platform power-off path; left nil (no-op) in tests.
	OnConfirm func()

	confirmed bool
}

// Begin opens the shutdown dialog: every currently-visible window is
// hidden (and remembered for Cancel to restore verbatim) and the state
// moves to Dialog.
func (s *Shutdown) Begin(m *Manager) {
	if s.State != Idle {
		return
	}
	s.manager = m
	s.hidden = s.hidden[:0]
	for _, id := range m.order {
		w := m.registry[id]
		if w != nil && w.Visible {
			w.Visible = false
			s.hidden = append(s.hidden, id)
		}
	}
	s.State = Dialog
}

// Cancel begins the Canceling animation; Tick ramps the darken level from
// its Dialog plateau (midDarken) down to zero, then finishes the
// transition back to Idle, restoring every window Begin hid (spec.md §8
// scenario 6 "shutdown cancel", "100 -> 0").
func (s *Shutdown) Cancel() {
	if s.State != Dialog {
		return
	}
	s.State = Canceling
}

// Confirm begins the Confirming animation; Tick ramps the darken level from
// its Dialog plateau (midDarken) up to maxDarken and invokes OnConfirm once
// it gets there.
func (s *Shutdown) Confirm() {
	if s.State != Dialog {
		return
	}
	s.State = Confirming
	s.confirmed = false
}

// Active reports whether the shutdown dialog is gating input (spec.md
// §4.8 "shutdown-modal gate").
func (s *Shutdown) Active() bool {
	return s.State != Idle
}

// Tick advances the darken-level animation one step and performs the
// terminal transitions: Canceling -> Idle (restoring hidden windows) once
// dark reaches zero, and Confirming -> OnConfirm once dark reaches
// maxDarken.
func (s *Shutdown) Tick() {
	switch s.State {
	case Dialog:
		if int(s.DarkenLevel)+darkenStep >= midDarken {
			s.DarkenLevel = midDarken
		} else {
			s.DarkenLevel += darkenStep
		}

	case Canceling:
		if int(s.DarkenLevel) <= darkenStep {
			s.DarkenLevel = 0
			s.restore()
			s.State = Idle
		} else {
			s.DarkenLevel -= darkenStep
		}

	case Confirming:
		if int(s.DarkenLevel)+darkenStep >= maxDarken {
			s.DarkenLevel = maxDarken
			if !s.confirmed {
				s.confirmed = true
				if s.OnConfirm != nil {
					s.OnConfirm()
				}
			}
		} else {
			s.DarkenLevel += darkenStep
		}
	}
}

// restore re-shows exactly the windows Begin hid, verbatim (spec.md §8
// "shutdown cancel restores prior visibility exactly").
func (s *Shutdown) restore() {
	if s.manager == nil {
		return
	}
	for _, id := range s.hidden {
		if w := s.manager.registry[id]; w != nil {
			w.Visible = true
		}
	}
	s.hidden = s.hidden[:0]
}
