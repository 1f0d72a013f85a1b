// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package rtc

import (
	"testing"
	"time"
)

// fakeCMOS scripts responses for each index register, mimicking the
// select-then-read protocol of the real chip.
func fakeCMOS(t *testing.T, regs map[uint8]uint8) func() {
	t.Helper()
	var selected uint8
	prevRead, prevWrite := portRead, portWrite

	portWrite = func(port uint16, val uint8) {
		if port == indexPort {
			selected = val
		}
	}
	portRead = func(port uint16) uint8 {
		if port != dataPort {
			t.Fatalf("unexpected read from port %#x", port)
		}
		v, ok := regs[selected]
		if !ok {
			t.Fatalf("no scripted value for register %#x", selected)
		}
		return v
	}

	return func() { portRead, portWrite = prevRead, prevWrite }
}

func TestNowDecodesBCD24Hour(t *testing.T) {
	restore := fakeCMOS(t, map[uint8]uint8{
		regStatusA: 0x00,
		regStatusB: statusB24Hour, // BCD mode, 24-hour
		regSeconds: 0x45,
		regMinutes: 0x30,
		regHours:   0x14,
		regDay:     0x15,
		regMonth:   0x07,
		regYear:    0x26,
		regCentury: 0x20,
	})
	defer restore()

	r := &RTC{}
	got, err := r.Now()
	if err != nil {
		t.Fatalf("Now() error: %v", err)
	}

	want := time.Date(2026, time.July, 15, 14, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNowNormalizes12HourPM(t *testing.T) {
	restore := fakeCMOS(t, map[uint8]uint8{
		regStatusA: 0x00,
		regStatusB: 0x00, // BCD mode, 12-hour
		regSeconds: 0x00,
		regMinutes: 0x00,
		regHours:   0x82, // 2 PM in BCD with PM bit set
		regDay:     0x01,
		regMonth:   0x01,
		regYear:    0x26,
		regCentury: 0x20,
	})
	defer restore()

	r := &RTC{}
	got, err := r.Now()
	if err != nil {
		t.Fatalf("Now() error: %v", err)
	}
	if got.Hour() != 14 {
		t.Fatalf("hour = %d, want 14 (2 PM normalized)", got.Hour())
	}
}

func TestNowReturnsErrorDuringUpdate(t *testing.T) {
	restore := fakeCMOS(t, map[uint8]uint8{
		regStatusA: statusAUpdateInProgress,
	})
	defer restore()

	r := &RTC{}
	if _, err := r.Now(); err != ErrUpdateInProgress {
		t.Fatalf("err = %v, want ErrUpdateInProgress", err)
	}
}

func TestNowDefaultsCenturyHeuristic(t *testing.T) {
	restore := fakeCMOS(t, map[uint8]uint8{
		regStatusA: 0x00,
		regStatusB: statusB24Hour,
		regSeconds: 0x00,
		regMinutes: 0x00,
		regHours:   0x00,
		regDay:     0x01,
		regMonth:   0x01,
		regYear:    0x30, // BCD 30 -> decimal 30, no century register
		regCentury: 0x00,
	})
	defer restore()

	r := &RTC{}
	got, err := r.Now()
	if err != nil {
		t.Fatalf("Now() error: %v", err)
	}
	if got.Year() != 2030 {
		t.Fatalf("year = %d, want 2030", got.Year())
	}
}
