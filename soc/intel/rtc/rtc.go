// MC146818A RTC driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package rtc reads wall-clock time from the legacy CMOS real-time clock
// (spec.md §4.11).
package rtc

import (
	"errors"
	"time"

	"github.com/kestrel-kernel/kestrel/internal/reg"
)

// CMOS index/data ports and register offsets (IBM PC AT Technical
// Reference - March 1984).
const (
	indexPort = 0x70
	dataPort  = 0x71

	regSeconds = 0x00
	regMinutes = 0x02
	regHours   = 0x04
	regDay     = 0x07
	regMonth   = 0x08
	regYear    = 0x09
	regCentury = 0x32

	regStatusA = 0x0a
	regStatusB = 0x0b

	statusAUpdateInProgress = 1 << 7
	statusB24Hour           = 1 << 1
	statusBBinary           = 1 << 2
)

var ErrUpdateInProgress = errors.New("rtc: update in progress")

// portRead/portWrite are the port I/O strategy Now uses; they are
// variables so tests can substitute a fake register file in place of real
// port I/O.
var (
	portRead  = reg.In8
	portWrite = reg.Out8
)

// RTC represents a CMOS real-time clock instance.
type RTC struct {
	// Location is the time zone applied to the returned time.Time. The
	// CMOS clock itself carries no time zone; nil defaults to UTC.
	Location *time.Location
}

func (r *RTC) read(addr uint8) uint8 {
	portWrite(indexPort, addr)
	return portRead(dataPort)
}

func bcdToBin(v uint8) uint8 {
	return (v & 0x0f) + (v>>4)*10
}

// Now reads and returns the current CMOS time. It returns
// ErrUpdateInProgress if a clock update is in flight (register contents
// are undefined mid-tick and must not be trusted); the caller is expected
// to retry.
func (r *RTC) Now() (time.Time, error) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	if r.read(regStatusA)&statusAUpdateInProgress != 0 {
		return time.Time{}, ErrUpdateInProgress
	}

	statusB := r.read(regStatusB)

	ss := r.read(regSeconds)
	mm := r.read(regMinutes)
	hh := r.read(regHours)
	dd := r.read(regDay)
	mo := r.read(regMonth)
	yy := r.read(regYear)
	cc := r.read(regCentury)

	pm := hh&0x80 != 0
	hh &= 0x7f

	if statusB&statusBBinary == 0 {
		ss = bcdToBin(ss)
		mm = bcdToBin(mm)
		hh = bcdToBin(hh)
		dd = bcdToBin(dd)
		mo = bcdToBin(mo)
		yy = bcdToBin(yy)
		if cc != 0 {
			cc = bcdToBin(cc)
		}
	}

	if statusB&statusB24Hour == 0 {
		// 12-hour mode: normalize to 24-hour, per the PM bit read above.
		switch {
		case pm && hh < 12:
			hh += 12
		case !pm && hh == 12:
			hh = 0
		}
	}

	year := int(cc)*100 + int(yy)
	if cc == 0 {
		if yy < 80 {
			year = 2000 + int(yy)
		} else {
			year = 1900 + int(yy)
		}
	}

	return time.Date(year, time.Month(mo), int(dd), int(hh), int(mm), int(ss), 0, loc), nil
}
