// Package clocktime is the clock's wall-time value: epoch seconds plus the
// zone used to render them, with strftime formatting and the compact ISO
// form used by the control surface.
package clocktime

import (
	"errors"
	"time"

	"github.com/ncruces/go-strftime"
)

const notATime = -1

var (
	ErrNotATime  = errors.New("clocktime: not a time")
	ErrTruncated = errors.New("clocktime: formatted text truncated")
)

// NotATime is the invalid value returned by failed constructors.
var NotATime = Time{sec: notATime}

// Time is a signed count of seconds since the Unix epoch.
type Time struct {
	sec int64
	loc *time.Location
}

// Zone returns the fixed zone for a timezone and daylight offset given in
// hours.
func Zone(timezone, daylight int8) *time.Location {
	return time.FixedZone("", (int(timezone)+int(daylight))*3600)
}

func Now(loc *time.Location) Time {
	return Unix(time.Now().Unix(), loc)
}

func Unix(sec int64, loc *time.Location) Time {
	return Time{sec: sec, loc: loc}
}

func FromTime(t time.Time) Time {
	return Time{sec: t.Unix(), loc: t.Location()}
}

// FromCalendar builds a Time from calendar fields read in loc.
func FromCalendar(loc *time.Location, year, month, day, hour, min, sec int) Time {
	if loc == nil {
		loc = time.Local
	}
	return Unix(time.Date(year, time.Month(month), day, hour, min, sec, 0, loc).Unix(), loc)
}

func (t Time) Valid() bool {
	return t.sec > notATime
}

func (t Time) Seconds() int64 {
	return t.sec
}

func (t Time) Location() *time.Location {
	if t.loc == nil {
		return time.Local
	}
	return t.loc
}

// In returns t rendered in another zone.
func (t Time) In(loc *time.Location) Time {
	t.loc = loc
	return t
}

// Std converts t to a time.Time in its zone.
func (t Time) Std() time.Time {
	return time.Unix(t.sec, 0).In(t.Location())
}

/*
Format renders t with a strftime pattern:

	%a %A  abbreviated / full weekday name       Thu, Thursday
	%b %h  abbreviated month name                Aug
	%B     full month name                       August
	%c     date and time representation          Thu Aug 23 14:55:02 2001
	%C     year divided by 100                   20
	%d     day of the month, zero-padded         23
	%D     %m/%d/%y                              08/23/01
	%e     day of the month, space-padded        23
	%F     %Y-%m-%d                              2001-08-23
	%g %G  week-based year, 2 / 4 digits         01, 2001
	%H %I  hour 24h / 12h                        14, 02
	%j     day of the year                       235
	%m %M  month, minute                         08, 55
	%n %t  newline, tab
	%p     AM or PM                              PM
	%r     12-hour clock time                    02:55:02 PM
	%R %T  %H:%M, %H:%M:%S                       14:55, 14:55:02
	%S     second                                02
	%u %w  weekday, Monday=1 / Sunday=0          4
	%U %V %W  week of year (Sunday / ISO / Monday)
	%x %X  date / time representation            08/23/01, 14:55:02
	%y %Y  year, 2 / 4 digits                    01, 2001
	%z %Z  UTC offset, zone name                 +0100, CDT
	%%     a % sign

The output is never cut; use FormatLimit when the text has a fixed budget.
*/
func (t Time) Format(pattern string) string {
	return strftime.Format(pattern, t.Std())
}

// FormatLimit is Format bounded to n bytes. When the full text is longer it
// returns the first n bytes and ErrTruncated.
func (t Time) FormatLimit(pattern string, n int) (string, error) {
	s := t.Format(pattern)
	if len(s) > n {
		return s[:n], ErrTruncated
	}
	return s, nil
}

func (t Time) String() string {
	if !t.Valid() {
		return "not-a-time"
	}
	return t.Format("%Y-%m-%d %H:%M:%S")
}

// ISO renders the compact form YYYYMMDDTHHMMSSZ.
func (t Time) ISO() string {
	return t.Format("%Y%m%dT%H%M%SZ")
}

func (t Time) DateString() string {
	return t.Format("%Y-%m-%d")
}

func (t Time) TimeString() string {
	return t.Format("%H:%M:%S")
}
