package clocktime

import (
	"fmt"
	"time"
)

const compactISOLen = len("YYYYMMDDTHHMMSSZ")

// ParseCompactISO reads exactly YYYYMMDDTHHMMSSZ. The calendar fields are
// taken in loc, the way the web UI sends the browser's local time. Any other
// shape yields NotATime and ErrNotATime.
func ParseCompactISO(text string, loc *time.Location) (Time, error) {
	if len(text) != compactISOLen || text[8] != 'T' || text[15] != 'Z' {
		return NotATime, fmt.Errorf("%w: %q is not YYYYMMDDTHHMMSSZ", ErrNotATime, text)
	}
	var f [6]int
	spans := [6][2]int{{0, 4}, {4, 6}, {6, 8}, {9, 11}, {11, 13}, {13, 15}}
	for i, sp := range spans {
		n, ok := digits(text[sp[0]:sp[1]])
		if !ok {
			return NotATime, fmt.Errorf("%w: %q has non-digit fields", ErrNotATime, text)
		}
		f[i] = n
	}
	year, month, day, hour, min, sec := f[0], f[1], f[2], f[3], f[4], f[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || min > 59 || sec > 59 {
		return NotATime, fmt.Errorf("%w: %q is out of range", ErrNotATime, text)
	}
	t := FromCalendar(loc, year, month, day, hour, min, sec)
	if st := t.Std(); st.Day() != day || int(st.Month()) != month {
		// day 31 in a 30-day month and the like
		return NotATime, fmt.Errorf("%w: %q is not a calendar date", ErrNotATime, text)
	}
	if !t.Valid() {
		return NotATime, fmt.Errorf("%w: %q is before the epoch", ErrNotATime, text)
	}
	return t, nil
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
