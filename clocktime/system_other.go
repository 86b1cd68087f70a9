//go:build !linux

package clocktime

import "errors"

var errUnsupported = errors.New("clocktime: setting the system clock is only supported on linux")

func (t Time) SetSystemClock() error {
	if !t.Valid() {
		return ErrNotATime
	}
	return errUnsupported
}
