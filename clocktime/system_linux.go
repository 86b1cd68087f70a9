//go:build linux

package clocktime

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// SetSystemClock sets the host wall clock to t. It needs CAP_SYS_TIME.
func (t Time) SetSystemClock() error {
	if !t.Valid() {
		return ErrNotATime
	}
	tv := unix.NsecToTimeval(t.sec * int64(time.Second))
	if err := unix.Settimeofday(&tv); err != nil {
		return fmt.Errorf("settimeofday: %w", err)
	}
	return nil
}
