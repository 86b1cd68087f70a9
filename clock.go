package main

import (
	"time"

	"clock.raspi/deskclock/clocktime"
)

// wallClock is where the loop reads the time and where /set-date and NTP
// write it.
type wallClock interface {
	Now() time.Time
	Set(clocktime.Time) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().Round(0) }

func (systemClock) Set(t clocktime.Time) error {
	return t.SetSystemClock()
}

// softClock keeps an offset from the host clock instead of stepping it.
// Used headless, where the process usually may not call settimeofday.
type softClock struct {
	offset time.Duration
}

func (c *softClock) Now() time.Time {
	return time.Now().Add(c.offset).Round(0)
}

func (c *softClock) Set(t clocktime.Time) error {
	c.offset = t.Std().Sub(time.Now())
	return nil
}
