package main

import (
	"fmt"
	"time"
)

const (
	brightness_step = 5

	display_brightness_time_span = 700 * time.Millisecond
)

func (a *clockApp) show_brightness() {
	a.display.ShowOverlay(fmt.Sprintf("brightness:%3d", a.display.Brightness()),
		a.clock.Now().Add(display_brightness_time_span))
	a.lastsec = -1 // redraw now, not on the next second
}

func (a *clockApp) setBrightness(v int) {
	v = max(0, min(255, v))
	if err := a.display.SetBrightness(uint8(v)); err != nil {
		a.logger.Warn("Brightness change failed", "error", err)
	}
	a.config.Brightness = a.display.Brightness()
	a.show_brightness()
}

func (a *clockApp) incBrightness() {
	a.setBrightness(int(a.display.Brightness()) + brightness_step)
}

func (a *clockApp) decBrightness() {
	a.setBrightness(int(a.display.Brightness()) - brightness_step)
}
