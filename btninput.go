package main

import (
	"context"
	"strings"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

type ButtonCode int

const (
	btn_none ButtonCode = iota
	btn_mode
	btn_press = 0x10

	// in 10ms polls
	btn_press_width int = 30

	display_address_time_span = 3 * time.Second
)

// btninput polls the mode button and reports a click, or btn_mode|btn_press
// when it was held down.
func btninput(ctx context.Context, sn inputPin, code chan<- ButtonCode) {
	hold := 0
	send := func(c ButtonCode) {
		select {
		case code <- c:
		case <-ctx.Done():
		}
	}
	for ctx.Err() == nil {
		time.Sleep(10 * time.Millisecond)
		if sn.Read() == rpio.Low {
			// 引き続き押されている
			hold++
			continue
		}
		if hold > btn_press_width {
			send(btn_mode | btn_press)
		} else if hold > 1 {
			send(btn_mode)
		}
		hold = 0
	}
}

func (a *clockApp) button(c ButtonCode) {
	switch c {
	case btn_mode:
		m := a.display.CycleMode()
		a.display.ShowOverlay("mode: "+m.String(), a.clock.Now().Add(display_brightness_time_span))
		a.logger.Debug("Display mode", "mode", m)
	case btn_mode | btn_press:
		addrs := a.link.Addrs()
		s := "no address"
		if len(addrs) > 0 {
			s = strings.Join(addrs, " ")
		}
		a.display.ShowOverlay(s, a.clock.Now().Add(display_address_time_span))
	}
	a.lastsec = -1
}
