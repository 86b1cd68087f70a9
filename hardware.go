package main

import (
	"fmt"
	"io"
	"log/slog"

	"clock.raspi/deskclock/display"
	"clock.raspi/deskclock/oled"
	"clock.raspi/deskclock/rotaryencoder"
	"clock.raspi/deskclock/settings"
	"github.com/davecheney/i2c"
	"github.com/stianeikeland/go-rpio/v4"
)

// statusLED is lit while the network is down.
type statusLED interface {
	High()
	Low()
}

type knob interface {
	Poll() rotaryencoder.REvector
}

type inputPin interface {
	Read() rpio.State
}

type hardware struct {
	panel  display.Panel
	led    statusLED
	knob   knob
	button inputPin
	closer []func() error
}

func (h *hardware) Close() error {
	var first error
	for i := len(h.closer) - 1; i >= 0; i-- {
		if err := h.closer[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type nopLED struct{}

func (nopLED) High() {}
func (nopLED) Low()  {}

type noKnob struct{}

func (noKnob) Poll() rotaryencoder.REvector { return rotaryencoder.NoData }

// openHardware claims the GPIO pins and the panel. With headless set nothing
// is touched and frames go to io.Discard.
func openHardware(s settings.Settings, contrast uint8, headless bool) (*hardware, error) {
	if headless {
		panel, err := oled.Open(io.Discard, contrast)
		if err != nil {
			return nil, err
		}
		return &hardware{panel: panel, led: nopLED{}, knob: noKnob{}}, nil
	}

	h := &hardware{}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio can't open: %w", err)
	}

	led := rpio.Pin(s.GPIO.LED)
	led.Output()
	led.High() // offline until the link is seen
	h.led = led
	h.closer = append(h.closer, func() error {
		led.Low()
		return rpio.Close()
	})

	btnscan := []rpio.Pin{rpio.Pin(s.GPIO.EncoderA), rpio.Pin(s.GPIO.EncoderB), rpio.Pin(s.GPIO.Button)}
	for _, sn := range btnscan {
		sn.Input()
		sn.PullUp()
	}
	re := rotaryencoder.New(btnscan[0], btnscan[1])
	re.Init()
	h.knob = &re
	h.button = btnscan[2]

	bus, err := i2c.New(uint8(s.Panel.Address), s.Panel.Bus)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("i2c bus %d: %w", s.Panel.Bus, err)
	}
	h.closer = append(h.closer, bus.Close)
	panel, err := oled.Open(bus, contrast)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("panel: %w", err)
	}
	h.panel = panel
	h.closer = append(h.closer, func() error {
		if err := panel.Off(); err != nil {
			slog.Warn("Panel off failed", "error", err)
		}
		return nil
	})
	return h, nil
}
