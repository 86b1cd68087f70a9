// Package display composes the clock face and pushes it to the OLED panel.
package display

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clock.raspi/deskclock/clocktime"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	// visible characters on the bottom line
	lineWidth = 18
	// seconds the date stays up between forecast scrolls
	datePause = 20

	ColorSchemeLen = 5
)

var forecastGap = []rune("   ")

var (
	ErrBrightness  = errors.New("display: brightness must be a decimal 0-255")
	ErrColorScheme = errors.New("display: colour scheme must be 30 hex digits")
)

// Panel is the device the frame ends up on.
type Panel interface {
	Draw(*image1bit.VerticalLSB) error
	SetContrast(uint8) error
}

type Mode int

const (
	ModeAuto Mode = iota
	ModeDate
	ModeForecast
	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeDate:
		return "date"
	case ModeForecast:
		return "forecast"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

type Display struct {
	panel      Panel
	brightness uint8
	colors     [ColorSchemeLen]uint32
	forecast   []rune
	mode       Mode

	overlay      string
	overlayUntil time.Time
}

func New(panel Panel) *Display {
	return &Display{panel: panel}
}

// Initialize applies the stored brightness and scheme and blanks the panel.
func (d *Display) Initialize(brightness uint8, colors [ColorSchemeLen]uint32) error {
	d.colors = colors
	if err := d.SetBrightness(brightness); err != nil {
		return err
	}
	return d.panel.Draw(newFrame())
}

func (d *Display) Brightness() uint8 {
	return d.brightness
}

// SetBrightness keeps the old value when the panel rejects the new one.
func (d *Display) SetBrightness(v uint8) error {
	if err := d.panel.SetContrast(v); err != nil {
		return fmt.Errorf("set contrast: %w", err)
	}
	d.brightness = v
	return nil
}

func (d *Display) Colors() [ColorSchemeLen]uint32 {
	return d.colors
}

// ColorScheme renders the scheme as 30 lowercase hex digits.
func (d *Display) ColorScheme() string {
	var sb strings.Builder
	for _, c := range d.colors {
		fmt.Fprintf(&sb, "%06x", c&0xffffff)
	}
	return sb.String()
}

// ParseColorScheme reads five RRGGBB values written back to back.
func ParseColorScheme(s string) ([ColorSchemeLen]uint32, error) {
	var colors [ColorSchemeLen]uint32
	if len(s) != ColorSchemeLen*6 {
		return colors, ErrColorScheme
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return colors, ErrColorScheme
	}
	for i := range colors {
		colors[i] = uint32(b[i*3])<<16 | uint32(b[i*3+1])<<8 | uint32(b[i*3+2])
	}
	return colors, nil
}

// SetBrightnessAndColorScheme takes both values as sent by the web UI. On any
// error nothing changes.
func (d *Display) SetBrightnessAndColorScheme(brightness, colors string) error {
	v, err := strconv.ParseUint(strings.TrimSpace(brightness), 10, 8)
	if err != nil {
		return ErrBrightness
	}
	scheme, err := ParseColorScheme(strings.TrimSpace(colors))
	if err != nil {
		return err
	}
	if err := d.SetBrightness(uint8(v)); err != nil {
		return err
	}
	d.colors = scheme
	return nil
}

// SetForecast replaces the text scrolled on the bottom line.
func (d *Display) SetForecast(line string) {
	d.forecast = []rune(line)
}

func (d *Display) Forecast() string {
	return string(d.forecast)
}

func (d *Display) Mode() Mode {
	return d.mode
}

// CycleMode steps to the next bottom line mode and returns it.
func (d *Display) CycleMode() Mode {
	d.mode = (d.mode + 1) % modeCount
	return d.mode
}

// ShowOverlay puts text on the bottom line until the given instant.
func (d *Display) ShowOverlay(text string, until time.Time) {
	d.overlay = text
	d.overlayUntil = until
}

// Update redraws the whole face for now.
func (d *Display) Update(now clocktime.Time) error {
	frame := newFrame()
	d.drawClock(frame, now)
	if d.colors[4]&0xffffff != 0 {
		drawSeconds(frame, now)
	}
	if line := d.bottomLine(now); line != "" {
		drawText(frame, 0, bottomBaseline, line)
	}
	return d.panel.Draw(frame)
}

func (d *Display) bottomLine(now clocktime.Time) string {
	if d.overlay != "" {
		if now.Std().Before(d.overlayUntil) {
			return d.overlay
		}
		d.overlay = ""
	}
	date, _ := now.FormatLimit("%d %b %y", lineWidth)
	date = "  " + date

	n := int64(len(d.forecast))
	switch {
	case d.mode == ModeDate || n == 0:
		return date
	case d.mode == ModeForecast:
		period := append(append([]rune{}, d.forecast...), forecastGap...)
		shift := int(now.Seconds() % int64(len(period)))
		loop := period
		for len(loop) < shift+lineWidth {
			loop = append(loop, period...)
		}
		return window(loop[shift:])
	}

	// auto: forecast scrolls in one character per second, then the date
	// is shown for the rest of the cycle
	shift := now.Seconds() % (n + datePause)
	if shift >= n {
		return date
	}
	if shift < 2 {
		return ""
	}
	return window(d.forecast[shift-2:])
}

func window(r []rune) string {
	if len(r) > lineWidth {
		r = r[:lineWidth]
	}
	return string(r)
}
