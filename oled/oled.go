// Package oled puts frames on the 128x64 SSD1306 panel. The controller
// protocol is periph's ssd1306 driver; the bytes travel over any writer that
// is already addressed to the panel, such as *i2c.I2C.
package oled

import (
	"errors"
	"fmt"
	"image"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	Width  = 128
	Height = 64
)

var ErrRead = errors.New("oled: bus is write only")

// writeBus lets periph's driver talk through a plain writer. The address is
// ignored: the writer was opened for the panel's address.
type writeBus struct {
	w io.Writer
}

func (b *writeBus) String() string {
	return fmt.Sprintf("oled(%T)", b.w)
}

func (b *writeBus) Tx(_ uint16, w, r []byte) error {
	if len(r) != 0 {
		return ErrRead
	}
	_, err := b.w.Write(w)
	return err
}

func (b *writeBus) SetSpeed(physic.Frequency) error {
	return nil
}

type Panel struct {
	dev *ssd1306.Dev
}

// Open runs the panel's init sequence and applies contrast.
func Open(w io.Writer, contrast uint8) (*Panel, error) {
	dev, err := ssd1306.NewI2C(&writeBus{w: w}, &ssd1306.Opts{W: Width, H: Height})
	if err != nil {
		return nil, fmt.Errorf("ssd1306 init: %w", err)
	}
	p := &Panel{dev: dev}
	if err := p.SetContrast(contrast); err != nil {
		return nil, err
	}
	return p, nil
}

// Draw sends the parts of frame that changed since the last call.
func (p *Panel) Draw(frame *image1bit.VerticalLSB) error {
	if err := p.dev.Draw(frame.Bounds(), frame, image.Point{}); err != nil {
		return fmt.Errorf("ssd1306 draw: %w", err)
	}
	return nil
}

func (p *Panel) SetContrast(v uint8) error {
	if err := p.dev.SetContrast(v); err != nil {
		return fmt.Errorf("ssd1306 contrast %d: %w", v, err)
	}
	return nil
}

// Clear blanks the panel RAM.
func (p *Panel) Clear() error {
	return p.Draw(image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height)))
}

// Off blanks the panel and turns it off. The next Draw turns it back on.
func (p *Panel) Off() error {
	if err := p.Clear(); err != nil {
		return err
	}
	return p.dev.Halt()
}
