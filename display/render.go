package display

import (
	"image"

	"clock.raspi/deskclock/clocktime"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	Width  = 128
	Height = 64

	scale          = 3
	glyphWidth     = 7
	bottomBaseline = Height - 2
	secondsRow     = 44
)

var face = basicfont.Face7x13

func newFrame() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
}

func drawText(dst draw.Image, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(image1bit.On),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawClock renders HH MM in the small face and blows it up to the top of
// the frame. The colon is lit on odd seconds.
func (d *Display) drawClock(dst *image1bit.VerticalLSB, now clocktime.Time) {
	pattern := "%H %M"
	if now.Seconds()%2 != 0 {
		pattern = "%H:%M"
	}
	s, _ := now.FormatLimit(pattern, 5)

	m := face.Metrics()
	h := (m.Ascent + m.Descent).Ceil()
	small := image1bit.NewVerticalLSB(image.Rect(0, 0, len(s)*glyphWidth, h))
	drawText(small, 0, m.Ascent.Ceil(), s)

	sb := small.Bounds()
	x0 := (Width - sb.Dx()*scale) / 2
	dr := image.Rect(x0, 0, x0+sb.Dx()*scale, sb.Dy()*scale)
	draw.NearestNeighbor.Scale(dst, dr, small, sb, draw.Src, nil)
}

// drawSeconds is a thin bar under the digits that grows across the minute.
func drawSeconds(dst *image1bit.VerticalLSB, now clocktime.Time) {
	sec := now.Std().Second()
	for x := 0; x < (sec+1)*Width/60; x++ {
		dst.SetBit(x, secondsRow, image1bit.On)
	}
}
