package oled

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// recorder keeps every bus write as a separate frame.
type recorder struct {
	frames [][]byte
	fail   bool
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.fail {
		return 0, errors.New("bus error")
	}
	r.frames = append(r.frames, append([]byte(nil), p...))
	return len(p), nil
}

func newFrame() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
}

func TestOpenInitialisesPanel(t *testing.T) {
	bus := &recorder{}
	_, err := Open(bus, 0x7f)
	require.NoError(t, err)

	require.Len(t, bus.frames, 2)
	seq := bus.frames[0]
	assert.Equal(t, []byte{0x00, 0xae}, seq[:2], "command frame, display off first")
	assert.Equal(t, byte(0xaf), seq[len(seq)-1], "display on last")
	assert.Equal(t, []byte{0x00, 0x81, 0x7f}, bus.frames[1])
}

func TestDrawSendsChangedPages(t *testing.T) {
	bus := &recorder{}
	p, err := Open(bus, 25)
	require.NoError(t, err)
	bus.frames = nil

	img := newFrame()
	img.SetBit(0, 0, image1bit.On)
	img.SetBit(127, 63, image1bit.On)
	require.NoError(t, p.Draw(img))

	// first frame goes out whole, one command and one data write per page
	require.Len(t, bus.frames, 2*Height/8)
	var data bytes.Buffer
	for i, f := range bus.frames {
		if i%2 == 0 {
			assert.Equal(t, []byte{0x00, 0xb0 | byte(i/2), 0x00, 0x10}, f)
			continue
		}
		require.Equal(t, byte(0x40), f[0])
		data.Write(f[1:])
	}
	require.Equal(t, Width*Height/8, data.Len())
	assert.Equal(t, byte(0x01), data.Bytes()[0])
	assert.Equal(t, byte(0x80), data.Bytes()[data.Len()-1])

	bus.frames = nil
	require.NoError(t, p.Draw(img))
	assert.Empty(t, bus.frames, "unchanged frame is not resent")
}

func TestOffBlanksThenHalts(t *testing.T) {
	bus := &recorder{}
	p, err := Open(bus, 25)
	require.NoError(t, err)
	img := newFrame()
	img.SetBit(10, 10, image1bit.On)
	require.NoError(t, p.Draw(img))
	bus.frames = nil

	require.NoError(t, p.Off())
	require.NotEmpty(t, bus.frames)
	assert.Equal(t, []byte{0x00, 0xae}, bus.frames[len(bus.frames)-1])
	for _, f := range bus.frames[:len(bus.frames)-1] {
		if f[0] == 0x40 {
			assert.Equal(t, make([]byte, len(f)-1), f[1:])
		}
	}
}

func TestBusErrorsSurface(t *testing.T) {
	_, err := Open(&recorder{fail: true}, 25)
	assert.Error(t, err)

	bus := &recorder{}
	p, err := Open(bus, 25)
	require.NoError(t, err)
	bus.fail = true
	assert.Error(t, p.SetContrast(1))
	assert.Error(t, p.Draw(newFrame()))
}

func TestBusIsWriteOnly(t *testing.T) {
	b := &writeBus{w: &recorder{}}
	assert.ErrorIs(t, b.Tx(0x3c, []byte{0}, make([]byte, 1)), ErrRead)
}
