package rotaryencoder

import (
	"github.com/stianeikeland/go-rpio/v4"
)

type REvector int

const (
	NoData REvector = iota
	Forward
	Backward
)

// Pin is the part of rpio.Pin the decoder samples.
type Pin interface {
	Read() rpio.State
}

// RotaryEncoder decodes a two-phase encoder by sampling its pins on every
// call to Poll. One detent is counted on each falling edge of phase A; the
// level of phase B at that moment gives the direction.
type RotaryEncoder struct {
	pin_a  Pin
	pin_b  Pin
	last_a rpio.State
}

func New(a Pin, b Pin) RotaryEncoder {
	return RotaryEncoder{
		pin_a:  a,
		pin_b:  b,
		last_a: rpio.High,
	}
}

func (r *RotaryEncoder) Init() {
	r.last_a = r.pin_a.Read()
}

// Poll samples both phases once and reports a detent, if one completed
// since the previous call.
func (r *RotaryEncoder) Poll() REvector {
	a := r.pin_a.Read()
	defer func() { r.last_a = a }()

	if r.last_a == rpio.High && a == rpio.Low {
		// A相たち下がり
		if r.pin_b.Read() == rpio.High {
			return Forward
		}
		return Backward
	}
	return NoData
}
