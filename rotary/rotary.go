package rotary

import (
	"math"

	"code.hybscloud.com/atomix"
)

// Pins samples the two quadrature lines of a rotary encoder.
type Pins interface {
	// A reports the level of the first quadrature line.
	A() bool

	// B reports the level of the second quadrature line.
	B() bool
}

// Encoder accumulates quadrature edges into a signed detent offset and
// latches button presses. HandleEdgeInterrupt and HandlePressInterrupt
// run in interrupt context; the read-and-clear accessors run in the
// foreground.
type Encoder struct {
	pins    Pins
	offset  atomix.Uint32 // int32 detent offset, two's complement
	pressed atomix.Uint32
}

// New creates an Encoder over the given quadrature pins. The press line
// needs no pin access: its interrupt fires on the falling edge and
// carries no level to sample.
func New(pins Pins) *Encoder {
	return &Encoder{pins: pins}
}

// HandleEdgeInterrupt advances the offset by one detent on a quadrature
// edge: lines differing means clockwise, matching means
// counter-clockwise. The offset saturates instead of wrapping, so a
// long-unread encoder cannot flip sign.
func (e *Encoder) HandleEdgeInterrupt() {
	// The load/store pair is safe only because edge interrupts never
	// preempt each other; the foreground accessors CAS against it.
	o := int32(e.offset.Load())
	if e.pins.A() != e.pins.B() {
		if o < math.MaxInt32 {
			e.offset.Store(uint32(o + 1))
		}
		return
	}
	if o > math.MinInt32 {
		e.offset.Store(uint32(o - 1))
	}
}

// HandlePressInterrupt latches a button press.
func (e *Encoder) HandlePressInterrupt() {
	e.pressed.Store(1)
}

// ReadOffset returns the detents accumulated since the last call and
// resets the count to zero. Net movement is reported: one detent
// clockwise then one counter-clockwise reads as zero.
func (e *Encoder) ReadOffset() int32 {
	for {
		o := e.offset.Load()
		if e.offset.CompareAndSwap(o, 0) {
			return int32(o)
		}
	}
}

// ReadPressed reports whether the button was pressed since the last
// call, clearing the latch.
func (e *Encoder) ReadPressed() bool {
	for {
		p := e.pressed.Load()
		if e.pressed.CompareAndSwap(p, 0) {
			return p != 0
		}
	}
}
