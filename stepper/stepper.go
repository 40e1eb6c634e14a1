package stepper

import "code.hybscloud.com/atomix"

// Pins energizes the motor coils. Only the low four bits of the phase
// pattern are meaningful, one coil per bit.
type Pins interface {
	SetPhase(bits uint8)
}

// Timer is the periodic tick source pacing the motor. The driver starts
// it when a move begins and stops it from the tick handler once the
// move completes; each tick must invoke the registered handler once.
type Timer interface {
	Start()
	Stop()
}

// phases is the full-torque two-coil excitation sequence. Walking it
// forward turns the motor one way, backward the other.
var phases = [4]uint8{
	0b0011,
	0b0110,
	0b1100,
	0b1001,
}

// Motor drives a four-phase stepper motor one step per timer tick.
// Move and the manual step methods run in the foreground; HandleTick
// runs in the timer's interrupt context and owns the phase index.
type Motor struct {
	pins  Pins
	timer Timer

	// remaining is the signed int32 step count still to travel, stored
	// in two's complement. Positive is clockwise.
	remaining atomix.Uint32
	index     int
}

// New creates a Motor and energizes the first phase so the rotor holds
// position.
func New(pins Pins, timer Timer) *Motor {
	m := &Motor{pins: pins, timer: timer}
	pins.SetPhase(phases[0])
	return m
}

// Move sets the signed step target and starts the tick timer. Positive
// steps turn clockwise, negative counter-clockwise. A move issued while
// one is in flight replaces the remaining travel rather than adding to
// it.
func (m *Motor) Move(steps int32) {
	m.remaining.Store(uint32(steps))
	m.timer.Start()
}

// Remaining returns the signed step count still to travel.
func (m *Motor) Remaining() int32 {
	return int32(m.remaining.Load())
}

// StepCW advances one step clockwise immediately, outside any move.
func (m *Motor) StepCW() {
	m.index = (m.index + len(phases) - 1) % len(phases)
	m.pins.SetPhase(phases[m.index])
}

// StepCCW advances one step counter-clockwise immediately.
func (m *Motor) StepCCW() {
	m.index = (m.index + 1) % len(phases)
	m.pins.SetPhase(phases[m.index])
}

// HandleTick runs in the timer interrupt context: it takes one step
// toward the target, or stops the timer once no travel remains. The
// final phase stays energized so the rotor holds position.
func (m *Motor) HandleTick() {
	switch r := int32(m.remaining.Load()); {
	case r > 0:
		m.StepCW()
		m.remaining.Add(^uint32(0))
	case r < 0:
		m.StepCCW()
		m.remaining.Add(1)
	default:
		m.timer.Stop()
	}
}
