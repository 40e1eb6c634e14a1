package stepper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePins struct {
	history []uint8
}

func (p *fakePins) SetPhase(bits uint8) {
	p.history = append(p.history, bits)
}

type fakeTimer struct {
	running bool
	starts  int
	stops   int
}

func (ft *fakeTimer) Start() {
	ft.running = true
	ft.starts++
}

func (ft *fakeTimer) Stop() {
	ft.running = false
	ft.stops++
}

// runTicks fires the tick handler as long as the timer is running,
// bounded so a driver bug cannot loop forever.
func runTicks(t *testing.T, m *Motor, ft *fakeTimer, limit int) int {
	t.Helper()
	ticks := 0
	for ft.running {
		require.Less(t, ticks, limit, "timer never stopped")
		m.HandleTick()
		ticks++
	}
	return ticks
}

func TestNewEnergizesFirstPhase(t *testing.T) {
	pins := &fakePins{}
	New(pins, &fakeTimer{})
	require.Equal(t, []uint8{0b0011}, pins.history)
}

func TestMoveClockwise(t *testing.T) {
	pins := &fakePins{}
	ft := &fakeTimer{}
	m := New(pins, ft)

	m.Move(4)
	require.True(t, ft.running)

	ticks := runTicks(t, m, ft, 10)
	require.Equal(t, 5, ticks) // 4 steps plus the stopping tick
	require.Equal(t, int32(0), m.Remaining())

	// Clockwise walks the phase table backward from the initial entry.
	require.Equal(t, []uint8{0b0011, 0b1001, 0b1100, 0b0110, 0b0011}, pins.history)
}

func TestMoveCounterClockwise(t *testing.T) {
	pins := &fakePins{}
	ft := &fakeTimer{}
	m := New(pins, ft)

	m.Move(-3)
	runTicks(t, m, ft, 10)

	require.Equal(t, []uint8{0b0011, 0b0110, 0b1100, 0b1001}, pins.history)
	require.Equal(t, 1, ft.stops)
}

func TestMoveReplacesTravel(t *testing.T) {
	pins := &fakePins{}
	ft := &fakeTimer{}
	m := New(pins, ft)

	m.Move(100)
	m.HandleTick()
	m.Move(1)
	runTicks(t, m, ft, 10)

	require.Equal(t, int32(0), m.Remaining())
	require.Equal(t, 2, ft.starts)
}

func TestManualSteps(t *testing.T) {
	pins := &fakePins{}
	m := New(pins, &fakeTimer{})

	m.StepCCW()
	m.StepCCW()
	m.StepCW()
	require.Equal(t, []uint8{0b0011, 0b0110, 0b1100, 0b0110}, pins.history)
}
