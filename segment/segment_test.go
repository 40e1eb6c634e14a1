package segment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePins struct {
	segments uint8
	enabled  [Digits]bool
}

func (p *fakePins) SetSegments(bits uint8) { p.segments = bits }

func (p *fakePins) EnableDigit(n int) { p.enabled[n] = true }

func (p *fakePins) DisableDigit(n int) { p.enabled[n] = false }

// refresh runs one full multiplex cycle, recording the glyph shown on
// each digit select line.
func refresh(d *Display, pins *fakePins) [Digits]uint8 {
	var shown [Digits]uint8
	for n := 0; n < Digits; n++ {
		d.HandleShowTick()
		for sel := 0; sel < Digits; sel++ {
			if pins.enabled[sel] {
				shown[sel] = pins.segments
			}
		}
		d.HandleBlankTick()
	}
	return shown
}

func TestEncode(t *testing.T) {
	tests := []struct {
		c    byte
		want uint8
	}{
		{'0', 0b11111100},
		{'1', 0b01100000},
		{'8', 0b11111110},
		{'9', 0b11100110},
		{'a', 0b11101110},
		{'d', 0b01111010},
		{' ', 0},
		{'z', 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, encode(tt.c), "encode(%q)", tt.c)
	}
}

func TestNewBlanksDisplay(t *testing.T) {
	pins := &fakePins{segments: 0xff, enabled: [Digits]bool{true, true, true, true}}
	New(pins)

	require.Equal(t, uint8(0), pins.segments)
	require.Equal(t, [Digits]bool{}, pins.enabled)
}

func TestWriteCharScrolls(t *testing.T) {
	pins := &fakePins{}
	d := New(pins)

	d.WriteChar('1')
	d.WriteChar('2')

	// Select line 0 is the rightmost digit, where the last character
	// written lights.
	shown := refresh(d, pins)
	require.Equal(t, encode('2'), shown[0])
	require.Equal(t, encode('1'), shown[1])
	require.Equal(t, uint8(0), shown[2])
	require.Equal(t, uint8(0), shown[3])
}

func TestWriteStringKeepsTail(t *testing.T) {
	pins := &fakePins{}
	d := New(pins)

	d.WriteString("123456")

	shown := refresh(d, pins)
	require.Equal(t,
		[Digits]uint8{encode('6'), encode('5'), encode('4'), encode('3')},
		shown)
}

func TestClear(t *testing.T) {
	pins := &fakePins{}
	d := New(pins)

	d.WriteString("8888")
	d.Clear()

	require.Equal(t, [Digits]uint8{}, refresh(d, pins))
}

func TestBlankTickClearsBus(t *testing.T) {
	pins := &fakePins{}
	d := New(pins)
	d.WriteString("8888")

	d.HandleShowTick()
	require.True(t, pins.enabled[0])
	require.NotZero(t, pins.segments)

	d.HandleBlankTick()
	require.False(t, pins.enabled[0])
	require.Zero(t, pins.segments)
}

func TestMutationsSurviveFlips(t *testing.T) {
	pins := &fakePins{}
	d := New(pins)

	// Alternating writes land in alternating frames; every refresh must
	// still see the cumulative state.
	for _, c := range []byte("1234") {
		d.WriteChar(c)
	}
	shown := refresh(d, pins)
	require.Equal(t,
		[Digits]uint8{encode('4'), encode('3'), encode('2'), encode('1')},
		shown)
}
