package segment

import "code.hybscloud.com/atomix"

// Pins drives a multiplexed seven-segment display: one shared segment
// bus and one select line per digit, active low.
type Pins interface {
	// SetSegments drives the segment bus. Bit 7 is the top bar, bits
	// descend clockwise around the glyph, bit 1 is the middle bar and
	// bit 0 the dot.
	SetSegments(bits uint8)

	// EnableDigit pulls a digit select line low.
	EnableDigit(n int)

	// DisableDigit returns a digit select line high.
	DisableDigit(n int)
}

// Digits is the number of multiplexed positions.
const Digits = 4

var digitEncodings = [10]uint8{
	0b11111100, // zero
	0b01100000, // one
	0b11011010, // two
	0b11110010, // three
	0b01100110, // four
	0b10110110, // five
	0b10111110, // six
	0b11100000, // seven
	0b11111110, // eight
	0b11100110, // nine
}

var letterEncodings = [4]uint8{
	0b11101110, // a
	0b00111110, // b
	0b10011100, // c
	0b01111010, // d
}

// encode maps a character to its segment pattern; anything outside
// '0'-'9' and 'a'-'d' renders blank.
func encode(c byte) uint8 {
	switch {
	case '0' <= c && c <= '9':
		return digitEncodings[c-'0']
	case 'a' <= c && c <= 'd':
		return letterEncodings[c-'a']
	default:
		return 0
	}
}

// Display multiplexes characters onto the digits from a pair of timer
// interrupts, lighting one digit at a time faster than the eye can
// follow.
//
// The character data is double buffered: the tick handlers only ever
// read the frame selected by the atomic index, and writers mutate the
// other frame before flipping the index. A writer therefore never
// races the interrupt on frame contents, at the cost of copying the
// fresh frame into the back buffer after each flip.
type Display struct {
	pins Pins

	frames [2][Digits]byte
	active atomix.Uint32

	// current is the digit being driven, owned by the tick handlers.
	current int
}

// New creates a Display with all digits blank and deselected.
func New(pins Pins) *Display {
	d := &Display{pins: pins}
	pins.SetSegments(0)
	for n := 0; n < Digits; n++ {
		pins.DisableDigit(n)
	}
	return d
}

// Clear blanks every digit.
func (d *Display) Clear() {
	d.mutate(func(f *[Digits]byte) {
		*f = [Digits]byte{}
	})
}

// WriteChar scrolls the display one position left and shows c in the
// rightmost digit.
func (d *Display) WriteChar(c byte) {
	d.mutate(func(f *[Digits]byte) {
		copy(f[:], f[1:])
		f[Digits-1] = c
	})
}

// WriteString writes each character in turn; only the last Digits
// characters remain visible.
func (d *Display) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		d.WriteChar(s[i])
	}
}

// mutate applies mut to the back frame, flips it live, then refreshes
// the new back frame so the next mutation starts from current data.
func (d *Display) mutate(mut func(f *[Digits]byte)) {
	back := 1 - d.active.Load()
	mut(&d.frames[back])
	d.active.Store(back)
	d.frames[1-back] = d.frames[back]
}

// HandleShowTick runs in timer interrupt context at the start of a
// digit slot: it selects the current digit and drives its character
// onto the segment bus. Select line 0 is the rightmost digit while the
// frame is ordered left to right, so line n carries frame position
// Digits-1-n.
func (d *Display) HandleShowTick() {
	d.pins.EnableDigit(d.current)
	f := &d.frames[d.active.Load()]
	d.pins.SetSegments(encode(f[Digits-1-d.current]))
}

// HandleBlankTick runs in timer interrupt context at the end of a digit
// slot: it deselects the digit and clears the segment bus so adjacent
// digits do not bleed into each other, then moves on.
func (d *Display) HandleBlankTick() {
	d.pins.DisableDigit(d.current)
	d.pins.SetSegments(0)
	d.current = (d.current + 1) % Digits
}
