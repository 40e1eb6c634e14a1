package keypad

// Pins drives a 4x4 matrix keypad: four row lines driven by the scanner
// and four column lines sampled by it. Lines are active low, with the
// columns pulled high while no key in a driven row is down.
type Pins interface {
	// DriveRowLow pulls one row line low to select it for sampling.
	DriveRowLow(row int)

	// ReleaseRow returns a row line to its idle high level.
	ReleaseRow(row int)

	// Columns samples the raw column levels in the low four bits.
	Columns() uint8
}

// Rows and Cols give the matrix dimensions; a scan mask has Rows*Cols
// bits.
const (
	Rows = 4
	Cols = 4
)

// encodings maps mask bit positions to key symbols, column-major: bit
// 4*row+col selects the symbol at that matrix position.
var encodings = [Rows * Cols]byte{
	'1', '4', '7', '*',
	'2', '5', '8', '0',
	'3', '6', '9', '#',
	'a', 'b', 'c', 'd',
}

// Keypad scans a matrix keypad one row at a time.
type Keypad struct {
	pins Pins
}

// New creates a Keypad over the given matrix pins.
func New(pins Pins) *Keypad {
	return &Keypad{pins: pins}
}

// Scan drives each row low in turn and samples the columns, returning a
// 16-bit mask with one bit per key: bit 4*row+col is set while that key
// is held down. Multiple held keys yield multiple set bits.
func (k *Keypad) Scan() uint16 {
	var mask uint16
	for row := 0; row < Rows; row++ {
		k.pins.DriveRowLow(row)
		// Column lines are active low; invert so a held key reads as 1.
		mask |= uint16(^k.pins.Columns()&0x0f) << (Cols * row)
		k.pins.ReleaseRow(row)
	}
	return mask
}

// FirstSymbol returns the symbol of the lowest set bit in a scan mask,
// reporting false when no key is down.
func FirstSymbol(mask uint16) (byte, bool) {
	for i := 0; i < Rows*Cols; i++ {
		if mask&(1<<i) != 0 {
			return encodings[i], true
		}
	}
	return 0, false
}
