package lcd

import (
	"time"

	"github.com/softmcu/softmcu/pkg"
)

// Bus is the byte-write surface the device needs from a two-wire bus
// master. *twi.Engine satisfies it.
type Bus interface {
	SendBlocking(addr uint8, value byte) error
}

// DefaultAddr is the bus address pre-programmed into the PCF8574
// expander on common LCD backpacks.
const DefaultAddr = 0x27

// Width is the number of characters per display row.
const Width = 16

// HD44780 command bytes.
const (
	CmdClearDisplay   = 0x01
	CmdReturnHome     = 0x02
	CmdEntryModeSet   = 0x04
	CmdDisplayControl = 0x08
	CmdCursorShift    = 0x10
	CmdFunctionSet    = 0x20
	CmdSetCGRAMAddr   = 0x40
	CmdSetDDRAMAddr   = 0x80
)

// Flags for CmdEntryModeSet.
const (
	EntryLeft           = 0x02
	EntryShiftIncrement = 0x01
)

// Flags for CmdDisplayControl.
const (
	DisplayOn = 0x04
	CursorOn  = 0x02
	BlinkOn   = 0x01
)

// Flags for CmdFunctionSet.
const (
	Mode8Bit = 0x10
	Lines2   = 0x08
	Font5x10 = 0x04
)

// Expander bit assignments: the PCF8574 drives the LCD control lines
// from its low three bits and the data nibble from its high four.
const (
	bitRegisterSelect = 0x01
	bitEnable         = 0x04
	bitBacklight      = 0x08
)

// Device is an HD44780 character LCD behind an 8-bit bus expander,
// driven in 4-bit mode: every byte crosses the bus as two nibbles, each
// latched by a pulse of the enable line.
//
// Device methods block on bus traffic and on protocol settle delays;
// they must not be called from interrupt context.
type Device struct {
	bus       Bus
	addr      uint8
	backlight bool

	// delay implements the protocol settle times; replaced in tests.
	delay func(time.Duration)
}

// New creates a Device at the given bus address with the backlight on.
// The display is not touched until Init.
func New(bus Bus, addr uint8) *Device {
	return &Device{
		bus:       bus,
		addr:      addr,
		backlight: true,
		delay:     time.Sleep,
	}
}

// Init performs the 4-bit mode initialization sequence and leaves the
// display on, cleared, with a blinking cursor at the origin.
//
// The mode-set nibble is sent three times: the controller may wake in
// 8-bit or half-synced 4-bit mode, and the repetition lands it in a
// known state from any of them.
func (d *Device) Init() error {
	d.delay(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := d.sendNibble(0x03 << 4); err != nil {
			return err
		}
		d.delay(4500 * time.Microsecond)
	}
	if err := d.sendNibble(0x02 << 4); err != nil {
		return err
	}

	if err := d.SendCommand(CmdFunctionSet | Lines2); err != nil {
		return err
	}
	if err := d.SendCommand(CmdDisplayControl | DisplayOn | CursorOn | BlinkOn); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.SendCommand(CmdEntryModeSet | EntryLeft); err != nil {
		return err
	}
	if err := d.Home(); err != nil {
		return err
	}

	pkg.LogDebug(pkg.ComponentLCD, "display initialized", "addr", d.addr)
	return nil
}

// Clear blanks the display and returns the cursor to the origin.
func (d *Device) Clear() error {
	if err := d.SendCommand(CmdClearDisplay); err != nil {
		return err
	}
	// Clear is one of the two slow instructions.
	d.delay(2 * time.Millisecond)
	return nil
}

// Home returns the cursor to the origin without clearing.
func (d *Device) Home() error {
	if err := d.SendCommand(CmdReturnHome); err != nil {
		return err
	}
	d.delay(2 * time.Millisecond)
	return nil
}

// SendCommand writes a raw instruction byte.
func (d *Device) SendCommand(value byte) error {
	return d.sendByte(value, false)
}

// WriteChar writes one character at the cursor position.
func (d *Device) WriteChar(value byte) error {
	return d.sendByte(value, true)
}

// Write writes a string starting at the cursor position. Writing past
// the end of a row does not wrap to the next one; position with
// SetCursor.
func (d *Device) Write(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.sendByte(s[i], true); err != nil {
			return err
		}
	}
	return nil
}

// SetCursor moves the cursor to the given zero-based column and row.
func (d *Device) SetCursor(col, row uint8) error {
	var offset uint8
	if row != 0 {
		offset = 0x40
	}
	return d.SendCommand(CmdSetDDRAMAddr | (col + offset))
}

// SetBacklight switches the backlight and latches the new level
// immediately with an otherwise inert expander write.
func (d *Device) SetBacklight(on bool) error {
	d.backlight = on
	return d.bus.SendBlocking(d.addr, d.controlBits(0))
}

// sendByte splits a byte into two nibbles, high first. data selects the
// data register over the instruction register.
func (d *Device) sendByte(value byte, data bool) error {
	var mode byte
	if data {
		mode = bitRegisterSelect
	}
	if err := d.sendNibble(value&0xf0 | mode); err != nil {
		return err
	}
	return d.sendNibble(value<<4&0xf0 | mode)
}

// sendNibble latches one nibble by pulsing the enable line around it.
func (d *Device) sendNibble(value byte) error {
	if err := d.bus.SendBlocking(d.addr, d.controlBits(value)|bitEnable); err != nil {
		return err
	}
	// Enable pulse must be held over 450ns.
	d.delay(time.Microsecond)

	if err := d.bus.SendBlocking(d.addr, d.controlBits(value)&^bitEnable); err != nil {
		return err
	}
	// Instructions need over 37us to settle.
	d.delay(50 * time.Microsecond)
	return nil
}

func (d *Device) controlBits(value byte) byte {
	if d.backlight {
		return value | bitBacklight
	}
	return value
}
