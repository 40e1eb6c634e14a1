// Package lcd drives an HD44780 character display behind a PCF8574
// two-wire bus expander, using the 4-bit nibble protocol. It consumes
// any bus master satisfying the single-method [Bus] interface, which
// the twi transaction engine does.
package lcd
