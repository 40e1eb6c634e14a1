// Package keypad scans a 4x4 matrix keypad through the [Pins] line
// interface and decodes scan masks into key symbols.
package keypad
