// Package serialport adapts a real operating-system serial device to
// the uart driver's [hal.Port] interface using go.bug.st/serial.
//
// It exists so the same driver code exercised against the loopback
// simulation can talk to physical hardware over a USB-serial adapter
// without modification.
package serialport
