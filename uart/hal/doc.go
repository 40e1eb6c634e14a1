// Package hal defines the serial port controller interface consumed by
// the uart driver.
//
// Subpackages provide implementations: loopback is an in-memory port
// for host-side tests and demos, serialport adapts a real operating
// system serial device.
package hal
