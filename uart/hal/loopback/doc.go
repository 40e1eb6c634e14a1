// Package loopback provides an in-memory serial port for host-side
// testing of the uart driver.
//
// [Port] implements [hal.Port] with an always-empty data register,
// captures transmitted bytes for inspection, and lets tests inject
// inbound bytes as receive interrupts. With echo enabled it behaves as
// a line wired back to itself.
package loopback
