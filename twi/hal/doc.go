// Package hal defines the Hardware Abstraction Layer interface for
// two-wire bus controllers.
//
// The [Controller] interface exposes only raw controller signals: start
// and stop conditions, single-byte transmit and receive, the completion
// flag, and the controller status code. All protocol sequencing (address
// phase, acknowledgement checking, stop framing) lives in the
// [github.com/softmcu/softmcu/twi] transaction engine, so a platform
// port only has to map these operations onto its controller registers.
//
// A simulated controller for host-side testing is available in
// [github.com/softmcu/softmcu/twi/hal/sim].
package hal
