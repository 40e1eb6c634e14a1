// Package twi implements a two-wire (I2C-style) bus transaction engine
// with both blocking and interrupt-chained asynchronous execution modes.
//
// The engine is an explicit state machine layered over the raw controller
// signals of [hal.Controller]:
//
//	Idle --start--> SentStart
//	SentStart --ack+write--> SentWriteAddr --ack--> SentWriteData --...--> Idle
//	SentStart --ack+read-->  SentReadAddr  --ack--> SentReadData  --...--> Idle
//	any phase --nack/unexpected status--> Idle (transfer abandoned, no retry)
//
// At most one transaction is in flight at a time. The state field is the
// only value shared between the blocking and asynchronous entry points:
// both claim the engine with an atomic idle check, and the blocking path
// additionally masks the controller completion interrupt for its whole
// duration so a late completion from an earlier asynchronous transaction
// cannot act on blocking-mode bus states.
//
// Addresses on the wire carry the 7-bit device address in the upper bits
// and the direction in bit 0; [Address] performs the encoding.
//
// None of the operations implement timeouts: an unacknowledged phase
// terminates the transaction immediately, but a stalled bus line with no
// completion signal will stall the blocking path indefinitely. Callers
// targeting less controlled environments should wrap transfers with their
// own deadline.
package twi
