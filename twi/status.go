package twi

import (
	"github.com/softmcu/softmcu/pkg"
	"github.com/softmcu/softmcu/twi/hal"
)

// State identifies the protocol phase currently in flight. It is the
// single source of truth shared between the synchronous (blocking) entry
// point and the asynchronous (interrupt) path; entry into either requires
// observing StateIdle first.
type State uint32

// Transaction engine states.
const (
	StateIdle         State = iota // No transaction in flight
	StateBusyBlocking              // Claimed by a blocking transfer
	StateSentStart                 // Start condition issued
	StateSentReadAddr              // Address+R transmitted
	StateSentReadData              // Data byte reception triggered
	StateSentWriteAddr             // Address+W transmitted
	StateSentWriteData             // Data byte transmission triggered
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusyBlocking:
		return "busy blocking"
	case StateSentStart:
		return "sent start"
	case StateSentReadAddr:
		return "sent read address"
	case StateSentReadData:
		return "sent read data"
	case StateSentWriteAddr:
		return "sent write address"
	case StateSentWriteData:
		return "sent write data"
	default:
		return "unknown"
	}
}

// Status is the engine-level view of the transaction state.
type Status int

// Engine status values.
const (
	StatusReady   Status = iota // Idle, last transfer completed
	StatusPending               // A transfer is in flight
	StatusError                 // Idle, last asynchronous transfer was abandoned
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Direction is the transfer direction bit of an encoded bus address.
type Direction uint8

// Transfer directions.
const (
	DirWrite Direction = 0 // Master writes to the slave
	DirRead  Direction = 1 // Master reads from the slave
)

// Address encodes a 7-bit device address and a direction into the wire
// format: the address shifted left by one with the direction in bit 0.
func Address(addr uint8, dir Direction) byte {
	return addr<<1 | byte(dir)
}

// isRead reports whether an encoded address selects the read direction.
func isRead(addr byte) bool {
	return addr&1 != 0
}

// statusError maps an unexpected controller status to a sentinel error.
func statusError(s hal.Status) error {
	switch s {
	case hal.StatusWriteAddrNack, hal.StatusWriteDataNack,
		hal.StatusReadAddrNack, hal.StatusReadDataNack:
		return pkg.ErrNack
	case hal.StatusArbitrationLost:
		return pkg.ErrArbitrationLost
	default:
		return pkg.ErrBusFault
	}
}
