package pkg

import "errors"

// Peripheral protocol errors.
var (
	// ErrBufferFull indicates a ring buffer write could not be admitted.
	// No partial write has occurred.
	ErrBufferFull = errors.New("buffer full")

	// ErrNack indicates a bus phase completed without the expected
	// acknowledgement. The in-flight transaction has been abandoned.
	ErrNack = errors.New("NACK received")

	// ErrScanOverflow indicates a delimiter search exhausted its scratch
	// buffer without finding a match.
	ErrScanOverflow = errors.New("scan buffer overflow")

	// ErrBusy indicates the resource has an operation in flight.
	ErrBusy = errors.New("resource busy")

	// ErrBusFault indicates the bus controller reported an unexpected
	// status that is not a plain missing acknowledgement.
	ErrBusFault = errors.New("bus fault")

	// ErrArbitrationLost indicates another master claimed the bus.
	ErrArbitrationLost = errors.New("arbitration lost")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrBufferTooSmall indicates the provided buffer cannot hold the
	// requested result.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrClosed indicates the underlying port has been closed.
	ErrClosed = errors.New("port closed")
)
