package twi

import (
	"runtime"

	"code.hybscloud.com/atomix"

	"github.com/softmcu/softmcu/pkg"
	"github.com/softmcu/softmcu/twi/hal"
)

// Engine drives addressed byte transfers over a two-wire bus controller.
// At most one transaction is active at any time.
//
// Two execution modes share the engine. TransferBlocking busy-waits on
// the controller completion flag and keeps the completion interrupt
// masked for its whole duration, so the interrupt path can never observe
// its intermediate bus states. Transfer issues only the start condition
// and returns; the remaining phases run inside the controller's
// completion interrupt, one phase per interrupt, until the stop condition
// resets the engine to idle.
type Engine struct {
	ctrl hal.Controller

	// state is the only field both call paths touch; all other transaction
	// fields are owned by whichever path holds the non-idle state.
	state  atomix.Uint32
	failed atomix.Uint32

	addr    byte
	buf     []byte
	index   int
	scratch [1]byte
}

// New creates an Engine on the given controller, registers its interrupt
// handler, and unmasks the completion interrupt.
func New(ctrl hal.Controller) *Engine {
	e := &Engine{ctrl: ctrl}
	ctrl.SetHandler(e.handleInterrupt)
	ctrl.SetInterruptEnabled(true)
	return e
}

// State returns the current protocol state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Status reports whether the engine is idle and ready, has a transfer in
// flight, or abandoned its last asynchronous transfer.
func (e *Engine) Status() Status {
	if State(e.state.Load()) != StateIdle {
		return StatusPending
	}
	if e.failed.Load() != 0 {
		return StatusError
	}
	return StatusReady
}

// TransferBlocking performs a complete transfer to the encoded address,
// spinning on the controller completion flag for every phase. It waits
// for the engine to become idle, claims it, and masks the completion
// interrupt until the transfer is over so a late interrupt from an
// earlier asynchronous transaction cannot act on blocking-mode bus
// states.
//
// The first unacknowledged phase abandons the transfer at that byte
// boundary; bytes already transferred are not rolled back. The engine
// state is reset to idle on every return path.
func (e *Engine) TransferBlocking(addr byte, buf []byte) error {
	if len(buf) == 0 {
		return pkg.ErrInvalidParameter
	}

	for !e.state.CompareAndSwap(uint32(StateIdle), uint32(StateBusyBlocking)) {
		runtime.Gosched()
	}
	e.ctrl.SetInterruptEnabled(false)

	err := e.runBlocking(addr, buf)

	e.ctrl.SetInterruptEnabled(true)
	e.state.Store(uint32(StateIdle))
	return err
}

// Transfer begins an asynchronous transfer to the encoded address. It
// requires the engine to be idle: unlike the blocking entry point it
// performs no wait, and returns pkg.ErrBusy if a transaction is already
// in flight. buf is borrowed until the transfer leaves the pending state
// and must not be touched by the caller before then.
func (e *Engine) Transfer(addr byte, buf []byte) error {
	if len(buf) == 0 {
		return pkg.ErrInvalidParameter
	}
	if !e.state.CompareAndSwap(uint32(StateIdle), uint32(StateSentStart)) {
		return pkg.ErrBusy
	}

	e.failed.Store(0)
	e.addr = addr
	e.buf = buf
	e.index = 0

	// The state is already SentStart, so the completion interrupt may fire
	// the moment the start condition hits the wire.
	e.ctrl.Start()
	return nil
}

// SendBlocking writes a single byte to the 7-bit device address.
func (e *Engine) SendBlocking(addr uint8, value byte) error {
	buf := [1]byte{value}
	return e.TransferBlocking(Address(addr, DirWrite), buf[:])
}

// ReadBlocking reads a single byte from the 7-bit device address.
func (e *Engine) ReadBlocking(addr uint8) (byte, error) {
	var buf [1]byte
	err := e.TransferBlocking(Address(addr, DirRead), buf[:])
	return buf[0], err
}

// Send begins an asynchronous single-byte write to the 7-bit device
// address. The byte is staged in an engine-owned scratch slot, so the
// caller has nothing to keep alive.
func (e *Engine) Send(addr uint8, value byte) error {
	// The scratch slot is still borrowed while a transfer is in flight,
	// so the idle check must come before staging the byte. Transfer
	// re-checks with a CAS; this early load only protects the scratch
	// payload of a pending predecessor.
	if State(e.state.Load()) != StateIdle {
		return pkg.ErrBusy
	}
	e.scratch[0] = value
	return e.Transfer(Address(addr, DirWrite), e.scratch[:])
}

// Read begins an asynchronous read from the 7-bit device address into
// dst. Like Transfer, dst is borrowed until the transfer leaves the
// pending state; its contents are valid once Status reports ready.
func (e *Engine) Read(addr uint8, dst []byte) error {
	return e.Transfer(Address(addr, DirRead), dst)
}

func (e *Engine) runBlocking(addr byte, buf []byte) error {
	e.ctrl.Start()
	e.waitReady()
	if s := e.ctrl.Status(); s != hal.StatusStart && s != hal.StatusRepeatedStart {
		return statusError(s)
	}

	e.ctrl.Transmit(addr)
	e.waitReady()

	if isRead(addr) {
		if s := e.ctrl.Status(); s != hal.StatusReadAddrAck {
			e.ctrl.Stop()
			return statusError(s)
		}
		for i := range buf {
			e.ctrl.Receive(true)
			e.waitReady()
			if s := e.ctrl.Status(); s != hal.StatusReadDataAck {
				e.ctrl.Stop()
				return statusError(s)
			}
			buf[i] = e.ctrl.Data()
		}
	} else {
		if s := e.ctrl.Status(); s != hal.StatusWriteAddrAck {
			e.ctrl.Stop()
			return statusError(s)
		}
		for _, b := range buf {
			e.ctrl.Transmit(b)
			e.waitReady()
			if s := e.ctrl.Status(); s != hal.StatusWriteDataAck {
				e.ctrl.Stop()
				return statusError(s)
			}
		}
	}

	e.ctrl.Stop()
	return nil
}

// waitReady spins on the controller completion flag. Blocking mode
// deliberately burns foreground cycles here to keep bus timing tight.
func (e *Engine) waitReady() {
	for !e.ctrl.Ready() {
		runtime.Gosched()
	}
}

// handleInterrupt is the completion interrupt body: it validates the
// acknowledgement for the phase recorded in the state field, then either
// triggers the next phase or finishes the transaction. Exactly one
// completion interrupt arrives per phase.
//
// The next state is always stored before the operation that triggers the
// following interrupt, so a completion can never observe a stale phase.
func (e *Engine) handleInterrupt() {
	switch State(e.state.Load()) {
	case StateSentStart:
		if s := e.ctrl.Status(); s != hal.StatusStart && s != hal.StatusRepeatedStart {
			e.abort()
			return
		}
		if isRead(e.addr) {
			e.state.Store(uint32(StateSentReadAddr))
		} else {
			e.state.Store(uint32(StateSentWriteAddr))
		}
		e.ctrl.Transmit(e.addr)

	case StateSentWriteAddr:
		if e.ctrl.Status() != hal.StatusWriteAddrAck {
			e.abort()
			return
		}
		e.state.Store(uint32(StateSentWriteData))
		b := e.buf[e.index]
		e.index++
		e.ctrl.Transmit(b)

	case StateSentWriteData:
		if e.ctrl.Status() != hal.StatusWriteDataAck {
			e.abort()
			return
		}
		if e.index < len(e.buf) {
			b := e.buf[e.index]
			e.index++
			e.ctrl.Transmit(b)
			return
		}
		// Entire buffer was sent; stop condition ends the transaction.
		e.ctrl.Stop()
		e.state.Store(uint32(StateIdle))

	case StateSentReadAddr:
		if e.ctrl.Status() != hal.StatusReadAddrAck {
			e.abort()
			return
		}
		e.state.Store(uint32(StateSentReadData))
		e.ctrl.Receive(true)

	case StateSentReadData:
		if e.ctrl.Status() != hal.StatusReadDataAck {
			e.abort()
			return
		}
		e.buf[e.index] = e.ctrl.Data()
		e.index++
		if e.index < len(e.buf) {
			e.ctrl.Receive(true)
			return
		}
		// Entire buffer was filled; stop condition ends the transaction.
		e.ctrl.Stop()
		e.state.Store(uint32(StateIdle))

	default:
		// StateIdle or StateBusyBlocking: a completion left over from an
		// earlier transaction. The blocking path owns the bus, or nothing
		// is in flight; either way this interrupt has no phase to advance.
	}
}

// abort abandons the in-flight asynchronous transaction with no retry.
func (e *Engine) abort() {
	e.ctrl.Stop()
	e.failed.Store(1)
	e.state.Store(uint32(StateIdle))
}
