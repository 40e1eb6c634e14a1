package uart

import (
	"runtime"

	"code.hybscloud.com/atomix"

	"github.com/softmcu/softmcu/pkg"
	"github.com/softmcu/softmcu/ring"
	"github.com/softmcu/softmcu/uart/hal"
)

// Driver is an interrupt-driven serial line driver with buffered
// transmit and receive paths.
//
// Each direction is a single-producer single-consumer ring buffer. On
// the transmit side the foreground goroutine produces and the
// transmit-empty interrupt consumes; on the receive side the receive
// interrupt produces and the foreground goroutine consumes. The sending
// flag is the only other shared word: it records whether the interrupt
// chain currently owns the transmit data register.
type Driver struct {
	port hal.Port

	tx *ring.Buffer
	rx *ring.Buffer

	// sending is nonzero while a buffered transmission is draining
	// through the transmit-empty interrupt.
	sending atomix.Uint32

	// dropped counts inbound bytes discarded because the receive buffer
	// was full when their interrupt fired.
	dropped atomix.Uint32
}

// New creates a Driver over the given port, backed by the caller-provided
// transmit and receive storage. Each buffer reserves one slot, so usable
// capacity is one less than the storage length. The driver registers its
// interrupt handlers with the port; the storage must not be touched by
// the caller afterwards.
func New(port hal.Port, txStorage, rxStorage []byte) *Driver {
	d := &Driver{
		port: port,
		tx:   ring.New(txStorage),
		rx:   ring.New(rxStorage),
	}
	port.SetRxHandler(d.handleRxInterrupt)
	port.SetTxEmptyHandler(d.handleTxEmptyInterrupt)
	pkg.LogDebug(pkg.ComponentUART, "driver initialized",
		"txCap", d.tx.Cap(), "rxCap", d.rx.Cap())
	return d
}

// SendByte queues a single byte for interrupt-driven transmission. If no
// buffered transmission is in flight the byte is written to the data
// register directly instead, skipping the buffer entirely.
func (d *Driver) SendByte(b byte) error {
	if d.sending.Load() == 0 {
		d.SendByteBlocking(b)
		return nil
	}
	buf := [1]byte{b}
	if err := d.tx.Write(buf[:]); err != nil {
		return err
	}
	// The drain may have finished between the check above and the ring
	// write. Re-arming the flag and the level-triggered interrupt restarts
	// the chain in that case instead of stranding the byte.
	d.sending.Store(1)
	d.port.SetTxInterruptEnabled(true)
	return nil
}

// Send queues p for interrupt-driven transmission. The write is
// all-or-nothing: if p does not fit in the free transmit buffer space,
// nothing is queued and pkg.ErrBufferFull is returned. Send returns as
// soon as the bytes are buffered; the transmit-empty interrupt drains
// them onto the line.
func (d *Driver) Send(p []byte) error {
	if err := d.tx.Write(p); err != nil {
		return err
	}
	d.sending.Store(1)
	d.port.SetTxInterruptEnabled(true)
	return nil
}

// SendString is Send for a string payload.
func (d *Driver) SendString(s string) error {
	return d.Send([]byte(s))
}

// SendByteBlocking transmits a single byte synchronously: it waits for
// any in-flight buffered transmission to drain, then for the data
// register to empty, then writes the byte directly.
func (d *Driver) SendByteBlocking(b byte) {
	for d.sending.Load() != 0 {
		runtime.Gosched()
	}
	for !d.port.TxReady() {
		runtime.Gosched()
	}
	d.port.WriteData(b)
}

// SendBlocking transmits p synchronously, one byte at a time. Unlike
// Send it is not bounded by the transmit buffer capacity.
func (d *Driver) SendBlocking(p []byte) {
	for _, b := range p {
		d.SendByteBlocking(b)
	}
}

// SendStringBlocking is SendBlocking for a string payload.
func (d *Driver) SendStringBlocking(s string) {
	for i := 0; i < len(s); i++ {
		d.SendByteBlocking(s[i])
	}
}

// Read drains up to len(p) received bytes into p without waiting. It
// returns the number of bytes copied, which is the number currently
// buffered when that is less than len(p).
func (d *Driver) Read(p []byte) int {
	return d.rx.ReadAndAdvance(p)
}

// ReadByte drains a single received byte, reporting false if none is
// buffered.
func (d *Driver) ReadByte() (byte, bool) {
	var buf [1]byte
	return buf[0], d.rx.ReadAndAdvance(buf[:]) == 1
}

// Buffered returns the number of received bytes waiting to be read.
func (d *Driver) Buffered() int {
	return d.rx.Len()
}

// Sending reports whether a buffered transmission is still draining.
func (d *Driver) Sending() bool {
	return d.sending.Load() != 0
}

// Dropped returns the number of inbound bytes discarded so far because
// the receive buffer was full.
func (d *Driver) Dropped() uint32 {
	return d.dropped.Load()
}

// handleRxInterrupt runs in the port's receive interrupt context. A full
// receive buffer drops the byte; the driver never blocks an interrupt.
func (d *Driver) handleRxInterrupt(b byte) {
	buf := [1]byte{b}
	if err := d.rx.Write(buf[:]); err != nil {
		d.dropped.Add(1)
	}
}

// handleTxEmptyInterrupt runs in the port's transmit-empty interrupt
// context. It moves the next buffered byte into the data register, or
// ends the interrupt chain when the buffer is drained.
func (d *Driver) handleTxEmptyInterrupt() {
	var buf [1]byte
	if d.tx.ReadAndAdvance(buf[:]) == 1 {
		d.port.WriteData(buf[0])
		return
	}
	d.sending.Store(0)
	d.port.SetTxInterruptEnabled(false)
}
