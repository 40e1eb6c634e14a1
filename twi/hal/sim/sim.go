package sim

import (
	"sync"

	"github.com/softmcu/softmcu/pkg"
	"github.com/softmcu/softmcu/twi/hal"
)

// Device models a slave attached to the simulated bus.
//
// Methods are called with the bus lock held and must not call back into
// the bus.
type Device interface {
	// Select addresses the device for a transaction in the given
	// direction. Returning false leaves the address phase unacknowledged.
	Select(read bool) bool

	// Write hands the device one data byte from the master. Returning
	// false leaves the byte unacknowledged.
	Write(b byte) bool

	// Read supplies the next data byte to the master. Returning false
	// signals the device has nothing to send, which the bus surfaces as a
	// fault.
	Read() (byte, bool)
}

// Bus is a simulated two-wire bus controller implementing
// [hal.Controller]. Slaves are attached with [Bus.Attach] under their
// 7-bit address.
//
// Each operation completes synchronously, so Ready reports true as soon
// as the operation call returns; a dedicated goroutine then delivers the
// completion interrupt to the registered handler, mimicking the
// asynchronous interrupt chaining of a real controller. Completions that
// occur while the interrupt is masked are dropped, matching a controller
// whose interrupt flag is cleared by the polling consumer.
type Bus struct {
	mu      sync.Mutex
	devices map[uint8]Device

	handler    func()
	intEnabled bool

	started bool
	current Device
	reading bool
	status  hal.Status
	data    byte
	ready   bool

	intCh     chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewBus creates a simulated bus and starts its interrupt delivery
// goroutine. Call Close when done to stop it.
func NewBus() *Bus {
	b := &Bus{
		devices: make(map[uint8]Device),
		intCh:   make(chan struct{}, 64),
		closeCh: make(chan struct{}),
	}
	go b.deliverInterrupts()
	return b
}

// Attach registers a slave device under its 7-bit address.
func (b *Bus) Attach(addr uint8, d Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[addr&0x7F] = d
	pkg.LogDebug(pkg.ComponentHAL, "sim slave attached", "addr", addr&0x7F)
}

// Detach removes the slave at the given 7-bit address, if any.
func (b *Bus) Detach(addr uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.devices, addr&0x7F)
}

// Close stops the interrupt delivery goroutine.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.closeCh) })
}

// Start transmits a start or repeated start condition.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.started {
		b.status = hal.StatusRepeatedStart
	} else {
		b.status = hal.StatusStart
	}
	b.started = true
	b.current = nil
	b.ready = true
	b.mu.Unlock()
	b.raiseInterrupt()
}

// Stop transmits a stop condition and releases the bus. No completion
// interrupt is raised for a stop.
func (b *Bus) Stop() {
	b.mu.Lock()
	b.started = false
	b.current = nil
	b.ready = true
	b.mu.Unlock()
}

// Transmit clocks one byte onto the bus: the address byte directly after
// a start condition, a data byte afterwards.
func (b *Bus) Transmit(v byte) {
	b.mu.Lock()
	switch {
	case !b.started:
		b.status = hal.StatusBusFault
	case b.current == nil:
		// Address phase: 7-bit address plus direction bit.
		b.selectDevice(v)
	case b.reading:
		// Transmitting while addressed for read is a protocol violation.
		b.status = hal.StatusBusFault
	default:
		if b.current.Write(v) {
			b.status = hal.StatusWriteDataAck
		} else {
			b.status = hal.StatusWriteDataNack
		}
	}
	b.ready = true
	b.mu.Unlock()
	b.raiseInterrupt()
}

// Receive clocks one byte in from the addressed device, replying with the
// given acknowledgement bit.
func (b *Bus) Receive(ack bool) {
	b.mu.Lock()
	switch {
	case !b.started, b.current == nil, !b.reading:
		b.status = hal.StatusBusFault
	default:
		v, ok := b.current.Read()
		if !ok {
			b.status = hal.StatusBusFault
			break
		}
		b.data = v
		if ack {
			b.status = hal.StatusReadDataAck
		} else {
			b.status = hal.StatusReadDataNack
		}
	}
	b.ready = true
	b.mu.Unlock()
	b.raiseInterrupt()
}

// Data returns the byte received by the last Receive.
func (b *Bus) Data() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Ready reports whether the last operation has completed.
func (b *Bus) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Status returns the controller status after the last operation.
func (b *Bus) Status() hal.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// SetHandler registers the completion interrupt handler.
func (b *Bus) SetHandler(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = fn
}

// SetInterruptEnabled masks or unmasks the completion interrupt.
func (b *Bus) SetInterruptEnabled(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.intEnabled = on
}

// selectDevice resolves the address phase. Caller holds b.mu.
func (b *Bus) selectDevice(v byte) {
	addr := v >> 1
	read := v&1 != 0

	nack := hal.StatusWriteAddrNack
	ack := hal.StatusWriteAddrAck
	if read {
		nack = hal.StatusReadAddrNack
		ack = hal.StatusReadAddrAck
	}

	d, present := b.devices[addr]
	if !present || !d.Select(read) {
		b.status = nack
		return
	}
	b.current = d
	b.reading = read
	b.status = ack
}

func (b *Bus) raiseInterrupt() {
	select {
	case b.intCh <- struct{}{}:
	default:
		pkg.LogWarn(pkg.ComponentHAL, "sim interrupt queue overflow")
	}
}

func (b *Bus) deliverInterrupts() {
	for {
		select {
		case <-b.closeCh:
			return
		case <-b.intCh:
			b.mu.Lock()
			fn := b.handler
			enabled := b.intEnabled
			b.mu.Unlock()
			if enabled && fn != nil {
				fn()
			}
		}
	}
}

// Compile-time interface check
var _ hal.Controller = (*Bus)(nil)
