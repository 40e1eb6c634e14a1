package serialport

import (
	"fmt"
	"sync"

	"go.bug.st/serial"

	"github.com/softmcu/softmcu/pkg"
	"github.com/softmcu/softmcu/uart/hal"
)

// Port adapts an operating-system serial device to [hal.Port], so the
// uart driver can run against real hardware on a host.
//
// A reader goroutine turns inbound bytes into receive interrupts. The
// operating system buffers outbound bytes, so the data register is
// modeled as always ready, and each write raises a transmit-empty
// interrupt from a dedicated delivery goroutine.
type Port struct {
	name string
	dev  serial.Port

	mu      sync.Mutex
	rx      func(b byte)
	txEmpty func()
	txIntOn bool
	closed  bool

	txCh chan struct{}
	wake chan struct{}
	done chan struct{}
}

var _ hal.Port = (*Port)(nil)

// Open opens the named serial device at the given baud rate with an
// 8N1 frame and starts the port's reader and interrupt delivery
// goroutines.
func Open(name string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	dev, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	p := &Port{
		name: name,
		dev:  dev,
		txCh: make(chan struct{}, 1),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go p.readLoop()
	go p.deliverInterrupts()
	pkg.LogInfo(pkg.ComponentHAL, "serial port opened", "port", name, "baud", baud)
	return p, nil
}

// WriteData hands one byte to the operating system and raises a
// transmit-empty interrupt, since the device queue accepts it
// immediately.
func (p *Port) WriteData(b byte) {
	buf := [1]byte{b}
	if _, err := p.dev.Write(buf[:]); err != nil {
		pkg.LogError(pkg.ComponentHAL, "serial write failed", "port", p.name, "error", err)
	}
	p.raiseTxEmpty()
	p.signalWake()
}

// TxReady always reports true: the operating system buffers writes.
func (p *Port) TxReady() bool {
	return true
}

// SetTxInterruptEnabled masks or unmasks the transmit-empty interrupt.
// Enabling it raises the interrupt immediately.
func (p *Port) SetTxInterruptEnabled(on bool) {
	p.mu.Lock()
	p.txIntOn = on
	p.mu.Unlock()
	if on {
		p.raiseTxEmpty()
	}
}

// SetRxHandler registers the receive interrupt handler.
func (p *Port) SetRxHandler(fn func(b byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = fn
}

// SetTxEmptyHandler registers the transmit-empty interrupt handler.
func (p *Port) SetTxEmptyHandler(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txEmpty = fn
}

// Idle parks the caller until the next interrupt activity on the port.
func (p *Port) Idle() {
	select {
	case <-p.wake:
	case <-p.done:
	}
}

// Close shuts down the port. The reader goroutine exits once the device
// read unblocks, and any goroutine parked in Idle is released.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return pkg.ErrClosed
	}
	p.closed = true
	p.mu.Unlock()
	close(p.done)
	return p.dev.Close()
}

func (p *Port) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := p.dev.Read(buf)
		if err != nil {
			p.mu.Lock()
			closed := p.closed
			p.mu.Unlock()
			if !closed {
				pkg.LogError(pkg.ComponentHAL, "serial read failed", "port", p.name, "error", err)
			}
			return
		}
		p.mu.Lock()
		rx := p.rx
		p.mu.Unlock()
		for _, b := range buf[:n] {
			if rx != nil {
				rx(b)
			}
		}
		p.signalWake()
	}
}

func (p *Port) raiseTxEmpty() {
	select {
	case p.txCh <- struct{}{}:
	default:
	}
}

func (p *Port) signalWake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Port) deliverInterrupts() {
	for {
		select {
		case <-p.txCh:
		case <-p.done:
			return
		}
		p.mu.Lock()
		on := p.txIntOn
		fn := p.txEmpty
		p.mu.Unlock()
		if on && fn != nil {
			fn()
		}
		p.signalWake()
	}
}
