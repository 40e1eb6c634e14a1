package loopback

import (
	"sync"

	"github.com/softmcu/softmcu/uart/hal"
)

// Port is an in-memory serial port for host-side testing. Transmitted
// bytes are captured for inspection (and optionally echoed back to the
// receiver); inbound bytes are injected by the test.
//
// The data register is always empty, as if the line ran at infinite
// speed, so TxReady is permanently true. Transmit-empty interrupts are
// delivered from a dedicated goroutine, never from the goroutine that
// wrote the byte, reproducing the asynchronous interrupt chaining of
// real hardware.
type Port struct {
	mu       sync.Mutex
	rx       func(b byte)
	txEmpty  func()
	txIntOn  bool
	echo     bool
	captured []byte

	txCh   chan struct{}
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

var _ hal.Port = (*Port)(nil)

// New creates a Port and starts its interrupt delivery goroutine.
func New() *Port {
	p := &Port{
		txCh: make(chan struct{}, 1),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go p.deliverInterrupts()
	return p
}

// SetEcho configures whether transmitted bytes are looped back into the
// receive path, as if the line were wired to itself.
func (p *Port) SetEcho(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.echo = on
}

// WriteData captures b as line output and leaves the data register
// empty again, raising a transmit-empty interrupt if one is enabled.
func (p *Port) WriteData(b byte) {
	p.mu.Lock()
	p.captured = append(p.captured, b)
	echo := p.echo
	rx := p.rx
	p.mu.Unlock()

	if echo && rx != nil {
		rx(b)
	}
	p.raiseTxEmpty()
	p.signalWake()
}

// TxReady always reports true: the simulated register empties instantly.
func (p *Port) TxReady() bool {
	return true
}

// SetTxInterruptEnabled masks or unmasks the transmit-empty interrupt.
// Enabling it raises the interrupt immediately, since the simulated data
// register is always empty.
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

// InjectRx delivers inbound bytes to the registered receive handler, one
// interrupt per byte, from the calling goroutine.
func (p *Port) InjectRx(data []byte) {
	p.mu.Lock()
	rx := p.rx
	p.mu.Unlock()
	for _, b := range data {
		if rx != nil {
			rx(b)
		}
		p.signalWake()
	}
}

// Captured returns a copy of every byte transmitted so far.
func (p *Port) Captured() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.captured...)
}

// Close stops interrupt delivery and releases any goroutine parked in
// Idle.
func (p *Port) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
}

// raiseTxEmpty coalesces transmit-empty interrupts: the handler runs at
// least once after every raise, which is all a level-triggered source
// guarantees.
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
