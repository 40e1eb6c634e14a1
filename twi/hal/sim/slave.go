package sim

import "sync"

// Slave is a configurable simulated device for tests and demos. It
// acknowledges by default, records every byte written to it, and serves
// reads from a queue of prepared response bytes.
type Slave struct {
	mu      sync.Mutex
	written []byte
	pending []byte

	nackSelect bool
	ackBudget  int // data bytes acknowledged before NACKing; <0 = unlimited
}

// NewSlave creates a slave that acknowledges everything.
func NewSlave() *Slave {
	return &Slave{ackBudget: -1}
}

// NackSelect makes the slave ignore its address, as an absent or hung
// device would.
func (s *Slave) NackSelect(nack bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nackSelect = nack
}

// AckLimit bounds how many written data bytes the slave acknowledges
// before it starts NACKing. A negative limit means unlimited.
func (s *Slave) AckLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackBudget = n
}

// QueueRead appends bytes the slave will serve to subsequent master
// reads.
func (s *Slave) QueueRead(p ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, p...)
}

// Written returns a copy of every data byte the master has written so
// far.
func (s *Slave) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.written))
	copy(out, s.written)
	return out
}

// Select implements Device.
func (s *Slave) Select(read bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.nackSelect
}

// Write implements Device.
func (s *Slave) Write(b byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ackBudget == 0 {
		return false
	}
	if s.ackBudget > 0 {
		s.ackBudget--
	}
	s.written = append(s.written, b)
	return true
}

// Read implements Device.
func (s *Slave) Read() (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return 0, false
	}
	b := s.pending[0]
	s.pending = s.pending[1:]
	return b, true
}

// Compile-time interface check
var _ Device = (*Slave)(nil)
