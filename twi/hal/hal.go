package hal

// Status is the bus controller status code observed after the most recent
// operation completed. The values mirror the usual two-wire master status
// set: start transmitted, address acknowledged or not, data acknowledged
// or not, arbitration lost, or a bus fault.
type Status uint8

// Master-mode controller status codes.
const (
	StatusBusFault        Status = 0x00 // Illegal start/stop or electrical fault
	StatusStart           Status = 0x08 // Start condition transmitted
	StatusRepeatedStart   Status = 0x10 // Repeated start condition transmitted
	StatusWriteAddrAck    Status = 0x18 // Address+W transmitted, ACK received
	StatusWriteAddrNack   Status = 0x20 // Address+W transmitted, no ACK
	StatusWriteDataAck    Status = 0x28 // Data byte transmitted, ACK received
	StatusWriteDataNack   Status = 0x30 // Data byte transmitted, no ACK
	StatusArbitrationLost Status = 0x38 // Lost arbitration to another master
	StatusReadAddrAck     Status = 0x40 // Address+R transmitted, ACK received
	StatusReadAddrNack    Status = 0x48 // Address+R transmitted, no ACK
	StatusReadDataAck     Status = 0x50 // Data byte received, ACK returned
	StatusReadDataNack    Status = 0x58 // Data byte received, NACK returned
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusBusFault:
		return "bus fault"
	case StatusStart:
		return "start"
	case StatusRepeatedStart:
		return "repeated start"
	case StatusWriteAddrAck:
		return "write address ACK"
	case StatusWriteAddrNack:
		return "write address NACK"
	case StatusWriteDataAck:
		return "write data ACK"
	case StatusWriteDataNack:
		return "write data NACK"
	case StatusArbitrationLost:
		return "arbitration lost"
	case StatusReadAddrAck:
		return "read address ACK"
	case StatusReadAddrNack:
		return "read address NACK"
	case StatusReadDataAck:
		return "read data ACK"
	case StatusReadDataNack:
		return "read data NACK"
	default:
		return "unknown"
	}
}

// Acked reports whether the status is one of the acknowledged outcomes.
func (s Status) Acked() bool {
	switch s {
	case StatusStart, StatusRepeatedStart,
		StatusWriteAddrAck, StatusWriteDataAck,
		StatusReadAddrAck, StatusReadDataAck:
		return true
	default:
		return false
	}
}

// Controller defines the raw two-wire bus controller operations the
// transaction engine is built on. Implementations wrap either real
// controller registers or a simulated bus.
//
// Each of Start, Transmit, and Receive begins a bus operation and returns
// immediately; completion is observable through Ready (for busy-waiting
// callers) and, when the completion interrupt is enabled, through the
// registered handler. Status and Data are only meaningful once the
// operation has completed.
type Controller interface {
	// Start transmits a start (or repeated start) condition.
	Start()

	// Stop transmits a stop condition and releases the bus. Stop does not
	// raise a completion interrupt.
	Stop()

	// Transmit loads b into the data register and clocks it onto the bus.
	Transmit(b byte)

	// Receive clocks one byte in from the bus, replying with ACK when ack
	// is true and NACK otherwise.
	Receive(ack bool)

	// Data returns the byte received by the last Receive.
	Data() byte

	// Ready reports whether the controller has completed the current
	// operation.
	Ready() bool

	// Status returns the controller status after the last completed
	// operation.
	Status() Status

	// SetHandler registers the completion interrupt handler. The handler
	// runs in interrupt context: it must not block.
	SetHandler(fn func())

	// SetInterruptEnabled masks (false) or unmasks (true) the completion
	// interrupt. Operations completed while masked do not invoke the
	// handler.
	SetInterruptEnabled(on bool)
}
