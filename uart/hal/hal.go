package hal

// Port is the raw serial line controller the driver operates on. Real
// implementations front a hardware transmitter/receiver pair or an
// operating-system serial device; simulated implementations deliver
// bytes in memory.
//
// The driver registers its interrupt handlers once during setup. A Port
// invokes the receive handler with each inbound byte and the
// transmit-empty handler whenever the data register can accept another
// byte while the transmit interrupt is enabled. Handlers run in the
// port's interrupt context, never on the goroutine calling the driver.
type Port interface {
	// WriteData loads one byte into the transmit data register. The
	// caller must have observed TxReady first.
	WriteData(b byte)

	// TxReady reports whether the transmit data register can accept a
	// byte.
	TxReady() bool

	// SetTxInterruptEnabled masks or unmasks the transmit-empty
	// interrupt. Enabling it while the data register is already empty
	// must raise the interrupt, so a newly buffered transmission starts
	// without waiting for line activity.
	SetTxInterruptEnabled(on bool)

	// SetRxHandler registers the receive interrupt handler, invoked once
	// per inbound byte.
	SetRxHandler(fn func(b byte))

	// SetTxEmptyHandler registers the transmit-empty interrupt handler.
	SetTxEmptyHandler(fn func())

	// Idle parks the calling goroutine in a low-power wait until any
	// interrupt fires. A wakeup does not imply new data; callers loop
	// and re-check.
	Idle()
}
