// Package sim provides a simulated two-wire bus controller for host-side
// testing of the transaction engine and of drivers built on it.
//
// [Bus] implements [hal.Controller] over an in-memory bus with attachable
// [Device] slaves. Operations complete synchronously (so busy-waiting
// blocking transfers never spin for long), while completion interrupts
// are delivered from a dedicated goroutine to reproduce the asynchronous
// interrupt chaining of real hardware.
//
// [Slave] is a ready-made device for tests: it records writes, serves
// queued read bytes, and can be configured to NACK its address or to stop
// acknowledging after a byte budget.
//
//	bus := sim.NewBus()
//	defer bus.Close()
//	dev := sim.NewSlave()
//	bus.Attach(0x27, dev)
package sim
