// Package uart implements a buffered, interrupt-driven serial line
// driver over a [hal.Port] controller.
//
// Transmit and receive each flow through a fixed-capacity ring buffer
// shared between exactly one foreground goroutine and one interrupt
// context. Queued sends return immediately and drain through the
// transmit-empty interrupt chain; blocking sends bypass the buffer and
// spin on the data register. Inbound bytes are buffered by the receive
// interrupt and drained with Read, or searched with the delimited
// stream readers DropUntil and TakeUntil, the only operations in the
// package that suspend the caller.
//
//	port := loopback.New()
//	drv := uart.New(port, make([]byte, 64), make([]byte, 64))
//	drv.SendString("AT\r\n")
//	n, err := drv.TakeUntil([]byte("\r\n"), scratch)
package uart
