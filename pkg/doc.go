// Package pkg provides shared utilities for the softmcu peripheral stack.
//
// This package contains common functionality used across the driver
// packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for buffer and bus protocol failures
//   - Component identifiers for log filtering
//
// Driver cores never log from interrupt-context code paths; logging is
// reserved for HAL implementations and host-side adapters.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with peripheral-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentUART, "port opened", "baud", 9600)
//
// # Errors
//
// Common failures are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrBufferFull) {
//	    // Drop the payload or retry later
//	}
package pkg
