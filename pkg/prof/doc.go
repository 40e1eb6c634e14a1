// Package prof provides on-demand profiling for the peripheral stack.
//
// It wraps [runtime/pprof] with a small API and is conditionally
// compiled under the "profile" build tag:
//
//	go build -tags profile
//	go test -tags profile
//
// Without the tag every exported function is a no-op, so profiling
// hooks can stay wired into the demos with zero production overhead.
//
// CPU profiling streams samples between explicit start and stop:
//
//	prof.StartCPU("cpu.prof")
//	defer prof.StopCPU()
//
// The remaining profiles are point-in-time snapshots:
//
//	prof.Write(prof.ProfileHeap, "heap.prof")
package prof
