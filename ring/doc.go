// Package ring implements a fixed-capacity circular byte buffer for
// single-producer/single-consumer hand-off between interrupt and
// foreground execution contexts.
//
// The buffer is the sole concurrency primitive of the peripheral stack:
// interrupt handlers push or pull individual bytes on one side while
// foreground code drains or fills the other, with no locks involved.
// Safety rests on an asymmetric-mutation invariant: the consumer only
// writes the start cursor, the producer only writes the end cursor, and
// every cursor store is an atomic-width operation performed after the
// corresponding data copy completes.
//
// One storage slot is reserved to disambiguate a full buffer from an
// empty one, so a Buffer built over n bytes of storage holds at most n-1.
//
//	var storage [32]byte
//	rx := ring.New(storage[:])
//
//	// interrupt context
//	rx.Write(data)
//
//	// foreground context
//	n := rx.ReadAndAdvance(scratch)
package ring
