package uart

import (
	"bytes"

	"github.com/softmcu/softmcu/pkg"
)

// DropUntil discards inbound bytes up to and including the first
// occurrence of needle, resynchronizing the receive stream to a known
// marker. Bytes after the needle stay buffered for the next read.
//
// The search is bounded by the caller-owned scratch buffer. When scratch
// fills without a match it is compacted down to its last len(needle)
// bytes, the longest tail that could still complete a match, and the
// scan continues; the already-inspected junk is gone from the receive
// buffer by then, so compaction loses nothing that could matter.
//
// DropUntil suspends in the port's low-power wait whenever no bytes are
// available, waking on any interrupt. It returns only once the needle
// has been consumed. needle must be non-empty (pkg.ErrInvalidParameter)
// and shorter than scratch (pkg.ErrBufferTooSmall).
func (d *Driver) DropUntil(needle, scratch []byte) error {
	_, err := d.scan(needle, scratch, true)
	return err
}

// TakeUntil accumulates inbound bytes into scratch up to the first
// occurrence of needle. On a match it consumes the needle from the
// receive buffer, leaves any bytes after it buffered, and returns the
// length of the prefix preceding the needle; scratch[:n] holds that
// prefix.
//
// If scratch fills without a match the call gives up: it returns the
// accumulated byte count alongside pkg.ErrScanOverflow, and those bytes
// have been consumed from the receive buffer. Callers sizing scratch
// must leave room for a full message plus the needle, or every call
// degenerates into this overflow path.
//
// TakeUntil suspends exactly as DropUntil does, under the same needle
// and scratch size requirements.
func (d *Driver) TakeUntil(needle, scratch []byte) (int, error) {
	return d.scan(needle, scratch, false)
}

// scan is the shared search loop. Each iteration peeks the buffered
// bytes into scratch without consuming them, so a byte is only ever
// removed from the receive buffer once its fate is decided: discarded as
// a non-matching prefix, or consumed as part of the needle.
func (d *Driver) scan(needle, scratch []byte, drop bool) (int, error) {
	if len(needle) == 0 {
		return 0, pkg.ErrInvalidParameter
	}
	if len(needle) >= len(scratch) {
		return 0, pkg.ErrBufferTooSmall
	}

	total := 0
	for {
		n := d.rx.Read(scratch[total:])
		total += n

		if i := bytes.Index(scratch[:total], needle); i >= 0 {
			// Everything before this iteration's bytes has already been
			// consumed from the receive buffer, so only the remainder of
			// the match still needs advancing. A match that began inside
			// bytes kept by an earlier compaction can even be entirely
			// behind the cursor already.
			if adv := i + len(needle) - (total - n); adv > 0 {
				d.rx.Advance(adv)
			}
			return i, nil
		}

		d.rx.Advance(n)

		if total == len(scratch) {
			if !drop {
				return total, pkg.ErrScanOverflow
			}
			keep := len(needle)
			copy(scratch, scratch[total-keep:])
			total = keep
			continue
		}

		if n == 0 {
			d.port.Idle()
		}
	}
}
