package ring

import (
	"code.hybscloud.com/atomix"

	"github.com/softmcu/softmcu/pkg"
)

// Buffer is a fixed-capacity circular byte store addressed by two wrapping
// cursors. It is safe to share between exactly one producer and one
// consumer running in different execution contexts (for example an
// interrupt handler and foreground code) without locks: the consumer is
// the only side that advances start, the producer is the only side that
// advances end, and each cursor store happens strictly after the data copy
// it publishes.
//
// Because start == end denotes an empty buffer, one storage slot is
// reserved to keep a completely full buffer distinguishable from an empty
// one: the usable capacity is len(storage)-1.
type Buffer struct {
	start atomix.Uint32 // read cursor, advanced only by the consumer
	end   atomix.Uint32 // write cursor, advanced only by the producer
	buf   []byte
}

// New creates a Buffer over the caller-provided storage. The storage is
// owned by the buffer from this point on and must not be touched by the
// caller. len(storage) must be at least 2; one slot is reserved, so the
// usable capacity is len(storage)-1.
func New(storage []byte) *Buffer {
	if len(storage) < 2 {
		panic("ring: storage must hold at least 2 bytes")
	}
	return &Buffer{buf: storage}
}

// Cap returns the usable capacity in bytes.
func (b *Buffer) Cap() int {
	return len(b.buf) - 1
}

// Len returns the current number of buffered bytes. It is computed from
// the two cursors without locking; a concurrent producer may make the
// result stale, but only ever by under-reporting.
func (b *Buffer) Len() int {
	return occupancy(b.start.Load(), b.end.Load(), uint32(len(b.buf)))
}

// Free returns the number of bytes that can currently be written.
func (b *Buffer) Free() int {
	return b.Cap() - b.Len()
}

// Write copies src into the buffer, splitting across the wrap boundary if
// needed, and publishes the new write cursor last. Writes are
// all-or-nothing: if src does not fit in the available space, nothing is
// written and pkg.ErrBufferFull is returned.
//
// Write must only be called by the buffer's single producer.
func (b *Buffer) Write(src []byte) error {
	size := uint32(len(b.buf))
	bstart := b.start.Load()
	bend := b.end.Load()

	if uint32(len(src)) > size-1-uint32(occupancy(bstart, bend, size)) {
		return pkg.ErrBufferFull
	}

	tail := size - bend
	if uint32(len(src)) <= tail {
		copy(b.buf[bend:], src)
	} else {
		copy(b.buf[bend:], src[:tail])
		copy(b.buf, src[tail:])
	}

	// Publishing the cursor is the last action so a concurrent consumer
	// never observes bytes that have not been copied yet.
	b.end.Store((bend + uint32(len(src))) % size)
	return nil
}

// Read copies up to len(dst) bytes starting at the read cursor into dst
// without consuming them. It returns the number of bytes copied, which is
// the number currently available when that is less than len(dst).
//
// Read must only be called by the buffer's single consumer.
func (b *Buffer) Read(dst []byte) int {
	return b.read(dst, false)
}

// ReadAndAdvance is Read followed by advancing the read cursor past the
// bytes copied out.
func (b *Buffer) ReadAndAdvance(dst []byte) int {
	return b.read(dst, true)
}

// Advance discards up to n buffered bytes without copying them out,
// saturating at the current occupancy so the read cursor never moves past
// the write cursor. It returns the number of bytes discarded.
//
// Advance must only be called by the buffer's single consumer.
func (b *Buffer) Advance(n int) int {
	size := uint32(len(b.buf))
	bstart := b.start.Load()
	bend := b.end.Load()

	occ := occupancy(bstart, bend, size)
	if n > occ {
		n = occ
	}
	if n <= 0 {
		return 0
	}

	b.start.Store((bstart + uint32(n)) % size)
	return n
}

func (b *Buffer) read(dst []byte, advance bool) int {
	size := uint32(len(b.buf))
	// Snapshot both cursors up front: a producer interrupting this read can
	// only move end forward, which at worst hides freshly written bytes.
	bstart := b.start.Load()
	bend := b.end.Load()

	var n uint32
	switch {
	case bstart == bend:
		return 0
	case bstart < bend:
		n = min(bend-bstart, uint32(len(dst)))
		copy(dst, b.buf[bstart:bstart+n])
	default:
		tail := min(size-bstart, uint32(len(dst)))
		copy(dst, b.buf[bstart:bstart+tail])
		head := min(bend, uint32(len(dst))-tail)
		copy(dst[tail:], b.buf[:head])
		n = tail + head
	}

	if advance {
		b.start.Store((bstart + n) % size)
	}
	return int(n)
}

func occupancy(start, end, size uint32) int {
	if start <= end {
		return int(end - start)
	}
	return int(size - start + end)
}
