package model

import (
	"fmt"
	"math"
)

// MaxArenaSize is the largest arena that can be addressed by a Span and indexed
// by an int on the target platform.
const MaxArenaSize = min(math.MaxUint32, math.MaxInt)

// Arena is the contiguous byte region every record of a parse run points into.
//
// A single producer appends into the free tail of the arena while workers read
// already-filled ranges. Growing copies the filled bytes into a larger region, so
// offsets stay valid across growth; ranges handed out before a growth keep reading
// the previous region, which holds identical bytes.
//
// Thread Safety: Fill, Commit and Grow must only be called by the producer.
// Bytes must not be called until the producer has finished.
type Arena struct {
	buf    []byte
	filled int
	limit  int
}

// NewArena creates an arena with the given initial capacity. limit bounds growth;
// a limit equal to capacity makes the arena fixed-size.
func NewArena(capacity, limit int) (*Arena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArenaSize, capacity)
	}
	if limit < capacity {
		limit = capacity
	}
	if capacity > MaxArenaSize {
		return nil, fmt.Errorf("%w: capacity %d exceeds maximum %d", ErrInvalidArenaSize, capacity, MaxArenaSize)
	}
	if limit > MaxArenaSize {
		limit = MaxArenaSize
	}
	return &Arena{
		buf:   make([]byte, capacity),
		limit: limit,
	}, nil
}

// Cap returns the current capacity.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Len returns the number of filled bytes.
func (a *Arena) Len() int {
	return a.filled
}

// Limit returns the largest capacity Grow may reach.
func (a *Arena) Limit() int {
	return a.limit
}

// Free returns the writable region after the filled bytes, at most n bytes long.
func (a *Arena) Free(n int) []byte {
	end := a.filled + n
	if end > len(a.buf) || n <= 0 {
		end = len(a.buf)
	}
	return a.buf[a.filled:end]
}

// Commit marks n more bytes as filled.
func (a *Arena) Commit(n int) {
	a.filled += n
}

// Slice returns the filled bytes in [start, end).
func (a *Arena) Slice(start, end int) []byte {
	return a.buf[start:end:end]
}

// Full reports whether no writable space remains.
func (a *Arena) Full() bool {
	return a.filled == len(a.buf)
}

// CanGrow reports whether Grow would enlarge the arena.
func (a *Arena) CanGrow() bool {
	return len(a.buf) < a.limit
}

// Grow doubles the capacity, bounded by the limit. It returns false when the arena
// is already at its limit.
func (a *Arena) Grow() bool {
	if !a.CanGrow() {
		return false
	}
	next := len(a.buf) * 2
	if next > a.limit || next < len(a.buf) {
		next = a.limit
	}
	buf := make([]byte, next)
	copy(buf, a.buf[:a.filled])
	a.buf = buf
	return true
}

// Bytes returns the filled region.
func (a *Arena) Bytes() []byte {
	return a.buf[:a.filled]
}
