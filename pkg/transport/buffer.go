package transport

import (
	"sync"
)

// Buffer is the mutex-guarded transport. Push and Pull share one short
// critical section; the expensive part of the producer's work, reclaiming
// consumed memory, is deferred until the consumer asks for it and then done
// on the producer's thread.
//
// The lock held by Pull is bounded by numSamples. The lock held by Push is
// bounded by Capacity, so a stalled audio thread can wait at most for one
// compaction or eviction pass. Ring avoids the shared lock entirely.
type Buffer struct {
	mu sync.Mutex

	left  []float32
	right []float32

	readPos           int
	pendingCompaction bool

	limits Limits
	stats  counters
}

// NewBuffer creates an empty buffer. Storage for limits.Capacity samples per
// channel is reserved up front.
func NewBuffer(limits Limits) *Buffer {
	limits = limits.normalized()
	return &Buffer{
		left:   make([]float32, 0, limits.Capacity),
		right:  make([]float32, 0, limits.Capacity),
		limits: limits,
	}
}

// Limits returns the buffer's capacity and reclaim threshold.
func (b *Buffer) Limits() Limits {
	return b.limits
}

// Push appends count samples per channel. It never fails: when the queue
// would exceed Capacity the oldest samples are evicted.
func (b *Buffer) Push(left, right []float32, count, sourceRate int) {
	count = clampCount(left, right, count)
	if count == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pendingCompaction && b.readPos > 0 {
		b.compact()
	}

	b.reserve()

	capacity := b.limits.Capacity
	size := len(b.left)

	if excess := size + count - capacity; excess > 0 {
		// Consumed samples still in storage are not a loss.
		if lost := excess - b.readPos; lost > 0 {
			b.stats.overflows.Add(1)
			b.stats.evicted.Add(uint64(lost))
		}

		if excess >= size {
			// Everything queued goes, plus the front of this burst.
			skip := excess - size
			left, right = left[skip:count], right[skip:count]
			count -= skip
			b.left, b.right = b.left[:0], b.right[:0]
		} else {
			b.evict(excess)
		}

		b.readPos -= excess
		if b.readPos < 0 {
			b.readPos = 0
		}
	}

	b.left = append(b.left, left[:count]...)
	b.right = append(b.right, right[:count]...)
}

// Pull copies the next numSamples samples into outputs[0] and outputs[1],
// zero-filling whatever the queue cannot supply. The read cursor advances
// once for the block.
func (b *Buffer) Pull(outputs [][]float32, numChannels, numSamples int) {
	numChannels = outputChannels(outputs, numChannels)
	if numChannels <= 0 || numSamples <= 0 {
		return
	}

	b.mu.Lock()

	available := len(b.left) - b.readPos
	if available < 0 {
		available = 0
	}
	toCopy := numSamples
	if toCopy > available {
		toCopy = available
	}

	for ch := 0; ch < numChannels; ch++ {
		src := b.left
		if ch == 1 {
			src = b.right
		}
		out := outputs[ch][:numSamples]
		copy(out, src[b.readPos:b.readPos+toCopy])
		zero(out[toCopy:])
	}

	b.readPos += toCopy
	if b.readPos > b.limits.ReclaimThreshold {
		b.pendingCompaction = true
	}

	b.mu.Unlock()

	if toCopy < numSamples {
		b.stats.underruns.Add(1)
	}
}

// Available returns the number of samples per channel still to be pulled.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.left) - b.readPos; n > 0 {
		return n
	}
	return 0
}

// Clear drops all queued samples. Reserved storage is kept.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.left = b.left[:0]
	b.right = b.right[:0]
	b.readPos = 0
	b.pendingCompaction = false
}

// Stats returns the buffer's health counters.
func (b *Buffer) Stats() Stats {
	return b.stats.snapshot()
}

// ResetStats zeroes the health counters.
func (b *Buffer) ResetStats() {
	b.stats.reset()
}

// compact discards the consumed prefix in place. Caller holds mu.
func (b *Buffer) compact() {
	b.evict(b.readPos)
	b.readPos = 0
	b.pendingCompaction = false
	b.stats.compactions.Add(1)
}

// evict drops n samples from the front of both channels without
// reallocating. Caller holds mu and adjusts readPos.
func (b *Buffer) evict(n int) {
	kept := copy(b.left, b.left[n:])
	copy(b.right, b.right[n:])
	b.left = b.left[:kept]
	b.right = b.right[:kept]
}

// reserve makes sure appends up to Capacity never reallocate. Caller holds mu.
func (b *Buffer) reserve() {
	if cap(b.left) >= b.limits.Capacity {
		return
	}
	left := make([]float32, len(b.left), b.limits.Capacity)
	right := make([]float32, len(b.right), b.limits.Capacity)
	copy(left, b.left)
	copy(right, b.right)
	b.left, b.right = left, right
}
