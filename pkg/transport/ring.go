package transport

import (
	"sync"
	"sync/atomic"
)

// Ring is a lock-free transport for a single real-time consumer. Storage is
// a power-of-two circular buffer at least twice Capacity, addressed by
// monotonically increasing 64-bit cursors.
//
// Only the producer stores writePos. Both sides move readPos, and only
// forward: the consumer after copying a block, the producer when it evicts.
// Because the producer never lets more than Capacity samples be queued and
// the storage holds at least 2*Capacity, a block being copied by Pull is not
// overwritten unless the producer pushes more than size-Capacity samples
// while that single Pull is in flight.
//
// Memory is never reclaimed or compacted; wraparound reuses it.
type Ring struct {
	left  []float32
	right []float32
	size  uint64
	mask  uint64

	readPos  atomic.Uint64
	writePos atomic.Uint64

	// pushMu serializes producers. The consumer never takes it.
	pushMu sync.Mutex

	limits Limits
	stats  counters
}

// NewRing creates an empty ring for the given limits. The reclaim threshold
// is unused: a ring never compacts.
func NewRing(limits Limits) *Ring {
	limits = limits.normalized()
	size := nextPowerOf2(uint64(limits.Capacity) * 2)
	return &Ring{
		left:   make([]float32, size),
		right:  make([]float32, size),
		size:   size,
		mask:   size - 1,
		limits: limits,
	}
}

// Limits returns the ring's capacity.
func (r *Ring) Limits() Limits {
	return r.limits
}

// Push appends count samples per channel, evicting the oldest queued samples
// when the ring would hold more than Capacity.
func (r *Ring) Push(left, right []float32, count, sourceRate int) {
	count = clampCount(left, right, count)
	if count == 0 {
		return
	}

	r.pushMu.Lock()
	defer r.pushMu.Unlock()

	capacity := uint64(r.limits.Capacity)
	n := uint64(count)
	// Samples that never reached the consumer.
	var dropped uint64

	if n > capacity {
		// Only the newest Capacity samples of this burst can survive.
		skip := n - capacity
		left, right = left[skip:count], right[skip:count]
		n = capacity
		dropped = skip
	}

	writePos := r.writePos.Load()
	if writePos+n > capacity {
		dropped += r.advanceRead(writePos + n - capacity)
	}

	if dropped > 0 {
		r.stats.overflows.Add(1)
		r.stats.evicted.Add(dropped)
	}

	r.write(r.left, left[:n], writePos)
	r.write(r.right, right[:n], writePos)

	r.writePos.Store(writePos + n)
}

// Pull copies the next numSamples samples into outputs[0] and outputs[1],
// zero-filling whatever the ring cannot supply. It never blocks.
func (r *Ring) Pull(outputs [][]float32, numChannels, numSamples int) {
	numChannels = outputChannels(outputs, numChannels)
	if numChannels <= 0 || numSamples <= 0 {
		return
	}

	readPos := r.readPos.Load()
	writePos := r.writePos.Load()

	capacity := uint64(r.limits.Capacity)
	if writePos > readPos+capacity {
		// An eviction is in flight; its samples are already gone.
		readPos = writePos - capacity
	}

	var available uint64
	if writePos > readPos {
		available = writePos - readPos
	}
	toCopy := uint64(numSamples)
	if toCopy > available {
		toCopy = available
	}

	for ch := 0; ch < numChannels; ch++ {
		src := r.left
		if ch == 1 {
			src = r.right
		}
		out := outputs[ch][:numSamples]
		r.read(out[:toCopy], src, readPos)
		zero(out[toCopy:])
	}

	if toCopy > 0 {
		r.advanceRead(readPos + toCopy)
	}
	if toCopy < uint64(numSamples) {
		r.stats.underruns.Add(1)
	}
}

// Available returns the number of samples per channel still to be pulled.
func (r *Ring) Available() int {
	readPos := r.readPos.Load()
	writePos := r.writePos.Load()
	if writePos <= readPos {
		return 0
	}
	n := writePos - readPos
	if n > uint64(r.limits.Capacity) {
		n = uint64(r.limits.Capacity)
	}
	return int(n)
}

// Clear drops all queued samples by moving the read cursor to the write
// cursor.
func (r *Ring) Clear() {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()

	r.advanceRead(r.writePos.Load())
}

// Stats returns the ring's health counters.
func (r *Ring) Stats() Stats {
	return r.stats.snapshot()
}

// ResetStats zeroes the health counters.
func (r *Ring) ResetStats() {
	r.stats.reset()
}

// advanceRead moves readPos forward to target unless it is already past it,
// and returns how far it moved.
func (r *Ring) advanceRead(target uint64) uint64 {
	for {
		cur := r.readPos.Load()
		if cur >= target {
			return 0
		}
		if r.readPos.CompareAndSwap(cur, target) {
			return target - cur
		}
	}
}

// write copies samples into dst starting at cursor pos, handling wraparound.
func (r *Ring) write(dst, samples []float32, pos uint64) {
	for len(samples) > 0 {
		idx := pos & r.mask
		n := copy(dst[idx:], samples)
		samples = samples[n:]
		pos += uint64(n)
	}
}

// read fills out from src starting at cursor pos, handling wraparound.
func (r *Ring) read(out, src []float32, pos uint64) {
	for len(out) > 0 {
		idx := pos & r.mask
		n := copy(out, src[idx:])
		out = out[n:]
		pos += uint64(n)
	}
}

// nextPowerOf2 rounds up to the next power of 2
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
