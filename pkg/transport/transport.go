// Package transport moves stereo audio from a non-real-time producer (the web
// UI's audio generation) to the host's real-time audio callback.
//
// The producer pushes variable-sized bursts whenever the UI has audio ready.
// The consumer pulls exactly one fixed-size block per host callback and never
// waits: missing samples are replaced with silence, and when the producer
// runs too far ahead the oldest queued samples are evicted.
package transport

import (
	"sync/atomic"
)

// ReferenceSampleRate is the rate the default limits are sized for.
const ReferenceSampleRate = 48000

const (
	capacitySeconds = 6
	reclaimSeconds  = 1
)

// Producer is the UI-facing half of a transport.
type Producer interface {
	// Push appends count samples per channel. sourceRate is the rate the
	// samples were generated at.
	Push(left, right []float32, count, sourceRate int)
}

// Consumer is the audio-thread half of a transport.
type Consumer interface {
	// Pull fills up to two channels of outputs with numSamples samples each.
	// Channels beyond the second are left untouched.
	Pull(outputs [][]float32, numChannels, numSamples int)
}

// Transport is a bounded stereo sample queue shared between one producer side
// and one real-time consumer.
type Transport interface {
	Producer
	Consumer

	// Available returns the number of queued, unconsumed samples per channel.
	// Diagnostics only; the audio thread must not branch on it.
	Available() int

	// Clear drops everything queued. Not for the audio thread.
	Clear()

	// Stats returns the transport's health counters.
	Stats() Stats
}

// Limits bounds a transport's memory.
type Limits struct {
	// Capacity is the maximum number of samples per channel held at once.
	Capacity int
	// ReclaimThreshold is the number of consumed samples after which the
	// consumer asks the producer side to reclaim memory.
	ReclaimThreshold int
}

// DefaultLimits returns limits sized for ReferenceSampleRate.
func DefaultLimits() Limits {
	return LimitsForRate(ReferenceSampleRate)
}

// LimitsForRate sizes the limits for the negotiated sample rate: six seconds
// of capacity and one second of consumed audio before reclaim.
func LimitsForRate(sampleRate float64) Limits {
	return LimitsForDuration(sampleRate, capacitySeconds, reclaimSeconds)
}

// LimitsForDuration sizes the limits from durations in seconds. Non-positive
// values fall back to the defaults.
func LimitsForDuration(sampleRate, capacitySecs, reclaimSecs float64) Limits {
	if sampleRate <= 0 {
		sampleRate = ReferenceSampleRate
	}
	if capacitySecs <= 0 {
		capacitySecs = capacitySeconds
	}
	if reclaimSecs <= 0 {
		reclaimSecs = reclaimSeconds
	}

	l := Limits{
		Capacity:         int(sampleRate * capacitySecs),
		ReclaimThreshold: int(sampleRate * reclaimSecs),
	}
	return l.normalized()
}

func (l Limits) normalized() Limits {
	if l.Capacity <= 0 {
		l = DefaultLimits()
	}
	if l.ReclaimThreshold <= 0 || l.ReclaimThreshold > l.Capacity {
		l.ReclaimThreshold = l.Capacity
	}
	return l
}

// Stats provides health monitoring information.
type Stats struct {
	Underruns      uint64 // blocks that were partly or fully silence-filled
	Overflows      uint64 // pushes that had to evict queued samples
	EvictedSamples uint64 // samples per channel dropped by eviction
	Compactions    uint64 // deferred reclaims performed on the producer side
}

// counters are updated from both sides without taking the transport lock.
type counters struct {
	underruns   atomic.Uint64
	overflows   atomic.Uint64
	evicted     atomic.Uint64
	compactions atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Underruns:      c.underruns.Load(),
		Overflows:      c.overflows.Load(),
		EvictedSamples: c.evicted.Load(),
		Compactions:    c.compactions.Load(),
	}
}

func (c *counters) reset() {
	c.underruns.Store(0)
	c.overflows.Store(0)
	c.evicted.Store(0)
	c.compactions.Store(0)
}

// clampCount limits count to what both input channels actually hold.
func clampCount(left, right []float32, count int) int {
	if count > len(left) {
		count = len(left)
	}
	if count > len(right) {
		count = len(right)
	}
	if count < 0 {
		return 0
	}
	return count
}

// outputChannels limits numChannels to the stereo pair and the outputs given.
func outputChannels(outputs [][]float32, numChannels int) int {
	if numChannels > 2 {
		numChannels = 2
	}
	if numChannels > len(outputs) {
		numChannels = len(outputs)
	}
	return numChannels
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
