package transport

import (
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/annsts/underlay/pkg/framework/debug"
)

// RateConverter adapts pushes generated at a different sample rate to the
// rate the host negotiated. Pushes already at the target rate pass through
// untouched, so they stay bit-exact. The consumer side is a plain delegate.
type RateConverter struct {
	Transport

	targetRate int
	opts       []resample.Option
	logger     *debug.Logger

	mu         sync.Mutex
	sourceRate int
	left       *resample.Resampler
	right      *resample.Resampler
	failed     map[int]bool

	in   []float64
	outL []float32
	outR []float32
}

// NewRateConverter wraps dst so pushes are delivered at targetRate. A nil
// logger uses debug.Default().
func NewRateConverter(dst Transport, targetRate int, logger *debug.Logger, opts ...resample.Option) *RateConverter {
	if logger == nil {
		logger = debug.Default()
	}
	if len(opts) == 0 {
		opts = []resample.Option{resample.WithQuality(resample.QualityBalanced)}
	}
	return &RateConverter{
		Transport:  dst,
		targetRate: targetRate,
		opts:       opts,
		logger:     logger,
		failed:     make(map[int]bool),
	}
}

// TargetRate returns the rate samples are delivered at.
func (c *RateConverter) TargetRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetRate
}

// Retarget delivers future pushes to dst at targetRate and drops the
// resamplers built for the old rate. It must not run while the consumer is
// pulling.
func (c *RateConverter) Retarget(dst Transport, targetRate int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Transport = dst
	c.targetRate = targetRate
	c.sourceRate = 0
	c.left, c.right = nil, nil
	clear(c.failed)
}

// Push resamples the burst when sourceRate differs from the target rate and
// forwards it. Streaming filter state is kept between pushes at the same
// source rate and rebuilt when the rate changes.
func (c *RateConverter) Push(left, right []float32, count, sourceRate int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sourceRate <= 0 || sourceRate == c.targetRate || c.targetRate <= 0 {
		c.Transport.Push(left, right, count, sourceRate)
		return
	}

	count = clampCount(left, right, count)
	if count == 0 {
		return
	}

	if !c.prepare(sourceRate) {
		c.Transport.Push(left, right, count, sourceRate)
		return
	}

	c.outL = c.convert(c.left, left[:count], c.outL)
	c.outR = c.convert(c.right, right[:count], c.outR)

	n := len(c.outL)
	if len(c.outR) < n {
		n = len(c.outR)
	}
	c.Transport.Push(c.outL, c.outR, n, c.targetRate)
}

// Clear drops queued samples and filter history.
func (c *RateConverter) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.left != nil {
		c.left.Reset()
		c.right.Reset()
	}
	c.Transport.Clear()
}

// prepare makes sure resamplers exist for sourceRate. Caller holds mu.
func (c *RateConverter) prepare(sourceRate int) bool {
	if c.left != nil && c.sourceRate == sourceRate {
		return true
	}
	if c.failed[sourceRate] {
		return false
	}

	left, err := resample.NewForRates(float64(sourceRate), float64(c.targetRate), c.opts...)
	var right *resample.Resampler
	if err == nil {
		right, err = resample.NewForRates(float64(sourceRate), float64(c.targetRate), c.opts...)
	}
	if err != nil {
		c.failed[sourceRate] = true
		c.logger.Warn("rate converter: %d Hz -> %d Hz unavailable, passing audio through: %v",
			sourceRate, c.targetRate, err)
		return false
	}

	up, down := left.Ratio()
	c.logger.Debug("rate converter: %d Hz -> %d Hz (ratio %d/%d)", sourceRate, c.targetRate, up, down)

	c.left, c.right = left, right
	c.sourceRate = sourceRate
	return true
}

// convert runs one channel through r, reusing dst's storage.
func (c *RateConverter) convert(r *resample.Resampler, samples []float32, dst []float32) []float32 {
	if cap(c.in) < len(samples) {
		c.in = make([]float64, len(samples))
	}
	in := c.in[:len(samples)]
	for i, s := range samples {
		in[i] = float64(s)
	}

	out := r.Process(in)

	dst = dst[:0]
	for _, s := range out {
		dst = append(dst, float32(s))
	}
	return dst
}
