package debug

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler records timings of named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	name        string
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// NewProfiler creates a profiler keeping the last maxSamples timings of each
// section for percentiles.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Start begins timing a named section. Call the returned func to stop.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

func (p *Profiler) record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			name:    name,
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	if elapsed < m.minTime {
		m.minTime = elapsed
	}
	if elapsed > m.maxTime {
		m.maxTime = elapsed
	}

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.sampleIndex] = elapsed
	}
	m.sampleIndex = (m.sampleIndex + 1) % p.maxSamples
}

// Measurement returns a copy of the named section's statistics.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return Measurement{}, false
	}
	c := *m
	c.samples = append([]time.Duration(nil), m.samples...)
	return c, true
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report formats all sections, sorted by name.
func (p *Profiler) Report() string {
	p.mu.RLock()
	names := make([]string, 0, len(p.measurements))
	for name := range p.measurements {
		names = append(names, name)
	}
	p.mu.RUnlock()

	if len(names) == 0 {
		return "No measurements recorded\n"
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		m, ok := p.Measurement(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: count=%d avg=%v min=%v max=%v p99=%v\n",
			name, m.count, m.Average(), m.minTime, m.maxTime, m.Percentile(99))
	}
	return sb.String()
}

// Name returns the section name.
func (m Measurement) Name() string { return m.name }

// Count returns how many timings were recorded.
func (m Measurement) Count() uint64 { return m.count }

// Max returns the slowest recorded timing.
func (m Measurement) Max() time.Duration { return m.maxTime }

// Average returns the mean recorded timing.
func (m Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile of the retained timings.
func (m Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), m.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p/100.0)]
}

// BlockProfiler relates the time spent rendering a block to the block's
// real-time duration.
type BlockProfiler struct {
	*Profiler
	section    string
	blockSize  int
	sampleRate float64
}

// NewBlockProfiler creates a profiler for blocks of blockSize samples at
// sampleRate, timed under section.
func NewBlockProfiler(section string, sampleRate float64, blockSize int) *BlockProfiler {
	return &BlockProfiler{
		Profiler:   NewProfiler(1000),
		section:    section,
		blockSize:  blockSize,
		sampleRate: sampleRate,
	}
}

// StartBlock begins timing one block.
func (b *BlockProfiler) StartBlock() func() {
	return b.Start(b.section)
}

// Load returns average block time as a percentage of the block duration.
func (b *BlockProfiler) Load() float64 {
	m, ok := b.Measurement(b.section)
	if !ok || m.count == 0 || b.sampleRate <= 0 || b.blockSize <= 0 {
		return 0
	}
	budget := time.Duration(float64(b.blockSize) / b.sampleRate * float64(time.Second))
	return float64(m.Average()) / float64(budget) * 100.0
}

// BlockReport formats the timings followed by the load figure.
func (b *BlockProfiler) BlockReport() string {
	return b.Report() + fmt.Sprintf("block=%d samples @ %.0f Hz load=%.2f%%\n",
		b.blockSize, b.sampleRate, b.Load())
}
