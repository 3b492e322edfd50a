package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer measures level, DC and sanity of audio buffers.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates an analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	HasNaN         bool
	NaNCount       int
	ZeroCrossings  int
}

// Analyze performs analysis on a single buffer. NaN samples are counted and
// otherwise skipped.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}
	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var lastSample float32
	counted := 0

	for i, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}

		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
		counted++

		if i > 0 && ((lastSample < 0 && sample >= 0) || (lastSample >= 0 && sample < 0)) {
			result.ZeroCrossings++
		}
		lastSample = sample
	}

	if counted > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(counted)))
		result.DC = float32(sum / float64(counted))
	}
	result.Silent = result.RMS < a.silenceThreshold

	return result
}

// Check returns human-readable problems found in buffer, or nil.
func (a *AudioAnalyzer) Check(buffer []float32, name string) []string {
	result := a.Analyze(buffer)
	var issues []string

	if result.HasNaN {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, result.NaNCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.dcThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: peak exceeds 1.0 (%.3f)", name, result.Peak))
	}

	return issues
}

// Meter accumulates analysis over a stream of blocks. It is not safe for
// concurrent use.
type Meter struct {
	analyzer *AudioAnalyzer

	blocks       int
	silentBlocks int
	samples      int
	peak         float32
	sumSquares   float64
	clipped      int
	nans         int
}

// NewMeter creates a meter using analyzer, or a default one when nil.
func NewMeter(analyzer *AudioAnalyzer) *Meter {
	if analyzer == nil {
		analyzer = NewAudioAnalyzer()
	}
	return &Meter{analyzer: analyzer}
}

// Add analyzes one block of one channel.
func (m *Meter) Add(block []float32) {
	r := m.analyzer.Analyze(block)
	m.blocks++
	if r.Silent {
		m.silentBlocks++
	}
	valid := r.Samples - r.NaNCount
	m.samples += valid
	m.sumSquares += float64(r.RMS) * float64(r.RMS) * float64(valid)
	if r.Peak > m.peak {
		m.peak = r.Peak
	}
	m.clipped += r.ClippedSamples
	m.nans += r.NaNCount
}

// MeterSummary is the accumulated view of a Meter.
type MeterSummary struct {
	Blocks         int
	SilentBlocks   int
	Samples        int
	Peak           float32
	RMS            float32
	ClippedSamples int
	NaNCount       int
}

// Summary returns what the meter has seen so far.
func (m *Meter) Summary() MeterSummary {
	s := MeterSummary{
		Blocks:         m.blocks,
		SilentBlocks:   m.silentBlocks,
		Samples:        m.samples,
		Peak:           m.peak,
		ClippedSamples: m.clipped,
		NaNCount:       m.nans,
	}
	if m.samples > 0 {
		s.RMS = float32(math.Sqrt(m.sumSquares / float64(m.samples)))
	}
	return s
}

// String formats the summary for reports.
func (s MeterSummary) String() string {
	return fmt.Sprintf("blocks=%d silent=%d peak=%.3f rms=%.3f clipped=%d nan=%d",
		s.Blocks, s.SilentBlocks, s.Peak, s.RMS, s.ClippedSamples, s.NaNCount)
}
