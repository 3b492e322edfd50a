// Package automation latches host parameter automation once per audio block
// and reports host tempo changes back as a normalized BPM parameter.
package automation

import (
	"math"
)

// Point is one automation value for a parameter at a sample offset inside
// the current block. Values are normalized to [0, 1].
type Point struct {
	ParamID      uint32
	SampleOffset int32
	Value        float64
}

// Transport state flags reported by the host.
const (
	StatePlaying    uint32 = 1 << 1
	StateTempoValid uint32 = 1 << 10
)

// BlockContext is the host's transport description for one block.
type BlockContext struct {
	State      uint32
	Tempo      float64 // BPM, meaningful when StateTempoValid is set
	SampleRate float64

	// Output receives parameter changes sent back to the host. It may be nil.
	Output *Changes
}

// TempoValid reports whether Tempo carries a host tempo.
func (b *BlockContext) TempoValid() bool {
	return b != nil && b.State&StateTempoValid != 0
}

// Playing reports whether the host transport is rolling.
func (b *BlockContext) Playing() bool {
	return b != nil && b.State&StatePlaying != 0
}

// Tempo range of the BPM parameter.
const (
	MinTempo = 60.0
	MaxTempo = 200.0

	// TempoEpsilon is the smallest tempo change, in BPM, that is reported.
	TempoEpsilon = 0.01
)

// NormalizeTempo maps a BPM onto the BPM parameter's [0, 1] range.
func NormalizeTempo(bpm float64) float64 {
	n := (bpm - MinTempo) / (MaxTempo - MinTempo)
	return math.Max(0, math.Min(1, n))
}

// DenormalizeTempo is the inverse of NormalizeTempo.
func DenormalizeTempo(normalized float64) float64 {
	normalized = math.Max(0, math.Min(1, normalized))
	return MinTempo + normalized*(MaxTempo-MinTempo)
}

// Changes is an outbound list of parameter points. Storage is allocated up
// front; Reset keeps it.
type Changes struct {
	points []Point
}

// NewChanges creates a list with room for capacity points.
func NewChanges(capacity int) *Changes {
	return &Changes{points: make([]Point, 0, capacity)}
}

// Add appends p.
func (c *Changes) Add(p Point) {
	c.points = append(c.points, p)
}

// Points returns the queued points. The slice is valid until the next Reset.
func (c *Changes) Points() []Point {
	return c.points
}

// Len returns the number of queued points.
func (c *Changes) Len() int {
	return len(c.points)
}

// Reset empties the list.
func (c *Changes) Reset() {
	c.points = c.points[:0]
}
