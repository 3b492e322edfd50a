package automation

import (
	"math"

	"github.com/annsts/underlay/pkg/framework/param"
)

// DefaultBPMParamID is the parameter that carries the followed host tempo.
const DefaultBPMParamID uint32 = 100

// Latch keeps the most recent value of every automated parameter. Within a
// block only the point with the greatest sample offset counts; nothing is
// interpolated. A Latch belongs to the audio thread.
type Latch struct {
	values map[uint32]float64

	// per-block scratch: winning offset per parameter
	offsets map[uint32]int32

	bpmParam  uint32
	lastTempo float64
	tempoSeen bool

	registry *param.Registry
}

// NewLatch creates an empty latch that reports tempo on DefaultBPMParamID.
func NewLatch() *Latch {
	return &Latch{
		values:   make(map[uint32]float64),
		offsets:  make(map[uint32]int32),
		bpmParam: DefaultBPMParamID,
	}
}

// SetTempoParam changes the parameter used for outbound tempo points.
func (l *Latch) SetTempoParam(id uint32) {
	l.bpmParam = id
}

// Bind mirrors latched values into registry so other threads can read them.
// Unknown IDs are latched but not mirrored.
func (l *Latch) Bind(registry *param.Registry) {
	l.registry = registry
}

// Update applies one block of automation. For each parameter the point with
// the largest SampleOffset wins, and the later of equal offsets wins.
// Parameters without points keep their value.
//
// When block reports a valid tempo that is new or differs from the last one
// by more than TempoEpsilon, the tempo is remembered and, if block.Output is
// set, a normalized point for the BPM parameter is queued at offset 0. A
// bound registry's BPM parameter follows the same value.
func (l *Latch) Update(events []Point, block *BlockContext) {
	if len(events) > 0 {
		clear(l.offsets)

		for _, e := range events {
			if off, ok := l.offsets[e.ParamID]; ok && e.SampleOffset < off {
				continue
			}
			l.offsets[e.ParamID] = e.SampleOffset
			l.values[e.ParamID] = e.Value
		}

		if l.registry != nil {
			for id := range l.offsets {
				l.registry.Set(id, l.values[id])
			}
		}
	}

	l.followTempo(block)
}

func (l *Latch) followTempo(block *BlockContext) {
	if !block.TempoValid() {
		return
	}
	if l.tempoSeen && math.Abs(block.Tempo-l.lastTempo) <= TempoEpsilon {
		return
	}

	l.lastTempo = block.Tempo
	l.tempoSeen = true

	normalized := NormalizeTempo(block.Tempo)
	if l.registry != nil {
		l.registry.Set(l.bpmParam, normalized)
	}
	if block.Output != nil {
		block.Output.Add(Point{
			ParamID:      l.bpmParam,
			SampleOffset: 0,
			Value:        normalized,
		})
	}
}

// Value returns the latched value for id.
func (l *Latch) Value(id uint32) (float64, bool) {
	v, ok := l.values[id]
	return v, ok
}

// ValueOr returns the latched value for id, or def if none was received.
func (l *Latch) ValueOr(id uint32, def float64) float64 {
	if v, ok := l.values[id]; ok {
		return v
	}
	return def
}

// Len returns how many parameters have a latched value.
func (l *Latch) Len() int {
	return len(l.values)
}

// LastTempo returns the last followed host tempo.
func (l *Latch) LastTempo() (float64, bool) {
	return l.lastTempo, l.tempoSeen
}

// Reset forgets all latched values and the followed tempo.
func (l *Latch) Reset() {
	clear(l.values)
	clear(l.offsets)
	l.lastTempo = 0
	l.tempoSeen = false
}
