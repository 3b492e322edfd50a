// Package process holds the per-block state a host hands to the processor:
// output buffers, transport, automation and MIDI input.
package process

import (
	"github.com/annsts/underlay/pkg/framework/automation"
	"github.com/annsts/underlay/pkg/framework/param"
	"github.com/annsts/underlay/pkg/midi"
)

// Context is reused across blocks. Everything the audio thread needs is
// allocated by NewContext.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	// Block carries host transport state. Block.Output is the list of
	// parameter changes sent back to the host.
	Block automation.BlockContext

	// ParamChanges holds the host's automation points for this block.
	ParamChanges []automation.Point

	// Events holds the MIDI input for this block, offsets relative to it.
	Events []midi.Event

	numSamples int

	// Pre-allocated scratch for merging automation sources
	pointBuffer []automation.Point

	params *param.Registry
}

// NewContext creates a context reading parameters from params, which may be nil.
func NewContext(params *param.Registry) *Context {
	return &Context{
		Block:        automation.BlockContext{Output: automation.NewChanges(16)},
		ParamChanges: make([]automation.Point, 0, 128),
		Events:       make([]midi.Event, 0, 128),
		pointBuffer:  make([]automation.Point, 0, 256),
		params:       params,
	}
}

// Begin starts a new block of numSamples samples, dropping the previous
// block's automation and events. Called by the host.
func (c *Context) Begin(numSamples int) {
	c.numSamples = numSamples
	c.ParamChanges = c.ParamChanges[:0]
	c.Events = c.Events[:0]
}

// AddParamChange queues a host automation point for this block.
func (c *Context) AddParamChange(p automation.Point) {
	c.ParamChanges = append(c.ParamChanges, p)
}

// AddEvent queues a MIDI input event for this block.
func (c *Context) AddEvent(e midi.Event) {
	c.Events = append(c.Events, e)
}

// OutputChanges returns what the processor sent back during this block.
func (c *Context) OutputChanges() []automation.Point {
	if c.Block.Output == nil {
		return nil
	}
	return c.Block.Output.Points()
}

// PointBuffer returns the empty pre-allocated scratch point list.
func (c *Context) PointBuffer() []automation.Point {
	return c.pointBuffer[:0]
}

// KeepPointBuffer stores buf as the scratch list so growth survives blocks.
func (c *Context) KeepPointBuffer(buf []automation.Point) {
	c.pointBuffer = buf[:0]
}

// Param returns the current value of a parameter (0-1 normalized)
func (c *Context) Param(id uint32) float64 {
	if c.params == nil {
		return 0
	}
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if c.params == nil {
		return 0
	}
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// NumSamples returns the number of samples to process. Without Begin it
// falls back to the length of the first output channel.
func (c *Context) NumSamples() int {
	if c.numSamples > 0 {
		return c.numSamples
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// OutputsReady reports whether every output channel holds at least
// NumSamples samples.
func (c *Context) OutputsReady() bool {
	n := c.NumSamples()
	if len(c.Output) == 0 || n <= 0 {
		return false
	}
	for _, ch := range c.Output {
		if len(ch) < n {
			return false
		}
	}
	return true
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}
