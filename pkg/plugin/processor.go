package plugin

import (
	"fmt"
	"sync/atomic"

	"github.com/annsts/underlay/pkg/framework/automation"
	"github.com/annsts/underlay/pkg/framework/bus"
	"github.com/annsts/underlay/pkg/framework/param"
	"github.com/annsts/underlay/pkg/framework/process"
	"github.com/annsts/underlay/pkg/transport"
)

// UnderlayProcessor is the real-time entry point. Each block it latches the
// host's automation, follows host tempo, and plays whatever the UI has
// pushed into the shared transport. It applies no gain: volume is handled
// where the audio is generated.
type UnderlayProcessor struct {
	source transport.Consumer

	params *param.Registry
	buses  *bus.Configuration

	latch         *automation.Latch
	ccMap         automation.CCMap
	midiTransport automation.MIDITransport

	extra        ExtraChannelMode
	sampleRate   float64
	maxBlockSize int32

	// setup applies a negotiated rate to the source; set by Session.
	setup func(sampleRate float64) error

	active  atomic.Bool
	skipped atomic.Uint64
	panics  atomic.Uint64
}

// Health counts blocks the processor could not render normally.
type Health struct {
	SkippedBlocks uint64 // blocks with missing or short output buffers
	Panics        uint64 // blocks aborted by a recovered panic
}

// NewProcessor creates a processor that pulls from source. Most callers get
// one from Session.NewProcessor.
func NewProcessor(source transport.Consumer, cfg Config) *UnderlayProcessor {
	params := NewParameters()

	latch := automation.NewLatch()
	latch.SetTempoParam(ParamBPM)
	latch.Bind(params)

	return &UnderlayProcessor{
		source:        source,
		params:        params,
		buses:         bus.NewInstrumentConfiguration(),
		latch:         latch,
		ccMap:         DefaultCCMap(),
		midiTransport: automation.MIDITransport{ParamID: ParamPlayPause},
		extra:         cfg.ExtraChannels,
		sampleRate:    cfg.SampleRate,
		maxBlockSize:  cfg.MaxBlockSize,
	}
}

// Initialize records the negotiated processing setup. A processor from a
// Session also moves the session's transport to sampleRate. Hosts call it
// before activating; an active processor is rejected.
func (p *UnderlayProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	if p.active.Load() {
		return fmt.Errorf("initialize at %.0f Hz: %w", sampleRate, ErrProcessorActive)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("initialize at %.0f Hz: %w", sampleRate, ErrInvalidSampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("initialize with %d-sample blocks: %w", maxBlockSize, ErrInvalidBlockSize)
	}
	if p.setup != nil {
		if err := p.setup(sampleRate); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
	}
	p.sampleRate = sampleRate
	p.maxBlockSize = maxBlockSize
	return nil
}

// ProcessAudio renders one block:
//
//  1. clear the outbound parameter changes and latch this block's host
//     automation, mapped MIDI CCs and MIDI start/stop;
//  2. return without touching the transport if the output buffers are
//     missing or shorter than the block;
//  3. pull the stereo pair from the transport;
//  4. fill channels beyond the pair according to Config.ExtraChannels.
func (p *UnderlayProcessor) ProcessAudio(ctx *process.Context) {
	defer p.recoverBlock(ctx)

	if ctx.Block.Output != nil {
		ctx.Block.Output.Reset()
	}

	points := append(ctx.PointBuffer(), ctx.ParamChanges...)
	points = p.ccMap.AppendCC(points, ctx.Events)
	points = p.midiTransport.Append(points, ctx.Events)
	ctx.KeepPointBuffer(points)

	p.latch.Update(points, &ctx.Block)

	if !ctx.OutputsReady() {
		p.skipped.Add(1)
		return
	}

	numChannels := ctx.NumOutputChannels()
	numSamples := ctx.NumSamples()

	p.source.Pull(ctx.Output, numChannels, numSamples)
	p.fillExtraChannels(ctx.Output, numChannels, numSamples)
}

func (p *UnderlayProcessor) fillExtraChannels(outputs [][]float32, numChannels, numSamples int) {
	for ch := 2; ch < numChannels; ch++ {
		out := outputs[ch][:numSamples]
		switch p.extra {
		case ExtraDuplicate:
			copy(out, outputs[ch%2][:numSamples])
		default:
			clear(out)
		}
	}
}

// recoverBlock turns a panic on the audio thread into a silent block.
func (p *UnderlayProcessor) recoverBlock(ctx *process.Context) {
	if r := recover(); r != nil {
		p.panics.Add(1)
		if ctx != nil {
			ctx.Clear()
		}
	}
}

// ParamValue returns the latest value of a parameter, readable from any
// thread.
func (p *UnderlayProcessor) ParamValue(id uint32) (float64, bool) {
	prm := p.params.Get(id)
	if prm == nil {
		return 0, false
	}
	return prm.GetValue(), true
}

// Health returns the processor's block counters.
func (p *UnderlayProcessor) Health() Health {
	return Health{
		SkippedBlocks: p.skipped.Load(),
		Panics:        p.panics.Load(),
	}
}

// SetBusArrangements accepts only a single stereo output and no audio
// input.
func (p *UnderlayProcessor) SetBusArrangements(inputs, outputs []int32) error {
	return p.buses.CheckArrangement(inputs, outputs)
}

// GetParameters returns the parameter registry
func (p *UnderlayProcessor) GetParameters() *param.Registry {
	return p.params
}

// GetBuses returns the bus configuration
func (p *UnderlayProcessor) GetBuses() *bus.Configuration {
	return p.buses
}

// SetActive starts or stops processing. Stopping forgets latched automation
// and the followed tempo. Hosts never call it concurrently with
// ProcessAudio.
func (p *UnderlayProcessor) SetActive(active bool) error {
	if !active && p.active.Load() {
		p.latch.Reset()
	}
	p.active.Store(active)
	return nil
}

// IsActive reports whether the host has activated processing.
func (p *UnderlayProcessor) IsActive() bool {
	return p.active.Load()
}

// GetLatencySamples returns 0: generated audio is not aligned to host time.
func (p *UnderlayProcessor) GetLatencySamples() int32 {
	return 0
}

// GetTailSamples returns 0.
func (p *UnderlayProcessor) GetTailSamples() int32 {
	return 0
}

// SampleRate returns the rate from Initialize or the session config.
func (p *UnderlayProcessor) SampleRate() float64 {
	return p.sampleRate
}

// MaxBlockSize returns the block size from Initialize or the session config.
func (p *UnderlayProcessor) MaxBlockSize() int32 {
	return p.maxBlockSize
}
