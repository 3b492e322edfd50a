package plugin

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/annsts/underlay/pkg/framework/automation"
	"github.com/annsts/underlay/pkg/framework/bus"
	"github.com/annsts/underlay/pkg/framework/debug"
	"github.com/annsts/underlay/pkg/framework/process"
	"github.com/annsts/underlay/pkg/midi"
)

// fillSource writes fixed values into the stereo pair and counts pulls.
type fillSource struct {
	left, right float32
	pulls       int
}

func (s *fillSource) Pull(outputs [][]float32, numChannels, numSamples int) {
	s.pulls++
	for ch := 0; ch < numChannels && ch < 2; ch++ {
		v := s.left
		if ch == 1 {
			v = s.right
		}
		for i := range outputs[ch][:numSamples] {
			outputs[ch][i] = v
		}
	}
}

type panicSource struct{}

func (panicSource) Pull([][]float32, int, int) {
	panic("boom")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 1000
	cfg.MaxBlockSize = 64
	cfg.CapacitySeconds = 1
	cfg.ReclaimSeconds = 0.1
	cfg.Logger = debug.New(io.Discard, "", 0)
	return cfg
}

func newTestContext(p *UnderlayProcessor, channels, n int, fill float32) *process.Context {
	ctx := process.NewContext(p.GetParameters())
	ctx.Output = make([][]float32, channels)
	for ch := range ctx.Output {
		ctx.Output[ch] = make([]float32, n)
		for i := range ctx.Output[ch] {
			ctx.Output[ch][i] = fill
		}
	}
	ctx.Begin(n)
	return ctx
}

func TestProcessorPullsFromSession(t *testing.T) {
	s, err := NewSession(testConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	p := s.NewProcessor()

	left := make([]float32, 100)
	right := make([]float32, 100)
	for i := range left {
		left[i] = float32(i)
		right[i] = -float32(i)
	}
	s.Producer().Push(left, right, 100, 1000)

	ctx := newTestContext(p, 2, 64, 9)
	p.ProcessAudio(ctx)
	for i := 0; i < 64; i++ {
		if ctx.Output[0][i] != float32(i) || ctx.Output[1][i] != -float32(i) {
			t.Fatalf("Sample %d: expected %v/%v, got %v/%v",
				i, float32(i), -float32(i), ctx.Output[0][i], ctx.Output[1][i])
		}
	}

	// 36 samples remain, the rest of the block is silence.
	ctx.Begin(64)
	p.ProcessAudio(ctx)
	if ctx.Output[0][35] != 99 {
		t.Errorf("Expected last queued sample 99, got %v", ctx.Output[0][35])
	}
	for i := 36; i < 64; i++ {
		if ctx.Output[0][i] != 0 || ctx.Output[1][i] != 0 {
			t.Fatalf("Expected silence at %d, got %v/%v", i, ctx.Output[0][i], ctx.Output[1][i])
		}
	}
	if s.Stats().Underruns != 1 {
		t.Errorf("Expected 1 underrun, got %d", s.Stats().Underruns)
	}
}

func TestProcessorSkipsUnusableOutputs(t *testing.T) {
	tests := []struct {
		name   string
		output [][]float32
	}{
		{"NoChannels", nil},
		{"NilChannel", [][]float32{make([]float32, 64), nil}},
		{"ShortChannel", [][]float32{make([]float32, 64), make([]float32, 32)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fillSource{left: 1, right: 1}
			p := NewProcessor(src, testConfig())

			ctx := process.NewContext(p.GetParameters())
			ctx.Output = tt.output
			ctx.Begin(64)
			ctx.AddParamChange(automation.Point{ParamID: ParamDensity, Value: 0.5})
			p.ProcessAudio(ctx)

			if src.pulls != 0 {
				t.Errorf("Expected no pulls, got %d", src.pulls)
			}
			if h := p.Health(); h.SkippedBlocks != 1 {
				t.Errorf("Expected 1 skipped block, got %d", h.SkippedBlocks)
			}
			// Automation is still latched.
			if v, _ := p.ParamValue(ParamDensity); v != 0.5 {
				t.Errorf("Expected density 0.5, got %v", v)
			}
		})
	}
}

func TestProcessorMono(t *testing.T) {
	src := &fillSource{left: 0.25, right: 0.75}
	p := NewProcessor(src, testConfig())

	ctx := newTestContext(p, 1, 16, 9)
	p.ProcessAudio(ctx)

	if src.pulls != 1 {
		t.Fatalf("Expected 1 pull, got %d", src.pulls)
	}
	for i, v := range ctx.Output[0] {
		if v != 0.25 {
			t.Fatalf("Sample %d: expected 0.25, got %v", i, v)
		}
	}
}

func TestProcessorExtraChannels(t *testing.T) {
	tests := []struct {
		mode ExtraChannelMode
		want []float32 // per channel
	}{
		{ExtraSilence, []float32{0.25, 0.75, 0, 0, 0}},
		{ExtraDuplicate, []float32{0.25, 0.75, 0.25, 0.75, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			cfg := testConfig()
			cfg.ExtraChannels = tt.mode
			p := NewProcessor(&fillSource{left: 0.25, right: 0.75}, cfg)

			ctx := newTestContext(p, 5, 16, 9)
			p.ProcessAudio(ctx)

			for ch, want := range tt.want {
				for i, v := range ctx.Output[ch] {
					if v != want {
						t.Fatalf("Channel %d sample %d: expected %v, got %v", ch, i, want, v)
					}
				}
			}
		})
	}
}

func TestProcessorLatchesAutomation(t *testing.T) {
	p := NewProcessor(&fillSource{}, testConfig())
	ctx := newTestContext(p, 2, 64, 0)

	ctx.AddParamChange(automation.Point{ParamID: ParamDensity, SampleOffset: 50, Value: 0.7})
	ctx.AddParamChange(automation.Point{ParamID: ParamDensity, SampleOffset: 10, Value: 0.2})
	ctx.AddParamChange(automation.Point{ParamID: ParamGuidance, SampleOffset: 0, Value: 0.5})
	p.ProcessAudio(ctx)

	if v, _ := p.ParamValue(ParamDensity); v != 0.7 {
		t.Errorf("Expected density 0.7, got %v", v)
	}
	if got := ctx.ParamPlain(ParamGuidance); math.Abs(got-3) > 1e-9 {
		t.Errorf("Expected guidance 3, got %v", got)
	}

	// Blocks without points keep the latched values.
	ctx.Begin(64)
	p.ProcessAudio(ctx)
	if v, _ := p.ParamValue(ParamDensity); v != 0.7 {
		t.Errorf("Expected density to stay 0.7, got %v", v)
	}

	if _, ok := p.ParamValue(9999); ok {
		t.Error("Expected unknown parameter to be reported missing")
	}
}

func TestProcessorMIDIControllers(t *testing.T) {
	p := NewProcessor(&fillSource{}, testConfig())
	ctx := newTestContext(p, 2, 64, 0)

	ctx.AddEvent(midi.ControlChangeEvent{
		BaseEvent:  midi.BaseEvent{Offset: 5},
		Controller: midi.CCBrightness,
		Value:      127,
	})
	ctx.AddEvent(midi.ControlChangeEvent{
		BaseEvent:  midi.BaseEvent{Offset: 5},
		Controller: 64, // unmapped
		Value:      127,
	})
	p.ProcessAudio(ctx)

	if v, _ := p.ParamValue(ParamBrightness); v != 1 {
		t.Errorf("Expected brightness 1, got %v", v)
	}

	// Host automation later in the block beats an earlier CC.
	ctx.Begin(64)
	ctx.AddParamChange(automation.Point{ParamID: ParamBrightness, SampleOffset: 40, Value: 0.3})
	ctx.AddEvent(midi.ControlChangeEvent{
		BaseEvent:  midi.BaseEvent{Offset: 10},
		Controller: midi.CCBrightness,
		Value:      0,
	})
	p.ProcessAudio(ctx)
	if v, _ := p.ParamValue(ParamBrightness); v != 0.3 {
		t.Errorf("Expected brightness 0.3, got %v", v)
	}
}

func TestProcessorMIDITransport(t *testing.T) {
	p := NewProcessor(&fillSource{}, testConfig())
	ctx := newTestContext(p, 2, 64, 0)

	ctx.AddEvent(midi.StartEvent{BaseEvent: midi.BaseEvent{Offset: 3}})
	p.ProcessAudio(ctx)
	if v, _ := p.ParamValue(ParamPlayPause); v != 1 {
		t.Errorf("Expected play after Start, got %v", v)
	}

	ctx.Begin(64)
	ctx.AddEvent(midi.ContinueEvent{BaseEvent: midi.BaseEvent{Offset: 1}})
	ctx.AddEvent(midi.StopEvent{BaseEvent: midi.BaseEvent{Offset: 30}})
	p.ProcessAudio(ctx)
	if v, _ := p.ParamValue(ParamPlayPause); v != 0 {
		t.Errorf("Expected pause after Stop, got %v", v)
	}
}

func TestProcessorFollowsTempo(t *testing.T) {
	p := NewProcessor(&fillSource{}, testConfig())
	ctx := newTestContext(p, 2, 64, 0)

	ctx.Block.State = automation.StateTempoValid
	ctx.Block.Tempo = 130
	p.ProcessAudio(ctx)

	out := ctx.OutputChanges()
	if len(out) != 1 {
		t.Fatalf("Expected 1 outbound change, got %d", len(out))
	}
	if out[0].ParamID != ParamBPM || out[0].SampleOffset != 0 || math.Abs(out[0].Value-0.5) > 1e-12 {
		t.Errorf("Expected BPM 0.5 at offset 0, got %+v", out[0])
	}

	// Same tempo again: nothing is sent and last block's change is gone.
	ctx.Begin(64)
	ctx.Block.Tempo = 130.005
	p.ProcessAudio(ctx)
	if n := len(ctx.OutputChanges()); n != 0 {
		t.Errorf("Expected no outbound changes, got %d", n)
	}

	// Deactivating forgets the tempo, so it is reported again.
	_ = p.SetActive(true)
	_ = p.SetActive(false)
	ctx.Begin(64)
	p.ProcessAudio(ctx)
	if n := len(ctx.OutputChanges()); n != 1 {
		t.Errorf("Expected tempo to be resent after deactivation, got %d changes", n)
	}
}

func TestProcessorRecoversPanic(t *testing.T) {
	p := NewProcessor(panicSource{}, testConfig())
	ctx := newTestContext(p, 2, 32, 0.5)

	p.ProcessAudio(ctx)

	if h := p.Health(); h.Panics != 1 {
		t.Errorf("Expected 1 recovered panic, got %d", h.Panics)
	}
	for ch := range ctx.Output {
		for i, v := range ctx.Output[ch] {
			if v != 0 {
				t.Fatalf("Channel %d sample %d: expected silence, got %v", ch, i, v)
			}
		}
	}
}

func TestProcessorInitialize(t *testing.T) {
	p := NewProcessor(&fillSource{}, testConfig())

	if err := p.Initialize(44100, 256); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if p.SampleRate() != 44100 || p.MaxBlockSize() != 256 {
		t.Errorf("Expected 44100/256, got %v/%d", p.SampleRate(), p.MaxBlockSize())
	}
	if err := p.Initialize(0, 256); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("Expected ErrInvalidSampleRate, got %v", err)
	}
	if err := p.Initialize(44100, 0); !errors.Is(err, ErrInvalidBlockSize) {
		t.Errorf("Expected ErrInvalidBlockSize, got %v", err)
	}
	if p.GetLatencySamples() != 0 || p.GetTailSamples() != 0 {
		t.Error("Expected no latency and no tail")
	}

	_ = p.SetActive(true)
	if err := p.Initialize(48000, 256); !errors.Is(err, ErrProcessorActive) {
		t.Errorf("Expected ErrProcessorActive, got %v", err)
	}
	if p.SampleRate() != 44100 {
		t.Errorf("Expected rate unchanged while active, got %v", p.SampleRate())
	}
}

func TestProcessorBusArrangements(t *testing.T) {
	p := NewProcessor(&fillSource{}, testConfig())

	tests := []struct {
		name    string
		inputs  []int32
		outputs []int32
		ok      bool
	}{
		{"Stereo", nil, []int32{2}, true},
		{"Mono", nil, []int32{1}, false},
		{"Surround", nil, []int32{6}, false},
		{"TwoOutputs", nil, []int32{2, 2}, false},
		{"AudioInput", []int32{2}, []int32{2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.SetBusArrangements(tt.inputs, tt.outputs)
			if tt.ok && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, bus.ErrUnsupportedArrangement) {
				t.Errorf("Expected ErrUnsupportedArrangement, got %v", err)
			}
		})
	}
}

func TestProcessorDoesNotAllocate(t *testing.T) {
	s, err := NewSession(testConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	p := s.NewProcessor()

	ctx := newTestContext(p, 2, 64, 0)
	ctx.Block.State = automation.StateTempoValid
	ctx.Block.Tempo = 120
	ctx.AddParamChange(automation.Point{ParamID: ParamDensity, SampleOffset: 3, Value: 0.4})
	ctx.AddEvent(midi.ControlChangeEvent{Controller: midi.CCVolume, Value: 64})

	// Warm up the latch's maps.
	p.ProcessAudio(ctx)

	allocs := testing.AllocsPerRun(100, func() {
		p.ProcessAudio(ctx)
	})
	if allocs != 0 {
		t.Errorf("Expected 0 allocations per block, got %v", allocs)
	}
}

func BenchmarkProcessAudio(b *testing.B) {
	p := NewProcessor(&fillSource{left: 0.1, right: 0.2}, testConfig())
	ctx := newTestContext(p, 2, 512, 0)
	ctx.AddParamChange(automation.Point{ParamID: ParamDensity, SampleOffset: 3, Value: 0.4})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ProcessAudio(ctx)
	}
}
