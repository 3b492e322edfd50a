package process

import (
	"testing"

	"github.com/annsts/underlay/pkg/framework/automation"
	"github.com/annsts/underlay/pkg/framework/param"
	"github.com/annsts/underlay/pkg/midi"
)

func TestContextBegin(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Output = [][]float32{make([]float32, 512), make([]float32, 512)}

	ctx.Begin(256)
	ctx.AddParamChange(automation.Point{ParamID: 101, SampleOffset: 10, Value: 0.5})
	ctx.AddEvent(midi.StartEvent{})

	if ctx.NumSamples() != 256 {
		t.Errorf("Expected 256 samples, got %d", ctx.NumSamples())
	}
	if len(ctx.ParamChanges) != 1 || len(ctx.Events) != 1 {
		t.Fatalf("Expected 1 change and 1 event, got %d and %d", len(ctx.ParamChanges), len(ctx.Events))
	}

	ctx.Begin(128)
	if len(ctx.ParamChanges) != 0 || len(ctx.Events) != 0 {
		t.Error("Begin should drop the previous block's input")
	}
	if cap(ctx.ParamChanges) < 128 {
		t.Errorf("Expected preallocated capacity to be kept, got %d", cap(ctx.ParamChanges))
	}
}

func TestContextNumSamplesFallback(t *testing.T) {
	ctx := NewContext(nil)
	if ctx.NumSamples() != 0 {
		t.Errorf("Expected 0 samples without outputs, got %d", ctx.NumSamples())
	}

	ctx.Output = [][]float32{make([]float32, 48)}
	if ctx.NumSamples() != 48 {
		t.Errorf("Expected 48 samples, got %d", ctx.NumSamples())
	}
}

func TestContextOutputsReady(t *testing.T) {
	tests := []struct {
		name   string
		output [][]float32
		n      int
		want   bool
	}{
		{"Stereo", [][]float32{make([]float32, 64), make([]float32, 64)}, 64, true},
		{"NoChannels", nil, 64, false},
		{"ShortChannel", [][]float32{make([]float32, 64), make([]float32, 32)}, 64, false},
		{"NilChannel", [][]float32{make([]float32, 64), nil}, 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(nil)
			ctx.Output = tt.output
			ctx.Begin(tt.n)
			if got := ctx.OutputsReady(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestContextParams(t *testing.T) {
	registry := param.NewRegistry()
	if err := registry.Add(param.New(109, "Volume").Range(0, 100).Default(75).Build()); err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(registry)

	if got := ctx.Param(109); got != 0.75 {
		t.Errorf("Expected 0.75, got %v", got)
	}
	if got := ctx.ParamPlain(109); got != 75 {
		t.Errorf("Expected 75, got %v", got)
	}
	if got := ctx.Param(1); got != 0 {
		t.Errorf("Expected 0 for unknown parameter, got %v", got)
	}
	if got := NewContext(nil).Param(109); got != 0 {
		t.Errorf("Expected 0 without registry, got %v", got)
	}
}

func TestContextOutputChanges(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Block.Output.Add(automation.Point{ParamID: 100, Value: 0.5})

	if got := ctx.OutputChanges(); len(got) != 1 || got[0].ParamID != 100 {
		t.Errorf("Unexpected output changes %+v", got)
	}

	ctx.Block.Output = nil
	if got := ctx.OutputChanges(); got != nil {
		t.Errorf("Expected nil without output list, got %+v", got)
	}
}

func TestContextClear(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Output = [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
	ctx.Clear()

	for ch, buf := range ctx.Output {
		for i, v := range buf {
			if v != 0 {
				t.Fatalf("Channel %d sample %d not cleared: %v", ch, i, v)
			}
		}
	}
}
