package plugin

import (
	"fmt"

	"github.com/annsts/underlay/pkg/framework/automation"
	"github.com/annsts/underlay/pkg/framework/param"
	"github.com/annsts/underlay/pkg/midi"
)

// Parameter IDs shared with the UI.
const (
	ParamBPM              uint32 = 100
	ParamDensity          uint32 = 101
	ParamBrightness       uint32 = 102
	ParamGuidance         uint32 = 103
	ParamTemperature      uint32 = 104
	ParamTopK             uint32 = 105
	ParamSeed             uint32 = 106
	ParamScale            uint32 = 107
	ParamMode             uint32 = 108
	ParamVolume           uint32 = 109
	ParamMuteBass         uint32 = 110
	ParamMuteDrums        uint32 = 111
	ParamOnlyBassAndDrums uint32 = 112
	ParamPlayPause        uint32 = 113

	// Layer i (0-based) uses layerBase+2i for its weight and the next ID
	// for its enabled switch.
	layerBase uint32 = 200
)

// MaxLayers is the number of prompt layers exposed as parameters.
const MaxLayers = 50

// LayerWeightID returns the weight parameter of layer i (0-based).
func LayerWeightID(i int) uint32 {
	return layerBase + uint32(2*i)
}

// LayerEnabledID returns the enabled parameter of layer i (0-based).
func LayerEnabledID(i int) uint32 {
	return layerBase + uint32(2*i) + 1
}

// ScaleNames are the Scale parameter's options in step order.
var ScaleNames = []string{
	"Let model decide",
	"C maj / A min",
	"Db maj / Bb min",
	"D maj / B min",
	"Eb maj / C min",
	"E maj / C# min",
	"F maj / D min",
	"Gb maj / Eb min",
	"G maj / E min",
	"Ab maj / F min",
	"A maj / F# min",
	"Bb maj / G min",
	"B maj / G# min",
}

// ModeNames are the generation modes in step order.
var ModeNames = []string{"Quality", "Diversity", "Vocalization"}

// NewParameters builds the registry of every automatable parameter.
func NewParameters() *param.Registry {
	registry := param.NewRegistry()

	params := []*param.Parameter{
		param.New(ParamBPM, "BPM").
			Range(automation.MinTempo, automation.MaxTempo).
			Default(120).
			Unit("BPM").
			Formatter(param.BPMFormatter, param.BPMParser).
			Build(),
		param.New(ParamDensity, "Density").Default(0).Build(),
		param.New(ParamBrightness, "Brightness").Default(0).Build(),
		param.New(ParamGuidance, "Guidance").Range(0, 6).Default(4).Build(),
		param.New(ParamTemperature, "Temperature").Range(0, 3).Default(1.1).Build(),
		param.New(ParamTopK, "Top K").
			Range(1, 1000).
			Steps(999).
			Default(40).
			Formatter(param.IntegerFormatter, nil).
			Build(),
		param.New(ParamSeed, "Seed").
			Range(0, 2147483647).
			Formatter(param.IntegerFormatter, nil).
			Build(),
		param.New(ParamScale, "Scale").List(ScaleNames...).Build(),
		param.New(ParamMode, "Mode").List(ModeNames...).Build(),
		param.New(ParamVolume, "Volume").
			Range(0, 100).
			Default(80).
			Unit("%").
			Formatter(param.PercentFormatter, param.PercentParser).
			Build(),
		param.New(ParamMuteBass, "Mute Bass").Toggle().Build(),
		param.New(ParamMuteDrums, "Mute Drums").Toggle().Build(),
		param.New(ParamOnlyBassAndDrums, "Only Bass & Drums").Toggle().Build(),
		param.New(ParamPlayPause, "Play/Pause").Toggle().Build(),
	}

	for i := 0; i < MaxLayers; i++ {
		params = append(params,
			param.New(LayerWeightID(i), fmt.Sprintf("Layer %d Weight", i+1)).
				ShortName(fmt.Sprintf("L%d W", i+1)).
				Range(0.1, 3).
				Default(1).
				Build(),
			param.New(LayerEnabledID(i), fmt.Sprintf("Layer %d Enabled", i+1)).
				ShortName(fmt.Sprintf("L%d On", i+1)).
				Toggle().
				Build(),
		)
	}

	// IDs above are distinct by construction.
	if err := registry.Add(params...); err != nil {
		panic(err)
	}
	return registry
}

// DefaultCCMap routes the documented MIDI controllers to parameters.
func DefaultCCMap() automation.CCMap {
	return automation.CCMap{
		midi.CCBPM:         ParamBPM,
		midi.CCDensity:     ParamDensity,
		midi.CCBrightness:  ParamBrightness,
		midi.CCGuidance:    ParamGuidance,
		midi.CCTemperature: ParamTemperature,
		midi.CCVolume:      ParamVolume,
	}
}
