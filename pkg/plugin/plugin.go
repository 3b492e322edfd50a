// Package plugin is the host-facing side of Underlay: the real-time
// processor that plays generated audio, its parameters and buses, and the
// session that wires it to the UI's producer.
package plugin

import (
	"github.com/annsts/underlay/pkg/framework/bus"
	"github.com/annsts/underlay/pkg/framework/param"
	"github.com/annsts/underlay/pkg/framework/process"
)

// Plugin creates processors and describes itself to hosts.
type Plugin interface {
	// GetInfo returns plugin metadata
	GetInfo() Info

	// CreateProcessor creates a new instance of the audio processor
	CreateProcessor() Processor
}

// Processor handles the actual audio processing
type Processor interface {
	// Initialize is called with the negotiated processing setup
	Initialize(sampleRate float64, maxBlockSize int32) error

	// ProcessAudio renders one block. It must not allocate, lock for long,
	// or log.
	ProcessAudio(ctx *process.Context)

	// GetParameters returns the parameter registry
	GetParameters() *param.Registry

	// GetBuses returns the bus configuration
	GetBuses() *bus.Configuration

	// SetActive is called when processing starts/stops
	SetActive(active bool) error

	// GetLatencySamples returns the plugin's latency in samples
	GetLatencySamples() int32

	// GetTailSamples returns the tail length in samples
	GetTailSamples() int32
}

// Info contains plugin metadata
type Info struct {
	ID       string // reverse-DNS identifier
	Name     string
	Version  string
	Vendor   string
	Category string

	ProcessorUID  [16]byte
	ControllerUID [16]byte
}

// DefaultInfo describes Underlay.
func DefaultInfo() Info {
	return Info{
		ID:       "com.annsts.underlay",
		Name:     "Underlay",
		Version:  "1.0.0",
		Vendor:   "annsts",
		Category: "Instrument|Generator",
		ProcessorUID: [16]byte{
			0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6, 0x07, 0x08,
			0x90, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6, 0x07,
		},
		ControllerUID: [16]byte{
			0xB2, 0xC3, 0xD4, 0xE5, 0xF6, 0x07, 0x08, 0x09,
			0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6, 0x07, 0x08,
		},
	}
}
