// Package bus describes the plugin's audio and event buses and checks the
// speaker arrangements a host proposes.
package bus

import (
	"errors"
	"fmt"
)

// MediaType represents the type of bus
type MediaType int32

const (
	// MediaTypeAudio represents audio bus type
	MediaTypeAudio MediaType = 0
	// MediaTypeEvent represents event/MIDI bus type
	MediaTypeEvent MediaType = 1
)

// Direction represents the bus direction
type Direction int32

const (
	// DirectionInput represents input bus
	DirectionInput Direction = 0
	// DirectionOutput represents output bus
	DirectionOutput Direction = 1
)

// Type represents the bus type
type Type int32

const (
	// TypeMain represents main bus
	TypeMain Type = 0
	// TypeAux represents auxiliary bus
	TypeAux Type = 1
)

// Info contains bus configuration
type Info struct {
	MediaType    MediaType
	Direction    Direction
	ChannelCount int32
	Name         string
	BusType      Type
	IsActive     bool
}

// ErrUnsupportedArrangement is returned when a host proposes channel counts
// the configuration cannot serve.
var ErrUnsupportedArrangement = errors.New("unsupported bus arrangement")

// Configuration manages audio and event buses
type Configuration struct {
	audioBuses []Info
	eventBuses []Info
}

// NewInstrumentConfiguration is the layout of a generator with no audio
// input: one stereo main output and one MIDI event input.
func NewInstrumentConfiguration() *Configuration {
	return NewBuilder().
		WithStereoOutput("Stereo Out").
		WithEventInput("MIDI In").
		MustBuild()
}

// GetBusCount returns the number of buses for a given type and direction
func (c *Configuration) GetBusCount(mediaType MediaType, direction Direction) int32 {
	count := int32(0)
	for _, bus := range c.buses(mediaType) {
		if bus.Direction == direction {
			count++
		}
	}
	return count
}

// GetBusInfo returns information about a specific bus
func (c *Configuration) GetBusInfo(mediaType MediaType, direction Direction, index int32) *Info {
	buses := c.buses(mediaType)

	busIndex := int32(0)
	for i := range buses {
		if buses[i].Direction == direction {
			if busIndex == index {
				return &buses[i]
			}
			busIndex++
		}
	}

	return nil
}

// MainOutputChannels returns the channel count of the first main audio
// output, or 0 when there is none.
func (c *Configuration) MainOutputChannels() int {
	for _, bus := range c.audioBuses {
		if bus.Direction == DirectionOutput && bus.BusType == TypeMain {
			return int(bus.ChannelCount)
		}
	}
	return 0
}

// CheckArrangement accepts a proposed arrangement only when it has exactly
// one entry per audio bus in each direction, each with the bus's channel
// count.
func (c *Configuration) CheckArrangement(inputs, outputs []int32) error {
	if err := c.checkDirection(DirectionInput, inputs); err != nil {
		return err
	}
	return c.checkDirection(DirectionOutput, outputs)
}

func (c *Configuration) checkDirection(direction Direction, channels []int32) error {
	want := c.GetBusCount(MediaTypeAudio, direction)
	if int32(len(channels)) != want {
		return fmt.Errorf("%w: %d buses proposed, %d expected", ErrUnsupportedArrangement, len(channels), want)
	}
	for i, n := range channels {
		info := c.GetBusInfo(MediaTypeAudio, direction, int32(i))
		if info.ChannelCount != n {
			return fmt.Errorf("%w: bus %q has %d channels, %d proposed",
				ErrUnsupportedArrangement, info.Name, info.ChannelCount, n)
		}
	}
	return nil
}

func (c *Configuration) buses(mediaType MediaType) []Info {
	if mediaType == MediaTypeEvent {
		return c.eventBuses
	}
	return c.audioBuses
}
