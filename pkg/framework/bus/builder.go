package bus

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is wrapped by every Builder validation failure.
var ErrInvalidLayout = errors.New("invalid bus layout")

// maxOutputChannels is the widest main output a generator may declare. The
// transport carries a stereo pair; wider buses get the extra channel policy.
const maxOutputChannels = 8

// Builder assembles a generator's buses: main audio outputs fed from the
// transport and event inputs for MIDI.
type Builder struct {
	config *Configuration
}

// NewBuilder starts an empty layout.
func NewBuilder() *Builder {
	return &Builder{config: &Configuration{}}
}

// WithAudioOutput adds a main output of channels channels.
func (b *Builder) WithAudioOutput(name string, channels int32) *Builder {
	b.config.audioBuses = append(b.config.audioBuses, Info{
		MediaType:    MediaTypeAudio,
		Direction:    DirectionOutput,
		ChannelCount: channels,
		Name:         name,
		BusType:      TypeMain,
		IsActive:     true,
	})
	return b
}

// WithStereoOutput adds the usual stereo main output.
func (b *Builder) WithStereoOutput(name string) *Builder {
	return b.WithAudioOutput(name, 2)
}

// WithEventInput adds a MIDI input.
func (b *Builder) WithEventInput(name string) *Builder {
	b.config.eventBuses = append(b.config.eventBuses, Info{
		MediaType:    MediaTypeEvent,
		Direction:    DirectionInput,
		ChannelCount: 1,
		Name:         name,
		BusType:      TypeMain,
		IsActive:     true,
	})
	return b
}

// Validate reports every problem with the layout at once. A generator needs
// exactly one main output of 1 to 8 channels, at most one event input, and
// distinct bus names.
func (b *Builder) Validate() error {
	var errs []error

	outputs := b.config.audioBuses
	switch {
	case len(outputs) == 0:
		errs = append(errs, fmt.Errorf("%w: no main output", ErrInvalidLayout))
	case len(outputs) > 1:
		errs = append(errs, fmt.Errorf("%w: %d main outputs, want one", ErrInvalidLayout, len(outputs)))
	}
	for _, info := range outputs {
		if info.ChannelCount < 1 || info.ChannelCount > maxOutputChannels {
			errs = append(errs, fmt.Errorf("%w: output %q has %d channels, want 1 to %d",
				ErrInvalidLayout, info.Name, info.ChannelCount, maxOutputChannels))
		}
	}

	if n := len(b.config.eventBuses); n > 1 {
		errs = append(errs, fmt.Errorf("%w: %d event inputs, want at most one", ErrInvalidLayout, n))
	}

	seen := make(map[string]bool)
	for _, buses := range [][]Info{b.config.audioBuses, b.config.eventBuses} {
		for _, info := range buses {
			if seen[info.Name] {
				errs = append(errs, fmt.Errorf("%w: bus name %q used twice", ErrInvalidLayout, info.Name))
			}
			seen[info.Name] = true
		}
	}

	return errors.Join(errs...)
}

// Build validates and returns the layout.
func (b *Builder) Build() (*Configuration, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("build bus layout: %w", err)
	}
	return b.config, nil
}

// MustBuild is Build for fixed layouts known to be valid.
func (b *Builder) MustBuild() *Configuration {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}
