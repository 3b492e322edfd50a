package plugin

import (
	"fmt"
	"strings"

	"github.com/annsts/underlay/pkg/framework/debug"
	"github.com/annsts/underlay/pkg/transport"
)

// ExtraChannelMode decides what output channels beyond the stereo pair
// receive.
type ExtraChannelMode int

const (
	// ExtraSilence zeroes channels beyond the second.
	ExtraSilence ExtraChannelMode = iota
	// ExtraDuplicate copies left into even and right into odd extra channels.
	ExtraDuplicate
)

func (m ExtraChannelMode) String() string {
	switch m {
	case ExtraSilence:
		return "silence"
	case ExtraDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// ParseExtraChannelMode maps "silence" or "duplicate" to a mode.
func ParseExtraChannelMode(s string) (ExtraChannelMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silence", "":
		return ExtraSilence, nil
	case "duplicate":
		return ExtraDuplicate, nil
	}
	return ExtraSilence, fmt.Errorf("unknown extra channel mode %q", s)
}

// maxSampleRate bounds what Validate accepts.
const maxSampleRate = 768000

// Config configures a Session and its processors.
type Config struct {
	// SampleRate is the host's negotiated rate. Transport limits are sized
	// from it.
	SampleRate float64
	// MaxBlockSize is the largest block the host will request.
	MaxBlockSize int32

	// CapacitySeconds is how much audio the transport holds before evicting.
	CapacitySeconds float64
	// ReclaimSeconds is how much consumed audio accumulates before the
	// producer side reclaims it. Zero means one second. Ignored when
	// LockFree is set.
	ReclaimSeconds float64
	// LockFree selects the ring transport over the mutex buffer.
	LockFree bool

	ExtraChannels ExtraChannelMode

	// Logger receives wiring-time messages. Nil means debug.Default().
	Logger *debug.Logger
}

// DefaultConfig returns 48 kHz, 512-sample blocks, six seconds of capacity
// reclaimed every second, using the mutex buffer.
func DefaultConfig() Config {
	return Config{
		SampleRate:      transport.ReferenceSampleRate,
		MaxBlockSize:    512,
		CapacitySeconds: 6,
		ReclaimSeconds:  1,
		ExtraChannels:   ExtraSilence,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 || c.SampleRate > maxSampleRate {
		return fmt.Errorf("sample rate %.0f Hz: %w", c.SampleRate, ErrInvalidSampleRate)
	}
	if c.MaxBlockSize <= 0 {
		return fmt.Errorf("max block size %d: %w", c.MaxBlockSize, ErrInvalidBlockSize)
	}
	if c.CapacitySeconds <= 0 {
		return fmt.Errorf("capacity %.3fs: %w", c.CapacitySeconds, ErrInvalidCapacity)
	}
	if c.ReclaimSeconds < 0 || c.ReclaimSeconds > c.CapacitySeconds {
		return fmt.Errorf("reclaim %.3fs with capacity %.3fs: %w",
			c.ReclaimSeconds, c.CapacitySeconds, ErrInvalidCapacity)
	}
	if capacity := c.SampleRate * c.CapacitySeconds; capacity < float64(c.MaxBlockSize) {
		return fmt.Errorf("capacity of %.0f samples is smaller than a %d-sample block: %w",
			capacity, c.MaxBlockSize, ErrInvalidCapacity)
	}
	return nil
}

// Limits returns the transport limits for this configuration.
func (c Config) Limits() transport.Limits {
	return transport.LimitsForDuration(c.SampleRate, c.CapacitySeconds, c.ReclaimSeconds)
}

func (c Config) logger() *debug.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return debug.Default()
}
