package plugin

import (
	"fmt"
	"sync"

	"github.com/annsts/underlay/pkg/framework/debug"
	"github.com/annsts/underlay/pkg/transport"
)

// Session owns the single transport shared by the UI's producer and the
// plugin's processors. Create one per plugin instance.
type Session struct {
	mu        sync.Mutex
	cfg       Config
	queue     transport.Transport
	converter *transport.RateConverter
	logger    *debug.Logger
}

var _ Plugin = (*Session)(nil)

// NewSession validates cfg and builds the transport: a Ring when
// cfg.LockFree is set, a Buffer otherwise, behind a RateConverter at
// cfg.SampleRate.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	logger := cfg.logger()
	queue := newQueue(cfg)

	s := &Session{
		cfg:       cfg,
		queue:     queue,
		converter: transport.NewRateConverter(queue, int(cfg.SampleRate), logger),
		logger:    logger,
	}
	s.logQueue("session started", cfg)
	return s, nil
}

func newQueue(cfg Config) transport.Transport {
	if cfg.LockFree {
		return transport.NewRing(cfg.Limits())
	}
	return transport.NewBuffer(cfg.Limits())
}

func (s *Session) logQueue(msg string, cfg Config) {
	kind := "buffer"
	if cfg.LockFree {
		kind = "ring"
	}
	limits := cfg.Limits()
	s.logger.Info("%s: %s transport at %.0f Hz, capacity %d samples, reclaim after %d",
		msg, kind, cfg.SampleRate, limits.Capacity, limits.ReclaimThreshold)
}

// Config returns the session's configuration. SampleRate is the rate last
// negotiated by a processor.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetSampleRate moves the transport to a newly negotiated host rate. Limits
// are resized for the rate and the converter delivers at it; queued audio
// is dropped. A rate equal to the current one is a no-op. It must not run
// while a processor is pulling.
func (s *Session) SetSampleRate(sampleRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sampleRate == s.cfg.SampleRate {
		return nil
	}
	cfg := s.cfg
	cfg.SampleRate = sampleRate
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("set sample rate: %w", err)
	}

	queue := newQueue(cfg)
	s.converter.Retarget(queue, int(sampleRate))
	s.queue = queue
	s.cfg = cfg
	s.logQueue("sample rate changed", cfg)
	return nil
}

// Producer is the side handed to the UI's audio generation.
func (s *Session) Producer() transport.Producer {
	return s.converter
}

// Transport returns the full shared transport, rate conversion included.
func (s *Session) Transport() transport.Transport {
	return s.converter
}

// NewProcessor creates a processor pulling from the session's transport.
// Its Initialize moves the session to the negotiated rate.
func (s *Session) NewProcessor() *UnderlayProcessor {
	p := NewProcessor(s.converter, s.Config())
	p.setup = s.SetSampleRate
	return p
}

// CreateProcessor implements Plugin.
func (s *Session) CreateProcessor() Processor {
	return s.NewProcessor()
}

// GetInfo implements Plugin.
func (s *Session) GetInfo() Info {
	return DefaultInfo()
}

// Stats returns the transport's health counters.
func (s *Session) Stats() transport.Stats {
	return s.converter.Stats()
}

// Stop drops queued audio, as when the UI stops playback.
func (s *Session) Stop() {
	dropped := s.converter.Available()
	s.converter.Clear()
	s.logger.Debug("transport cleared, %d queued samples dropped", dropped)
}
