package midi

import (
	"sort"
	"sync"
)

// Schedule holds events at absolute sample positions on a timeline and hands
// them out one host block at a time, with offsets relative to the block.
type Schedule struct {
	mu      sync.Mutex
	entries []scheduled
	sorted  bool
}

type scheduled struct {
	at    int64
	event Event
}

func NewSchedule() *Schedule {
	return &Schedule{
		entries: make([]scheduled, 0, 128),
		sorted:  true,
	}
}

// Add schedules event at absolute sample position at. The event's own offset
// is ignored.
func (s *Schedule) Add(at int64, event Event) {
	if at < 0 {
		at = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, scheduled{at: at, event: event})
	s.sorted = false
}

// Block appends to dst the events in [start, start+numSamples), re-based to
// offsets within the block, removes them from the schedule and returns the
// extended slice. Events already behind start are delivered at offset 0.
func (s *Schedule) Block(dst []Event, start int64, numSamples int) []Event {
	if numSamples <= 0 {
		return dst
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sorted {
		s.sortEntries()
	}

	end := start + int64(numSamples)
	n := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].at >= end
	})

	for _, e := range s.entries[:n] {
		offset := e.at - start
		if offset < 0 {
			offset = 0
		}
		dst = append(dst, WithOffset(e.event, int32(offset)))
	}

	if n > 0 {
		kept := copy(s.entries, s.entries[n:])
		s.entries = s.entries[:kept]
	}
	return dst
}

func (s *Schedule) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.sorted = true
}

func (s *Schedule) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Schedule) sortEntries() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].at < s.entries[j].at
	})
	s.sorted = true
}
