package debug

import (
	"strings"
	"testing"
	"time"
)

func TestProfiler(t *testing.T) {
	t.Run("BasicProfiling", func(t *testing.T) {
		p := NewProfiler(100)

		stop := p.Start("test")
		time.Sleep(10 * time.Millisecond)
		stop()

		m, exists := p.Measurement("test")
		if !exists {
			t.Fatal("Measurement not found")
		}
		if m.Count() != 1 {
			t.Errorf("Expected count 1, got %d", m.Count())
		}
		if m.Max() < 10*time.Millisecond {
			t.Error("Timing seems too short")
		}
	})

	t.Run("MultipleRuns", func(t *testing.T) {
		p := NewProfiler(100)

		for i := 0; i < 5; i++ {
			p.Time("multi", func() { time.Sleep(time.Millisecond) })
		}

		m, _ := p.Measurement("multi")
		if m.Count() != 5 {
			t.Errorf("Expected count 5, got %d", m.Count())
		}
		if avg := m.Average(); avg > m.Max() {
			t.Errorf("Average %v exceeds max %v", avg, m.Max())
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		p := NewProfiler(100)
		p.SetEnabled(false)

		p.Start("ignored")()

		if _, exists := p.Measurement("ignored"); exists {
			t.Error("Disabled profiler recorded a measurement")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		p := NewProfiler(100)
		p.Start("a")()
		p.Reset()

		if report := p.Report(); !strings.Contains(report, "No measurements") {
			t.Errorf("Expected empty report, got %q", report)
		}
	})
}

func TestMeasurementPercentile(t *testing.T) {
	p := NewProfiler(4)
	for _, d := range []time.Duration{40, 10, 30, 20, 50} {
		p.record("pull", d)
	}

	// The ring keeps the last four timings: 50, 10, 30, 20.
	m, _ := p.Measurement("pull")
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 10},
		{50, 20},
		{100, 50},
	}
	for _, tt := range tests {
		if got := m.Percentile(tt.p); got != tt.want {
			t.Errorf("Percentile(%v): expected %v, got %v", tt.p, tt.want, got)
		}
	}
	if m.Count() != 5 {
		t.Errorf("Expected count 5, got %d", m.Count())
	}
}

func TestBlockProfiler(t *testing.T) {
	b := NewBlockProfiler("pull", 48000, 480)

	// 480 samples at 48 kHz is a 10ms budget.
	b.record("pull", 5*time.Millisecond)
	b.record("pull", 3*time.Millisecond)

	if load := b.Load(); load < 39.9 || load > 40.1 {
		t.Errorf("Expected load 40%%, got %.2f", load)
	}

	report := b.BlockReport()
	if !strings.Contains(report, "pull: count=2") || !strings.Contains(report, "load=40.00%") {
		t.Errorf("Unexpected report:\n%s", report)
	}
}

func BenchmarkProfilerStart(b *testing.B) {
	p := NewProfiler(1000)
	for i := 0; i < b.N; i++ {
		p.Start("bench")()
	}
}
