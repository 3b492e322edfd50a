package debug

import (
	"math"
	"strings"
	"testing"
)

func TestAudioAnalyzer(t *testing.T) {
	t.Run("BasicAnalysis", func(t *testing.T) {
		analyzer := NewAudioAnalyzer()

		// Sine wave at 440Hz, 48kHz sample rate
		buffer := make([]float32, 1000)
		for i := range buffer {
			buffer[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
		}

		result := analyzer.Analyze(buffer)

		if result.Peak < 0.49 || result.Peak > 0.51 {
			t.Errorf("Peak incorrect: %f", result.Peak)
		}
		expectedRMS := 0.5 / math.Sqrt(2)
		if math.Abs(float64(result.RMS)-expectedRMS) > 0.01 {
			t.Errorf("RMS incorrect: %f, expected ~%f", result.RMS, expectedRMS)
		}
		if result.ZeroCrossings == 0 {
			t.Error("No zero crossings detected")
		}
		if result.Silent {
			t.Error("Should not be silent")
		}
	})

	t.Run("Clipping", func(t *testing.T) {
		result := NewAudioAnalyzer().Analyze([]float32{0.5, 0.99, 1.0, -0.99, -1.0, 0.5})

		if !result.Clipping {
			t.Error("Should detect clipping")
		}
		if result.ClippedSamples != 4 {
			t.Errorf("Wrong clipped sample count: %d", result.ClippedSamples)
		}
	})

	t.Run("Silence", func(t *testing.T) {
		result := NewAudioAnalyzer().Analyze(make([]float32, 100))

		if !result.Silent {
			t.Error("Should detect silence")
		}
		if result.Peak != 0 {
			t.Error("Peak should be 0")
		}
	})

	t.Run("NaN", func(t *testing.T) {
		nan := float32(math.NaN())
		result := NewAudioAnalyzer().Analyze([]float32{0.5, nan, 0.5, nan})

		if !result.HasNaN || result.NaNCount != 2 {
			t.Errorf("Expected 2 NaN values, got %d", result.NaNCount)
		}
		if math.Abs(float64(result.RMS)-0.5) > 1e-6 {
			t.Errorf("Expected NaN to be excluded from RMS, got %f", result.RMS)
		}
	})
}

func TestAudioAnalyzerCheck(t *testing.T) {
	analyzer := NewAudioAnalyzer()

	if issues := analyzer.Check([]float32{0.1, -0.1, 0.1, -0.1}, "clean"); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}

	issues := analyzer.Check([]float32{1.5, 1.5, 1.5}, "hot")
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"hot: clipping", "hot: DC offset", "hot: peak exceeds"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Missing %q in %v", want, issues)
		}
	}
}

func TestMeter(t *testing.T) {
	m := NewMeter(nil)

	m.Add(make([]float32, 4))
	m.Add([]float32{0.5, -0.5, 0.5, -0.5})
	m.Add([]float32{1, -1, 1, -1})

	s := m.Summary()
	if s.Blocks != 3 || s.SilentBlocks != 1 {
		t.Errorf("Expected 3 blocks with 1 silent, got %+v", s)
	}
	if s.Samples != 12 {
		t.Errorf("Expected 12 samples, got %d", s.Samples)
	}
	if s.Peak != 1 {
		t.Errorf("Expected peak 1, got %f", s.Peak)
	}
	// sqrt((0 + 4*0.25 + 4*1) / 12)
	want := math.Sqrt(5.0 / 12.0)
	if math.Abs(float64(s.RMS)-want) > 1e-6 {
		t.Errorf("Expected RMS %f, got %f", want, s.RMS)
	}
	if s.ClippedSamples != 4 {
		t.Errorf("Expected 4 clipped samples, got %d", s.ClippedSamples)
	}
	if !strings.Contains(s.String(), "blocks=3 silent=1") {
		t.Errorf("Unexpected summary string %q", s.String())
	}
}
