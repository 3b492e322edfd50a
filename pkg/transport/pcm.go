package transport

import (
	"github.com/go-audio/audio"
)

// PCMWriter feeds interleaved PCM into a Producer. It deinterleaves into
// reusable scratch buffers, duplicates mono into both channels and ignores
// channels beyond the stereo pair.
type PCMWriter struct {
	dst   Producer
	left  []float32
	right []float32
}

// NewPCMWriter creates a writer that pushes into dst.
func NewPCMWriter(dst Producer) *PCMWriter {
	return &PCMWriter{dst: dst}
}

// WriteFloat32 pushes a go-audio float buffer and returns the number of
// frames pushed.
func (w *PCMWriter) WriteFloat32(buf *audio.Float32Buffer) int {
	if buf == nil || buf.Format == nil {
		return 0
	}
	return w.WriteInterleaved(buf.Data, buf.Format.NumChannels, buf.Format.SampleRate)
}

// WriteInt pushes a go-audio integer buffer, normalizing by its source bit
// depth (16-bit when unset), and returns the number of frames pushed.
func (w *PCMWriter) WriteInt(buf *audio.IntBuffer) int {
	if buf == nil || buf.Format == nil {
		return 0
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return 0
	}
	scale := 1 / fullScale(buf.SourceBitDepth)
	frames := len(buf.Data) / channels
	w.grow(frames)

	for f := 0; f < frames; f++ {
		base := f * channels
		l := float32(buf.Data[base]) * scale
		r := l
		if channels > 1 {
			r = float32(buf.Data[base+1]) * scale
		}
		w.left[f] = l
		w.right[f] = r
	}

	w.dst.Push(w.left, w.right, frames, buf.Format.SampleRate)
	return frames
}

// WriteInterleaved pushes interleaved float samples and returns the number
// of frames pushed.
func (w *PCMWriter) WriteInterleaved(samples []float32, channels, sampleRate int) int {
	if channels <= 0 {
		return 0
	}

	frames := len(samples) / channels
	w.grow(frames)

	for f := 0; f < frames; f++ {
		base := f * channels
		w.left[f] = samples[base]
		if channels > 1 {
			w.right[f] = samples[base+1]
		} else {
			w.right[f] = samples[base]
		}
	}

	w.dst.Push(w.left, w.right, frames, sampleRate)
	return frames
}

func (w *PCMWriter) grow(frames int) {
	if cap(w.left) < frames {
		w.left = make([]float32, frames)
		w.right = make([]float32, frames)
	}
	w.left = w.left[:frames]
	w.right = w.right[:frames]
}

// fullScale returns the magnitude of the most negative sample at bitDepth.
func fullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
