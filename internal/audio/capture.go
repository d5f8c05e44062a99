// Package audio captures and decodes mono 16 kHz float32 PCM, the format
// the transcriber expects.
package audio

import (
	"context"
	"errors"
	"math"
	"time"
)

const SampleRate = 16000

var ErrNoAudio = errors.New("no audio recorded")

// Stream fills buf with the next frame of input.
type Stream interface {
	Read(buf []float32) error
}

// VAD configures energy based end-of-speech detection.
type VAD struct {
	// FrameSize is in samples.
	FrameSize int
	// Threshold is the frame RMS above which a frame counts as speech.
	Threshold float64
	// Silence ends the recording once speech has started.
	Silence time.Duration
	// Onset gives up when no speech starts within it. Zero waits until
	// MaxLength.
	Onset     time.Duration
	MaxLength time.Duration
}

func DefaultVAD() VAD {
	return VAD{
		FrameSize: 320, // 20ms
		Threshold: 0.015,
		Silence:   600 * time.Millisecond,
		Onset:     5 * time.Second,
		MaxLength: 10 * time.Second,
	}
}

func frameDuration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / SampleRate
}

// RecordUtterance reads frames until trailing silence follows speech. It
// returns nil without error when nobody spoke.
func RecordUtterance(ctx context.Context, s Stream, v VAD) ([]float32, error) {
	if v.FrameSize <= 0 {
		v.FrameSize = DefaultVAD().FrameSize
	}
	frame := frameDuration(v.FrameSize)

	buf := make([]float32, v.FrameSize)
	out := make([]float32, 0, SampleRate*3)

	var (
		speaking bool
		silent   time.Duration
		elapsed  time.Duration
	)

	for elapsed < v.MaxLength {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.Read(buf); err != nil {
			return nil, err
		}
		elapsed += frame

		if RMS(buf) > v.Threshold {
			speaking = true
			silent = 0
			out = append(out, buf...)
			continue
		}

		if !speaking {
			if v.Onset > 0 && elapsed >= v.Onset {
				return nil, nil
			}
			continue
		}

		silent += frame
		out = append(out, buf...)
		if silent >= v.Silence {
			break
		}
	}

	if !speaking {
		return nil, nil
	}
	return out, nil
}

// RecordFor reads for d or until stop is closed, whichever comes first.
func RecordFor(ctx context.Context, s Stream, frameSize int, d time.Duration, stop <-chan struct{}) ([]float32, error) {
	if frameSize <= 0 {
		frameSize = 1024
	}
	buf := make([]float32, frameSize)
	out := make([]float32, 0, int(float64(SampleRate)*d.Seconds()))

	for elapsed := time.Duration(0); elapsed < d; elapsed += frameDuration(frameSize) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stop:
			return out, nil
		default:
		}

		if err := s.Read(buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

func RMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
