// Package mic records from the default input device with portaudio.
package mic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"jarvis/internal/audio"
)

// Recorder owns the portaudio session. Only one recording runs at a time.
type Recorder struct {
	mu sync.Mutex
}

func Open() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	return &Recorder{}, nil
}

func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

type stream struct {
	s   *portaudio.Stream
	buf []float32
}

func (s *stream) Read(buf []float32) error {
	if err := s.s.Read(); err != nil {
		return err
	}
	copy(buf, s.buf)
	return nil
}

func (r *Recorder) open(frameSize int) (*stream, func(), error) {
	buf := make([]float32, frameSize)
	s, err := portaudio.OpenDefaultStream(1, 0, audio.SampleRate, frameSize, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := s.Start(); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("start input stream: %w", err)
	}
	return &stream{s: s, buf: buf}, func() {
		s.Stop()
		s.Close()
	}, nil
}

// Record captures one utterance, ending on trailing silence.
func (r *Recorder) Record(ctx context.Context, v audio.VAD) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.FrameSize <= 0 {
		v.FrameSize = audio.DefaultVAD().FrameSize
	}
	s, done, err := r.open(v.FrameSize)
	if err != nil {
		return nil, err
	}
	defer done()

	return audio.RecordUtterance(ctx, s, v)
}

// RecordFor captures a fixed window.
func (r *Recorder) RecordFor(ctx context.Context, d time.Duration) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	const frameSize = 1024
	s, done, err := r.open(frameSize)
	if err != nil {
		return nil, err
	}
	defer done()

	return audio.RecordFor(ctx, s, frameSize, d, nil)
}
