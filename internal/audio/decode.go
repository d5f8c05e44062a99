package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

var ErrUnsupported = errors.New("unsupported audio format")

// OggDecoder decodes an Ogg stream that is not Vorbis. It returns
// interleaved samples in [-1, 1].
type OggDecoder func(r io.ReadSeeker) (pcm []float32, rate, channels int, err error)

type DecodeOptions struct {
	// MaxSamples truncates the result when positive.
	MaxSamples int
	// Opus handles Ogg files that fail to decode as Vorbis.
	Opus OggDecoder
}

// DecodeFile reads a wav, mp3 or ogg file as mono 16 kHz PCM.
func DecodeFile(path string, opt DecodeOptions) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcm, err := Decode(f, strings.ToLower(filepath.Ext(path)), opt)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return pcm, nil
}

// Decode picks the codec from ext, sniffing the header when ext is unknown.
func Decode(r io.ReadSeeker, ext string, opt DecodeOptions) ([]float32, error) {
	var (
		pcm []float32
		err error
	)

	switch ext {
	case ".wav":
		pcm, err = decodeWAV(r)
	case ".mp3":
		pcm, err = decodeMP3(r)
	case ".ogg", ".oga", ".opus":
		pcm, err = decodeOgg(r, opt.Opus)
	default:
		magic, _ := bufio.NewReader(r).Peek(4)
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		switch string(magic) {
		case "RIFF":
			pcm, err = decodeWAV(r)
		case "OggS":
			pcm, err = decodeOgg(r, opt.Opus)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
		}
	}
	if err != nil {
		return nil, err
	}

	if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
		pcm = pcm[:opt.MaxSamples]
	}
	return pcm, nil
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	ch, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			ch = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}
	return toMono16k(intsToFloat32(buf.Data, depth), rate, ch), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("read mp3: %w", err)
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, fmt.Errorf("read mp3: %w", err)
	}

	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, err
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always produces interleaved stereo.
	return toMono16k(Int16ToFloat32(ints), rate, 2), nil
}

func decodeOgg(r io.ReadSeeker, opus OggDecoder) ([]float32, error) {
	pcm, format, vorbisErr := oggvorbis.ReadAll(r)
	if vorbisErr == nil && format != nil && format.Channels > 0 && format.SampleRate > 0 {
		return toMono16k(pcm, format.SampleRate, format.Channels), nil
	}
	if vorbisErr == nil {
		vorbisErr = errors.New("invalid vorbis stream")
	}
	if opus == nil {
		return nil, fmt.Errorf("read ogg: %w", vorbisErr)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	pcm, rate, ch, err := opus(r)
	if err != nil {
		return nil, fmt.Errorf("read ogg as vorbis (%v) or opus: %w", vorbisErr, err)
	}
	return toMono16k(pcm, rate, ch), nil
}

func toMono16k(x []float32, rate, channels int) []float32 {
	return Resample(Downmix(x, channels), rate, SampleRate)
}

func intsToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(max(-1, min(1, float64(v)*scale)))
	}
	return out
}

func Int16ToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	const scale = 1.0 / 32768.0
	for i, v := range data {
		out[i] = float32(float64(v) * scale)
	}
	return out
}

// Downmix averages interleaved channels into one.
func Downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	n := len(in) / channels
	out := make([]float32, n)
	for i := range n {
		var sum float64
		for c := range channels {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// Resample converts between rates with linear interpolation.
func Resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	for i := range n {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i0+1]*a
	}
	return out
}
