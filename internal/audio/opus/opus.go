// Package opus decodes Ogg Opus files through libopus.
package opus

import (
	"errors"
	"io"

	popus "github.com/pekim/opus"

	"jarvis/internal/audio"
)

// Rate is the decoder's fixed output rate.
const Rate = 48000

// Decode satisfies audio.OggDecoder.
func Decode(r io.ReadSeeker) ([]float32, int, int, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, err
	}
	defer dec.Destroy()

	ch := max(1, dec.ChannelCount())
	buf := make([]int16, Rate*ch/2)

	var pcm []float32
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, audio.Int16ToFloat32(buf[:n*ch])...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
	}
	return pcm, Rate, ch, nil
}

var _ audio.OggDecoder = Decode
