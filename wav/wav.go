// Package wav provides a sink that saves audio to a wav file.
package wav

import (
	"errors"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/softfm/signal"
)

// pcmFormat is the wav format tag of integer PCM.
const pcmFormat = 1

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

// Sink saves interleaved audio to a wav file. The header is finalized on
// Close.
type Sink struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
	buf      *audio.IntBuffer
	err      error
}

// NewSink creates the wav file and returns a sink that writes to it.
func NewSink(path string, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Sink, error) {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, int(bitDepth), numChannels, pcmFormat),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write encodes the samples into the file. After the first failure all
// writes return the same error.
func (s *Sink) Write(b []float64) error {
	if s.err != nil {
		return s.err
	}
	s.buf.Data = signal.Float64(b).AsInterInt(s.bitDepth)
	if err := s.encoder.Write(s.buf); err != nil {
		s.err = err
		return err
	}
	return nil
}

// Err returns the first write error.
func (s *Sink) Err() error {
	return s.err
}

// Close finalizes the wav header and closes the file.
func (s *Sink) Close() error {
	err := s.encoder.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
