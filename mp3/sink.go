// Package mp3 provides a sink that encodes audio to mp3 file with lame.
package mp3

import (
	"os"

	"github.com/viert/lame"

	"github.com/pipelined/softfm/signal"
)

// Default encoder settings.
const (
	DefaultBitRate = 192
	DefaultQuality = 2
)

// Sink allows to send data to mp3 files.
type Sink struct {
	f   *os.File
	wr  *lame.LameWriter
	buf []byte
	err error
}

// NewSink creates the file and sets up the encoder.
func NewSink(path string, sampleRate, numChannels, bitRate, quality int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	wr := lame.NewWriter(f)
	wr.Encoder.SetBitrate(bitRate)
	wr.Encoder.SetQuality(quality)
	wr.Encoder.SetNumChannels(numChannels)
	wr.Encoder.SetInSamplerate(sampleRate)
	if numChannels > 1 {
		wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()

	return &Sink{
		f:  f,
		wr: wr,
	}, nil
}

// Write encodes interleaved samples.
func (s *Sink) Write(b []float64) error {
	s.buf = signal.Float64(b).AppendInt16LE(s.buf[:0])
	if _, err := s.wr.Write(s.buf); err != nil {
		if s.err == nil {
			s.err = err
		}
		return err
	}
	return nil
}

// Err returns the first write error.
func (s *Sink) Err() error {
	return s.err
}

// Close flushes the encoder and closes the file.
func (s *Sink) Close() error {
	err := s.wr.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
