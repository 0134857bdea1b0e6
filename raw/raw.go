// Package raw provides a sink that writes headerless signed 16-bit little
// endian samples.
package raw

import (
	"io"
	"os"

	"github.com/pipelined/softfm/signal"
)

// Stdout is the file name that selects standard output.
const Stdout = "-"

// Sink writes interleaved samples as S16_LE.
type Sink struct {
	w   io.Writer
	c   io.Closer
	buf []byte
	err error
}

// NewSink returns a sink that writes to w. Closing the sink doesn't close
// the writer.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Create creates the file and returns a sink that writes to it. Stdout
// file name selects standard output.
func Create(path string) (*Sink, error) {
	if path == Stdout {
		return NewSink(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{w: f, c: f}, nil
}

// Write converts the samples and writes them.
func (s *Sink) Write(b []float64) error {
	s.buf = signal.Float64(b).AppendInt16LE(s.buf[:0])
	if _, err := s.w.Write(s.buf); err != nil {
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

// Close closes the file if the sink created it.
func (s *Sink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
