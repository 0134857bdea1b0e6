// Package iqfile provides a device that replays IQ captures in the
// unsigned 8-bit interleaved format written by rtl_sdr.
package iqfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/pipelined/softfm/signal"
)

// DefaultBlockLength is the number of IQ samples returned by a single
// fetch.
const DefaultBlockLength = 65536

// Stdin is the file name that selects standard input.
const Stdin = "-"

// Device reads IQ samples from a capture. Its frequency and sample rate
// are whatever it was configured with, the capture is assumed to match.
type Device struct {
	r           io.Reader
	c           io.Closer
	blockLength int
	realtime    bool
	limiter     *rate.Limiter

	sampleRate float64
	frequency  float64
	gain       int
	buf        []byte
}

// Option configures the device.
type Option func(*Device)

// WithBlockLength sets the number of samples per fetch.
func WithBlockLength(n int) Option {
	return func(d *Device) {
		d.blockLength = n
	}
}

// WithRealtime paces fetches to the configured sample rate, as if the
// samples were coming from a tuner.
func WithRealtime() Option {
	return func(d *Device) {
		d.realtime = true
	}
}

// New returns a device that reads from r.
func New(r io.Reader, options ...Option) *Device {
	d := &Device{
		r:           r,
		blockLength: DefaultBlockLength,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Open opens the capture file. Stdin file name selects standard input.
func Open(path string, options ...Option) (*Device, error) {
	if path == Stdin {
		return New(os.Stdin, options...), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d := New(f, options...)
	d.c = f
	return d, nil
}

// Configure implements softfm.Device.
func (d *Device) Configure(sampleRate, frequency float64, gain int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if d.blockLength <= 0 {
		return fmt.Errorf("invalid block length %d", d.blockLength)
	}
	d.sampleRate, d.frequency, d.gain = sampleRate, frequency, gain
	if d.realtime {
		d.limiter = rate.NewLimiter(rate.Limit(sampleRate), d.blockLength)
	}
	return nil
}

// Frequency implements softfm.Device.
func (d *Device) Frequency() float64 {
	return d.frequency
}

// SampleRate implements softfm.Device.
func (d *Device) SampleRate() float64 {
	return d.sampleRate
}

// Fetch reads the next block. The last block of a capture may be
// shorter. It returns io.EOF when the capture is over.
func (d *Device) Fetch() ([]complex64, error) {
	if cap(d.buf) < 2*d.blockLength {
		d.buf = make([]byte, 2*d.blockLength)
	}
	n, err := io.ReadFull(d.r, d.buf[:2*d.blockLength])
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n < 2 {
			return nil, io.EOF
		}
	case err != nil:
		return nil, err
	}
	samples := signal.Uint8IQ(d.buf[:n]).AsComplex64()
	if d.limiter != nil {
		if err := d.limiter.WaitN(context.Background(), len(samples)); err != nil {
			return nil, err
		}
	}
	return samples, nil
}

// Close closes the capture file if the device opened it.
func (d *Device) Close() error {
	if d.c == nil {
		return nil
	}
	return d.c.Close()
}
