// Package mock provides mocks for receiver collaborators and allows to
// execute pipeline tests without hardware.
package mock

import (
	"io"
	"sync"
	"time"
)

// Device mocks a softfm.Device interface.
type Device struct {
	counter
	Interval  time.Duration
	Limit     int // Number of blocks before io.EOF.
	Endless   bool
	BlockSize int
	Value     complex64

	ErrorOnCall      error
	ErrorOnConfigure error

	Configured bool
	Rate       float64
	Freq       float64
	Gain       int
}

// Configure implements softfm.Device.
func (m *Device) Configure(sampleRate, frequency float64, gain int) error {
	if m.ErrorOnConfigure != nil {
		return m.ErrorOnConfigure
	}
	m.Configured = true
	m.Rate, m.Freq, m.Gain = sampleRate, frequency, gain
	return nil
}

// Frequency implements softfm.Device.
func (m *Device) Frequency() float64 {
	return m.Freq
}

// SampleRate implements softfm.Device.
func (m *Device) SampleRate() float64 {
	return m.Rate
}

// Fetch returns a new block filled with Value.
func (m *Device) Fetch() ([]complex64, error) {
	if m.ErrorOnCall != nil {
		return nil, m.ErrorOnCall
	}
	if n, _ := m.Count(); !m.Endless && n >= m.Limit {
		return nil, io.EOF
	}
	time.Sleep(m.Interval)

	b := make([]complex64, m.BlockSize)
	for i := range b {
		b[i] = m.Value
	}
	m.advance(len(b))
	return b, nil
}

// Demodulator mocks a softfm.Demodulator interface. Each processed block
// produces Size samples of Value, or as many samples as the input block
// has if Size is zero.
type Demodulator struct {
	counter
	Size  int
	Value float64
	// Stereo is the sequence of lock states reported after each block.
	// The last state is repeated once the sequence is exhausted.
	Stereo []bool

	Offset   float64
	IF       float64
	Baseband float64
	Pilot    float64

	stereo bool
}

// Process implements softfm.Demodulator.
func (m *Demodulator) Process(in []complex64) []float64 {
	size := m.Size
	if size == 0 {
		size = len(in)
	}
	if n, _ := m.Count(); n < len(m.Stereo) {
		m.stereo = m.Stereo[n]
	}
	out := make([]float64, size)
	for i := range out {
		out[i] = m.Value
	}
	m.advance(len(in))
	return out
}

// TuningOffset implements softfm.Demodulator.
func (m *Demodulator) TuningOffset() float64 {
	return m.Offset
}

// IFLevel implements softfm.Demodulator.
func (m *Demodulator) IFLevel() float64 {
	return m.IF
}

// BasebandLevel implements softfm.Demodulator.
func (m *Demodulator) BasebandLevel() float64 {
	return m.Baseband
}

// StereoDetected implements softfm.Demodulator.
func (m *Demodulator) StereoDetected() bool {
	return m.stereo
}

// PilotLevel implements softfm.Demodulator.
func (m *Demodulator) PilotLevel() float64 {
	return m.Pilot
}

// Sink mocks up a softfm.Sink interface.
type Sink struct {
	counter
	buffer       []float64
	Interval     time.Duration
	Discard      bool
	ErrorOnCall  error
	ErrorOnClose error
	Closed       bool
	err          error
}

// Write implements softfm.Sink.
func (m *Sink) Write(b []float64) error {
	time.Sleep(m.Interval)
	if m.ErrorOnCall != nil {
		if m.err == nil {
			m.err = m.ErrorOnCall
		}
		return m.ErrorOnCall
	}
	m.Lock()
	if !m.Discard {
		m.buffer = append(m.buffer, b...)
	}
	m.Unlock()
	m.advance(len(b))
	return nil
}

// Err implements softfm.Sink.
func (m *Sink) Err() error {
	return m.err
}

// Close implements softfm.Sink.
func (m *Sink) Close() error {
	m.Closed = true
	return m.ErrorOnClose
}

// Buffer returns a copy of the samples written to the sink.
func (m *Sink) Buffer() []float64 {
	m.Lock()
	defer m.Unlock()
	return append([]float64(nil), m.buffer...)
}

// counter counts messages and samples. It's safe to read counts while
// the mock is in use.
type counter struct {
	sync.Mutex
	messages int
	samples  int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.Lock()
	defer c.Unlock()
	c.messages++
	c.samples = c.samples + size
}

// Count returns messages and samples metrics.
func (c *counter) Count() (int, int) {
	c.Lock()
	defer c.Unlock()
	return c.messages, c.samples
}
