package softfm_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pipelined/softfm"
	"github.com/pipelined/softfm/metric"
	"github.com/pipelined/softfm/mock"
)

const (
	blockSize  = 64
	audioSize  = 16
	sampleRate = 1e6
	pcmRate    = 48000
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newDevice(limit int) *mock.Device {
	return &mock.Device{
		Limit:     limit,
		BlockSize: blockSize,
		Value:     1 + 1i,
		Rate:      sampleRate,
		Freq:      100e6,
	}
}

// messages returns log messages of provided level.
func messages(hook *logtest.Hook, level logrus.Level) []string {
	var result []string
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			result = append(result, e.Message)
		}
	}
	return result
}

func TestPipeline(t *testing.T) {
	tests := []struct {
		description string
		blocks      int
		buffer      int
		expected    int
	}{
		{
			description: "direct",
			blocks:      10,
			expected:    9,
		},
		{
			description: "buffered",
			blocks:      10,
			buffer:      audioSize * 2,
			expected:    9,
		},
		{
			description: "buffer larger than stream",
			blocks:      10,
			buffer:      pcmRate,
			expected:    9,
		},
		{
			description: "single block direct",
			blocks:      1,
		},
		{
			description: "single block buffered",
			blocks:      1,
			buffer:      audioSize,
		},
		{
			description: "empty device",
			blocks:      0,
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			logger, _ := logtest.NewNullLogger()
			device := newDevice(test.blocks)
			demod := &mock.Demodulator{Size: audioSize, Value: 0.2}
			sink := &mock.Sink{}
			p := softfm.New(device, demod, sink,
				softfm.WithBuffer(test.buffer),
				softfm.WithFormat(pcmRate, 1),
				softfm.WithLogger(logger),
				softfm.WithStatus(io.Discard),
			)
			assert.Equal(t, test.buffer > 0, p.Buffered())

			err := p.Run(context.Background())
			require.NoError(t, err)

			messages, samples := sink.Count()
			assert.Equal(t, test.expected, messages)
			assert.Equal(t, test.expected*audioSize, samples)
			for _, v := range sink.Buffer() {
				assert.InDelta(t, 0.2*softfm.Gain, v, 1e-12)
			}
			assert.True(t, sink.Closed)

			processed, _ := demod.Count()
			assert.Equal(t, test.blocks, processed)
		})
	}
}

func TestStereoEdges(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	demod := &mock.Demodulator{
		Size:   audioSize,
		Stereo: []bool{true, false, true},
		Pilot:  0.01,
	}
	p := softfm.New(newDevice(3), demod, &mock.Sink{Discard: true},
		softfm.WithLogger(logger),
		softfm.WithStatus(io.Discard),
	)
	require.NoError(t, p.Run(context.Background()))

	var edges []string
	for _, e := range hook.AllEntries() {
		if e.Message == "lost stereo signal" || e.Message == "got stereo signal" {
			edges = append(edges, e.Message)
		}
	}
	assert.Equal(t, []string{"lost stereo signal", "got stereo signal"}, edges)
}

func TestDeviceFailure(t *testing.T) {
	errDevice := errors.New("usb transfer failed")
	logger, hook := logtest.NewNullLogger()
	var exitCode int
	logger.ExitFunc = func(code int) {
		exitCode = code
	}
	device := newDevice(10)
	device.ErrorOnCall = errDevice
	sink := &mock.Sink{}
	p := softfm.New(device, &mock.Demodulator{}, sink,
		softfm.WithLogger(logger),
		softfm.WithStatus(io.Discard),
	)

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, softfm.ErrDevice)
	assert.ErrorIs(t, err, errDevice)
	assert.Equal(t, 1, exitCode)
	assert.Equal(t, []string{"acquisition failed"}, messages(hook, logrus.FatalLevel))
	messages, _ := sink.Count()
	assert.Equal(t, 0, messages)
}

func TestSinkFailure(t *testing.T) {
	errSink := errors.New("disk full")
	tests := []struct {
		description string
		buffer      int
	}{
		{description: "direct"},
		{description: "buffered", buffer: audioSize},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			logger, hook := logtest.NewNullLogger()
			demod := &mock.Demodulator{Size: audioSize}
			sink := &mock.Sink{ErrorOnCall: errSink}
			p := softfm.New(newDevice(5), demod, sink,
				softfm.WithBuffer(test.buffer),
				softfm.WithLogger(logger),
				softfm.WithStatus(io.Discard),
			)
			require.NoError(t, p.Run(context.Background()))

			processed, _ := demod.Count()
			assert.Equal(t, 5, processed)
			assert.Len(t, messages(hook, logrus.ErrorLevel), 4)
			assert.ErrorIs(t, sink.Err(), errSink)
		})
	}
}

func TestSinkCloseFailure(t *testing.T) {
	errClose := errors.New("close failed")
	logger, _ := logtest.NewNullLogger()
	sink := &mock.Sink{ErrorOnClose: errClose}
	p := softfm.New(newDevice(2), &mock.Demodulator{}, sink,
		softfm.WithLogger(logger),
		softfm.WithStatus(io.Discard),
	)
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, softfm.ErrSink)
	assert.ErrorIs(t, err, errClose)
}

func TestStop(t *testing.T) {
	tests := []struct {
		description string
		buffer      int
		stop        func(cancel context.CancelFunc, s *softfm.Stop)
	}{
		{
			description: "token direct",
			stop:        func(_ context.CancelFunc, s *softfm.Stop) { s.Request() },
		},
		{
			description: "token buffered",
			buffer:      audioSize * 4,
			stop:        func(_ context.CancelFunc, s *softfm.Stop) { s.Request() },
		},
		{
			description: "token buffered never filled",
			buffer:      pcmRate,
			stop:        func(_ context.CancelFunc, s *softfm.Stop) { s.Request() },
		},
		{
			description: "context",
			buffer:      audioSize * 4,
			stop:        func(cancel context.CancelFunc, _ *softfm.Stop) { cancel() },
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			logger, _ := logtest.NewNullLogger()
			device := newDevice(0)
			device.Endless = true
			device.Interval = time.Millisecond
			sink := &mock.Sink{Discard: true}
			stop := &softfm.Stop{}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			demod := &mock.Demodulator{Size: audioSize}
			p := softfm.New(device, demod, sink,
				softfm.WithStop(stop),
				softfm.WithBuffer(test.buffer),
				softfm.WithLogger(logger),
				softfm.WithStatus(io.Discard),
			)

			done := make(chan error)
			go func() {
				done <- p.Run(ctx)
			}()
			time.Sleep(50 * time.Millisecond)
			test.stop(cancel, stop)

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("pipeline did not stop")
			}
			assert.True(t, stop.Requested())
			assert.True(t, sink.Closed)
			fetched, _ := device.Count()
			assert.Greater(t, fetched, 0)

			// every demodulated block but the first reaches the sink.
			processed, _ := demod.Count()
			require.Greater(t, processed, 1)
			written, samples := sink.Count()
			assert.Equal(t, processed-1, written)
			assert.Equal(t, (processed-1)*audioSize, samples)
		})
	}
}

// fillSink records how many blocks were demodulated when it received the
// first block.
type fillSink struct {
	mock.Sink
	demod     *mock.Demodulator
	processed int
}

func (s *fillSink) Write(b []float64) error {
	if n, _ := s.Count(); n == 0 {
		s.processed, _ = s.demod.Count()
	}
	return s.Sink.Write(b)
}

func TestBufferFill(t *testing.T) {
	tests := []struct {
		description string
		numChannels int
		buffer      int
		// blocks demodulated before the output queue holds buffer frames,
		// including the dropped first block.
		expected int
	}{
		{
			description: "mono",
			numChannels: 1,
			buffer:      audioSize * 5,
			expected:    6,
		},
		{
			description: "stereo",
			numChannels: 2,
			buffer:      audioSize * 2,
			expected:    5,
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			logger, _ := logtest.NewNullLogger()
			device := newDevice(20)
			device.Interval = 2 * time.Millisecond
			demod := &mock.Demodulator{Size: audioSize}
			sink := &fillSink{demod: demod}
			p := softfm.New(device, demod, sink,
				softfm.WithBuffer(test.buffer),
				softfm.WithFormat(pcmRate, test.numChannels),
				softfm.WithLogger(logger),
				softfm.WithStatus(io.Discard),
			)
			require.NoError(t, p.Run(context.Background()))

			assert.GreaterOrEqual(t, sink.processed, test.expected)
			written, _ := sink.Count()
			assert.Equal(t, 19, written)
		})
	}
}

func TestBacklogWarning(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	device := newDevice(5)
	// every queued block exceeds ten seconds of input.
	device.Rate = 1
	sink := &mock.Sink{Interval: 10 * time.Millisecond}
	p := softfm.New(device, &mock.Demodulator{Size: audioSize}, sink,
		softfm.WithLogger(logger),
		softfm.WithStatus(io.Discard),
	)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"input buffer is growing (system too slow)"}, messages(hook, logrus.WarnLevel))
}

func TestMetrics(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	reg := prometheus.NewRegistry()
	meter, err := metric.New(reg)
	require.NoError(t, err)
	p := softfm.New(newDevice(4), &mock.Demodulator{Size: audioSize}, &mock.Sink{Discard: true},
		softfm.WithMeter(meter),
		softfm.WithLogger(logger),
		softfm.WithStatus(io.Discard),
	)
	require.NoError(t, p.Run(context.Background()))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 4.0, values["softfm_acquired_blocks_total"])
	assert.Equal(t, 4.0*blockSize, values["softfm_acquired_samples_total"])
	assert.Equal(t, 4.0, values["softfm_processed_blocks_total"])
	assert.Equal(t, 1.0, values["softfm_discarded_blocks_total"])
	assert.Equal(t, 3.0, values["softfm_delivered_blocks_total"])
}
