package portaudio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStream struct {
	writes   int
	closed   bool
	errWrite error
	errStop  error
	errClose error
}

func (f *fakeStream) Write() error {
	f.writes++
	return f.errWrite
}

func (f *fakeStream) Stop() error {
	return f.errStop
}

func (f *fakeStream) Close() error {
	f.closed = true
	return f.errClose
}

func newTestSink(st stream, numChannels int) *Sink {
	return &Sink{
		buf:         make([]float32, framesPerBuffer*numChannels),
		stream:      st,
		numChannels: numChannels,
	}
}

func TestClose(t *testing.T) {
	errStop := errors.New("stop failed")
	errClose := errors.New("close failed")
	errTerminate := errors.New("terminate failed")
	tests := []struct {
		description string
		stream      *fakeStream
		terminate   error
		expected    []error
	}{
		{
			description: "ok",
			stream:      &fakeStream{},
		},
		{
			description: "stop failure",
			stream:      &fakeStream{errStop: errStop},
			expected:    []error{errStop},
		},
		{
			description: "all failures",
			stream:      &fakeStream{errStop: errStop, errClose: errClose},
			terminate:   errTerminate,
			expected:    []error{errStop, errClose, errTerminate},
		},
	}
	defer func(f func() error) { terminate = f }(terminate)
	for _, test := range tests {
		var terminated bool
		terminate = func() error {
			terminated = true
			return test.terminate
		}
		err := newTestSink(test.stream, 1).Close()
		if len(test.expected) == 0 {
			assert.NoError(t, err, test.description)
		}
		for _, e := range test.expected {
			assert.ErrorIs(t, err, e, test.description)
		}
		assert.True(t, test.stream.closed, test.description)
		assert.True(t, terminated, test.description)
	}
}

func TestWrite(t *testing.T) {
	const numChannels = 2
	st := &fakeStream{}
	s := newTestSink(st, numChannels)

	// one and a half device buffers in uneven blocks.
	samples := 3 * framesPerBuffer * numChannels / 2
	for written := 0; written < samples; written += 300 {
		assert.NoError(t, s.Write(make([]float64, min(300, samples-written))))
	}
	assert.Equal(t, 1, st.writes)
	assert.Equal(t, framesPerBuffer, s.pos)

	errWrite := errors.New("underflow")
	st.errWrite = errWrite
	assert.ErrorIs(t, s.Write(make([]float64, framesPerBuffer)), errWrite)
	assert.ErrorIs(t, s.Err(), errWrite)
}
