// Package portaudio provides a sink that plays audio on an output device.
package portaudio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// DefaultDevice selects the default output device of the host API.
const DefaultDevice = "default"

// framesPerBuffer is the number of frames passed to the device in a
// single write.
const framesPerBuffer = 1024

// terminate releases the portaudio session.
var terminate = portaudio.Terminate

type (
	// stream is the part of *portaudio.Stream used by the sink.
	stream interface {
		Write() error
		Stop() error
		Close() error
	}

	// Sink represets portaudio sink which allows to play audio using
	// provided device. Samples are accumulated until the device buffer is
	// full, so blocks of any size can be written.
	Sink struct {
		buf         []float32
		pos         int
		stream      stream
		numChannels int
		err         error
	}
)

// NewSink initializes portaudio and starts the stream on the device with
// provided name.
func NewSink(device string, sampleRate, numChannels int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s, err := open(device, sampleRate, numChannels)
	if err != nil {
		terminate()
		return nil, err
	}
	return s, nil
}

func open(device string, sampleRate, numChannels int) (*Sink, error) {
	info, err := lookup(device)
	if err != nil {
		return nil, err
	}
	params := portaudio.HighLatencyParameters(nil, info)
	params.Output.Channels = numChannels
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = framesPerBuffer

	s := Sink{
		buf:         make([]float32, framesPerBuffer*numChannels),
		numChannels: numChannels,
	}
	st, err := portaudio.OpenStream(params, &s.buf)
	if err != nil {
		return nil, err
	}
	if err = st.Start(); err != nil {
		st.Close()
		return nil, err
	}
	s.stream = st
	return &s, nil
}

// lookup finds output device by name.
func lookup(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == DefaultDevice {
		return portaudio.DefaultOutputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == name && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("output device %q not found", name)
}

// Write plays interleaved samples.
func (s *Sink) Write(b []float64) error {
	for len(b) > 0 {
		n := copyFloat32(s.buf[s.pos:], b)
		s.pos += n
		b = b[n:]
		if s.pos < len(s.buf) {
			return nil
		}
		s.pos = 0
		if err := s.stream.Write(); err != nil {
			if s.err == nil {
				s.err = err
			}
			return err
		}
	}
	return nil
}

// Err returns the first playback error.
func (s *Sink) Err() error {
	return s.err
}

// Close stops the stream and terminates portaudio. Partially filled
// buffer is discarded. All steps are done even if one of them fails.
func (s *Sink) Close() error {
	return errors.Join(
		s.stream.Stop(),
		s.stream.Close(),
		terminate(),
	)
}

func copyFloat32(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
	return n
}
