package softfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pipelined/softfm/log"
	"github.com/pipelined/softfm/metric"
	"github.com/pipelined/softfm/queue"
)

// Pipeline moves samples from the device through the demodulator to the
// sink. Device fetching runs in its own goroutine, demodulation runs in
// the goroutine that calls Run and, if output buffering is enabled, the
// sink is written from a third goroutine.
type Pipeline struct {
	device      Device
	demod       Demodulator
	sink        Sink
	stop        *Stop
	numChannels int
	pcmRate     int
	// bufferSamples is the output buffer size in frames, zero disables
	// buffering.
	bufferSamples int
	frequency     float64

	input  *queue.Queue[IQSample]
	output *queue.Queue[Sample]

	// level and stereo are owned by the control loop.
	level  LevelTracker
	stereo StereoState

	status io.Writer
	meter  *metric.Meter
	log    *logrus.Entry
}

// Option provides a way to set parameters to pipeline.
type Option func(p *Pipeline)

// WithStop shares the stop token with the pipeline. Requesting it stops
// the run.
func WithStop(s *Stop) Option {
	return func(p *Pipeline) {
		p.stop = s
	}
}

// WithBuffer enables output buffering of provided number of frames.
func WithBuffer(frames int) Option {
	return func(p *Pipeline) {
		p.bufferSamples = frames
	}
}

// WithFormat sets the audio format produced by the demodulator. Values
// below one are replaced with defaults.
func WithFormat(pcmRate, numChannels int) Option {
	return func(p *Pipeline) {
		p.pcmRate = pcmRate
		p.numChannels = numChannels
	}
}

// WithStatus sets the writer for the status line. Nil disables it.
func WithStatus(w io.Writer) Option {
	return func(p *Pipeline) {
		p.status = w
	}
}

// WithMeter sets the metrics of the pipeline.
func WithMeter(m *metric.Meter) Option {
	return func(p *Pipeline) {
		p.meter = m
	}
}

// WithLogger sets the logger of the pipeline.
func WithLogger(l *logrus.Logger) Option {
	return func(p *Pipeline) {
		p.log = logrus.NewEntry(l)
	}
}

// New creates a pipeline for configured device, demodulator and sink.
func New(device Device, demod Demodulator, sink Sink, options ...Option) *Pipeline {
	p := &Pipeline{
		device:      device,
		demod:       demod,
		sink:        sink,
		stop:        &Stop{},
		numChannels: 1,
		pcmRate:     DefaultPCMRate,
		status:      os.Stderr,
		log:         logrus.NewEntry(log.GetLogger()),
	}
	for _, option := range options {
		option(p)
	}
	if p.numChannels < 1 {
		p.numChannels = 1
	}
	if p.pcmRate < 1 {
		p.pcmRate = DefaultPCMRate
	}
	p.log = p.log.WithField("run", xid.New().String())
	return p
}

// Buffered returns true if the pipeline writes to the sink from a
// separate goroutine.
func (p *Pipeline) Buffered() bool {
	return p.bufferSamples > 0
}

// Run executes the pipeline until the device is out of samples or stop
// is requested. Cancelling the context requests stop. Queued audio is
// written to the sink before Run returns and the sink is closed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.frequency = p.device.Frequency()
	p.level = LevelTracker{}
	p.stereo = StereoState{}
	p.input = queue.New[IQSample]()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.stop.Request()
		case <-done:
		}
	}()

	var acquisition errgroup.Group
	acquisition.Go(p.acquire)

	var delivery errgroup.Group
	if p.Buffered() {
		p.output = queue.New[Sample]()
		delivery.Go(p.deliver)
	}

	p.control()
	p.breakStatus()

	var errs []error
	if err := acquisition.Wait(); err != nil {
		errs = append(errs, err)
	}
	if p.Buffered() {
		p.output.Close()
		if err := delivery.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close: %w", ErrSink, err))
	}
	return errors.Join(errs...)
}

// breakStatus ends the status line, so the next record starts on a line
// of its own. Only the control goroutine writes the status.
func (p *Pipeline) breakStatus() {
	if p.status != nil {
		fmt.Fprintln(p.status)
	}
}
