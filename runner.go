package softfm

import (
	"errors"
	"fmt"
	"io"

	"github.com/pipelined/softfm/metric"
)

// acquire fetches blocks from the device into the input queue until stop
// is requested or the device runs out of samples. The input queue is
// closed on return.
//
// A device failure is fatal: the logger exits the process. There is no
// way to resume a stream after the device link is lost.
func (p *Pipeline) acquire() error {
	defer p.input.Close()
	for !p.stop.Requested() {
		block, err := p.device.Fetch()
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.log.Info("device reached end of stream")
				return nil
			}
			err = fmt.Errorf("%w: %w", ErrDevice, err)
			p.log.WithError(err).Fatal("acquisition failed")
			return err
		}
		p.meter.Acquired(len(block))
		p.input.Push(block)
	}
	p.log.Debug("acquisition stopped")
	return nil
}

// deliver writes blocks from the output queue to the sink until the queue
// is closed and drained. When the queue runs empty, it waits for the
// buffer to refill to its nominal size before writing again.
func (p *Pipeline) deliver() error {
	minFill := p.bufferSamples * p.numChannels
	for {
		if p.output.Len() == 0 {
			p.output.AwaitFill(minFill)
		}
		if p.output.Drained() {
			p.log.Debug("delivery drained")
			return nil
		}
		p.write(p.output.Pull(), metric.Buffered)
	}
}

// write sends the block to the sink. Failures are logged and the block is
// lost.
func (p *Pipeline) write(block []Sample, mode string) {
	if len(block) == 0 {
		return
	}
	if err := p.sink.Write(block); err != nil {
		p.meter.SinkError()
		if mode == metric.Direct {
			p.breakStatus()
		}
		p.log.WithError(fmt.Errorf("%w: %w", ErrSink, err)).Error("output write failed")
		return
	}
	p.meter.Delivered(mode, len(block))
}
