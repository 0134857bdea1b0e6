package softfm

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pipelined/softfm/metric"
	"github.com/pipelined/softfm/signal"
)

// backlogSeconds of IQ samples in the input queue trigger a warning.
const backlogSeconds = 10

// control is the main loop. It demodulates input blocks and passes audio
// to the sink, either directly or through the output queue. The first
// audio block is dropped because filters are still settling.
func (p *Pipeline) control() {
	var (
		warned  bool
		backlog = backlogSeconds * p.device.SampleRate()
	)
	for block := 0; !p.stop.Requested(); block++ {
		if !warned && float64(p.input.Len()) > backlog {
			p.breakStatus()
			p.log.Warn("input buffer is growing (system too slow)")
			warned = true
		}

		iq := p.input.Pull()
		if len(iq) == 0 {
			break
		}

		audio := p.demod.Process(iq)
		p.level.Update(RMS(audio))
		floats.Scale(Gain, audio)

		st := Status{
			Block:         block,
			Frequency:     p.frequency + p.demod.TuningOffset(),
			IFLevel:       p.demod.IFLevel(),
			BasebandLevel: p.demod.BasebandLevel(),
			AudioLevel:    p.level.Level(),
			Buffer:        -1,
		}
		var outputLen int
		if p.Buffered() {
			outputLen = p.output.Len()
			st.Buffer = signal.DurationOf(p.pcmRate, int64(outputLen/p.numChannels)).Seconds()
		}
		st.print(p.status)

		locked := p.demod.StereoDetected()
		switch p.stereo.Observe(locked) {
		case StereoLocked:
			p.breakStatus()
			p.log.WithField("pilot", p.demod.PilotLevel()).Info("got stereo signal")
		case StereoLost:
			p.breakStatus()
			p.log.Info("lost stereo signal")
		}
		p.meter.Processed(p.input.Len(), outputLen, st.audioDB(), locked)

		if block == 0 {
			p.meter.Discarded()
			continue
		}
		if p.Buffered() {
			p.output.Push(audio)
		} else {
			p.write(audio, metric.Direct)
		}
	}
}
