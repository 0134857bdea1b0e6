// Package demod provides a plain mono FM discriminator. It is enough to
// listen to a strong station, but it doesn't decode stereo and doesn't
// apply de-emphasis.
package demod

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/pipelined/softfm"
)

// Demodulator is a quadrature FM discriminator followed by a boxcar
// decimator. Stereo output duplicates the mono signal to both channels.
type Demodulator struct {
	config softfm.DemodConfig

	// mixer state
	step  complex128
	phase complex128

	// discriminator state
	last  complex128
	scale float64

	// decimator state
	ratio float64
	pos   float64
	acc   float64
	count int

	ifLevel       float64
	basebandLevel float64
	scratch       []float64
}

// New returns demodulator for the config.
func New(c softfm.DemodConfig) (*Demodulator, error) {
	switch {
	case c.InputRate <= 0:
		return nil, fmt.Errorf("%w: demodulator input rate %v", softfm.ErrConfig, c.InputRate)
	case c.OutputRate <= 0 || c.OutputRate > c.InputRate:
		return nil, fmt.Errorf("%w: demodulator output rate %v", softfm.ErrConfig, c.OutputRate)
	case c.FreqDev <= 0:
		return nil, fmt.Errorf("%w: frequency deviation %v", softfm.ErrConfig, c.FreqDev)
	}
	return &Demodulator{
		config: c,
		step:   cmplx.Rect(1, -2*math.Pi*c.TuningOffset/c.InputRate),
		phase:  1,
		last:   1,
		scale:  c.InputRate / (2 * math.Pi * c.FreqDev),
		ratio:  c.InputRate / c.OutputRate,
	}, nil
}

// Process demodulates a block of IQ samples.
func (d *Demodulator) Process(in []softfm.IQSample) []softfm.Sample {
	if cap(d.scratch) < len(in) {
		d.scratch = make([]float64, len(in))
	}
	magnitudes := d.scratch[:len(in)]
	baseband := make([]float64, len(in))

	for i, s := range in {
		x := complex128(s) * d.phase
		d.phase *= d.step
		magnitudes[i] = cmplx.Abs(x)
		baseband[i] = cmplx.Phase(x*cmplx.Conj(d.last)) * d.scale
		d.last = x
	}
	// keep oscillator on the unit circle.
	d.phase /= complex(cmplx.Abs(d.phase), 0)

	d.ifLevel = rms(magnitudes)
	d.basebandLevel = rms(baseband)
	return d.decimate(baseband)
}

func (d *Demodulator) decimate(baseband []float64) []softfm.Sample {
	channels := 1
	if d.config.Stereo {
		channels = 2
	}
	out := make([]softfm.Sample, 0, channels*(int(float64(len(baseband))/d.ratio)+1))
	for _, v := range baseband {
		d.acc += v
		d.count++
		d.pos++
		if d.pos < d.ratio {
			continue
		}
		s := d.acc / float64(d.count)
		for c := 0; c < channels; c++ {
			out = append(out, s)
		}
		d.pos -= d.ratio
		d.acc, d.count = 0, 0
	}
	return out
}

// TuningOffset implements softfm.Demodulator.
func (d *Demodulator) TuningOffset() float64 {
	return d.config.TuningOffset
}

// IFLevel implements softfm.Demodulator.
func (d *Demodulator) IFLevel() float64 {
	return d.ifLevel
}

// BasebandLevel implements softfm.Demodulator.
func (d *Demodulator) BasebandLevel() float64 {
	return d.basebandLevel
}

// StereoDetected always returns false.
func (d *Demodulator) StereoDetected() bool {
	return false
}

// PilotLevel always returns zero.
func (d *Demodulator) PilotLevel() float64 {
	return 0
}

func rms(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(v, v) / float64(len(v)))
}
