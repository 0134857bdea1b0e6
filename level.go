package softfm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LevelTracker keeps an exponentially weighted estimate of the audio RMS
// level. It's owned by the control stage and isn't safe for concurrent
// use.
type LevelTracker struct {
	estimate float64
}

// Update adds a new RMS measurement and returns the new estimate.
func (l *LevelTracker) Update(rms float64) float64 {
	l.estimate = 0.95*l.estimate + 0.05*rms
	return l.estimate
}

// Level returns the current estimate.
func (l *LevelTracker) Level() float64 {
	return l.estimate
}

// RMS returns the root mean square of the samples. Empty block has zero
// level.
func RMS(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}

// StereoEdge is a change of stereo lock.
type StereoEdge int

// Stereo edges.
const (
	NoEdge StereoEdge = iota
	StereoLocked
	StereoLost
)

// StereoState tracks the stereo lock between control iterations. The
// first observation sets the baseline and never produces an edge.
type StereoState struct {
	observed bool
	locked   bool
}

// Observe records the lock state of the current iteration and returns the
// edge relative to the previous one.
func (s *StereoState) Observe(locked bool) StereoEdge {
	if !s.observed {
		s.observed = true
		s.locked = locked
		return NoEdge
	}
	if locked == s.locked {
		return NoEdge
	}
	s.locked = locked
	if locked {
		return StereoLocked
	}
	return StereoLost
}

// Locked returns the last observed lock state.
func (s *StereoState) Locked() bool {
	return s.locked
}

// decibel converts level to dB.
func decibel(level float64) float64 {
	return 20 * math.Log10(level)
}
