package softfm

import (
	"fmt"
	"io"
	"strings"
)

// levelCorrection converts RMS of a sine to its peak level in dB.
const levelCorrection = 3.01

// Status is a snapshot of the control loop reported once per block.
type Status struct {
	Block         int
	Frequency     float64 // Hz
	IFLevel       float64
	BasebandLevel float64
	AudioLevel    float64
	// Buffer is the output buffer fill in seconds, negative if output is
	// not buffered.
	Buffer float64
}

func (s Status) audioDB() float64 {
	return decibel(s.AudioLevel) + levelCorrection
}

// String formats the status line.
func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blk=%6d  freq=%8.4fMHz  IF=%+5.1fdB  BB=%+5.1fdB  audio=%+5.1fdB ",
		s.Block,
		s.Frequency*1.0e-6,
		decibel(s.IFLevel),
		decibel(s.BasebandLevel)+levelCorrection,
		s.audioDB(),
	)
	if s.Buffer >= 0 {
		fmt.Fprintf(&b, " buf=%.1fs ", s.Buffer)
	}
	return b.String()
}

// print overwrites the current terminal line with the status.
func (s Status) print(w io.Writer) {
	if w == nil {
		return
	}
	fmt.Fprint(w, "\r", s.String())
}
