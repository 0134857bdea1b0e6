package softfm

import "errors"

var (
	// ErrConfig is returned when the receiver is configured with invalid
	// or missing values.
	ErrConfig = errors.New("invalid configuration")
	// ErrDevice is returned when the tuner device fails.
	ErrDevice = errors.New("device error")
	// ErrSink is returned when audio cannot be written to the output.
	ErrSink = errors.New("sink error")
)
