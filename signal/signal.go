// Package signal provides conversions between the sample formats used by
// the receiver:
// 	- interleaved float audio to integer PCM of given bit depth
//	- unsigned 8-bit IQ captures to complex samples
package signal

import (
	"encoding/binary"
	"math"
	"time"
)

// Float64 is an interleaved float64 signal. Values are expected to be in
// [-1, 1] range, values outside of it are clipped on conversion.
type Float64 []float64

const (
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for float-to-int conversion.
type BitDepth int

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() float64 {
	switch bitDepth {
	case BitDepth16:
		return math.MaxInt16
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// clip limits the value to [-1, 1] range.
func clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// AsInterInt converts float64 signal to interleaved int of provided bit
// depth.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	if len(floats) == 0 {
		return nil
	}
	multiplier := bitDepth.multiplier()
	ints := make([]int, len(floats))
	for i, v := range floats {
		ints[i] = int(math.Round(clip(v) * multiplier))
	}
	return ints
}

// AppendInt16LE appends the signal to dst as signed 16-bit little endian
// samples and returns the extended slice.
func (floats Float64) AppendInt16LE(dst []byte) []byte {
	multiplier := BitDepth16.multiplier()
	for _, v := range floats {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(math.Round(clip(v)*multiplier))))
	}
	return dst
}

// Uint8IQ is an interleaved unsigned 8-bit IQ signal as produced by
// RTL2832 based receivers: I0, Q0, I1, Q1 and so on.
type Uint8IQ []byte

// AsComplex64 converts IQ pairs to complex samples scaled to [-1, 1]
// range. A trailing unpaired byte is ignored.
func (iq Uint8IQ) AsComplex64() []complex64 {
	n := len(iq) / 2
	if n == 0 {
		return nil
	}
	samples := make([]complex64, n)
	for i := range samples {
		re := (float32(iq[2*i]) - 127.5) / 127.5
		im := (float32(iq[2*i+1]) - 127.5) / 127.5
		samples[i] = complex(re, im)
	}
	return samples
}
