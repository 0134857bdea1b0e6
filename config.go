package softfm

import (
	"fmt"
	"math"
)

// Default demodulation parameters of FM broadcast.
const (
	DefaultIFBandwidth    = 100000.0 // Hz
	DefaultFreqDev        = 75000.0  // Hz
	DefaultAudioBandwidth = 15000.0  // Hz
	DefaultDeemphasis     = 50.0     // microseconds
	DefaultIFRate         = 1.0e6    // Hz
	DefaultPCMRate        = 48000    // Hz
	DefaultPlaybackDevice = "default"

	// basebandRate is the rate the baseband is downsampled to.
	basebandRate = 215.0e3
	// Gain is applied to every audio sample before output.
	Gain = 0.5
	// AutoGain selects automatic tuner gain.
	AutoGain = -1
)

// OutputMode selects the kind of audio output.
type OutputMode int

// Output modes.
const (
	OutputPlayback OutputMode = iota
	OutputRaw
	OutputWav
	OutputMP3
)

func (m OutputMode) String() string {
	switch m {
	case OutputPlayback:
		return "playback"
	case OutputRaw:
		return "raw"
	case OutputWav:
		return "wav"
	case OutputMP3:
		return "mp3"
	}
	return "unknown"
}

// Config describes a receiver run.
type Config struct {
	Frequency   float64 // Station frequency in Hz.
	DeviceIndex int
	IFRate      float64 // Device sample rate in Hz.
	PCMRate     int     // Audio sample rate in Hz.
	Stereo      bool
	Output      OutputMode
	// Target is the output file name for file outputs or the device name
	// for playback. "-" means stdout for raw output.
	Target string
	// BufferSeconds is the output buffer duration. Negative value selects
	// the default for the output mode.
	BufferSeconds float64
}

// DefaultConfig returns config with default values. Frequency must still
// be set.
func DefaultConfig() Config {
	return Config{
		IFRate:        DefaultIFRate,
		PCMRate:       DefaultPCMRate,
		Stereo:        true,
		Output:        OutputPlayback,
		Target:        DefaultPlaybackDevice,
		BufferSeconds: -1,
	}
}

// Validate checks the config values.
func (c Config) Validate() error {
	switch {
	case c.Frequency <= 0 || math.IsNaN(c.Frequency):
		return fmt.Errorf("%w: specify a tuning frequency", ErrConfig)
	case c.DeviceIndex < 0:
		return fmt.Errorf("%w: device index %d", ErrConfig, c.DeviceIndex)
	case c.IFRate <= 0 || math.IsNaN(c.IFRate):
		return fmt.Errorf("%w: IF sample rate %v", ErrConfig, c.IFRate)
	case c.PCMRate < 1:
		return fmt.Errorf("%w: audio sample rate %d", ErrConfig, c.PCMRate)
	case math.IsNaN(c.BufferSeconds):
		return fmt.Errorf("%w: buffer duration", ErrConfig)
	case c.Output != OutputPlayback && c.Target == "":
		return fmt.Errorf("%w: %v output requires a file name", ErrConfig, c.Output)
	case 3*DefaultIFBandwidth > c.IFRate:
		return fmt.Errorf("%w: IF sample rate must be at least %.0f Hz", ErrConfig, 3*DefaultIFBandwidth)
	}
	return nil
}

// TunerFrequency returns the frequency to tune the device to. When the IF
// rate allows it, the tuner is placed above the station to keep it away
// from the DC offset.
func (c Config) TunerFrequency() float64 {
	if c.IFRate >= 5*DefaultIFBandwidth {
		return c.Frequency + 0.25*c.IFRate
	}
	return c.Frequency
}

// Downsample returns the baseband downsampling factor for the IF rate.
func Downsample(ifRate float64) int {
	return max(1, int(ifRate/basebandRate))
}

// AudioBandwidth returns the audio bandwidth limited to prevent aliasing
// at low output sample rates.
func (c Config) AudioBandwidth() float64 {
	return math.Min(DefaultAudioBandwidth, 0.45*float64(c.PCMRate))
}

// Channels returns number of output audio channels.
func (c Config) Channels() int {
	if c.Stereo {
		return 2
	}
	return 1
}

// BufferSamples returns the output buffer size in frames. Zero means
// audio is written directly to the output without buffering.
func (c Config) BufferSamples() int {
	switch {
	case c.BufferSeconds < 0 && c.interactive():
		return c.PCMRate
	case c.BufferSeconds > 0:
		return int(c.BufferSeconds * float64(c.PCMRate))
	}
	return 0
}

// interactive outputs are buffered by default.
func (c Config) interactive() bool {
	return c.Output == OutputPlayback || (c.Output == OutputRaw && c.Target == "-")
}

// Demod returns demodulator parameters for a device tuned to tunerFreq
// with actual sample rate ifRate.
func (c Config) Demod(tunerFreq, ifRate float64) DemodConfig {
	return DemodConfig{
		InputRate:       ifRate,
		TuningOffset:    c.Frequency - tunerFreq,
		OutputRate:      float64(c.PCMRate),
		Stereo:          c.Stereo,
		Deemphasis:      DefaultDeemphasis,
		IFBandwidth:     DefaultIFBandwidth,
		FreqDev:         DefaultFreqDev,
		OutputBandwidth: c.AudioBandwidth(),
		Downsample:      Downsample(ifRate),
	}
}
