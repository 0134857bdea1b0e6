package softfm

// Sample is a real-valued audio sample.
type Sample = float64

// IQSample is a complex-valued raw radio sample.
type IQSample = complex64

type (
	// Device is a tuner that produces blocks of IQ samples.
	Device interface {
		// Configure sets the sample rate, center frequency and gain. Gain
		// is in tenths of dB, negative value selects automatic gain.
		Configure(sampleRate, frequency float64, gain int) error
		// Frequency returns the frequency the device is actually tuned to.
		Frequency() float64
		// SampleRate returns the actual sample rate of the device.
		SampleRate() float64
		// Fetch blocks until the next block of samples is available.
		// Finite devices return io.EOF when there are no more samples.
		Fetch() ([]IQSample, error)
	}

	// Demodulator turns IQ samples into audio samples. Stereo output is
	// interleaved left, right.
	Demodulator interface {
		Process([]IQSample) []Sample
		// TuningOffset returns the residual offset of the station from
		// the tuner frequency in Hz.
		TuningOffset() float64
		// IFLevel returns RMS level of the IF signal.
		IFLevel() float64
		// BasebandLevel returns RMS level of the demodulated baseband.
		BasebandLevel() float64
		StereoDetected() bool
		PilotLevel() float64
	}

	// Sink consumes audio samples.
	Sink interface {
		Write([]Sample) error
		// Err returns the first error the sink failed with.
		Err() error
		// Close flushes and releases the sink.
		Close() error
	}
)

// DemodConfig holds the parameters demodulators are constructed with.
type DemodConfig struct {
	InputRate       float64 // IF sample rate in Hz.
	TuningOffset    float64 // Station frequency minus tuner frequency in Hz.
	OutputRate      float64 // Audio sample rate in Hz.
	Stereo          bool
	Deemphasis      float64 // De-emphasis time constant in microseconds.
	IFBandwidth     float64 // Half bandwidth of the IF signal in Hz.
	FreqDev         float64 // Maximum frequency deviation in Hz.
	OutputBandwidth float64 // Audio bandwidth in Hz.
	Downsample      int     // Baseband downsampling factor.
}
