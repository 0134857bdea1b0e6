// Package metric provides Prometheus metrics of the receiver pipeline.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "softfm"

// Meter holds the pipeline collectors. All methods are safe for
// concurrent use and nil Meter discards all measurements.
type Meter struct {
	acquiredBlocks   prometheus.Counter
	acquiredSamples  prometheus.Counter
	processedBlocks  prometheus.Counter
	discardedBlocks  prometheus.Counter
	deliveredBlocks  *prometheus.CounterVec
	deliveredSamples prometheus.Counter
	sinkErrors       prometheus.Counter
	inputQueue       prometheus.Gauge
	outputQueue      prometheus.Gauge
	audioLevel       prometheus.Gauge
	stereo           prometheus.Gauge
}

// Delivery modes.
const (
	Direct   = "direct"
	Buffered = "buffered"
)

// New creates pipeline collectors and registers them.
func New(reg prometheus.Registerer) (*Meter, error) {
	m := &Meter{
		acquiredBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquired_blocks_total",
			Help:      "Total number of IQ blocks fetched from the device",
		}),
		acquiredSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquired_samples_total",
			Help:      "Total number of IQ samples fetched from the device",
		}),
		processedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_blocks_total",
			Help:      "Total number of IQ blocks demodulated",
		}),
		discardedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_blocks_total",
			Help:      "Total number of audio blocks dropped during filter warm-up",
		}),
		deliveredBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivered_blocks_total",
			Help:      "Total number of audio blocks written to the output",
		}, []string{"mode"}),
		deliveredSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivered_samples_total",
			Help:      "Total number of audio samples written to the output",
		}),
		sinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Total number of failed output writes",
		}),
		inputQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "input_queue_samples",
			Help:      "IQ samples waiting for demodulation",
		}),
		outputQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_queue_samples",
			Help:      "Audio samples waiting for output",
		}),
		audioLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_level_db",
			Help:      "Smoothed audio level in dB",
		}),
		stereo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stereo_locked",
			Help:      "1 if the stereo pilot is locked",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.acquiredBlocks,
		m.acquiredSamples,
		m.processedBlocks,
		m.discardedBlocks,
		m.deliveredBlocks,
		m.deliveredSamples,
		m.sinkErrors,
		m.inputQueue,
		m.outputQueue,
		m.audioLevel,
		m.stereo,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Acquired measures a block fetched from the device.
func (m *Meter) Acquired(samples int) {
	if m == nil {
		return
	}
	m.acquiredBlocks.Inc()
	m.acquiredSamples.Add(float64(samples))
}

// Processed measures a demodulated block and the queue states.
func (m *Meter) Processed(inputQueue, outputQueue int, levelDB float64, stereo bool) {
	if m == nil {
		return
	}
	m.processedBlocks.Inc()
	m.inputQueue.Set(float64(inputQueue))
	m.outputQueue.Set(float64(outputQueue))
	m.audioLevel.Set(levelDB)
	if stereo {
		m.stereo.Set(1)
	} else {
		m.stereo.Set(0)
	}
}

// Discarded measures a dropped warm-up block.
func (m *Meter) Discarded() {
	if m == nil {
		return
	}
	m.discardedBlocks.Inc()
}

// Delivered measures a block written to the output.
func (m *Meter) Delivered(mode string, samples int) {
	if m == nil {
		return
	}
	m.deliveredBlocks.WithLabelValues(mode).Inc()
	m.deliveredSamples.Add(float64(samples))
}

// SinkError measures a failed write.
func (m *Meter) SinkError() {
	if m == nil {
		return
	}
	m.sinkErrors.Inc()
}
