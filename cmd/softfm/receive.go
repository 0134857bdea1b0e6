package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/pipelined/softfm"
	"github.com/pipelined/softfm/demod"
	"github.com/pipelined/softfm/iqfile"
	"github.com/pipelined/softfm/log"
	"github.com/pipelined/softfm/metric"
	"github.com/pipelined/softfm/mp3"
	"github.com/pipelined/softfm/portaudio"
	"github.com/pipelined/softfm/raw"
	"github.com/pipelined/softfm/signal"
	"github.com/pipelined/softfm/wav"
)

const metricsPath = "/metrics"

// receive sets up the device, demodulator and sink and runs the pipeline
// until the input is over or the process is signalled.
func receive(ctx context.Context, c softfm.Config, s settings) error {
	l := log.GetLogger()

	var deviceOptions []iqfile.Option
	if s.realtime {
		deviceOptions = append(deviceOptions, iqfile.WithRealtime())
	}
	device, err := iqfile.Open(s.input, deviceOptions...)
	if err != nil {
		return fmt.Errorf("%w: open input: %w", softfm.ErrDevice, err)
	}
	defer device.Close()
	l.WithFields(logrus.Fields{
		"index": c.DeviceIndex,
		"input": s.input,
	}).Info("opened device")

	if err := device.Configure(c.IFRate, c.TunerFrequency(), softfm.AutoGain); err != nil {
		return fmt.Errorf("%w: configure: %w", softfm.ErrDevice, err)
	}
	tunerFreq, ifRate := device.Frequency(), device.SampleRate()
	l.WithFields(logrus.Fields{
		"tuner":      fmt.Sprintf("%.6f MHz", tunerFreq*1e-6),
		"ifrate":     fmt.Sprintf("%.0f Hz", ifRate),
		"downsample": softfm.Downsample(ifRate),
		"bandwidth":  fmt.Sprintf("%.0f Hz", c.AudioBandwidth()),
	}).Info("tuned")

	d, err := demod.New(c.Demod(tunerFreq, ifRate))
	if err != nil {
		return err
	}

	meter, shutdown, err := serveMetrics(s.metricsListen, l)
	if err != nil {
		return err
	}
	defer shutdown()

	sink, err := openSink(c)
	if err != nil {
		return fmt.Errorf("%w: open %v output: %w", softfm.ErrSink, c.Output, err)
	}
	l.WithFields(logrus.Fields{
		"output":   c.Output,
		"target":   c.Target,
		"channels": c.Channels(),
		"rate":     c.PCMRate,
	}).Info("opened output")
	if frames := c.BufferSamples(); frames > 0 {
		l.WithField("duration", signal.DurationOf(c.PCMRate, int64(frames))).Info("output buffer")
	}

	stop := &softfm.Stop{}
	defer handleSignals(stop, l)()

	p := softfm.New(device, d, sink,
		softfm.WithStop(stop),
		softfm.WithBuffer(c.BufferSamples()),
		softfm.WithFormat(c.PCMRate, c.Channels()),
		softfm.WithMeter(meter),
		softfm.WithLogger(l),
	)
	return p.Run(ctx)
}

func openSink(c softfm.Config) (softfm.Sink, error) {
	switch c.Output {
	case softfm.OutputRaw:
		return raw.Create(c.Target)
	case softfm.OutputWav:
		return wav.NewSink(c.Target, c.PCMRate, c.Channels(), signal.BitDepth16)
	case softfm.OutputMP3:
		return mp3.NewSink(c.Target, c.PCMRate, c.Channels(), mp3.DefaultBitRate, mp3.DefaultQuality)
	case softfm.OutputPlayback:
		return portaudio.NewSink(c.Target, c.PCMRate, c.Channels())
	}
	return nil, fmt.Errorf("unknown output %v", c.Output)
}

// handleSignals requests stop on the first SIGINT or SIGTERM. The signal
// is reset afterwards, so repeating it terminates the process. Returned
// function releases the handler.
func handleSignals(stop *softfm.Stop, l *logrus.Logger) func() {
	sigs := make(chan os.Signal, 1)
	ossignal.Notify(sigs, unix.SIGINT, unix.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigs:
			stop.Request()
			ossignal.Reset(sig)
			l.WithField("signal", sig).Info("got signal, stopping")
		case <-done:
		}
	}()
	return func() {
		ossignal.Stop(sigs)
		close(done)
	}
}

// serveMetrics exposes pipeline metrics over HTTP. Empty address
// disables metrics.
func serveMetrics(addr string, l *logrus.Logger) (*metric.Meter, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}
	reg := prometheus.NewRegistry()
	meter, err := metric.New(reg)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Error("metrics server failed")
		}
	}()
	l.WithField("address", addr).Info("serving metrics")
	return meter, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
