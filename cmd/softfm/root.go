package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pipelined/softfm"
	"github.com/pipelined/softfm/iqfile"
	"github.com/pipelined/softfm/log"
)

const envPrefix = "SOFTFM"

// settings are values that aren't part of the receiver config.
type settings struct {
	input         string
	realtime      bool
	metricsListen string
}

// execute runs the command line and returns the exit code.
func execute(args []string) int {
	cmd := newCommand(viper.New())
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "softfm: %v\n", err)
		return errorExitCode
	}
	return successExitCode
}

func newCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "softfm -f freq [options]",
		Short: "Software decoder for FM broadcast radio",
		Long: `Receive FM broadcast with an RTL-SDR tuner and play or record the audio.
IQ samples are read in the rtl_sdr capture format from a file or stdin.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfigFile(v); err != nil {
				return err
			}
			c, s, err := parseConfig(v)
			if err != nil {
				return err
			}
			// configuration is fine, failures from now on aren't usage errors.
			cmd.SilenceUsage = true
			log.SetDebug(v.GetBool("debug"))
			return receive(cmd.Context(), c, s)
		},
	}
	setupFlags(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("raw", "wav", "mp3", "play")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// error is only possible for nil flag set.
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

func setupFlags(fs *pflag.FlagSet) {
	fs.Float64P("freq", "f", 0, "frequency of radio station in Hz (required)")
	fs.IntP("dev", "d", 0, "RTL-SDR device index")
	fs.StringP("input", "i", iqfile.Stdin, "IQ capture in rtl_sdr format, - for stdin")
	fs.Bool("realtime", false, "read IQ capture at the IF sample rate")
	fs.Float64P("ifrate", "s", softfm.DefaultIFRate, "IF sample rate in Hz")
	fs.IntP("pcmrate", "r", softfm.DefaultPCMRate, "audio sample rate in Hz")
	fs.BoolP("mono", "M", false, "disable stereo decoding")
	fs.StringP("raw", "R", "", "write audio data as raw S16_LE samples to file, - for stdout")
	fs.StringP("wav", "W", "", "write audio data to WAV file")
	fs.StringP("mp3", "3", "", "write audio data to MP3 file")
	fs.StringP("play", "P", "", "play audio via the named device (--play=name)")
	fs.Lookup("play").NoOptDefVal = softfm.DefaultPlaybackDevice
	fs.Float64P("buffer", "b", -1, "audio buffer size in seconds (default 1 for playback and stdout)")
	fs.String("metrics-listen", "", "serve Prometheus metrics on the address")
	fs.Bool("debug", false, "enable debug logging")
	fs.String("config", "", "config file")
}

func loadConfigFile(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read config file: %w", softfm.ErrConfig, err)
	}
	return nil
}

// parseConfig builds and validates receiver config.
func parseConfig(v *viper.Viper) (softfm.Config, settings, error) {
	c := softfm.DefaultConfig()
	c.Frequency = v.GetFloat64("freq")
	c.DeviceIndex = v.GetInt("dev")
	c.IFRate = v.GetFloat64("ifrate")
	c.PCMRate = v.GetInt("pcmrate")
	c.Stereo = !v.GetBool("mono")
	c.BufferSeconds = v.GetFloat64("buffer")
	if v.IsSet("buffer") && c.BufferSeconds < 0 {
		return c, settings{}, fmt.Errorf("%w: invalid buffer duration %v", softfm.ErrConfig, c.BufferSeconds)
	}

	var outputs int
	for _, o := range []struct {
		key  string
		mode softfm.OutputMode
	}{
		{"raw", softfm.OutputRaw},
		{"wav", softfm.OutputWav},
		{"mp3", softfm.OutputMP3},
		{"play", softfm.OutputPlayback},
	} {
		if target := v.GetString(o.key); target != "" {
			c.Output, c.Target = o.mode, target
			outputs++
		}
	}
	if outputs > 1 {
		return c, settings{}, fmt.Errorf("%w: only one output can be selected", softfm.ErrConfig)
	}

	if err := c.Validate(); err != nil {
		return c, settings{}, err
	}
	s := settings{
		input:         v.GetString("input"),
		realtime:      v.GetBool("realtime"),
		metricsListen: v.GetString("metrics-listen"),
	}
	if s.input == "" {
		return c, s, fmt.Errorf("%w: input must be set", softfm.ErrConfig)
	}
	return c, s, nil
}
