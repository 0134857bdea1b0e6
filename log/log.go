// Package log provides the loggers used across softfm.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("SOFTFM_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Records are written to stderr,
// stdout is reserved for raw audio output.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// SetDebug enables debug level for loggers created after the call.
func SetDebug(enabled bool) {
	debug = debug || enabled
}
