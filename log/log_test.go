package log_test

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/pipelined/softfm/log"
)

func TestGetLogger(t *testing.T) {
	assert.Equal(t, os.Stderr, log.GetLogger().Out)

	log.SetDebug(true)
	assert.Equal(t, logrus.DebugLevel, log.GetLogger().GetLevel())
}
