package logging_test

import (
	"testing"

	"github.com/craigwongva/pz-access/pkg/logging"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	assert.NoError(t, logging.Setup("debug", "json"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	assert.NoError(t, logging.Setup("warn", "text"))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)

	assert.EqualError(t, logging.Setup("info", "xml"), "log format 'xml' is not recognized")
	assert.Error(t, logging.Setup("loud", "text"))
}
