package config_test

import (
	"testing"
	"time"

	"github.com/craigwongva/pz-access/pkg/conftools"
	"github.com/craigwongva/pz-access/pkg/groupd/config"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Setenv("GEOSERVER_URL", "https://geoserver.example.com/geoserver")
	t.Setenv("GEOSERVER_PASSWORD", "hunter2")
	t.Setenv("DATABASE_URL", "postgresql://groupd@db/groupd")

	cfg := config.Initialize()
	require.NoError(t, viper.BindPFlags(flag.CommandLine))

	require.NoError(t, conftools.Decode(cfg))

	assert.Equal(t, "https://geoserver.example.com/geoserver", cfg.GeoServer.URL)
	assert.Equal(t, "hunter2", cfg.GeoServer.Password)
	assert.Equal(t, "admin", cfg.GeoServer.Username)
	assert.Equal(t, "piazza", cfg.GeoServer.Workspace)
	assert.Equal(t, "xml", cfg.GeoServer.FetchFormat)
	assert.Equal(t, time.Duration(0), cfg.GeoServer.Timeout)
	assert.Equal(t, "postgresql://groupd@db/groupd", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.DatabaseConnectTimeout)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.Empty(t, cfg.OpenTelemetry.Endpoint)
}
