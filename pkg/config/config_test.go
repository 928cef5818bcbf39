package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `cell: openstack.org
fileservers:
  - afs01.dfw.openstack.org
  - afs02.ord.openstack.org
timeout: 45s
max_concurrent: 2
quota_warn_percent: 85
statsd:
  host: graphite.example.org
  port: "8125"
  prefix: afs
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "afsmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "openstack.org", cfg.Cell)
	assert.Equal(t,
		[]string{"afs01.dfw.openstack.org", "afs02.ord.openstack.org"}, cfg.FileServers)
	assert.Equal(t, 45*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, 85.0, cfg.QuotaWarnPercent)
	assert.Equal(t, "graphite.example.org:8125", cfg.Statsd.Address())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cell: openstack.org\n"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, "localhost:8125", cfg.Statsd.Address())
	assert.Equal(t, "afs", cfg.Statsd.Prefix)
}

func TestLoadEnvOverridesStatsd(t *testing.T) {
	t.Setenv("STATSD_HOST", "10.0.0.1")
	t.Setenv("STATSD_PORT", "9125")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:9125", cfg.Statsd.Address())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "cell: openstack.org\ntimeout: soon\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate(), "need a cell or fileservers")

	cfg := Default()
	cfg.Cell = "openstack.org"
	assert.NoError(t, cfg.Validate())

	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
