package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, int64(200<<20), c.Server.MaxUploadBytes)
	assert.Equal(t, 30, c.Profile.Bins)
	assert.Equal(t, "memory", c.Snapshot.Backend)
	assert.Equal(t, time.Hour, c.Snapshot.TTL)
	assert.Equal(t, 2_000_000, c.Ingest.RowWarningThreshold)
	assert.Equal(t, "info", c.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("DATAPREP_SERVER_PORT", "9090")
	t.Setenv("DATAPREP_SNAPSHOT_TTL", "5m")
	t.Setenv("DATAPREP_LOGGING_LEVEL", "debug")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 5*time.Minute, c.Snapshot.TTL)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestSaveThenLoad(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	c.Profile.Bins = 12
	c.Ingest.Delimiter = ";"
	c.Snapshot.TTL = 10 * time.Minute
	require.NoError(t, Save(c, ""))

	dir, err := Dir()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, again.Profile.Bins)
	assert.Equal(t, ";", again.Ingest.Delimiter)
	assert.Equal(t, 10*time.Minute, again.Snapshot.TTL)
}

func TestLoadExplicitFile(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profile:\n  bins: 7\nsnapshot:\n  backend: memory\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Profile.Bins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot:\n  backend: redis\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err, "redis backend without a url must fail validation")

	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  delimiter: \"#\"\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestIngestOptions(t *testing.T) {
	isolateHome(t)
	c, err := Load("")
	require.NoError(t, err)
	c.Ingest.Delimiter = "tab"
	c.Ingest.NAValues = []string{"missing"}
	opt, err := c.IngestOptions(1024)
	require.NoError(t, err)
	assert.Equal(t, '\t', opt.Delimiter)
	assert.Equal(t, int64(1024), opt.MaxBytes)
	assert.Equal(t, []string{"missing"}, opt.NAValues)
}
