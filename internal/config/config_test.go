package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 200000, c.MaxCells)
	assert.Equal(t, 8, c.HeaderScanRows)
	assert.Equal(t, 20, c.PreviewRows)
	assert.Equal(t, 3.0, c.OutlierZ)
	assert.Equal(t, 0.5, c.CorrelationThreshold)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.ClassifierModel)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_cells: 500\nlisten_addr: \":9000\"\n"), 0o644))
	t.Setenv("SMARTDOC_OUTLIER_Z", "2.5")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, c.MaxCells)
	assert.Equal(t, ":9000", c.ListenAddr)
	assert.Equal(t, 2.5, c.OutlierZ)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("correlation_threshold: 2\n"), 0o644))
	_, err := Load(path)
	assert.True(t, apperr.IsValidation(err))
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("max_cells", "1000"))
	require.NoError(t, c.Set("classifier_model", "/tmp/model.yaml"))
	assert.True(t, apperr.IsValidation(c.Set("nope", "1")))
	assert.True(t, apperr.IsValidation(c.Set("outlier_z", "-1")))
	require.NoError(t, c.Set("outlier_z", "3"))

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(c, path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, back.MaxCells)
	assert.Equal(t, "/tmp/model.yaml", back.ClassifierModel)
	assert.Len(t, Keys(), 9)
	values := back.Values()
	for _, k := range Keys() {
		assert.Contains(t, values, k)
	}
	assert.Equal(t, 1000, values["max_cells"])
}

func TestDefaultsIgnoreEnv(t *testing.T) {
	t.Setenv("SMARTDOC_MAX_CELLS", "7")
	c := Defaults()
	assert.Equal(t, 200000, c.MaxCells)
	assert.Equal(t, "127.0.0.1:8080", c.ListenAddr)
	assert.NoError(t, c.Validate())
}
