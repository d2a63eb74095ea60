package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into a scratch directory so no config.yaml
// from the working tree leaks into Load.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "2024-01-01", cfg.Risk.TrainCutoff)
	assert.Equal(t, 0.7, cfg.Risk.UniverseQuantile)
	assert.Equal(t, 400, cfg.Risk.Trees)
	assert.Equal(t, 8.0, cfg.Risk.AlertThreshold)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GLV_SERVER_PORT", "9090")
	t.Setenv("GLV_RISK_TRAIN_CUTOFF", "2023-06-15")
	t.Setenv("GLV_DATA_DIR", "/srv/market")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "2023-06-15", cfg.Risk.TrainCutoff)
	assert.Equal(t, filepath.Join("/srv/market", "OHLCV_Merge.csv"), cfg.PricesPath())
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GLV_RISK_TRAIN_CUTOFF", "not-a-date")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train cutoff")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "timeout"},
		{"quantile too high", func(c *Config) { c.Risk.UniverseQuantile = 1 }, "quantile"},
		{"quantile too low", func(c *Config) { c.Risk.UniverseQuantile = 0 }, "quantile"},
		{"no trees", func(c *Config) { c.Risk.Trees = 0 }, "tree"},
		{"alert threshold out of scale", func(c *Config) { c.Risk.AlertThreshold = 11 }, "alert"},
		{"unparseable cutoff", func(c *Config) { c.Risk.TrainCutoff = "June 1st" }, "cutoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTrainCutoff(t *testing.T) {
	cfg := Default()
	cutoff, err := cfg.TrainCutoff()
	require.NoError(t, err)
	assert.True(t, cutoff.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Data.Dir = "market"
	assert.Equal(t, filepath.Join("market", "OHLCV_Merge.csv"), cfg.PricesPath())
	assert.Equal(t, filepath.Join("market", "Share_outstanding.csv"), cfg.SharesPath())
}
