package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
store:
  backend: memory
  seed: true
log:
  level: debug
  format: json
dashboard:
  closed_stages: [won, lost]
  conversion_rate: 40
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"won", "lost"}, cfg.Dashboard.ClosedStages)
	assert.Equal(t, 40.0, cfg.Dashboard.ConversionRate)
	// untouched keys keep defaults
	assert.Equal(t, 5, cfg.Dashboard.RecentActivities)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEALDECK_STORE_BACKEND", "remote")
	t.Setenv("DEALDECK_STORE_REMOTE_URL", "https://crm.example.com/api/v1")
	t.Setenv("DEALDECK_STORE_SEED", "true")
	t.Setenv("DEALDECK_DASHBOARD_STAGES", "lead, won ,")
	t.Setenv("DEALDECK_DASHBOARD_RECENT_ACTIVITIES", "8")
	t.Setenv("DEALDECK_SERVER_ALLOWED_ORIGINS", "https://crm.example.com")
	t.Setenv("DEALDECK_SERVER_RECORDS_TOKEN", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Store.Backend)
	assert.Equal(t, "https://crm.example.com/api/v1", cfg.Store.RemoteURL)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, []string{"lead", "won"}, cfg.Dashboard.Stages)
	assert.Equal(t, 8, cfg.Dashboard.RecentActivities)
	assert.Equal(t, []string{"https://crm.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "s3cret", cfg.Server.RecordsToken)
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("DEALDECK_STORE_SEED", "maybe")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unterminated"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, true},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Store.DSN = "postgres://localhost/crm"
		}, false},
		{"remote without url", func(c *Config) { c.Store.Backend = BackendRemote }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"bad read policy", func(c *Config) { c.Data.ReadPolicy = "retry" }, true},
		{"zero recent", func(c *Config) { c.Dashboard.RecentActivities = 0 }, true},
		{"rate over 100", func(c *Config) { c.Dashboard.ConversionRate = 120 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Store.Backend = BackendCharm
	cfg.Store.RemoteToken = "tok"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
