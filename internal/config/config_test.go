package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SMSLEDGER_CONFIG", "")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, StoreSQLite, c.Store.Kind)
	require.Equal(t, SourceFile, c.Source.Kind)
	require.Equal(t, 30, c.Scan.WindowDays)
	require.Equal(t, "INR", c.Scan.Currency)
	require.True(t, c.Scan.ReadAccessGranted)
	require.Equal(t, 8080, c.Server.Port)
	require.NoError(t, c.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
format = "json"

[source]
kind = "gcs"
gcs_uri = "gs://bucket/sms/export.json"

[store]
kind = "bigquery"
project_id = "my-project"

[scan]
window_days = 7
read_access_granted = false

[worker]
workers = 4
interval = "15m"
`), 0o600))
	t.Setenv("SMSLEDGER_CONFIG", path)
	t.Setenv("SMSLEDGER_SCAN_CURRENCY", "USD")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", c.Log.Level)
	require.Equal(t, "json", c.Log.Format)
	require.Equal(t, "gs://bucket/sms/export.json", c.Source.GCSURI)
	require.Equal(t, "my-project", c.Store.ProjectID)
	require.Equal(t, "smsledger", c.Store.Dataset)
	require.Equal(t, 7, c.Scan.WindowDays)
	require.False(t, c.Scan.ReadAccessGranted)
	require.Equal(t, "USD", c.Scan.Currency)
	require.Equal(t, 4, c.Worker.Workers)
	require.Equal(t, 15*time.Minute, c.Worker.Interval)
	require.NoError(t, c.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SMSLEDGER_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Log:    LogConfig{Level: "info", Format: "console"},
			Source: SourceConfig{Kind: SourceFile, Path: "messages.json"},
			Store:  StoreConfig{Kind: StoreSQLite, SQLitePath: "x.db"},
			Scan:   ScanConfig{WindowDays: 30, Timezone: "UTC", Currency: "INR"},
			Worker: WorkerConfig{QueueSize: 10, Workers: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"unknown source", func(c *Config) { c.Source.Kind = "adb" }, true},
		{"gcs without uri", func(c *Config) { c.Source.Kind = SourceGCS }, true},
		{"gcs uri", func(c *Config) { c.Source = SourceConfig{Kind: SourceGCS, GCSURI: "gs://b/o.json"} }, false},
		{"unknown store", func(c *Config) { c.Store.Kind = "postgres" }, true},
		{"bigquery without project", func(c *Config) { c.Store.Kind = StoreBigQuery }, true},
		{"zero window", func(c *Config) { c.Scan.WindowDays = 0 }, true},
		{"bad currency", func(c *Config) { c.Scan.Currency = "RUPEES" }, true},
		{"bad timezone", func(c *Config) { c.Scan.Timezone = "Mars/Olympus" }, true},
		{"no workers", func(c *Config) { c.Worker.Workers = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
