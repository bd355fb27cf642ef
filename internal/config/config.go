package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // scan.timezone must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

const (
	SourceFile = "file"
	SourceGCS  = "gcs"

	StoreSQLite   = "sqlite"
	StoreBigQuery = "bigquery"
)

// Config holds application configuration.
type Config struct {
	Log    LogConfig
	Source SourceConfig
	Store  StoreConfig
	Scan   ScanConfig
	Server ServerConfig
	Worker WorkerConfig
}

type LogConfig struct {
	Level  string
	Format string // console | json
}

// SourceConfig selects where messages are read from.
type SourceConfig struct {
	Kind   string // file | gcs
	Path   string
	GCSURI string `mapstructure:"gcs_uri"`
}

// StoreConfig selects where scan results are written.
type StoreConfig struct {
	Kind            string // sqlite | bigquery
	SQLitePath      string `mapstructure:"sqlite_path"`
	ProjectID       string `mapstructure:"project_id"`
	Dataset         string
	CredentialsFile string `mapstructure:"credentials_file"`
}

type ScanConfig struct {
	WindowDays        int    `mapstructure:"window_days"`
	Timezone          string
	Currency          string
	ReadAccessGranted bool `mapstructure:"read_access_granted"`
}

type ServerConfig struct {
	Port int
}

type WorkerConfig struct {
	QueueSize  int           `mapstructure:"queue_size"`
	Workers    int
	MaxRetries int           `mapstructure:"max_retries"`
	Interval   time.Duration // between periodic scans; 0 runs once
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "smsledger")
}

// Load reads configuration from file and env. Env var overrides use prefix SMSLEDGER_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("source.kind", SourceFile)
	v.SetDefault("source.path", "messages.json")
	v.SetDefault("source.gcs_uri", "")
	v.SetDefault("store.kind", StoreSQLite)
	v.SetDefault("store.sqlite_path", filepath.Join(os.Getenv("HOME"), ".local", "share", "smsledger", "smsledger.db"))
	v.SetDefault("store.project_id", "")
	v.SetDefault("store.dataset", "smsledger")
	v.SetDefault("store.credentials_file", "")
	v.SetDefault("scan.window_days", 30)
	v.SetDefault("scan.timezone", "Asia/Kolkata")
	v.SetDefault("scan.currency", "INR")
	v.SetDefault("scan.read_access_granted", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("worker.workers", 2)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.interval", "0s")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SMSLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SMSLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine, an explicit one must exist and parse
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate rejects unknown kinds and missing required settings.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for the %s source", SourceFile)
		}
	case SourceGCS:
		if !strings.HasPrefix(c.Source.GCSURI, "gs://") {
			return fmt.Errorf("source.gcs_uri must be a gs:// URI, got %q", c.Source.GCSURI)
		}
	default:
		return fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind)
	}

	switch c.Store.Kind {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the %s store", StoreSQLite)
		}
	case StoreBigQuery:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("store.project_id is required for the %s store", StoreBigQuery)
		}
	default:
		return fmt.Errorf("store.kind: unknown kind %q", c.Store.Kind)
	}

	if c.Scan.WindowDays <= 0 {
		return fmt.Errorf("scan.window_days must be positive, got %d", c.Scan.WindowDays)
	}
	if len(c.Scan.Currency) != 3 {
		return fmt.Errorf("scan.currency must be an ISO 4217 code, got %q", c.Scan.Currency)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Worker.Workers <= 0 || c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.workers and worker.queue_size must be positive")
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("worker.max_retries must not be negative")
	}
	return nil
}

// Location loads the scan timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scan.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scan.timezone: %w", err)
	}
	return loc, nil
}
