// ABOUTME: Application configuration loaded from YAML, .env, and environment
// ABOUTME: Lives at $XDG_CONFIG_HOME/dealdeck/config.yaml with DEALDECK_* overrides

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendCharm    = "charm"
	BackendRemote   = "remote"
)

const envPrefix = "DEALDECK_"

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	DSN         string `yaml:"dsn,omitempty"`
	RemoteURL   string `yaml:"remote_url,omitempty"`
	RemoteToken string `yaml:"remote_token,omitempty"`
	// Seed loads the demo data into empty tables on startup.
	Seed bool `yaml:"seed"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AllowedOrigins may make cross-origin calls to /api/v1. Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	// RecordsToken is the bearer token the hosted record API accepts.
	RecordsToken string `yaml:"records_token,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DataConfig struct {
	ReadPolicy string `yaml:"read_policy"`
}

type DashboardConfig struct {
	Stages           []string `yaml:"stages"`
	ClosedStages     []string `yaml:"closed_stages"`
	ConversionRate   float64  `yaml:"conversion_rate"`
	RecentActivities int      `yaml:"recent_activities"`
}

type GoogleConfig struct {
	// CredentialsFile is the OAuth client secret JSON downloaded from the Google console.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// Config holds user preferences.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Data      DataConfig      `yaml:"data"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Google    GoogleConfig    `yaml:"google"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			ReadPolicy: "degrade",
		},
		Dashboard: DashboardConfig{
			Stages:           []string{"discovery", "qualified", "proposal", "negotiation"},
			ClosedStages:     []string{"closed"},
			ConversionRate:   65,
			RecentActivities: 5,
		},
	}
}

// Dir is the configuration directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "dealdeck")
}

// Path is the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads .env from the working directory, then the YAML file at path
// (Path() when empty), then applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = Path()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	return v, ok && v != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STORE_BACKEND":        &c.Store.Backend,
		"STORE_DSN":            &c.Store.DSN,
		"STORE_REMOTE_URL":     &c.Store.RemoteURL,
		"STORE_REMOTE_TOKEN":   &c.Store.RemoteToken,
		"SERVER_ADDR":          &c.Server.Addr,
		"SERVER_RECORDS_TOKEN": &c.Server.RecordsToken,
		"LOG_LEVEL":            &c.Log.Level,
		"LOG_FORMAT":           &c.Log.Format,
		"DATA_READ_POLICY":     &c.Data.ReadPolicy,
		"GOOGLE_CREDENTIALS":   &c.Google.CredentialsFile,
	}
	for key, dst := range strs {
		if v, ok := getEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := getEnv("STORE_SEED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTORE_SEED: %w", envPrefix, err)
		}
		c.Store.Seed = b
	}
	if v, ok := getEnv("SERVER_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := getEnv("DASHBOARD_STAGES"); ok {
		c.Dashboard.Stages = splitList(v)
	}
	if v, ok := getEnv("DASHBOARD_CLOSED_STAGES"); ok {
		c.Dashboard.ClosedStages = splitList(v)
	}
	if v, ok := getEnv("DASHBOARD_CONVERSION_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sDASHBOARD_CONVERSION_RATE: %w", envPrefix, err)
		}
		c.Dashboard.ConversionRate = f
	}
	if v, ok := getEnv("DASHBOARD_RECENT_ACTIVITIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sDASHBOARD_RECENT_ACTIVITIES: %w", envPrefix, err)
		}
		c.Dashboard.RecentActivities = n
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendCharm:
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	case BackendRemote:
		if c.Store.RemoteURL == "" {
			return fmt.Errorf("store.remote_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	switch c.Data.ReadPolicy {
	case "degrade", "fail":
	default:
		return fmt.Errorf("unknown data.read_policy %q", c.Data.ReadPolicy)
	}
	if c.Dashboard.RecentActivities <= 0 {
		return fmt.Errorf("dashboard.recent_activities must be positive")
	}
	if c.Dashboard.ConversionRate < 0 || c.Dashboard.ConversionRate > 100 {
		return fmt.Errorf("dashboard.conversion_rate must be between 0 and 100")
	}
	return nil
}

// Save writes the config to path (Path() when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold a remote API token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
