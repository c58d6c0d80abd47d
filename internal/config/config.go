package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete FuseMCP configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	DataDir   string          `yaml:"data_dir" json:"data_dir"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// ProviderConfig configures one upstream search provider.
type ProviderConfig struct {
	// Enabled controls whether the provider is registered at startup.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Endpoint is the provider's search API URL. Empty switches the
	// adapter to the built-in static fixture set, which keeps the
	// server usable offline and in demos.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// APIKey authenticates against the provider. Prefer the
	// FUSEMCP_<SOURCE>_API_KEY environment variable over committing
	// keys to a config file.
	APIKey string `yaml:"api_key" json:"api_key"`
}

// ProvidersConfig holds the per-source provider settings.
type ProvidersConfig struct {
	Web    ProviderConfig `yaml:"web" json:"web"`
	News   ProviderConfig `yaml:"news" json:"news"`
	Answer ProviderConfig `yaml:"answer" json:"answer"`
}

// SearchConfig configures the fusion orchestrator.
type SearchConfig struct {
	// DefaultMode is used when a caller omits the mode.
	// Options: fast, balanced, comprehensive.
	DefaultMode string `yaml:"default_mode" json:"default_mode"`

	// MaxTotal is the default result cap for a fused response.
	MaxTotal int `yaml:"max_total" json:"max_total"`

	// ProviderTimeout bounds one provider call (e.g. "10s").
	ProviderTimeout string `yaml:"provider_timeout" json:"provider_timeout"`

	// MaxRetries is the retry budget per provider call, not counting
	// the initial attempt.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// CacheConfig configures the TTL response cache.
type CacheConfig struct {
	// Enabled turns the cache off entirely when false.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// HotEntries is the capacity of the in-memory layer in front of
	// SQLite.
	HotEntries int `yaml:"hot_entries" json:"hot_entries"`
}

// TelemetryConfig configures the run recorder.
type TelemetryConfig struct {
	// Enabled turns run recording off entirely when false.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// RetentionDays is how long run records are kept before purge.
	RetentionDays int `yaml:"retention_days" json:"retention_days"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		DataDir: defaultDataDir(),
		Providers: ProvidersConfig{
			Web:    ProviderConfig{Enabled: true},
			News:   ProviderConfig{Enabled: true},
			Answer: ProviderConfig{Enabled: false},
		},
		Search: SearchConfig{
			DefaultMode:     "balanced",
			MaxTotal:        10,
			ProviderTimeout: "10s",
			MaxRetries:      1,
		},
		Cache: CacheConfig{
			Enabled:    true,
			HotEntries: 256,
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8765,
			LogLevel:  "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".fusemcp")
	}
	return filepath.Join(home, ".fusemcp")
}

// GetUserConfigPath returns the path to the user configuration file,
// following the XDG Base Directory convention.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fusemcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "fusemcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "fusemcp", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil // no user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load loads configuration from the specified directory, applying in
// order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/fusemcp/config.yaml)
//  3. Project config (.fusemcp.yaml in dir)
//  4. Environment variables (FUSEMCP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile attempts to load configuration from .fusemcp.yaml or .fusemcp.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".fusemcp.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".fusemcp.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// no config file is fine, use defaults
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	mergeProvider(&c.Providers.Web, &other.Providers.Web)
	mergeProvider(&c.Providers.News, &other.Providers.News)
	mergeProvider(&c.Providers.Answer, &other.Providers.Answer)

	if other.Search.DefaultMode != "" {
		c.Search.DefaultMode = other.Search.DefaultMode
	}
	if other.Search.MaxTotal != 0 {
		c.Search.MaxTotal = other.Search.MaxTotal
	}
	if other.Search.ProviderTimeout != "" {
		c.Search.ProviderTimeout = other.Search.ProviderTimeout
	}
	if other.Search.MaxRetries != 0 {
		c.Search.MaxRetries = other.Search.MaxRetries
	}

	// booleans can't distinguish "unset" from "false"; a section is
	// considered present when any of its other fields is set
	if other.Cache.HotEntries != 0 {
		c.Cache.Enabled = other.Cache.Enabled
		c.Cache.HotEntries = other.Cache.HotEntries
	}
	if other.Telemetry.RetentionDays != 0 {
		c.Telemetry.Enabled = other.Telemetry.Enabled
		c.Telemetry.RetentionDays = other.Telemetry.RetentionDays
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

func mergeProvider(dst, src *ProviderConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	// a provider mentioned with an endpoint or key is implicitly enabled
	// unless the file says otherwise
	if src.Endpoint != "" || src.APIKey != "" || src.Enabled {
		dst.Enabled = src.Enabled || src.Endpoint != "" || src.APIKey != ""
	}
}

// applyEnvOverrides applies FUSEMCP_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FUSEMCP_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FUSEMCP_DEFAULT_MODE"); v != "" {
		c.Search.DefaultMode = v
	}
	if v := os.Getenv("FUSEMCP_PROVIDER_TIMEOUT"); v != "" {
		c.Search.ProviderTimeout = v
	}
	if v := os.Getenv("FUSEMCP_MAX_TOTAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxTotal = n
		}
	}
	if v := os.Getenv("FUSEMCP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.MaxRetries = n
		}
	}

	if v := os.Getenv("FUSEMCP_WEB_API_KEY"); v != "" {
		c.Providers.Web.APIKey = v
	}
	if v := os.Getenv("FUSEMCP_NEWS_API_KEY"); v != "" {
		c.Providers.News.APIKey = v
	}
	if v := os.Getenv("FUSEMCP_ANSWER_API_KEY"); v != "" {
		c.Providers.Answer.APIKey = v
	}

	if v := os.Getenv("FUSEMCP_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("FUSEMCP_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}

	if v := os.Getenv("FUSEMCP_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("FUSEMCP_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

// ProviderTimeout returns the parsed per-provider call timeout.
func (c *Config) ProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.ProviderTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Retention returns the parsed telemetry retention window.
func (c *Config) Retention() time.Duration {
	if c.Telemetry.RetentionDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.Telemetry.RetentionDays) * 24 * time.Hour
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validModes := map[string]bool{"fast": true, "balanced": true, "comprehensive": true}
	if !validModes[strings.ToLower(c.Search.DefaultMode)] {
		return fmt.Errorf("search.default_mode must be 'fast', 'balanced', or 'comprehensive', got %s", c.Search.DefaultMode)
	}

	if c.Search.MaxTotal <= 0 {
		return fmt.Errorf("search.max_total must be positive, got %d", c.Search.MaxTotal)
	}
	if c.Search.MaxRetries < 0 {
		return fmt.Errorf("search.max_retries must be non-negative, got %d", c.Search.MaxRetries)
	}
	if _, err := time.ParseDuration(c.Search.ProviderTimeout); err != nil {
		return fmt.Errorf("search.provider_timeout is not a valid duration: %s", c.Search.ProviderTimeout)
	}

	if c.Cache.HotEntries < 0 {
		return fmt.Errorf("cache.hot_entries must be non-negative, got %d", c.Cache.HotEntries)
	}
	if c.Telemetry.RetentionDays < 0 {
		return fmt.Errorf("telemetry.retention_days must be non-negative, got %d", c.Telemetry.RetentionDays)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// EnabledSources lists the providers the configuration enables.
func (c *Config) EnabledSources() []string {
	var sources []string
	if c.Providers.Web.Enabled {
		sources = append(sources, "web")
	}
	if c.Providers.News.Enabled {
		sources = append(sources, "news")
	}
	if c.Providers.Answer.Enabled {
		sources = append(sources, "answer")
	}
	return sources
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
