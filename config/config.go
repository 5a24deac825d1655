package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default timeouts
	defaultRequestTimeout = 60 * time.Second

	// Default behavior settings
	defaultMaxRetries    = 2
	defaultRetryDelay    = 5 * time.Second
	defaultMaxConcurrent = 4

	// Default report settings
	defaultReportFormat = "sqlite"
	defaultReportDir    = "reports"

	// Default scoring settings
	defaultScoringPlatform = "CHATGPT"

	// Default monitoring settings
	defaultMetricsPrefix = "benchmark"
	defaultJobName       = "benchrun"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Providers the backend layer knows how to build clients for.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config represents the complete application configuration
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset"`
	Platforms  []PlatformConfig `yaml:"platforms"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Report     ReportConfig     `yaml:"report"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatasetConfig locates the benchmark input workbook
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// PlatformConfig describes one AI platform under test. Credentials come from
// the environment, keyed by the platform id, so secrets stay out of the file.
type PlatformConfig struct {
	ID       string `yaml:"id"`
	Provider string `yaml:"provider"`

	// BaseURL overrides the env-provided endpoint, mainly for
	// OpenAI-compatible gateways.
	BaseURL string `yaml:"base_url"`

	// Throttle is a pause after each successful call, for platforms with
	// aggressive rate limits.
	Throttle time.Duration `yaml:"throttle"`
}

// ScoringConfig controls judge-based evaluation. Scoring runs only when a
// ground truth workbook is configured.
type ScoringConfig struct {
	// Platform is the id of the platform acting as judge.
	Platform string `yaml:"platform"`

	// GroundTruth is the path to the reference workbook. Empty disables
	// scoring.
	GroundTruth string `yaml:"ground_truth"`

	// TemplatePath points at a custom judge prompt. The built-in prompt is
	// used when empty.
	TemplatePath string `yaml:"template_path"`
}

// ReportConfig controls where and how results are persisted
type ReportConfig struct {
	Format string `yaml:"format"` // report format: sqlite, xlsx
	Dir    string `yaml:"dir"`
}

// TimeoutsConfig defines various timeout durations
type TimeoutsConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// BehaviorConfig defines application behavior settings. MaxRetries is a
// pointer so an explicit 0 (no retries) survives defaulting.
type BehaviorConfig struct {
	MaxRetries    *int          `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// MonitoringConfig holds metrics and monitoring settings. ListenAddr exposes
// a /metrics scrape endpoint for long-running scheduled mode; RemoteWriteURL
// pushes via Prometheus remote write for one-shot runs. Both empty disables
// metrics.
type MonitoringConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	RemoteWriteURL string `yaml:"remote_write_url"`
	MetricsPrefix  string `yaml:"metrics_prefix"`
	JobName        string `yaml:"jobname"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Credentials are the per-platform secrets resolved from the environment.
type Credentials struct {
	BaseURL string
	APIKey  string
	Model   string
}

// ScoringEnabled reports whether a judge pass should run.
func (c *Config) ScoringEnabled() bool {
	return c.Scoring.GroundTruth != ""
}

// Platform returns the configuration for a platform id, if present.
func (c *Config) Platform(id string) (PlatformConfig, bool) {
	for _, p := range c.Platforms {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return PlatformConfig{}, false
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required")
	}
	if len(c.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	seen := make(map[string]bool)
	for _, p := range c.Platforms {
		if p.ID == "" {
			return fmt.Errorf("platform id is required")
		}
		id := strings.ToUpper(p.ID)
		if seen[id] {
			return fmt.Errorf("duplicate platform id %q", p.ID)
		}
		seen[id] = true
		if p.Provider != ProviderOpenAI && p.Provider != ProviderAnthropic {
			return fmt.Errorf("platform %s has unknown provider %q", p.ID, p.Provider)
		}
	}
	if c.Report.Format != "sqlite" && c.Report.Format != "xlsx" {
		return fmt.Errorf("unknown report format %q", c.Report.Format)
	}
	if c.ScoringEnabled() {
		if _, ok := c.Platform(c.Scoring.Platform); !ok {
			return fmt.Errorf("scoring platform %q is not a configured platform", c.Scoring.Platform)
		}
	}
	if c.Timeouts.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Behavior.MaxRetries != nil && *c.Behavior.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.Behavior.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent must be positive")
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Timeouts.RequestTimeout == 0 {
		c.Timeouts.RequestTimeout = defaultRequestTimeout
	}
	if c.Behavior.MaxRetries == nil {
		retries := defaultMaxRetries
		c.Behavior.MaxRetries = &retries
	}
	if c.Behavior.RetryDelay == 0 {
		c.Behavior.RetryDelay = defaultRetryDelay
	}
	if c.Behavior.MaxConcurrent == 0 {
		c.Behavior.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Report.Format == "" {
		c.Report.Format = defaultReportFormat
	}
	if c.Report.Dir == "" {
		c.Report.Dir = defaultReportDir
	}
	if c.Scoring.Platform == "" {
		c.Scoring.Platform = defaultScoringPlatform
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	// Set logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ResolveCredentials reads a platform's secrets from the environment. The
// variables are <ID>_BASE_URL, <ID>_API_KEY and <ID>_MODEL with the id
// upper-cased, so CHATGPT reads CHATGPT_API_KEY. A leading "Bearer " on the
// key is stripped since some consoles hand out the header value verbatim.
func ResolveCredentials(p PlatformConfig) (Credentials, error) {
	prefix := strings.ToUpper(strings.TrimSpace(p.ID))

	creds := Credentials{
		BaseURL: strings.TrimSpace(os.Getenv(prefix + "_BASE_URL")),
		APIKey:  strings.TrimSpace(os.Getenv(prefix + "_API_KEY")),
		Model:   strings.TrimSpace(os.Getenv(prefix + "_MODEL")),
	}
	if p.BaseURL != "" {
		creds.BaseURL = p.BaseURL
	}
	creds.APIKey = strings.TrimPrefix(creds.APIKey, "Bearer ")

	if creds.APIKey == "" {
		return creds, fmt.Errorf("missing %s_API_KEY for platform %s", prefix, p.ID)
	}
	if creds.Model == "" {
		return creds, fmt.Errorf("missing %s_MODEL for platform %s", prefix, p.ID)
	}
	return creds, nil
}
