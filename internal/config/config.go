package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Nesting
	WarnMalformedHead bool
	MaxDiagnostics    int

	// Output
	DefaultFormat string
}

// fileConfig mirrors Config as it appears in a TOML file. Every field is a
// pointer so unset keys leave the defaults alone.
type fileConfig struct {
	Port              *string `toml:"port"`
	APIKey            *string `toml:"api_key"`
	WorkerCount       *int    `toml:"worker_count"`
	MaxQueueSize      *int    `toml:"max_queue_size"`
	MaxUploadBytes    *int64  `toml:"max_upload_bytes"`
	JobTTL            *string `toml:"job_ttl"`
	WarnMalformedHead *bool   `toml:"warn_malformed_head"`
	MaxDiagnostics    *int    `toml:"max_diagnostics"`
	DefaultFormat     *string `toml:"default_format"`
}

func Default() Config {
	return Config{
		Port:           "8090",
		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 10485760, // 10MB
		JobTTL:         1 * time.Hour,
		MaxDiagnostics: 1000,
		DefaultFormat:  "json",
	}
}

// Load reads the file named by DOCNEST_CONFIG, if any, then applies
// environment overrides.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("DOCNEST_CONFIG"))
}

// LoadFrom is Load with an explicit config file path. An empty path skips the
// file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path, cfg); err != nil {
			return Config{}, err
		}
	}
	cfg = applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

// LoadFile overlays the TOML file at path onto base. Unknown keys are
// rejected so typos do not pass silently.
func LoadFile(path string, base Config) (Config, error) {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg := base
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.APIKey != nil {
		cfg.APIKey = *fc.APIKey
	}
	if fc.WorkerCount != nil {
		cfg.WorkerCount = *fc.WorkerCount
	}
	if fc.MaxQueueSize != nil {
		cfg.MaxQueueSize = *fc.MaxQueueSize
	}
	if fc.MaxUploadBytes != nil {
		cfg.MaxUploadBytes = *fc.MaxUploadBytes
	}
	if fc.JobTTL != nil {
		d, err := time.ParseDuration(*fc.JobTTL)
		if err != nil {
			return Config{}, fmt.Errorf("%s: job_ttl: %w", path, err)
		}
		cfg.JobTTL = d
	}
	if fc.WarnMalformedHead != nil {
		cfg.WarnMalformedHead = *fc.WarnMalformedHead
	}
	if fc.MaxDiagnostics != nil {
		cfg.MaxDiagnostics = *fc.MaxDiagnostics
	}
	if fc.DefaultFormat != nil {
		cfg.DefaultFormat = *fc.DefaultFormat
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCNEST_API_KEY", cfg.APIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.WarnMalformedHead = envBool("WARN_MALFORMED_HEAD", cfg.WarnMalformedHead)
	cfg.MaxDiagnostics = envInt("MAX_DIAGNOSTICS", cfg.MaxDiagnostics)
	cfg.DefaultFormat = envOr("DEFAULT_FORMAT", cfg.DefaultFormat)
	return cfg
}

func (c *Config) normalize() {
	def := Default()
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
	// Zero keeps every diagnostic.
	if c.MaxDiagnostics < 0 {
		c.MaxDiagnostics = 0
	}
	c.DefaultFormat = strings.ToLower(strings.TrimSpace(c.DefaultFormat))
	if c.DefaultFormat == "" {
		c.DefaultFormat = def.DefaultFormat
	}
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCNEST_API_KEY is required")
	}
	switch c.DefaultFormat {
	case "json", "html", "text":
	default:
		return fmt.Errorf("DEFAULT_FORMAT %q is not one of json, html, text", c.DefaultFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
