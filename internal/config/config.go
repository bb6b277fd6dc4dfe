// Package config loads runtime settings from defaults, an optional YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/petasbytes/research-agent/internal/provider"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile             = "researcher.yaml"
	defaultMaxTokens        = 8192
	defaultTokenBudget      = 150_000
	defaultOutputDir        = "output"
	defaultEngine           = "tectonic"
	defaultCompileTimeout   = 2 * time.Minute
	defaultStateDir         = ".agent"
	defaultSearchMaxResults = 5
	maxSearchMaxResults     = 50
)

// Config is the assembled runtime configuration.
type Config struct {
	APIKey           string        `yaml:"-"`
	Model            string        `yaml:"model"`
	MaxTokens        int           `yaml:"max_tokens"`
	TokenBudget      int           `yaml:"token_budget"`
	OutputDir        string        `yaml:"output_dir"`
	Engine           string        `yaml:"engine"`
	CompileTimeout   time.Duration `yaml:"compile_timeout"`
	Collision        string        `yaml:"collision_policy"`
	StateDir         string        `yaml:"state_dir"`
	SearchURL        string        `yaml:"arxiv_url"`
	SearchMaxResults int           `yaml:"arxiv_max_results"`
	LogLevel         slog.Level    `yaml:"-"`
	LogLevelName     string        `yaml:"log_level"`
}

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	return Config{
		Model:            string(provider.DefaultModel),
		MaxTokens:        defaultMaxTokens,
		TokenBudget:      defaultTokenBudget,
		OutputDir:        defaultOutputDir,
		Engine:           defaultEngine,
		CompileTimeout:   defaultCompileTimeout,
		Collision:        "suffix",
		StateDir:         defaultStateDir,
		SearchMaxResults: defaultSearchMaxResults,
		LogLevel:         slog.LevelInfo,
		LogLevelName:     "info",
	}
}

// Load assembles a Config. path names an optional YAML file; a missing file is not an
// error unless it was requested explicitly (non-empty path other than DefaultFile).
// A .env file in the working directory is loaded into the process environment first;
// variables already set win over it.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()

	explicit := path != "" && path != DefaultFile
	if path == "" {
		path = DefaultFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	// yaml.v3 decodes "90s"-style strings into time.Duration.
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.LogLevelName != "" {
		lvl, err := ParseLogLevel(c.LogLevelName)
		if err != nil {
			return fmt.Errorf("parse config %s: log_level: %w", path, err)
		}
		c.LogLevel = lvl
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.APIKey = v
	}
	setString(&c.Model, "AGT_MODEL")
	setString(&c.OutputDir, "AGT_OUTPUT_DIR")
	setString(&c.Engine, "AGT_TEX_ENGINE")
	setString(&c.Collision, "AGT_COLLISION_POLICY")
	setString(&c.StateDir, "AGT_STATE_DIR")
	setString(&c.SearchURL, "AGT_ARXIV_URL")

	for _, iv := range []struct {
		name string
		dst  *int
	}{
		{"AGT_MAX_TOKENS", &c.MaxTokens},
		{"AGT_TOKEN_BUDGET", &c.TokenBudget},
		{"AGT_ARXIV_MAX_RESULTS", &c.SearchMaxResults},
	} {
		if v := os.Getenv(iv.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", iv.name, err)
			}
			*iv.dst = n
		}
	}

	if v := os.Getenv("AGT_COMPILE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse AGT_COMPILE_TIMEOUT: %w", err)
		}
		c.CompileTimeout = d
	}
	if v := os.Getenv("AGT_LOG_LEVEL"); v != "" {
		lvl, err := ParseLogLevel(v)
		if err != nil {
			return fmt.Errorf("parse AGT_LOG_LEVEL: %w", err)
		}
		c.LogLevel, c.LogLevelName = lvl, strings.ToLower(v)
	}
	return nil
}

// Validate checks value ranges after all layers are applied.
func (c Config) Validate() error {
	switch {
	case c.MaxTokens <= 0:
		return fmt.Errorf("max_tokens: value must be > 0")
	case c.TokenBudget <= 0:
		return fmt.Errorf("token_budget: value must be > 0")
	case c.CompileTimeout <= 0:
		return fmt.Errorf("compile_timeout: value must be > 0")
	case c.SearchMaxResults < 1 || c.SearchMaxResults > maxSearchMaxResults:
		return fmt.Errorf("arxiv_max_results: value must be within 1..%d", maxSearchMaxResults)
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("output_dir: must not be empty")
	case strings.TrimSpace(c.Engine) == "":
		return fmt.Errorf("engine: must not be empty")
	}
	if c.Collision != "suffix" && c.Collision != "overwrite" {
		return fmt.Errorf("collision_policy: %q is not one of suffix, overwrite", c.Collision)
	}
	return nil
}

// ParseLogLevel accepts debug, info, warn and error (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unsupported level %q (want debug, info, warn or error)", s)
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
