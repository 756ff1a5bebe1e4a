// Package config loads the monitor settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

const EnvPrefix = "BENFORD"

var (
	ErrInvalidBaseURL   = errors.New("source.base_url must be an absolute http(s) URL")
	ErrNoCategories     = errors.New("source.categories must not be empty")
	ErrInvalidTimeout   = errors.New("source.timeout must be positive")
	ErrInvalidTolerance = errors.New("analysis.tolerance must not be negative")
	ErrInvalidInterval  = errors.New("schedule.interval must be positive")
	ErrInvalidRefresh   = errors.New("output.refresh_seconds must be positive")
	ErrInvalidFileName  = errors.New("output file names must be plain file names")
)

type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Output   OutputConfig   `mapstructure:"output"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type SourceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Categories []string      `mapstructure:"categories"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	Breaker    BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Failures    uint32        `mapstructure:"failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type AnalysisConfig struct {
	Tolerance float64 `mapstructure:"tolerance"`
}

type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Cron, when set, replaces Interval with a standard five-field cron expression.
	Cron string `mapstructure:"cron"`
}

type OutputConfig struct {
	Dir            string   `mapstructure:"dir"`
	ChartFile      string   `mapstructure:"chart_file"`
	PageFile       string   `mapstructure:"page_file"`
	RefreshSeconds int      `mapstructure:"refresh_seconds"`
	S3             S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func setDefaults(v *viper.Viper) {
	categories := make([]string, 0, len(domain.DefaultCategories))
	for _, c := range domain.DefaultCategories {
		categories = append(categories, string(c))
	}

	v.SetDefault("source.base_url", "https://api.doge.gov")
	v.SetDefault("source.categories", categories)
	v.SetDefault("source.timeout", 30*time.Second)
	v.SetDefault("source.rate_limit", 5.0)
	v.SetDefault("source.breaker.failures", 3)
	v.SetDefault("source.breaker.open_timeout", 5*time.Minute)
	v.SetDefault("analysis.tolerance", domain.DefaultTolerance)
	v.SetDefault("schedule.interval", 60*time.Second)
	v.SetDefault("schedule.cron", "")
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.chart_file", "combined_benfords_chart.png")
	v.SetDefault("output.page_file", "index.html")
	v.SetDefault("output.refresh_seconds", 60)
	v.SetDefault("output.s3.bucket", "")
	v.SetDefault("output.s3.prefix", "")
	v.SetDefault("output.s3.region", "")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads the config file at path, if any, and overlays BENFORD_* environment variables.
// Nested keys map to env names with dots replaced by underscores.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if len(c.Source.Categories) == 0 {
		return ErrNoCategories
	}
	if c.Source.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Analysis.Tolerance < 0 {
		return ErrInvalidTolerance
	}
	if c.Schedule.Cron == "" && c.Schedule.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Output.RefreshSeconds <= 0 {
		return ErrInvalidRefresh
	}
	for _, name := range []string{c.Output.ChartFile, c.Output.PageFile} {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

func (c *Config) Categories() []domain.Category {
	out := make([]domain.Category, 0, len(c.Source.Categories))
	for _, name := range c.Source.Categories {
		out = append(out, domain.Category(strings.TrimSpace(name)))
	}
	return out
}
