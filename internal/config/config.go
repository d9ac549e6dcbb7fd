package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"actigraph-sleep/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Input      InputConfig      `mapstructure:"input"`
	Output     OutputConfig     `mapstructure:"output"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// InputConfig locates participant files.
type InputConfig struct {
	Dir             string   `mapstructure:"dir"`
	Extensions      []string `mapstructure:"extensions"`
	AssessmentPoint string   `mapstructure:"assessment_point"`
	EMAPath         string   `mapstructure:"ema_path"`
}

// OutputConfig controls which reports are written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Workbooks   bool   `mapstructure:"workbooks"`
	Charts      bool   `mapstructure:"charts"`
	ChartWidth  int    `mapstructure:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height"`
}

// ProcessingConfig bounds per-participant parallelism.
type ProcessingConfig struct {
	Workers int `mapstructure:"workers"`
}

// DatabaseConfig encapsulates the optional PostgreSQL report sink.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SLEEPSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sleepscore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sleepscore")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("input.dir", ".")
	v.SetDefault("input.extensions", []string{".xlsx", ".csv"})
	v.SetDefault("input.assessment_point", "baseline")
	v.SetDefault("input.ema_path", "")

	v.SetDefault("output.dir", "out")
	v.SetDefault("output.workbooks", true)
	v.SetDefault("output.charts", false)
	v.SetDefault("output.chart_width", 1600)
	v.SetDefault("output.chart_height", 600)

	v.SetDefault("processing.workers", 4)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Processing.Workers <= 0 {
		return fmt.Errorf("processing.workers must be greater than zero")
	}
	if strings.TrimSpace(c.Input.AssessmentPoint) == "" {
		return fmt.Errorf("input.assessment_point must not be empty")
	}
	if len(c.Input.Extensions) == 0 {
		return fmt.Errorf("input.extensions must list at least one extension")
	}
	if c.Output.Charts && (c.Output.ChartWidth <= 0 || c.Output.ChartHeight <= 0) {
		return fmt.Errorf("output.chart_width and output.chart_height must be greater than zero")
	}
	return nil
}

// ResolveWorkers returns either the CLI override or config default.
func (c *Config) ResolveWorkers(override int) int {
	if override > 0 {
		return override
	}
	return c.Processing.Workers
}

// HasExtension reports whether name ends with one of the configured input extensions.
func (c *Config) HasExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range c.Input.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
