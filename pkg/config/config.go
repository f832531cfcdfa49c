// Package config loads the geodist CLI settings.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/1F47E/geo-distance/pkg/logging"
	"github.com/1F47E/geo-distance/pkg/postgis"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Index   IndexConfig   `mapstructure:"index"`
	Query   QueryConfig   `mapstructure:"query"`
	Bench   BenchConfig   `mapstructure:"bench"`
	PostGIS PostGISConfig `mapstructure:"postgis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type IndexConfig struct {
	Partitions int    `mapstructure:"partitions"`
	File       string `mapstructure:"file"`
}

type QueryConfig struct {
	UseCentroids bool `mapstructure:"use_centroids"`
}

type BenchConfig struct {
	Workers int `mapstructure:"workers"`
	Queries int `mapstructure:"queries"`
}

type PostGISConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Options converts the section into store connection options
func (p PostGISConfig) Options() postgis.Options {
	return postgis.Options{
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
		Database: p.Database,
		SSLMode:  p.SSLMode,
	}
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables. An empty path searches for geodist.yaml in the
// working directory and ./configs; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("index.partitions", 0)
	v.SetDefault("index.file", "geo_index.gob")
	v.SetDefault("query.use_centroids", false)
	v.SetDefault("bench.workers", runtime.NumCPU())
	v.SetDefault("bench.queries", 1000)
	v.SetDefault("postgis.host", "localhost")
	v.SetDefault("postgis.port", 5432)
	v.SetDefault("postgis.user", "postgres")
	v.SetDefault("postgis.password", "")
	v.SetDefault("postgis.database", "geodb")
	v.SetDefault("postgis.sslmode", "disable")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("geodist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: GEODIST_POSTGIS_HOST → postgis.host
	v.SetEnvPrefix("GEODIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Index.Partitions < 0 {
		errs = append(errs, fmt.Sprintf("index.partitions must not be negative, got %d", c.Index.Partitions))
	}
	if c.Index.File == "" {
		errs = append(errs, "index.file is required")
	}
	if c.Bench.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("bench.workers must be positive, got %d", c.Bench.Workers))
	}
	if c.Bench.Queries <= 0 {
		errs = append(errs, fmt.Sprintf("bench.queries must be positive, got %d", c.Bench.Queries))
	}
	if c.PostGIS.Port <= 0 || c.PostGIS.Port > 65535 {
		errs = append(errs, fmt.Sprintf("postgis.port must be 1-65535, got %d", c.PostGIS.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
