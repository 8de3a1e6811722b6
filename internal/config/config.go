// Package config loads service configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Build     BuildConfig     `mapstructure:"build"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Publish   PublishConfig   `mapstructure:"publish"`
	S3        S3Config        `mapstructure:"s3"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type BuildConfig struct {
	// Dir is where per-project build output lands, one subdirectory per
	// project id.
	Dir string `mapstructure:"dir"`
	// TimeoutMS bounds a single bundler invocation, in milliseconds.
	TimeoutMS int `mapstructure:"timeout_ms"`
	// NodeModules points at the node_modules tree templates resolve
	// their runtime dependencies from.
	NodeModules string `mapstructure:"node_modules"`
}

type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

type PublishConfig struct {
	Dir string `mapstructure:"dir"`
}

type S3Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	Region  string `mapstructure:"region"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Timeout converts the configured bundler bound to a time.Duration.
func (b BuildConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMS) * time.Millisecond
}

// Load reads config.yaml from the working directory or ./configs, then
// applies PAGESMITH_* environment overrides. A missing file is not an
// error, defaults and environment carry a full configuration.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return finish(v)
}

// LoadFromFile reads configuration from an explicit path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PAGESMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// Plain PORT wins, the usual PaaS contract.
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = n
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// AutomaticEnv only resolves keys viper already knows about, so the ones
// that may never appear in a config file are bound explicitly.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port",
		"build.dir",
		"build.timeout_ms",
		"build.node_modules",
		"templates.dir",
		"publish.dir",
		"s3.enabled",
		"s3.bucket",
		"s3.prefix",
		"s3.region",
		"logging.level",
		"logging.format",
	} {
		_ = v.BindEnv(key)
	}
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Build.Dir == "" {
		cfg.Build.Dir = "builds"
	}
	if cfg.Build.TimeoutMS == 0 {
		cfg.Build.TimeoutMS = 60000
	}
	if cfg.Build.NodeModules == "" {
		cfg.Build.NodeModules = "node_modules"
	}
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = "templates"
	}
	if cfg.Publish.Dir == "" {
		cfg.Publish.Dir = cfg.Build.Dir
	}
	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = "projects"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Build.TimeoutMS < 0 {
		return fmt.Errorf("build.timeout_ms must not be negative")
	}
	if cfg.S3.Enabled && cfg.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3.enabled is true")
	}
	return nil
}
