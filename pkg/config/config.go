// Package config resolves meshcheck settings from defaults, an optional
// meshcheck.yaml, MESHCHECK_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MESHCHECK"

// Config is the resolved configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Store struct {
		Root        string `mapstructure:"root"`
		Concurrency int    `mapstructure:"concurrency"`
	} `mapstructure:"store"`
	Server struct {
		Addr     string `mapstructure:"addr"`
		BasePath string `mapstructure:"base_path"`
	} `mapstructure:"server"`
	History struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"history"`
	Cache struct {
		MaxMB int `mapstructure:"max_mb"`
	} `mapstructure:"cache"`
	Validate struct {
		ReservedRoots []string `mapstructure:"reserved_roots"`
	} `mapstructure:"validate"`
	Report struct {
		Gate string `mapstructure:"gate"`
	} `mapstructure:"report"`
}

// New returns a viper instance with defaults, env binding and the config
// file search path installed. It does not read the file.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("meshcheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.meshcheck")
	return v
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "fmt")
	v.SetDefault("store.root", ".")
	v.SetDefault("store.concurrency", 8)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/api/v1")
	v.SetDefault("history.path", ".meshcheck/history.db")
	v.SetDefault("cache.max_mb", 64)
	v.SetDefault("validate.reserved_roots", validate.DefaultReservedMountRoots)
	v.SetDefault("report.gate", report.DefaultGate)
}

// Load reads the config file into v. An explicit file must exist; the search
// path is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings currently held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the commands cannot run with.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "fmt", "text", "json":
	default:
		return fmt.Errorf("log.format must be fmt, text or json, got %q", c.Log.Format)
	}
	if c.Store.Root == "" {
		return errors.New("store.root is required")
	}
	if c.Store.Concurrency < 1 {
		return fmt.Errorf("store.concurrency must be positive, got %d", c.Store.Concurrency)
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with /, got %q", c.Server.BasePath)
	}
	if c.Cache.MaxMB < 1 {
		return fmt.Errorf("cache.max_mb must be at least 1, got %d", c.Cache.MaxMB)
	}
	for _, root := range c.Validate.ReservedRoots {
		if !strings.HasPrefix(root, "/") {
			return fmt.Errorf("validate.reserved_roots entry %q is not absolute", root)
		}
	}
	if c.Report.Gate != "" {
		if _, err := report.Gate(c.Report.Gate, &report.Report{}); err != nil {
			return fmt.Errorf("report.gate: %w", err)
		}
	}
	return nil
}
