// Package config resolves dbsim settings from defaults, a YAML file, a .env
// file and DBSIM_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dbsim/internal/connect"
	"github.com/roach88/dbsim/internal/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DBSIM_"

// DefaultFile is read when no config file is named and it exists.
const DefaultFile = "dbsim.yaml"

// Config is the resolved runtime configuration.
type Config struct {
	Backend      store.Backend
	Path         string
	Scope        string
	ConnectDelay time.Duration
	LogLevel     string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:      store.BackendSQLite,
		Path:         "dbsim.db",
		Scope:        store.DefaultScope,
		ConnectDelay: connect.DefaultDelay,
		LogLevel:     "warn",
	}
}

// Source names the inputs Load reads. Empty fields fall back to defaults.
type Source struct {
	// File is the YAML config path. A missing DefaultFile is not an error;
	// a missing explicitly named file is.
	File string

	// EnvFile is the dotenv file. When empty, ./.env is read if present;
	// an explicit file must exist.
	EnvFile string

	// LookupEnv reads process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration. Process environment wins over the .env
// file, which wins over the YAML file.
func Load(src Source) (Config, error) {
	cfg := Default()

	file, explicit := src.File, src.File != ""
	if !explicit {
		file = DefaultFile
	}
	err := mergeFile(&cfg, file)
	if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return Config{}, err
	}

	envFile, explicitEnv := src.EnvFile, src.EnvFile != ""
	if !explicitEnv {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && (explicitEnv || !errors.Is(err, fs.ErrNotExist)) {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}

	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+name]
		return v, ok
	}
	if err := mergeEnv(&cfg, get); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return fc.apply(cfg)
}

// fileConfig mirrors Config with every field optional so that keys left
// out of the file keep their defaults.
type fileConfig struct {
	Backend      *string `yaml:"backend"`
	Path         *string `yaml:"path"`
	Scope        *string `yaml:"scope"`
	ConnectDelay *string `yaml:"connect_delay"`
	LogLevel     *string `yaml:"log_level"`
}

func (fc fileConfig) apply(cfg *Config) error {
	if fc.Backend != nil {
		cfg.Backend = store.Backend(*fc.Backend)
	}
	if fc.Path != nil {
		cfg.Path = *fc.Path
	}
	if fc.Scope != nil {
		cfg.Scope = *fc.Scope
	}
	if fc.ConnectDelay != nil {
		d, err := time.ParseDuration(*fc.ConnectDelay)
		if err != nil {
			return fmt.Errorf("connect_delay: %w", err)
		}
		cfg.ConnectDelay = d
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	return nil
}

func mergeEnv(cfg *Config, get func(string) (string, bool)) error {
	if v, ok := get("BACKEND"); ok {
		cfg.Backend = store.Backend(strings.TrimSpace(v))
	}
	if v, ok := get("PATH"); ok {
		cfg.Path = v
	}
	if v, ok := get("SCOPE"); ok {
		cfg.Scope = v
	}
	if v, ok := get("CONNECT_DELAY"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sCONNECT_DELAY: %w", EnvPrefix, err)
		}
		cfg.ConnectDelay = d
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	known := false
	for _, b := range store.Backends {
		if b == c.Backend {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend %q: must be one of %v", c.Backend, store.Backends)
	}
	if c.Backend != store.BackendMemory && c.Path == "" {
		return fmt.Errorf("backend %s requires a path", c.Backend)
	}
	if c.ConnectDelay < 0 {
		return fmt.Errorf("connect_delay must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

// StoreOptions returns the options for store.OpenBackend.
func (c Config) StoreOptions() store.Options {
	return store.Options{Backend: c.Backend, Path: c.Path, Scope: c.Scope}
}
