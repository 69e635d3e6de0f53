// Package config loads dutree settings from a YAML file, an optional dotenv
// file and the process environment, in increasing order of precedence.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/scanner"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DUTREE_"

// Scan configures the walker.
type Scan struct {
	Concurrency    int      `yaml:"concurrency"`
	FollowSymlinks bool     `yaml:"follow_symlinks"`
	Exclude        []string `yaml:"exclude"`
	DisableGC      bool     `yaml:"disable_gc"`
}

// Cache configures the scan cache.
type Cache struct {
	DefaultDepth int `yaml:"default_depth"`
	MaxRoots     int `yaml:"max_roots"`
}

// Log configures diagnostics output.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Remote configures SSH connections.
type Remote struct {
	Port    int           `yaml:"port"`
	Batch   bool          `yaml:"batch"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the complete configuration.
type Config struct {
	Scan   Scan   `yaml:"scan"`
	Cache  Cache  `yaml:"cache"`
	Log    Log    `yaml:"log"`
	Remote Remote `yaml:"remote"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scan: Scan{
			FollowSymlinks: true,
			Exclude:        []string{},
		},
		Cache: Cache{
			DefaultDepth: 2,
		},
		Log: Log{
			Level: "warn",
		},
		Remote: Remote{
			Port:    22,
			Timeout: 10 * time.Second,
		},
	}
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dutree", "config.yaml")
}

// Load reads the configuration. An empty path falls back to DefaultPath, and
// a missing default file is not an error. envFile, when set, names a dotenv
// file whose DUTREE_* variables apply beneath the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	env := make(map[string]string)
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load environment file (%s)", envFile)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open configuration file (%s)", path)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "unable to parse configuration file (%s)", path)
	}
	return nil
}

func (c *Config) applyEnv(env map[string]string) error {
	for key, value := range env {
		var err error
		switch strings.TrimPrefix(key, EnvPrefix) {
		case "LOG_LEVEL":
			c.Log.Level = value
		case "LOG_FILE":
			c.Log.File = value
		case "CONCURRENCY":
			c.Scan.Concurrency, err = strconv.Atoi(value)
		case "FOLLOW_SYMLINKS":
			c.Scan.FollowSymlinks, err = strconv.ParseBool(value)
		case "EXCLUDE":
			c.Scan.Exclude = splitList(value)
		case "DEFAULT_DEPTH":
			c.Cache.DefaultDepth, err = strconv.Atoi(value)
		case "MAX_ROOTS":
			c.Cache.MaxRoots, err = strconv.Atoi(value)
		case "SSH_PORT":
			c.Remote.Port, err = strconv.Atoi(value)
		case "SSH_TIMEOUT":
			c.Remote.Timeout, err = time.ParseDuration(value)
		default:
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s", key)
		}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	if _, ok := logging.NameToLevel(c.Log.Level); !ok {
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Cache.DefaultDepth < 0 {
		return errors.New("default depth must not be negative")
	}
	if c.Cache.MaxRoots < 0 {
		return errors.New("max roots must not be negative")
	}
	if c.Remote.Port <= 0 || c.Remote.Port > 65535 {
		return errors.Errorf("invalid ssh port %d", c.Remote.Port)
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("ssh timeout must be positive")
	}
	return c.ScanOptions().Validate()
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.NameToLevel(c.Log.Level)
	return level
}

// ScanOptions converts the scan section to walker options.
func (c *Config) ScanOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	opts.Concurrency = c.Scan.Concurrency
	opts.FollowSymlinks = c.Scan.FollowSymlinks
	opts.ExcludePatterns = append(opts.ExcludePatterns, c.Scan.Exclude...)
	opts.DisableGC = c.Scan.DisableGC
	return opts
}

// EngineConfig converts the configuration to engine settings.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		DefaultDepth: c.Cache.DefaultDepth,
		MaxRoots:     c.Cache.MaxRoots,
		Scan:         c.ScanOptions(),
	}
}
