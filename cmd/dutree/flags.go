package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sadopc/dutree/internal/config"
	"github.com/sadopc/dutree/internal/logging"
)

// globalConfiguration stores the flags shared by every command. They override
// the configuration file and environment only when set explicitly.
var globalConfiguration struct {
	// configPath is the YAML configuration file.
	configPath string
	// envFile is a dotenv file with DUTREE_* overrides.
	envFile string
	// logLevel and logFile override the log section.
	logLevel string
	logFile  string
	// concurrency bounds the concurrent directory reads.
	concurrency int
	// exclude lists glob patterns matched against names and paths.
	exclude []string
	// noFollowSymlinks stops the walker from following links.
	noFollowSymlinks bool
	// noGC disables the garbage collector while scanning.
	noGC bool
	// maxRoots bounds the number of cached scans.
	maxRoots int
	// ssh settings for user@host targets.
	sshPort    int
	sshBatch   bool
	sshTimeout time.Duration
}

func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.SortFlags = false
	flags.StringVar(&globalConfiguration.configPath, "config", "", "Configuration file (default: "+config.DefaultPath()+")")
	flags.StringVar(&globalConfiguration.envFile, "env-file", "", "Load DUTREE_* overrides from a dotenv file")
	flags.StringVar(&globalConfiguration.logLevel, "log-level", "", "Log level: disabled, error, warn, info, debug or trace")
	flags.StringVar(&globalConfiguration.logFile, "log-file", "", "Write logs to a file instead of standard error")
	flags.IntVarP(&globalConfiguration.concurrency, "concurrency", "j", 0, "Max concurrent directory reads (0 = 3x CPU cores)")
	flags.StringSliceVar(&globalConfiguration.exclude, "exclude", nil, "Glob patterns to skip, matched against names and paths")
	flags.BoolVar(&globalConfiguration.noFollowSymlinks, "no-follow-symlinks", false, "Record symbolic links without following them")
	flags.BoolVar(&globalConfiguration.noGC, "no-gc", false, "Disable GC during scans (faster, uses more memory)")
	flags.IntVar(&globalConfiguration.maxRoots, "max-roots", 0, "Maximum cached scan roots (0 = unlimited)")
	flags.IntVar(&globalConfiguration.sshPort, "ssh-port", 22, "SSH port for remote targets")
	flags.BoolVar(&globalConfiguration.sshBatch, "ssh-batch", false, "Disable SSH prompts (key and agent auth only)")
	flags.DurationVar(&globalConfiguration.sshTimeout, "ssh-timeout", 10*time.Second, "SSH connect timeout")
}

// loadConfiguration merges the configuration file, the environment and any
// explicitly set flags.
func loadConfiguration(command *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(globalConfiguration.configPath, globalConfiguration.envFile)
	if err != nil {
		return nil, err
	}

	flags := command.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = globalConfiguration.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = globalConfiguration.logFile
	}
	if flags.Changed("concurrency") {
		cfg.Scan.Concurrency = globalConfiguration.concurrency
	}
	if flags.Changed("exclude") {
		for _, pattern := range globalConfiguration.exclude {
			if pattern = strings.TrimSpace(pattern); pattern != "" {
				cfg.Scan.Exclude = append(cfg.Scan.Exclude, pattern)
			}
		}
	}
	if globalConfiguration.noFollowSymlinks {
		cfg.Scan.FollowSymlinks = false
	}
	if globalConfiguration.noGC {
		cfg.Scan.DisableGC = true
	}
	if flags.Changed("max-roots") {
		cfg.Cache.MaxRoots = globalConfiguration.maxRoots
	}
	if flags.Changed("ssh-port") {
		cfg.Remote.Port = globalConfiguration.sshPort
	}
	if globalConfiguration.sshBatch {
		cfg.Remote.Batch = true
	}
	if flags.Changed("ssh-timeout") {
		cfg.Remote.Timeout = globalConfiguration.sshTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// newLogger opens the configured log destination. The returned closer is
// never nil.
func newLogger(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	if cfg.Log.File == "" {
		return logging.New(os.Stderr, cfg.LogLevel()), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to open log file")
	}
	return logging.New(f, cfg.LogLevel()), f, nil
}
