package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Resolved is the effective configuration after every override layer has
// been applied, with string settings parsed into their typed forms.
type Resolved struct {
	ConfigPath    string
	GitHubAPIURL  string
	GitHubToken   string // from the environment; empty means "read TokenFile"
	TokenFile     string
	CacheEnabled  bool
	CachePath     string
	UpdateWorkers int
	CloneWorkers  int
	PromptTimeout time.Duration
	BotAuthors    []string
	IgnoreDirs    []string
	LogLevel      string
	LogFormat     string
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal with "did you mean?" suggestions.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file loaded", slog.String("path", path))

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file, using defaults", slog.String("path", path))
		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Resolved, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, err
	}

	// Validate has already accepted the duration.
	timeout, err := time.ParseDuration(cfg.PromptTimeout)
	if err != nil {
		return nil, fmt.Errorf("prompt_timeout: %w", err)
	}

	tokenFile := cfg.GitHubTokenFile
	if tokenFile == "" {
		tokenFile = DefaultTokenPath()
	}

	cachePath := cfg.CachePath
	if cachePath == "" {
		cachePath = DefaultCachePath()
	}

	return &Resolved{
		ConfigPath:    cfgPath,
		GitHubAPIURL:  cfg.GitHubAPIURL,
		GitHubToken:   env.GitHubToken,
		TokenFile:     tokenFile,
		CacheEnabled:  cfg.CacheEnabled && cachePath != "",
		CachePath:     cachePath,
		UpdateWorkers: cfg.UpdateWorkers,
		CloneWorkers:  cfg.CloneWorkers,
		PromptTimeout: timeout,
		BotAuthors:    cfg.BotAuthors,
		IgnoreDirs:    cfg.IgnoreDirs,
		LogLevel:      cfg.LogLevel,
		LogFormat:     cfg.LogFormat,
	}, nil
}
