package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Validation range constants.
const (
	minWorkers       = 1
	maxUpdateWorkers = 128
	maxCloneWorkers  = 32
	minPromptTimeout = time.Second
)

// Validate checks all configuration values and returns all errors found,
// so a broken config file can be fixed in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateGitHub(&cfg.GitHubConfig)...)
	errs = append(errs, validateSync(&cfg.SyncConfig)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)

	return errors.Join(errs...)
}

func validateGitHub(g *GitHubConfig) []error {
	u, err := url.Parse(g.GitHubAPIURL)
	if err != nil {
		return []error{fmt.Errorf("github_api_url: %w", err)}
	}

	if u.Scheme != "https" || u.Host == "" {
		return []error{fmt.Errorf("github_api_url: must be an https URL, got %q", g.GitHubAPIURL)}
	}

	return nil
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	errs = append(errs, checkIntRange("update_workers", s.UpdateWorkers, minWorkers, maxUpdateWorkers))
	errs = append(errs, checkIntRange("clone_workers", s.CloneWorkers, minWorkers, maxCloneWorkers))

	if d, err := time.ParseDuration(s.PromptTimeout); err != nil {
		errs = append(errs, fmt.Errorf("prompt_timeout: invalid duration %q: %w", s.PromptTimeout, err))
	} else if d < minPromptTimeout {
		errs = append(errs, fmt.Errorf("prompt_timeout: must be >= %s, got %s", minPromptTimeout, d))
	}

	errs = append(errs, checkPatterns("bot_authors", s.BotAuthors)...)
	errs = append(errs, checkPatterns("ignore_dirs", s.IgnoreDirs)...)

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	switch l.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	switch l.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log_format: must be text or json; got %q", l.LogFormat))
	}

	return errs
}

func checkIntRange(name string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%s: must be between %d and %d, got %d", name, lo, hi, value)
	}

	return nil
}

func checkPatterns(name string, patterns []string) []error {
	var errs []error

	for _, p := range patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("%s: invalid pattern %q", name, p))
		}
	}

	return errs
}
