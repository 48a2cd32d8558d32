package main

import (
	"errors"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/capralifecycle/cals/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if resolvedCfg == nil {
				return errors.New("no configuration loaded")
			}

			return renderConfig(cmd.OutOrStdout(), resolvedCfg)
		},
	}
}

// effectiveConfig is the TOML view of config.Resolved. The token itself is
// never printed, only where it comes from.
type effectiveConfig struct {
	ConfigPath    string   `toml:"config_path"`
	GitHubAPIURL  string   `toml:"github_api_url"`
	TokenSource   string   `toml:"github_token_source"`
	CacheEnabled  bool     `toml:"cache_enabled"`
	CachePath     string   `toml:"cache_path"`
	UpdateWorkers int      `toml:"update_workers"`
	CloneWorkers  int      `toml:"clone_workers"`
	PromptTimeout string   `toml:"prompt_timeout"`
	BotAuthors    []string `toml:"bot_authors"`
	IgnoreDirs    []string `toml:"ignore_dirs"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"`
}

func renderConfig(w io.Writer, r *config.Resolved) error {
	source := r.TokenFile
	if r.GitHubToken != "" {
		source = "environment"
	}

	ignore := r.IgnoreDirs
	if ignore == nil {
		ignore = []string{}
	}

	return toml.NewEncoder(w).Encode(effectiveConfig{
		ConfigPath:    r.ConfigPath,
		GitHubAPIURL:  r.GitHubAPIURL,
		TokenSource:   source,
		CacheEnabled:  r.CacheEnabled,
		CachePath:     r.CachePath,
		UpdateWorkers: r.UpdateWorkers,
		CloneWorkers:  r.CloneWorkers,
		PromptTimeout: r.PromptTimeout.String(),
		BotAuthors:    r.BotAuthors,
		IgnoreDirs:    ignore,
		LogLevel:      r.LogLevel,
		LogFormat:     r.LogFormat,
	})
}
