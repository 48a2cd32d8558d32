// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for cals. Settings resolve through a
// four-layer override chain: defaults -> config file -> environment -> CLI
// flags.
package config

// Config is the top-level configuration structure parsed from a TOML file.
// All keys are flat; the embedded sections only group fields in Go.
type Config struct {
	GitHubConfig
	CacheConfig
	SyncConfig
	LoggingConfig
}

// GitHubConfig controls how the GitHub API is reached.
type GitHubConfig struct {
	GitHubAPIURL    string `toml:"github_api_url"`
	GitHubTokenFile string `toml:"github_token_file"`
}

// CacheConfig controls the on-disk cache of GitHub API responses.
type CacheConfig struct {
	CacheEnabled bool   `toml:"cache_enabled"`
	CachePath    string `toml:"cache_path"`
}

// SyncConfig controls the workspace reconciler: how many git operations run
// at once, how long prompts wait, which commit authors count as automation,
// and which workspace directories are never classified.
type SyncConfig struct {
	UpdateWorkers int      `toml:"update_workers"`
	CloneWorkers  int      `toml:"clone_workers"`
	PromptTimeout string   `toml:"prompt_timeout"`
	BotAuthors    []string `toml:"bot_authors"`
	IgnoreDirs    []string `toml:"ignore_dirs"`
}

// LoggingConfig controls diagnostic log output.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings.
type CLIOverrides struct {
	ConfigPath string // --config flag (empty = use default)
}
