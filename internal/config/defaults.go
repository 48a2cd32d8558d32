package config

// Default values for configuration options. These represent the "layer 0"
// of the override chain. Worker counts balance throughput against GitHub
// rate limits and local disk contention.
const (
	defaultGitHubAPIURL  = "https://api.github.com"
	defaultUpdateWorkers = 30
	defaultCloneWorkers  = 5
	defaultPromptTimeout = "60s"
	defaultLogLevel      = "info"
	defaultLogFormat     = LogFormatText
)

// Accepted log_format values.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// defaultBotAuthors match commit author names (lowercased) that belong to
// automation rather than people.
var defaultBotAuthors = []string{"*renovate*", "*jenkins*", "*snyk-*"}

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		GitHubConfig: GitHubConfig{
			GitHubAPIURL: defaultGitHubAPIURL,
		},
		CacheConfig: CacheConfig{
			CacheEnabled: true,
		},
		SyncConfig: SyncConfig{
			UpdateWorkers: defaultUpdateWorkers,
			CloneWorkers:  defaultCloneWorkers,
			PromptTimeout: defaultPromptTimeout,
			BotAuthors:    append([]string(nil), defaultBotAuthors...),
		},
		LoggingConfig: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
