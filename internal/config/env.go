package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "CALS_CONFIG"
	EnvGitHubToken = "CALS_GITHUB_TOKEN"
	// EnvGitHubTokenFallback is the variable most GitHub tooling reads.
	EnvGitHubTokenFallback = "GITHUB_TOKEN"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath  string // CALS_CONFIG: override config file path
	GitHubToken string // CALS_GITHUB_TOKEN, else GITHUB_TOKEN
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	token := os.Getenv(EnvGitHubToken)
	if token == "" {
		token = os.Getenv(EnvGitHubTokenFallback)
	}

	return EnvOverrides{
		ConfigPath:  os.Getenv(EnvConfig),
		GitHubToken: token,
	}
}
