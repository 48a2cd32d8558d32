package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"http api url", func(c *Config) { c.GitHubAPIURL = "http://api.github.com" }, "github_api_url"},
		{"update workers zero", func(c *Config) { c.UpdateWorkers = 0 }, "update_workers"},
		{"clone workers too many", func(c *Config) { c.CloneWorkers = 1000 }, "clone_workers"},
		{"bad timeout", func(c *Config) { c.PromptTimeout = "soon" }, "prompt_timeout"},
		{"short timeout", func(c *Config) { c.PromptTimeout = "10ms" }, "prompt_timeout"},
		{"bad bot pattern", func(c *Config) { c.BotAuthors = []string{"[renovate"} }, "bot_authors"},
		{"empty ignore pattern", func(c *Config) { c.IgnoreDirs = []string{""} }, "ignore_dirs"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpdateWorkers = 0
	cfg.LogFormat = "xml"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_workers")
	assert.Contains(t, err.Error(), "log_format")
}
