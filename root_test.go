package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capralifecycle/cals/internal/config"
)

// newRootCmd binds flags with BoolVar, which resets the globals. Tests set
// globals after building the command, or parse them through Execute.

func resetGlobals(t *testing.T) {
	t.Helper()

	oldVerbose, oldQuiet, oldCfg := flagVerbose, flagQuiet, resolvedCfg

	t.Cleanup(func() {
		flagVerbose = oldVerbose
		flagQuiet = oldQuiet
		resolvedCfg = oldCfg
	})

	flagVerbose = false
	flagQuiet = false
	resolvedCfg = nil
}

func TestBuildLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		cfgLevel string
		verbose  bool
		quiet    bool
		enabled  slog.Level
		disabled slog.Level
	}{
		{name: "default info", enabled: slog.LevelInfo, disabled: slog.LevelDebug},
		{name: "config warn", cfgLevel: "warn", enabled: slog.LevelWarn, disabled: slog.LevelInfo},
		{name: "verbose beats config", cfgLevel: "error", verbose: true, enabled: slog.LevelDebug, disabled: slog.LevelDebug - 1},
		{name: "quiet", quiet: true, enabled: slog.LevelError, disabled: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)

			if tt.cfgLevel != "" {
				resolvedCfg = &config.Resolved{LogLevel: tt.cfgLevel, LogFormat: config.LogFormatText}
			}

			flagVerbose = tt.verbose
			flagQuiet = tt.quiet

			h := buildLogger(&bytes.Buffer{}).Handler()
			assert.True(t, h.Enabled(context.Background(), tt.enabled))
			assert.False(t, h.Enabled(context.Background(), tt.disabled))
		})
	}
}

func TestBuildLogger_JSONFormat(t *testing.T) {
	resetGlobals(t)

	resolvedCfg = &config.Resolved{LogLevel: "info", LogFormat: config.LogFormatJSON}

	var buf bytes.Buffer
	buildLogger(&buf).Info("hello", slog.String("run_id", "abc"))

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	cmd := newRootCmd()

	sync, _, err := cmd.Find([]string{"github", "sync"})
	require.NoError(t, err)
	assert.Equal(t, "sync", sync.Name())
	assert.NotNil(t, sync.Flags().ShorthandLookup("c"))
	assert.NotNil(t, sync.Flags().Lookup("ask-move"))

	show, _, err := cmd.Find([]string{"config", "show"})
	require.NoError(t, err)
	assert.Equal(t, "show", show.Name())

	assert.NotNil(t, cmd.PersistentFlags().Lookup("non-interactive"))
}

func TestConfigShow_LoadsFileAndHidesToken(t *testing.T) {
	resetGlobals(t)
	t.Setenv(config.EnvGitHubToken, "secret-token")
	t.Setenv(config.EnvConfig, "")

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("update_workers = 7\nlog_level = \"debug\"\n"), 0o600))

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "config", "show"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "update_workers = 7")
	assert.Contains(t, out.String(), `log_level = "debug"`)
	assert.Contains(t, out.String(), `github_token_source = "environment"`)
	assert.NotContains(t, out.String(), "secret-token")
}

func TestConfigShow_UnknownKeyFails(t *testing.T) {
	resetGlobals(t)
	t.Setenv(config.EnvConfig, "")

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("update_worker = 7\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "config", "show"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_workers")
}
