package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capralifecycle/cals/internal/audit"
	"github.com/capralifecycle/cals/internal/gitrepo"
)

func TestAuditObserver_RecordsRelativeContext(t *testing.T) {
	root := t.TempDir()
	log := audit.New(filepath.Join(root, audit.FileName))
	observe := auditObserver(root, log, slog.New(slog.NewTextHandler(io.Discard, nil)))

	observe(gitrepo.ExecResult{
		Command:  "git",
		Args:     []string{"fetch", "--prune"},
		Dir:      filepath.Join(root, "core", "api"),
		ExitCode: 0,
	})

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))

	assert.Equal(t, "core/api", rec["context"])
	assert.Equal(t, audit.TypeExecResult, rec["type"])

	payload, ok := rec["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"fetch", "--prune"}, payload["args"])
}
