//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capralifecycle/cals/testutil"
)

var binaryPath string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "cals-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "cals")

	root := testutil.FindModuleRoot("..")
	testutil.LoadDotEnv(filepath.Join(root, ".env"))

	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building binary: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// runCLI runs cals in dir with isolated config and cache homes.
func runCLI(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, append([]string{"--non-interactive"}, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+t.TempDir(),
		"XDG_CACHE_HOME="+t.TempDir(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

func TestE2E_SyncWithoutManifest(t *testing.T) {
	_, stderr, err := runCLI(t, t.TempDir(), "github", "sync")
	require.Error(t, err)
	assert.Contains(t, stderr, "File .cals.yaml not found")
}

func TestE2E_SyncReportsOrganization(t *testing.T) {
	org, reason := testutil.AllowedOrg("CALS_E2E_ORG")
	if reason != "" {
		t.Skip(reason)
	}

	if os.Getenv("CALS_GITHUB_TOKEN") == "" && os.Getenv("GITHUB_TOKEN") == "" {
		t.Skip("no GitHub token in the environment")
	}

	workspace := t.TempDir()
	manifest := fmt.Sprintf("version: 2\ngithubOrganization: %s\npathStyle: flat\n", org)
	require.NoError(t, os.WriteFile(filepath.Join(workspace, ".cals.yaml"), []byte(manifest), 0o600))

	stdout, stderr, err := runCLI(t, workspace, "github", "sync")
	require.NoError(t, err, "stderr: %s", stderr)

	assert.Contains(t, stdout, "Completed fetching org repo list")
	assert.Contains(t, stdout, "repos identified to be updated")
	assert.Contains(t, stdout, "Number of GitHub requests:")

	// Nothing is cloned without --ask-clone.
	entries, err := os.ReadDir(workspace)
	require.NoError(t, err)

	for _, e := range entries {
		assert.False(t, e.IsDir(), "unexpected directory %s", e.Name())
	}
}
