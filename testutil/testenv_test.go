package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv_KeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nCALS_TESTUTIL_A=\"from-file\"\nCALS_TESTUTIL_B=from-file\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CALS_TESTUTIL_A", "")
	t.Setenv("CALS_TESTUTIL_B", "from-env")

	LoadDotEnv(path)

	assert.Equal(t, "from-file", os.Getenv("CALS_TESTUTIL_A"))
	assert.Equal(t, "from-env", os.Getenv("CALS_TESTUTIL_B"))
}

func TestAllowedOrg(t *testing.T) {
	t.Setenv("CALS_TESTUTIL_ORG", "")
	_, reason := AllowedOrg("CALS_TESTUTIL_ORG")
	assert.Contains(t, reason, "not set")

	t.Setenv("CALS_TESTUTIL_ORG", "acme-sandbox")
	t.Setenv(AllowedOrgsEnv, "other, acme-sandbox")

	org, reason := AllowedOrg("CALS_TESTUTIL_ORG")
	assert.Empty(t, reason)
	assert.Equal(t, "acme-sandbox", org)

	t.Setenv(AllowedOrgsEnv, "other")
	_, reason = AllowedOrg("CALS_TESTUTIL_ORG")
	assert.Contains(t, reason, "is not in")
}
