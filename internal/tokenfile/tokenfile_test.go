package tokenfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeToken(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "github-token.json")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))

	return path
}

func TestLoad_FileNotFound(t *testing.T) {
	tok, err := Load("/nonexistent/path/github-token.json")
	assert.Nil(t, tok)
	assert.NoError(t, err)
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeToken(t, `{"token":{"access_token":"ghp_123","token_type":"bearer"}}`, 0o600)

	tok, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ghp_123", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
}

func TestLoad_MissingTokenField(t *testing.T) {
	path := writeToken(t, `{"access_token":"old"}`, 0o600)

	tok, err := Load(path)
	assert.Nil(t, tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token field")
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeToken(t, `{not json}`, 0o600)

	tok, err := Load(path)
	assert.Nil(t, tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestLoad_RejectsGroupReadable(t *testing.T) {
	path := writeToken(t, `{"token":{"access_token":"ghp_123"}}`, 0o640)

	tok, err := Load(path)
	assert.Nil(t, tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chmod 600")
}
