// Package tokenfile reads the stored GitHub access token. The file holds an
// oauth2.Token under a "token" key; writing it is left to whatever issued
// the token.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
)

// FilePerms is the most permissive mode a token file may have.
const FilePerms = 0o600

// File is the on-disk format.
type File struct {
	Token *oauth2.Token `json:"token"`
}

// Load reads a token file. Returns (nil, nil) if the file does not exist so
// callers can report a missing token with their own hint.
func Load(path string) (*oauth2.Token, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("tokenfile: checking %s: %w", path, err)
	}

	if info.Mode().Perm()&^FilePerms != 0 {
		return nil, fmt.Errorf("tokenfile: %s is accessible by other users (mode %04o), chmod 600 it", path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	var tf File
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("tokenfile: decoding %s: %w", path, err)
	}

	if tf.Token == nil || tf.Token.AccessToken == "" {
		return nil, fmt.Errorf("tokenfile: %s missing token field", path)
	}

	return tf.Token, nil
}
