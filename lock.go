package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName sits next to the workspace manifest.
const lockFileName = ".cals.lock"

// errSyncInProgress means another process holds the workspace lock.
var errSyncInProgress = errors.New("another sync is in progress")

// lockWorkspace takes the non-blocking workspace lock for root. The
// returned function releases it. The lock file itself is left in place.
func lockWorkspace(root string) (unlock func(), err error) {
	path := filepath.Join(root, lockFileName)
	lock := flock.New(path)

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking workspace %s: %w", path, err)
	}

	if !locked {
		return nil, fmt.Errorf("%w in %s (lock held on %s)", errSyncInProgress, root, path)
	}

	return func() { _ = lock.Unlock() }, nil
}
