package reconcile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMoveTargetExists means a move destination is already occupied.
var ErrMoveTargetExists = errors.New("reconcile: move target already exists")

// Move relocates a repository found at an alias path to its canonical path.
type Move struct {
	Repo ActualRepo
	From string
	To   string
}

// Plan is the set of reports and actions derived from one classification.
type Plan struct {
	// Unknown directories are only reported.
	Unknown []string
	// Archived repositories present on disk are only reported.
	Archived []ActualRepo
	// Moved repositories were found at an alias path.
	Moved []Move
	// Missing repositories are desired, not archived and not on disk.
	Missing []DesiredRepo
	// ToUpdate excludes archived repositories and the bootstrap repository,
	// which has been updated already.
	ToUpdate []ActualRepo
}

// BuildPlan partitions the classification. bootstrapID is the ID of the
// repository pre-synced during bootstrap, or "".
func BuildPlan(desired []DesiredRepo, c Classification, layout Layout, bootstrapID string) Plan {
	p := Plan{Unknown: c.Unknown}

	found := make(map[string]bool, len(c.Found))

	for _, a := range c.Found {
		found[a.ID] = true

		if a.Archived {
			p.Archived = append(p.Archived, a)
		}

		if to := layout.Canonical(a.DesiredRepo); to != a.ActualRelPath {
			p.Moved = append(p.Moved, Move{Repo: a, From: a.ActualRelPath, To: to})
		}

		if !a.Archived && a.ID != bootstrapID {
			p.ToUpdate = append(p.ToUpdate, a)
		}
	}

	for _, d := range desired {
		if !d.Archived && !found[d.ID] {
			p.Missing = append(p.Missing, d)
		}
	}

	return p
}

// CheckMoves verifies that no destination exists and no two moves share
// one. It runs before any move so a collision leaves the workspace as it
// was.
func CheckMoves(root string, moves []Move) error {
	seen := make(map[string]string, len(moves))

	for _, m := range moves {
		dest := filepath.Join(root, m.To)

		if _, err := os.Lstat(dest); err == nil {
			return fmt.Errorf("%w: %s - cannot move %s", ErrMoveTargetExists, dest, m.From)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking move target %s: %w", dest, err)
		}

		if other, dup := seen[m.To]; dup {
			return fmt.Errorf("%w: %s is the target of both %s and %s", ErrMoveTargetExists, dest, other, m.From)
		}

		seen[m.To] = m.From
	}

	return nil
}

// ApplyMove renames m.From to m.To, creating the destination parent.
func ApplyMove(root string, m Move) error {
	src := filepath.Join(root, m.From)
	dest := filepath.Join(root, m.To)

	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("%w: %s - cannot move %s", ErrMoveTargetExists, dest, m.From)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("moving %s to %s: %w", m.From, m.To, err)
	}

	return nil
}

// ArchiveDir is the sibling directory archived repositories can be moved
// to: <parent of root>/<base of root>-archive.
func ArchiveDir(root string) string {
	return filepath.Join(filepath.Dir(root), filepath.Base(root)+"-archive")
}
