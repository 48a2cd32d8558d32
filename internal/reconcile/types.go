// Package reconcile keeps a local workspace of git repositories aligned
// with the repositories an organization is supposed to have. A run resolves
// the desired repositories, classifies the directories on disk against
// them, plans what to report and what to do, and then updates or clones
// repositories with bounded concurrency.
package reconcile

import (
	"context"
	"path/filepath"

	"github.com/capralifecycle/cals/internal/gitrepo"
	"github.com/capralifecycle/cals/internal/prompt"
)

// Alias is a previous (group, name) location of a repository.
type Alias struct {
	Group string
	Name  string
}

// DesiredRepo is a repository that should be present in the workspace.
// ID is "group/name" and unique within a run.
type DesiredRepo struct {
	ID       string
	Org      string
	Group    string
	Name     string
	Archived bool
	Aliases  []Alias
}

// ActualRepo is a DesiredRepo matched to a directory on disk.
type ActualRepo struct {
	DesiredRepo
	ActualRelPath string
	Repo          Repository
}

// Repository is the per-directory version control handle.
// *gitrepo.Repository implements it.
type Repository interface {
	Update(ctx context.Context) (gitrepo.UpdateOutcome, error)
	Clone(ctx context.Context, org, name string, transport gitrepo.Transport) error
	HasUnpushedCommits(ctx context.Context) (bool, error)
	AuthorsForRange(ctx context.Context, rng gitrepo.Range) ([]gitrepo.AuthorCount, error)
}

// RepoFactory returns the handle for a workspace-relative path.
type RepoFactory func(relPath string) Repository

// Reporter receives user-facing output. *reporter.Reporter implements it.
type Reporter interface {
	Info(msg string)
	Infof(format string, args ...any)
	Warn(msg string)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Muted(text string) string
	Highlight(text string) string
}

// Gate asks for confirmation. *prompt.Gate implements it.
type Gate interface {
	Ask(ctx context.Context, question string, accept func(answer string) bool) prompt.Result
	// Interactive is false when questions can never be answered.
	Interactive() bool
}

// Layout maps a (group, name) pair to its workspace-relative directory.
type Layout struct {
	GroupByProject bool
}

// RelPath returns group/name when grouping by project, otherwise name.
func (l Layout) RelPath(group, name string) string {
	if l.GroupByProject {
		return filepath.Join(group, name)
	}

	return name
}

// Canonical returns where d belongs.
func (l Layout) Canonical(d DesiredRepo) string {
	return l.RelPath(d.Group, d.Name)
}

// Matches reports whether relPath is d's canonical path or one of its
// alias paths.
func (l Layout) Matches(d DesiredRepo, relPath string) bool {
	if l.Canonical(d) == relPath {
		return true
	}

	for _, a := range d.Aliases {
		if l.RelPath(a.Group, a.Name) == relPath {
			return true
		}
	}

	return false
}
