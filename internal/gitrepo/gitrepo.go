// Package gitrepo drives a single working copy through the git CLI: update
// from its upstream, clone from GitHub, and the queries sync reports on.
// Every git invocation is handed to an observer so callers can keep an
// audit trail.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Transport selects how a repository is cloned.
type Transport int

const (
	HTTPS Transport = iota
	SSH
)

func (t Transport) String() string {
	if t == SSH {
		return "ssh"
	}

	return "https"
}

// ExecResult is the outcome of one git invocation.
type ExecResult struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Dir      string   `json:"dir"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Observer receives every ExecResult. It may be called concurrently for
// different repositories but never concurrently for one Repository.
type Observer func(ExecResult)

// Range is a span of history, From exclusive and To inclusive.
type Range struct {
	From string
	To   string
}

// UpdateOutcome describes what Update did.
type UpdateOutcome struct {
	Updated bool
	Dirty   bool
	Range   *Range // set when the branch advanced
}

// AuthorCount is the number of commits by one author in a range.
type AuthorCount struct {
	Name  string
	Count int
}

// Repository is a handle to the working copy at Dir. The directory need
// not exist until Clone.
type Repository struct {
	dir      string
	observer Observer
}

// New returns a handle for dir. observer may be nil.
func New(dir string, observer Observer) *Repository {
	return &Repository{dir: dir, observer: observer}
}

// Dir returns the working copy path.
func (r *Repository) Dir() string {
	return r.dir
}

// CloneURL returns the GitHub remote URL for org/name over transport.
func CloneURL(org, name string, transport Transport) string {
	if transport == SSH {
		return fmt.Sprintf("git@github.com:%s/%s.git", org, name)
	}

	return fmt.Sprintf("https://github.com/%s/%s.git", org, name)
}

// Update fetches from the remote and fast-forwards the default branch.
// Dirty working trees and other checked-out branches are only fetched.
// Untracked files do not count as local modifications.
func (r *Repository) Update(ctx context.Context) (UpdateOutcome, error) {
	status, err := r.git(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return UpdateOutcome{}, err
	}

	dirty := strings.TrimSpace(status) != ""

	if _, err := r.git(ctx, "fetch", "--prune"); err != nil {
		return UpdateOutcome{}, err
	}

	if dirty {
		return UpdateOutcome{Dirty: true}, nil
	}

	branch, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return UpdateOutcome{}, err
	}

	if strings.TrimSpace(branch) != r.defaultBranch(ctx) || !r.hasUpstream(ctx) {
		return UpdateOutcome{}, nil
	}

	before, err := r.head(ctx)
	if err != nil {
		return UpdateOutcome{}, err
	}

	if _, err := r.git(ctx, "merge", "--ff-only", "@{u}"); err != nil {
		return UpdateOutcome{}, err
	}

	after, err := r.head(ctx)
	if err != nil {
		return UpdateOutcome{}, err
	}

	if before == after {
		return UpdateOutcome{}, nil
	}

	return UpdateOutcome{Updated: true, Range: &Range{From: before, To: after}}, nil
}

// Clone clones org/name from GitHub into Dir, creating parent directories.
func (r *Repository) Clone(ctx context.Context, org, name string, transport Transport) error {
	return r.cloneFrom(ctx, CloneURL(org, name, transport))
}

func (r *Repository) cloneFrom(ctx context.Context, url string) error {
	if err := os.MkdirAll(filepath.Dir(r.dir), 0o755); err != nil {
		return fmt.Errorf("gitrepo: creating parent of %s: %w", r.dir, err)
	}

	_, err := r.run(ctx, "", "clone", url, r.dir)

	return err
}

// HasUnpushedCommits reports whether HEAD has commits its upstream lacks.
// A branch without upstream has none.
func (r *Repository) HasUnpushedCommits(ctx context.Context) (bool, error) {
	if !r.hasUpstream(ctx) {
		return false, nil
	}

	out, err := r.git(ctx, "rev-list", "--count", "@{u}..HEAD")
	if err != nil {
		return false, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return false, fmt.Errorf("gitrepo: parsing commit count %q: %w", out, err)
	}

	return n > 0, nil
}

// AuthorsForRange counts commits per author name in rng, most active first.
func (r *Repository) AuthorsForRange(ctx context.Context, rng Range) ([]AuthorCount, error) {
	out, err := r.git(ctx, "log", "--format=%an", rng.From+".."+rng.To)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)

	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			counts[name]++
		}
	}

	authors := make([]AuthorCount, 0, len(counts))
	for name, n := range counts {
		authors = append(authors, AuthorCount{Name: name, Count: n})
	}

	sort.Slice(authors, func(i, j int) bool {
		if authors[i].Count != authors[j].Count {
			return authors[i].Count > authors[j].Count
		}

		return authors[i].Name < authors[j].Name
	})

	return authors, nil
}

// defaultBranch is the remote's HEAD branch, falling back to a local main
// or master.
func (r *Repository) defaultBranch(ctx context.Context) string {
	if out, err := r.git(ctx, "symbolic-ref", "--short", "refs/remotes/origin/HEAD"); err == nil {
		return strings.TrimPrefix(strings.TrimSpace(out), "origin/")
	}

	for _, candidate := range []string{"main", "master"} {
		if _, err := r.git(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+candidate); err == nil {
			return candidate
		}
	}

	return ""
}

func (r *Repository) hasUpstream(ctx context.Context) bool {
	_, err := r.git(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")

	return err == nil
}

func (r *Repository) head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")

	return strings.TrimSpace(out), err
}

// git runs a subcommand inside the working copy.
func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, r.dir, args...)
}

func (r *Repository) run(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := args
	if dir != "" {
		fullArgs = append([]string{"-C", dir}, args...)
	}

	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ExecResult{
		Command:  "git",
		Args:     args,
		Dir:      r.dir,
		ExitCode: exitCode(err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if r.observer != nil {
		r.observer(result)
	}

	if err != nil {
		if msg := strings.TrimSpace(result.Stderr); msg != "" {
			return result.Stdout, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
		}

		return result.Stdout, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return result.Stdout, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1
	}

	return exitErr.ExitCode()
}
