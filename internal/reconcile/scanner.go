package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
)

// Classification is the result of scanning the workspace.
type Classification struct {
	Found   []ActualRepo
	Unknown []string
}

// Classifier matches workspace directories to desired repositories. It
// only reads the filesystem.
type Classifier struct {
	Root    string
	Layout  Layout
	Ignore  []string // doublestar patterns on slash-separated relative paths
	Factory RepoFactory
}

// Classify walks the top level of the workspace. A top-level directory
// containing .git is a repository on its own and is not descended into;
// any other directory is a group whose children are candidate
// repositories. Hidden directories are skipped.
func (c *Classifier) Classify(desired []DesiredRepo) (Classification, error) {
	var out Classification

	tops, err := dirNames(c.Root)
	if err != nil {
		return out, err
	}

	for _, top := range tops {
		if c.ignored(top) {
			continue
		}

		if isRepoRoot(filepath.Join(c.Root, top)) {
			c.check(top, desired, &out)
			continue
		}

		subs, err := dirNames(filepath.Join(c.Root, top))
		if err != nil {
			return out, err
		}

		for _, sub := range subs {
			rel := filepath.Join(top, sub)
			if !c.ignored(rel) {
				c.check(rel, desired, &out)
			}
		}
	}

	return out, nil
}

// check matches rel against desired; the first match in desired order wins.
// Names are compared in NFC so decomposed names from macOS filesystems
// still match the definition.
func (c *Classifier) check(rel string, desired []DesiredRepo, out *Classification) {
	key := norm.NFC.String(rel)

	for _, d := range desired {
		if c.Layout.Matches(d, key) {
			out.Found = append(out.Found, ActualRepo{DesiredRepo: d, ActualRelPath: rel, Repo: c.Factory(rel)})
			return
		}
	}

	out.Unknown = append(out.Unknown, rel)
}

func (c *Classifier) ignored(rel string) bool {
	slashed := filepath.ToSlash(rel)

	for _, pattern := range c.Ignore {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}

	return false
}

// isRepoRoot reports whether dir directly holds git metadata. .git may be
// a file for worktrees and submodules.
func isRepoRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))

	return err == nil
}

// dirNames lists the non-hidden subdirectories of parent, sorted. Symlinks to directories count as directories.
func dirNames(parent string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", parent, err)
	}

	var names []string

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		info, err := os.Stat(filepath.Join(parent, name))
		if err != nil || !info.IsDir() {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
