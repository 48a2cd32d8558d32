package reconcile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/capralifecycle/cals/internal/definition"
)

// definitionRepoName guesses which repository holds the definition file at
// defPath. The file must live inside a repository directory of the
// workspace: <group>/<repo>/... when grouping by project, <repo>/...
// otherwise. ok is false when that cannot be determined.
func definitionRepoName(root, defPath string, layout Layout) (name string, ok bool) {
	rel, err := filepath.Rel(root, defPath)
	if err != nil || strings.HasPrefix(rel, ".") {
		return "", false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "", false
	}

	if layout.GroupByProject {
		return parts[1], true
	}

	return parts[0], true
}

// bootstrapRepo returns the checked-out repository that hosts the
// definition file, if any, at its canonical path.
func bootstrapRepo(root, defPath string, layout Layout, cands []definition.RepoRef, factory RepoFactory) *ActualRepo {
	name, ok := definitionRepoName(root, defPath, layout)
	if !ok {
		return nil
	}

	for _, ref := range cands {
		if ref.Repo.Name != name {
			continue
		}

		d := desiredFromRef(ref)
		rel := layout.Canonical(d)

		if _, err := os.Stat(filepath.Join(root, rel, ".git")); err != nil {
			return nil
		}

		return &ActualRepo{DesiredRepo: d, ActualRelPath: rel, Repo: factory(rel)}
	}

	return nil
}
