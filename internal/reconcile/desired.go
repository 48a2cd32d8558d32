package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/capralifecycle/cals/internal/definition"
	"github.com/capralifecycle/cals/internal/github"
	"github.com/capralifecycle/cals/internal/manifest"
)

// globalProject is the implicit project used when no definition is
// configured and every remote repository is desired.
const globalProject = "global"

// RemoteSource lists an organization's repositories.
type RemoteSource interface {
	OrgRepos(ctx context.Context, org string) ([]github.Repo, error)
}

// Resolver computes the desired repositories for a workspace.
type Resolver struct {
	Root     string
	Manifest *manifest.Manifest
	Layout   Layout
	Remote   RemoteSource
	Reporter Reporter

	// loadDefinition defaults to definition.Load.
	loadDefinition func(path string) (*definition.Definition, error)
}

// DefinitionPath returns the absolute path of the configured definition
// file, or "" when none is configured.
func (r *Resolver) DefinitionPath() string {
	rd := r.Manifest.ResourcesDefinition
	if rd == nil {
		return ""
	}

	if filepath.IsAbs(rd.Path) {
		return filepath.Clean(rd.Path)
	}

	return filepath.Join(r.Root, rd.Path)
}

// candidates returns the repository entries for the organization before
// they are checked against the remote listing: definition entries that
// pass the tag filter, or every remote repository under the global
// project.
func (r *Resolver) candidates(remote []github.Repo) ([]definition.RepoRef, error) {
	org := r.Manifest.GitHubOrganization

	if r.Manifest.ResourcesDefinition == nil {
		out := make([]definition.RepoRef, 0, len(remote))
		project := definition.Project{Name: globalProject}

		for _, gr := range remote {
			out = append(out, definition.RepoRef{
				ID:      definition.RepoID(gr.Owner.Login, gr.Name),
				Org:     org,
				Project: project,
				Repo:    definition.Repo{Name: gr.Name, Archived: gr.Archived},
			})
		}

		return out, nil
	}

	load := r.loadDefinition
	if load == nil {
		load = definition.Load
	}

	def, err := load(r.DefinitionPath())
	if err != nil {
		return nil, err
	}

	var out []definition.RepoRef

	for _, ref := range definition.Repos(def) {
		if ref.Org != org {
			continue
		}

		if r.tagsMatch(ref.Project) || r.onDisk(desiredFromRef(ref)) {
			out = append(out, ref)
		}
	}

	return out, nil
}

func (r *Resolver) tagsMatch(p definition.Project) bool {
	rd := r.Manifest.ResourcesDefinition
	if !rd.HasTagFilter() {
		return true
	}

	for _, tag := range p.Tags {
		if slices.Contains(rd.Tags, tag) {
			return true
		}
	}

	return false
}

// onDisk reports whether the repository is already checked out at its
// canonical path or any alias path. Checked-out repositories stay desired
// when a tag filter change would otherwise drop them.
func (r *Resolver) onDisk(d DesiredRepo) bool {
	paths := []string{r.Layout.Canonical(d)}
	for _, a := range d.Aliases {
		paths = append(paths, r.Layout.RelPath(a.Group, a.Name))
	}

	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(r.Root, p)); err == nil {
			return true
		}
	}

	return false
}

// desired turns candidates into DesiredRepos, dropping (with a warning)
// entries the remote does not know about.
func (r *Resolver) desired(cands []definition.RepoRef, remote []github.Repo) []DesiredRepo {
	known := make(map[string]bool, len(remote))
	for _, gr := range remote {
		known[gr.Name] = true
	}

	out := make([]DesiredRepo, 0, len(cands))

	for _, ref := range cands {
		if !known[ref.Repo.Name] {
			r.Reporter.Warnf("Repo not found in GitHub - ignoring: %s", ref.Repo.Name)
			continue
		}

		out = append(out, desiredFromRef(ref))
	}

	return out
}

// Resolve returns the desired repositories in definition (or listing) order.
func (r *Resolver) Resolve(ctx context.Context) ([]DesiredRepo, error) {
	remote, err := r.Remote.OrgRepos(ctx, r.Manifest.GitHubOrganization)
	if err != nil {
		return nil, err
	}

	cands, err := r.candidates(remote)
	if err != nil {
		return nil, err
	}

	return r.desired(cands, remote), nil
}
