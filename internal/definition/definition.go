// Package definition reads the declarative resources definition: projects,
// their tags, and the GitHub repositories each project owns. Only the parts
// the sync command consumes are modelled; other keys are ignored.
package definition

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNotFound means the definition file does not exist.
var ErrNotFound = errors.New("definition: file does not exist")

// Definition is the root of the resources definition file.
type Definition struct {
	Projects []Project `yaml:"projects"`
}

// Project groups repositories across organizations.
type Project struct {
	Name   string          `yaml:"name"`
	Tags   []string        `yaml:"tags,omitempty"`
	GitHub []ProjectGitHub `yaml:"github,omitempty"`
}

// ProjectGitHub lists a project's repositories in one organization.
type ProjectGitHub struct {
	Organization string     `yaml:"organization"`
	Repos        []Repo     `yaml:"repos,omitempty"`
	Teams        []RepoTeam `yaml:"teams,omitempty"`
}

// Repo is a repository entry.
type Repo struct {
	Name          string         `yaml:"name"`
	Archived      bool           `yaml:"archived,omitempty"`
	PreviousNames []PreviousName `yaml:"previousNames,omitempty"`
}

// PreviousName is an earlier (project, name) location of a repository.
type PreviousName struct {
	Project string `yaml:"project"`
	Name    string `yaml:"name"`
}

// RepoTeam grants a team access to every repository in a project.
type RepoTeam struct {
	Name       string `yaml:"name"`
	Permission string `yaml:"permission"`
}

// RepoRef is a repository together with the project and organization that
// own it.
type RepoRef struct {
	ID      string
	Org     string
	Project Project
	Repo    Repo
}

// RepoID builds the organization-qualified repository id.
func RepoID(org, name string) string {
	return org + "/" + name
}

// Load reads and validates the definition at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("definition: reading %s: %w", path, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("definition: parsing %s: %w", path, err)
	}

	if err := Validate(&def); err != nil {
		return nil, fmt.Errorf("definition: invalid %s: %w", path, err)
	}

	return &def, nil
}

// Validate checks the invariants the sync command relies on: every project
// and repository is named, and a repository id appears at most once.
func Validate(def *Definition) error {
	var errs []error

	seenProjects := make(map[string]bool)
	seenRepos := make(map[string]string)

	for i := range def.Projects {
		p := &def.Projects[i]
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("project #%d has no name", i+1))
			continue
		}

		if seenProjects[p.Name] {
			errs = append(errs, fmt.Errorf("project %q defined more than once", p.Name))
		}

		seenProjects[p.Name] = true

		for _, gh := range p.GitHub {
			if gh.Organization == "" {
				errs = append(errs, fmt.Errorf("project %q has a github entry without organization", p.Name))
				continue
			}

			for _, r := range gh.Repos {
				if r.Name == "" {
					errs = append(errs, fmt.Errorf("project %q has a repository without name", p.Name))
					continue
				}

				id := RepoID(gh.Organization, r.Name)
				if owner, dup := seenRepos[id]; dup {
					errs = append(errs, fmt.Errorf("repository %s listed in both %q and %q", id, owner, p.Name))
					continue
				}

				seenRepos[id] = p.Name
			}
		}
	}

	return errors.Join(errs...)
}

// Repos flattens the definition into one entry per repository, in file order.
func Repos(def *Definition) []RepoRef {
	var out []RepoRef

	for _, p := range def.Projects {
		for _, gh := range p.GitHub {
			for _, r := range gh.Repos {
				out = append(out, RepoRef{
					ID:      RepoID(gh.Organization, r.Name),
					Org:     gh.Organization,
					Project: p,
					Repo:    r,
				})
			}
		}
	}

	return out
}
