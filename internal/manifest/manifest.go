// Package manifest loads the per-workspace .cals.yaml file that tells sync
// which GitHub organization a directory tree mirrors and how it is laid out.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest name searched for from the working directory up.
const FileName = ".cals.yaml"

// SupportedVersion is bumped on breaking changes to the manifest or to the
// sync command's interpretation of it.
const SupportedVersion = 2

var (
	// ErrNotFound means no manifest exists in the directory or any ancestor.
	ErrNotFound = errors.New("manifest: " + FileName + " not found")
	// ErrUnsupportedVersion means the manifest version is not SupportedVersion.
	ErrUnsupportedVersion = errors.New("manifest: unexpected version")
)

// PathStyle selects the on-disk layout of the workspace.
type PathStyle string

const (
	// GroupByProject keeps every repository in a directory named after its project.
	GroupByProject PathStyle = "group-by-project"
	// Flat keeps all repositories directly in the workspace root.
	Flat PathStyle = "flat"
)

// ResourcesDefinition points at the declarative definition file, optionally
// narrowed to projects carrying at least one of Tags.
type ResourcesDefinition struct {
	Path string   `yaml:"path"`
	Tags []string `yaml:"tags,omitempty"`
}

// HasTagFilter reports whether a tag filter is configured. An explicitly
// empty list is still a filter, one that no project tag can satisfy.
func (d *ResourcesDefinition) HasTagFilter() bool {
	return d.Tags != nil
}

// Manifest is the parsed .cals.yaml.
type Manifest struct {
	Version             int                  `yaml:"version"`
	GitHubOrganization  string               `yaml:"githubOrganization"`
	ResourcesDefinition *ResourcesDefinition `yaml:"resourcesDefinition,omitempty"`
	PathStyle           PathStyle            `yaml:"pathStyle,omitempty"`
}

// GroupedByProject reports whether repositories live under project directories.
// Anything other than an explicit "flat" groups by project.
func (m *Manifest) GroupedByProject() bool {
	return m.PathStyle != Flat
}

// Find walks upward from dir and returns the path of the first manifest.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: resolving %s: %w", dir, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)

		info, statErr := os.Stat(candidate)
		if statErr == nil && !info.IsDir() {
			return candidate, nil
		}

		if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return "", fmt.Errorf("manifest: checking %s: %w", candidate, statErr)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}

		dir = parent
	}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}

	var m Manifest

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}

	if m.Version != SupportedVersion {
		return nil, fmt.Errorf("%w in %s: got %d, want %d", ErrUnsupportedVersion, path, m.Version, SupportedVersion)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest: invalid %s: %w", path, err)
	}

	return &m, nil
}

// Discover finds the manifest from dir upward and loads it. It returns the
// workspace root (the manifest's directory) alongside the manifest.
func Discover(dir string) (string, *Manifest, error) {
	path, err := Find(dir)
	if err != nil {
		return "", nil, err
	}

	m, err := Load(path)
	if err != nil {
		return "", nil, err
	}

	return filepath.Dir(path), m, nil
}

func (m *Manifest) validate() error {
	var errs []error

	if m.GitHubOrganization == "" {
		errs = append(errs, errors.New("githubOrganization is required"))
	}

	switch m.PathStyle {
	case "", GroupByProject, Flat:
	default:
		errs = append(errs, fmt.Errorf("pathStyle %q must be %q or %q", m.PathStyle, GroupByProject, Flat))
	}

	if m.ResourcesDefinition != nil && m.ResourcesDefinition.Path == "" {
		errs = append(errs, errors.New("resourcesDefinition.path is required when resourcesDefinition is set"))
	}

	return errors.Join(errs...)
}
