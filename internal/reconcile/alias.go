package reconcile

import "github.com/capralifecycle/cals/internal/definition"

// aliasesOf derives a repository's aliases from its previous names, in
// definition order.
func aliasesOf(r definition.Repo) []Alias {
	if len(r.PreviousNames) == 0 {
		return nil
	}

	out := make([]Alias, 0, len(r.PreviousNames))
	for _, p := range r.PreviousNames {
		out = append(out, Alias{Group: p.Project, Name: p.Name})
	}

	return out
}

// desiredFromRef builds the DesiredRepo for one definition entry.
func desiredFromRef(ref definition.RepoRef) DesiredRepo {
	return DesiredRepo{
		ID:       ref.Project.Name + "/" + ref.Repo.Name,
		Org:      ref.Org,
		Group:    ref.Project.Name,
		Name:     ref.Repo.Name,
		Archived: ref.Repo.Archived,
		Aliases:  aliasesOf(ref.Repo),
	}
}
