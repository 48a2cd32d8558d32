package reconcile

import (
	"context"

	"github.com/capralifecycle/cals/internal/github"
	"github.com/capralifecycle/cals/internal/keyed"
)

// RepoLister is the part of the GitHub client the sync command uses.
type RepoLister interface {
	ListOrgRepos(ctx context.Context, org string) ([]github.Repo, error)
}

// OrgRepoSource lists an organization's repositories at most once per run,
// however many callers ask concurrently.
type OrgRepoSource struct {
	api  RepoLister
	memo *keyed.Memo[string, []github.Repo]
}

// NewOrgRepoSource wraps api.
func NewOrgRepoSource(api RepoLister) *OrgRepoSource {
	return &OrgRepoSource{api: api, memo: keyed.NewMemo[string, []github.Repo]()}
}

// OrgRepos returns the repositories of org.
func (s *OrgRepoSource) OrgRepos(ctx context.Context, org string) ([]github.Repo, error) {
	return s.memo.Get(ctx, org, func(ctx context.Context) ([]github.Repo, error) {
		return s.api.ListOrgRepos(ctx, org)
	})
}
