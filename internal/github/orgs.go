package github

import (
	"context"
	"fmt"
	"net/url"
)

// ListOrgRepos returns every repository in org, archived ones included.
// Any member of the organization may list them.
func (c *Client) ListOrgRepos(ctx context.Context, org string) ([]Repo, error) {
	repos, err := list[Repo](ctx, c, "/orgs/"+url.PathEscape(org)+"/repos?type=all&sort=full_name")
	if err != nil {
		return nil, fmt.Errorf("listing repositories of %s: %w", org, err)
	}

	return repos, nil
}
