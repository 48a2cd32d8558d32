package github

// Owner is the account owning a repository.
type Owner struct {
	Login string `json:"login"`
}

// Repo is a repository as listed for an organization.
type Repo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Owner         Owner  `json:"owner"`
	Archived      bool   `json:"archived"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
}
