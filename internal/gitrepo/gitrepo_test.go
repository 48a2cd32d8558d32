package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// gitT runs git with a fixed identity and fails the test on error.
func gitT(t *testing.T, dir, author string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+author, "GIT_AUTHOR_EMAIL=author@example.com",
		"GIT_COMMITTER_NAME="+author, "GIT_COMMITTER_EMAIL=author@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)

	return string(out)
}

func commitFile(t *testing.T, dir, author, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	gitT(t, dir, author, "add", name)
	gitT(t, dir, author, "commit", "-q", "-m", "change "+name)
}

// setupRemote creates a bare origin with one commit on main plus a seed
// clone used to push further commits.
func setupRemote(t *testing.T) (origin, seed string) {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	origin = filepath.Join(root, "origin.git")
	seed = filepath.Join(root, "seed")

	gitT(t, root, "Setup", "init", "-q", "--bare", "--initial-branch=main", origin)
	gitT(t, root, "Setup", "clone", "-q", origin, seed)
	commitFile(t, seed, "Alice", "README", "hello\n")
	gitT(t, seed, "Alice", "push", "-q", "origin", "HEAD:main")

	return origin, seed
}

func cloneWork(t *testing.T, origin string) *Repository {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "core", "api")
	repo := New(dir, nil)
	require.NoError(t, repo.cloneFrom(context.Background(), origin))

	return repo
}

func TestUpdate_NothingNew(t *testing.T) {
	origin, _ := setupRemote(t)
	repo := cloneWork(t, origin)

	out, err := repo.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcome{}, out)
}

func TestUpdate_FastForwardsAndReportsAuthors(t *testing.T) {
	origin, seed := setupRemote(t)
	repo := cloneWork(t, origin)

	commitFile(t, seed, "renovate[bot]", "deps", "1\n")
	commitFile(t, seed, "Bob", "main.go", "package main\n")
	commitFile(t, seed, "Bob", "main.go", "package main\n\nfunc main() {}\n")
	gitT(t, seed, "Bob", "push", "-q", "origin", "HEAD:main")

	ctx := context.Background()

	out, err := repo.Update(ctx)
	require.NoError(t, err)
	require.True(t, out.Updated)
	assert.False(t, out.Dirty)
	require.NotNil(t, out.Range)
	assert.NotEqual(t, out.Range.From, out.Range.To)

	authors, err := repo.AuthorsForRange(ctx, *out.Range)
	require.NoError(t, err)
	assert.Equal(t, []AuthorCount{{Name: "Bob", Count: 2}, {Name: "renovate[bot]", Count: 1}}, authors)

	_, err = os.Stat(filepath.Join(repo.Dir(), "main.go"))
	assert.NoError(t, err)
}

func TestUpdate_DirtyOnlyFetches(t *testing.T) {
	origin, seed := setupRemote(t)
	repo := cloneWork(t, origin)

	commitFile(t, seed, "Bob", "new.txt", "x\n")
	gitT(t, seed, "Bob", "push", "-q", "origin", "HEAD:main")

	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir(), "README"), []byte("wip\n"), 0o644))

	out, err := repo.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UpdateOutcome{Dirty: true}, out)

	_, err = os.Stat(filepath.Join(repo.Dir(), "new.txt"))
	assert.True(t, os.IsNotExist(err), "dirty tree must not be merged")
}

func TestUpdate_UntrackedFilesDoNotBlockFastForward(t *testing.T) {
	origin, seed := setupRemote(t)
	repo := cloneWork(t, origin)

	commitFile(t, seed, "Bob", "new.txt", "x\n")
	gitT(t, seed, "Bob", "push", "-q", "origin", "HEAD:main")

	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir(), "scratch.txt"), []byte("notes"), 0o644))

	out, err := repo.Update(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.False(t, out.Dirty)

	assert.FileExists(t, filepath.Join(repo.Dir(), "new.txt"))
	assert.FileExists(t, filepath.Join(repo.Dir(), "scratch.txt"))
}

func TestUpdate_OtherBranchOnlyFetches(t *testing.T) {
	origin, seed := setupRemote(t)
	repo := cloneWork(t, origin)

	gitT(t, repo.Dir(), "Alice", "checkout", "-q", "-b", "feature")

	commitFile(t, seed, "Bob", "new.txt", "x\n")
	gitT(t, seed, "Bob", "push", "-q", "origin", "HEAD:main")

	out, err := repo.Update(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Updated)
}

func TestHasUnpushedCommits(t *testing.T) {
	origin, _ := setupRemote(t)
	repo := cloneWork(t, origin)
	ctx := context.Background()

	has, err := repo.HasUnpushedCommits(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	commitFile(t, repo.Dir(), "Alice", "local.txt", "1\n")

	has, err = repo.HasUnpushedCommits(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	gitT(t, repo.Dir(), "Alice", "checkout", "-q", "-b", "no-upstream")

	has, err = repo.HasUnpushedCommits(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestObserverSeesEveryInvocation(t *testing.T) {
	origin, _ := setupRemote(t)

	var (
		mu      sync.Mutex
		results []ExecResult
	)

	dir := filepath.Join(t.TempDir(), "api")
	repo := New(dir, func(r ExecResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})

	require.NoError(t, repo.cloneFrom(context.Background(), origin))
	require.Len(t, results, 1)
	assert.Equal(t, "git", results[0].Command)
	assert.Equal(t, []string{"clone", origin, dir}, results[0].Args)
	assert.Equal(t, 0, results[0].ExitCode)

	_, err := repo.Update(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(results), 3)
}

func TestCloneFailureReportsExitCode(t *testing.T) {
	requireGit(t)

	var got ExecResult

	repo := New(filepath.Join(t.TempDir(), "x"), func(r ExecResult) { got = r })

	err := repo.cloneFrom(context.Background(), filepath.Join(t.TempDir(), "does-not-exist.git"))
	require.Error(t, err)
	assert.NotEqual(t, 0, got.ExitCode)
	assert.NotEmpty(t, got.Stderr)
}

func TestCloneURL(t *testing.T) {
	assert.Equal(t, "https://github.com/acme/api.git", CloneURL("acme", "api", HTTPS))
	assert.Equal(t, "git@github.com:acme/api.git", CloneURL("acme", "api", SSH))
}
