package reconcile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capralifecycle/cals/internal/github"
	"github.com/capralifecycle/cals/internal/gitrepo"
	"github.com/capralifecycle/cals/internal/manifest"
	"github.com/capralifecycle/cals/internal/prompt"
	"github.com/capralifecycle/cals/internal/reporter"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	mu sync.Mutex

	outcome   gitrepo.UpdateOutcome
	updateErr error
	onUpdate  func()
	authors   []gitrepo.AuthorCount
	unpushed  bool
	cloneErr  error

	updates int
	clones  []string
}

func (f *fakeRepo) Update(context.Context) (gitrepo.UpdateOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates++

	if f.onUpdate != nil {
		f.onUpdate()
	}

	return f.outcome, f.updateErr
}

func (f *fakeRepo) Clone(_ context.Context, org, name string, t gitrepo.Transport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clones = append(f.clones, org+"/"+name+"@"+t.String())

	return f.cloneErr
}

func (f *fakeRepo) HasUnpushedCommits(context.Context) (bool, error) {
	return f.unpushed, nil
}

func (f *fakeRepo) AuthorsForRange(context.Context, gitrepo.Range) ([]gitrepo.AuthorCount, error) {
	return f.authors, nil
}

func (f *fakeRepo) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.updates
}

// fakeRepos hands out one fakeRepo per relative path.
type fakeRepos struct {
	mu    sync.Mutex
	repos map[string]*fakeRepo
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{repos: make(map[string]*fakeRepo)}
}

func (f *fakeRepos) get(rel string) *fakeRepo {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.repos[filepath.ToSlash(rel)]
	if !ok {
		r = &fakeRepo{}
		f.repos[filepath.ToSlash(rel)] = r
	}

	return r
}

func (f *fakeRepos) factory(rel string) Repository {
	return f.get(rel)
}

// fakeRemote serves a fixed repository listing and counts calls.
type fakeRemote struct {
	mu    sync.Mutex
	repos []github.Repo
	calls int
}

func (f *fakeRemote) OrgRepos(context.Context, string) ([]github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.repos, nil
}

// cancelAfterList cancels the run once the org listing has been served.
type cancelAfterList struct {
	RemoteSource
	cancel context.CancelFunc
}

func (c cancelAfterList) OrgRepos(ctx context.Context, org string) ([]github.Repo, error) {
	defer c.cancel()
	return c.RemoteSource.OrgRepos(ctx, org)
}

func remoteRepos(org string, names ...string) []github.Repo {
	out := make([]github.Repo, 0, len(names))
	for _, n := range names {
		out = append(out, github.Repo{Name: n, Owner: github.Owner{Login: org}})
	}

	return out
}

// Replies that make fakeGate end a question without an answer.
const (
	timeoutReply   = "\x00timeout"
	interruptReply = "\x00interrupt"
)

type fakeGate struct {
	replies []string
	asked   []string
	// noTTY makes the gate report itself non-interactive.
	noTTY bool
}

func (g *fakeGate) Interactive() bool { return !g.noTTY }

func (g *fakeGate) Ask(_ context.Context, question string, accept func(string) bool) prompt.Result {
	g.asked = append(g.asked, question)

	if len(g.replies) == 0 {
		return prompt.Result{Kind: prompt.Declined}
	}

	reply := g.replies[0]
	g.replies = g.replies[1:]

	switch {
	case reply == timeoutReply:
		return prompt.Result{Kind: prompt.TimedOut}
	case reply == interruptReply:
		return prompt.Result{Kind: prompt.Interrupted}
	case accept(reply):
		return prompt.Result{Kind: prompt.Confirmed, Value: reply}
	default:
		return prompt.Result{Kind: prompt.Declined, Value: reply}
	}
}

// mkRepo creates rel/.git under root.
func mkRepo(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, rel, ".git"), 0o755))
}

func mkDir(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, rel), 0o755))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEngine struct {
	*Engine
	out    *bytes.Buffer
	repos  *fakeRepos
	remote *fakeRemote
	gate   *fakeGate
}

func newTestEngine(root string, m *manifest.Manifest, remote []github.Repo) *testEngine {
	out := &bytes.Buffer{}
	repos := newFakeRepos()
	fr := &fakeRemote{repos: remote}
	gate := &fakeGate{}

	return &testEngine{
		Engine: &Engine{
			Root:          root,
			Manifest:      m,
			Remote:        fr,
			Reporter:      reporter.New(out, false),
			Gate:          gate,
			Factory:       repos.factory,
			Logger:        discardLogger(),
			UpdateWorkers: DefaultUpdateWorkers,
			CloneWorkers:  DefaultCloneWorkers,
		},
		out:    out,
		repos:  repos,
		remote: fr,
		gate:   gate,
	}
}

func ids(repos []ActualRepo) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.ID)
	}

	return out
}

func desiredIDs(repos []DesiredRepo) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.ID)
	}

	return out
}
