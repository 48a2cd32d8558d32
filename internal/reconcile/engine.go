package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/capralifecycle/cals/internal/definition"
	"github.com/capralifecycle/cals/internal/gitrepo"
	"github.com/capralifecycle/cals/internal/manifest"
	"github.com/capralifecycle/cals/internal/prompt"
)

// Prompt texts.
const (
	cloneQuestion = "Clone repos? [h=using https, s=using ssh, other value to abort]: "
	moveQuestion  = "Move repos? [y/n]: "
)

// Options are the per-run switches.
type Options struct {
	AskClone bool
	AskMove  bool
}

// Engine runs one reconciliation of the workspace at Root.
type Engine struct {
	Root     string
	Manifest *manifest.Manifest
	Remote   RemoteSource
	Reporter Reporter
	Gate     Gate
	Factory  RepoFactory
	Bots     *BotMatcher
	Ignore   []string
	Logger   *slog.Logger

	UpdateWorkers int
	CloneWorkers  int

	// loadDefinition defaults to definition.Load.
	loadDefinition func(path string) (*definition.Definition, error)
}

// Result summarises a run.
type Result struct {
	Desired     []DesiredRepo
	Plan        Plan
	BootstrapID string
	// Moved is true when repositories were relocated; the run stops there.
	Moved   bool
	Cloned  []string
	Updated []string
	Dirty   []string
	Failed  int
}

// Run executes the reconciliation. Fatal conditions (unreadable
// definition, occupied move target) abort before any bulk operation.
// A prompt that times out fails its own decision only; the rest of the run
// continues and the timeout is returned at the end. An interrupted prompt
// or a canceled context stops the run before the bulk updates.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	if e.Logger == nil {
		e.Logger = slog.Default()
	}

	if e.Bots == nil {
		e.Bots = NewBotMatcher(nil)
	}

	layout := Layout{GroupByProject: e.Manifest.GroupedByProject()}
	res := &Result{}

	e.Reporter.Info("Determining what repos to expect")

	desired, bootstrap, err := e.resolve(ctx, layout, res)
	if err != nil {
		return res, err
	}

	res.Desired = desired

	if bootstrap != nil {
		res.BootstrapID = bootstrap.ID
	}

	e.Reporter.Info("Classifying existing directories")

	classifier := &Classifier{Root: e.Root, Layout: layout, Ignore: e.Ignore, Factory: e.Factory}

	classified, err := classifier.Classify(desired)
	if err != nil {
		return res, err
	}

	plan := BuildPlan(desired, classified, layout, res.BootstrapID)
	res.Plan = plan

	e.Logger.Debug("plan built",
		slog.Int("desired", len(desired)),
		slog.Int("found", len(classified.Found)),
		slog.Int("unknown", len(plan.Unknown)),
		slog.Int("archived", len(plan.Archived)),
		slog.Int("moved", len(plan.Moved)),
		slog.Int("missing", len(plan.Missing)),
	)

	e.reportUnknown(plan.Unknown)
	e.reportArchived(plan.Archived, dirExists(ArchiveDir(e.Root)))

	var promptErrs []error

	if len(plan.Moved) > 0 {
		moved, err := e.handleMoves(ctx, plan.Moved, opts.AskMove)

		switch {
		case errors.Is(err, prompt.ErrTimeout):
			promptErrs = append(promptErrs, err)
		case err != nil:
			return res, err
		case moved:
			res.Moved = true
			e.Reporter.Info("Not doing more work - rerun to continue")

			return res, nil
		}
	}

	if len(plan.Missing) > 0 {
		cloned, err := e.handleMissing(ctx, layout, plan.Missing, opts.AskClone, res)

		switch {
		case errors.Is(err, prompt.ErrTimeout):
			promptErrs = append(promptErrs, err)
		case err != nil:
			return res, err
		}

		res.Cloned = cloned
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	e.Reporter.Infof("%d repos identified to be updated", len(plan.ToUpdate))
	e.updateRepos(ctx, plan.ToUpdate, res)
	e.reportUnpushed(ctx, classified.Found)

	return res, errors.Join(promptErrs...)
}

// resolve computes the desired repositories, pre-syncing the repository
// that hosts the definition file first when there is one.
func (e *Engine) resolve(ctx context.Context, layout Layout, res *Result) ([]DesiredRepo, *ActualRepo, error) {
	resolver := &Resolver{
		Root:           e.Root,
		Manifest:       e.Manifest,
		Layout:         layout,
		Remote:         e.Remote,
		Reporter:       e.Reporter,
		loadDefinition: e.loadDefinition,
	}

	e.Reporter.Info("Fetching org repo list")

	remote, err := e.Remote.OrgRepos(ctx, e.Manifest.GitHubOrganization)
	if err != nil {
		return nil, nil, err
	}

	e.Reporter.Info("Completed fetching org repo list")

	cands, err := resolver.candidates(remote)
	if err != nil {
		return nil, nil, err
	}

	var bootstrap *ActualRepo

	if defPath := resolver.DefinitionPath(); defPath != "" {
		bootstrap = bootstrapRepo(e.Root, defPath, layout, cands, e.Factory)
	}

	if bootstrap != nil {
		e.Reporter.Info("Pre-syncing resources-definition")
		e.updateRepos(ctx, []ActualRepo{*bootstrap}, res)

		if cands, err = resolver.candidates(remote); err != nil {
			return nil, nil, err
		}
	}

	return resolver.desired(cands, remote), bootstrap, nil
}

// promptOutcome turns a timed out or interrupted answer into an error.
// Only a timeout is worth a "No answer" line; an interrupt already
// printed its own.
func (e *Engine) promptOutcome(answer prompt.Result, what, skipped string) error {
	err := answer.Err()
	if err == nil {
		return nil
	}

	if errors.Is(err, prompt.ErrTimeout) {
		e.Reporter.Errorf("No answer to %s prompt - not %s", what, skipped)
	}

	return fmt.Errorf("%s prompt: %w", what, err)
}

// nonInteractive reports a requested prompt that cannot be shown.
func (e *Engine) nonInteractive(flag string) bool {
	if e.Gate.Interactive() {
		return false
	}

	e.Reporter.Warnf("Input is not interactive - ignoring %s", flag)

	return true
}

// handleMoves reports the moves and, when confirmed, performs them. It
// returns true when anything was moved.
func (e *Engine) handleMoves(ctx context.Context, moves []Move, ask bool) (bool, error) {
	e.reportMoved(moves)

	if !ask {
		e.Reporter.Info("To move these repos on disk add --ask-move option")
		return false, nil
	}

	if e.nonInteractive("--ask-move") {
		return false, nil
	}

	answer := e.Gate.Ask(ctx, moveQuestion, func(a string) bool { return a == "y" })
	if err := e.promptOutcome(answer, "move", "moving"); err != nil {
		return false, err
	}

	if answer.Kind != prompt.Confirmed {
		return false, nil
	}

	if err := CheckMoves(e.Root, moves); err != nil {
		return false, err
	}

	for _, m := range moves {
		e.Reporter.Infof("Moving %s -> %s", m.From, m.To)

		if err := ApplyMove(e.Root, m); err != nil {
			return true, err
		}
	}

	return true, nil
}

// handleMissing reports missing repositories and clones them when asked
// and confirmed. It returns the ids cloned.
func (e *Engine) handleMissing(ctx context.Context, layout Layout, missing []DesiredRepo, ask bool, res *Result) ([]string, error) {
	e.reportMissing(missing)

	if !ask {
		e.Reporter.Info("To clone these repos add --ask-clone option for dialog")
		return nil, nil
	}

	if e.nonInteractive("--ask-clone") {
		return nil, nil
	}

	e.Reporter.Info("You must already have working credentials for GitHub set up for clone to work")

	answer := e.Gate.Ask(ctx, cloneQuestion, func(a string) bool { return a == "h" || a == "s" })
	if err := e.promptOutcome(answer, "clone", "cloning"); err != nil {
		return nil, err
	}

	if answer.Kind != prompt.Confirmed {
		return nil, nil
	}

	transport := gitrepo.HTTPS
	if answer.Value == "s" {
		transport = gitrepo.SSH
	}

	done := RunBounded(ctx, e.CloneWorkers, missing,
		func(ctx context.Context, d DesiredRepo) (string, error) {
			e.Reporter.Infof("Cloning %s", d.ID)
			return d.ID, e.Factory(layout.Canonical(d)).Clone(ctx, d.Org, d.Name, transport)
		},
		func(d DesiredRepo, err error) {
			e.Reporter.Errorf("Cloning failed for %s - skipping. %v", d.ID, err)
		},
	)

	res.Failed += len(missing) - len(done)

	ids := make([]string, 0, len(done))
	for _, c := range done {
		ids = append(ids, c.Value)
	}

	return ids, nil
}

// updateRepos updates repos in parallel and reports the outcome. Dirty
// repositories are reported last since they need manual attention.
func (e *Engine) updateRepos(ctx context.Context, repos []ActualRepo, res *Result) {
	done := RunBounded(ctx, e.UpdateWorkers, repos,
		func(ctx context.Context, a ActualRepo) (gitrepo.UpdateOutcome, error) {
			return a.Repo.Update(ctx)
		},
		func(a ActualRepo, err error) {
			e.Reporter.Errorf("Failed for %s - skipping. %v", a.ActualRelPath, err)
		},
	)

	res.Failed += len(repos) - len(done)

	var dirty []ActualRepo

	for _, c := range done {
		if c.Value.Dirty {
			dirty = append(dirty, c.Item)
			res.Dirty = append(res.Dirty, c.Item.ID)
		}

		if !c.Value.Updated {
			continue
		}

		res.Updated = append(res.Updated, c.Item.ID)

		var authors []gitrepo.AuthorCount

		if c.Value.Range != nil {
			var err error

			authors, err = c.Item.Repo.AuthorsForRange(ctx, *c.Value.Range)
			if err != nil {
				e.Logger.Warn("listing authors failed",
					slog.String("repo", c.Item.ID), slog.String("error", err.Error()))
			}
		}

		e.reportUpdated(c.Item, c.Value.Range, authors)
	}

	for _, a := range dirty {
		e.Reporter.Warnf("Dirty path: %s - handle manually", a.ActualRelPath)
	}
}

// reportUnpushed warns about every found repository with local commits
// that are not on its upstream.
func (e *Engine) reportUnpushed(ctx context.Context, found []ActualRepo) {
	done := RunBounded(ctx, e.UpdateWorkers, found,
		func(ctx context.Context, a ActualRepo) (bool, error) {
			return a.Repo.HasUnpushedCommits(ctx)
		},
		func(a ActualRepo, err error) {
			e.Logger.Debug("checking unpushed commits failed",
				slog.String("path", a.ActualRelPath), slog.String("error", err.Error()))
		},
	)

	for _, c := range done {
		if c.Value {
			e.Reporter.Warnf("Has unpushed commits: %s", c.Item.ActualRelPath)
		}
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
