package reconcile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/capralifecycle/cals/internal/gitrepo"
)

// CompareLink is the GitHub page showing the commits in rng.
func CompareLink(rng gitrepo.Range, org, name string) string {
	return fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s", org, name, rng.From, rng.To)
}

func (e *Engine) reportUnknown(unknown []string) {
	if len(unknown) == 0 {
		return
	}

	e.Reporter.Warn("Directories not mapped - maybe renamed?")

	for _, rel := range unknown {
		e.Reporter.Warnf("  %s", rel)
	}
}

func (e *Engine) reportArchived(archived []ActualRepo, archiveExists bool) {
	if len(archived) == 0 {
		return
	}

	e.Reporter.Info("Archived repos:")

	for _, a := range archived {
		e.Reporter.Infof("  %s", a.ActualRelPath)
	}

	if !archiveExists {
		return
	}

	dir := "../" + filepath.Base(ArchiveDir(e.Root))

	e.Reporter.Info("To move these:")

	for _, a := range archived {
		e.Reporter.Infof("  mv %s %s/", a.ActualRelPath, dir)
	}
}

func (e *Engine) reportMoved(moves []Move) {
	e.Reporter.Info("Repositories renamed:")

	for _, m := range moves {
		e.Reporter.Infof("  %s -> %s", m.From, m.To)
	}
}

func (e *Engine) reportMissing(missing []DesiredRepo) {
	e.Reporter.Info("Repositories not cloned:")

	for _, d := range missing {
		e.Reporter.Infof("  %s", d.ID)
	}
}

// reportUpdated prints one updated repository: its id, highlighted unless
// only bots contributed, then the compare link and per-author counts.
func (e *Engine) reportUpdated(a ActualRepo, rng *gitrepo.Range, authors []gitrepo.AuthorCount) {
	name := e.Reporter.Highlight(a.ID)
	if authors != nil && e.Bots.OnlyBots(authors) {
		name = e.Reporter.Muted(a.ID)
	}

	e.Reporter.Info("Updated: " + name)

	if rng == nil || authors == nil {
		return
	}

	parts := make([]string, 0, len(authors))

	for _, au := range authors {
		text := fmt.Sprintf("%s (%d)", au.Name, au.Count)
		if e.Bots.IsBot(au.Name) {
			parts = append(parts, e.Reporter.Muted(text))
		} else {
			parts = append(parts, e.Reporter.Highlight(text))
		}
	}

	e.Reporter.Info(e.Reporter.Muted("  "+CompareLink(*rng, a.Org, a.Name)+" - ") +
		strings.Join(parts, e.Reporter.Muted(", ")))
}
