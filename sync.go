package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/capralifecycle/cals/internal/audit"
	"github.com/capralifecycle/cals/internal/config"
	"github.com/capralifecycle/cals/internal/github"
	"github.com/capralifecycle/cals/internal/gitrepo"
	"github.com/capralifecycle/cals/internal/manifest"
	"github.com/capralifecycle/cals/internal/prompt"
	"github.com/capralifecycle/cals/internal/reconcile"
	"github.com/capralifecycle/cals/internal/reporter"
	"github.com/capralifecycle/cals/internal/respcache"
	"github.com/capralifecycle/cals/internal/tokenfile"
)

// httpClientTimeout bounds a single GitHub API request.
const httpClientTimeout = 30 * time.Second

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

func newGitHubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Work with the GitHub organization of a workspace",
	}

	cmd.AddCommand(newGitHubSyncCmd())

	return cmd
}

func newGitHubSyncCmd() *cobra.Command {
	var opts reconcile.Options

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync repositories for the workspace",
		Long: `Bring the workspace in line with the GitHub organization in .cals.yaml.

Existing repositories are fetched and fast-forwarded. Renamed repositories,
missing clones, archived repositories and unknown directories are reported.
Moving and cloning only happen with --ask-move and --ask-clone, and only
after confirming at the prompt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger(cmd.ErrOrStderr())
			ctx, stop := shutdownContext(cmd.Context(), logger)
			defer stop()

			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}

			rep := reporter.ForFile(os.Stdout)
			rep.SetQuiet(flagQuiet)

			stdinFd := os.Stdin.Fd()
			interactive := !flagNonInteractive && (isatty.IsTerminal(stdinFd) || isatty.IsCygwinTerminal(stdinFd))

			err = runSync(ctx, syncEnv{
				workDir:    wd,
				cfg:        resolvedCfg,
				reporter:   rep,
				gate:       prompt.New(os.Stdin, os.Stdout, resolvedCfg.PromptTimeout, interactive),
				httpClient: defaultHTTPClient(),
				logger:     logger,
			}, opts)

			return interruptedErr(ctx, err)
		},
	}

	cmd.Flags().BoolVarP(&opts.AskClone, "ask-clone", "c", false, "ask to clone missing repos")
	cmd.Flags().BoolVar(&opts.AskMove, "ask-move", false, "ask to move renamed repos")

	return cmd
}

// syncEnv carries what a sync run takes from its surroundings.
type syncEnv struct {
	workDir    string
	cfg        *config.Resolved
	reporter   *reporter.Reporter
	gate       reconcile.Gate
	httpClient *http.Client
	logger     *slog.Logger
}

func runSync(ctx context.Context, env syncEnv, opts reconcile.Options) error {
	root, m, err := manifest.Discover(env.workDir)
	if errors.Is(err, manifest.ErrNotFound) {
		return fmt.Errorf("File %s not found", manifest.FileName) //nolint:stylecheck // user-facing message
	}

	if err != nil {
		return err
	}

	unlock, err := lockWorkspace(root)
	if err != nil {
		return err
	}
	defer unlock()

	logger := env.logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("workspace", root),
		slog.String("org", m.GitHubOrganization),
	)

	token, err := resolveToken(env.cfg)
	if err != nil {
		return err
	}

	cache, closeCache, err := openCache(ctx, env.cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	client, err := github.NewClient(github.Config{
		BaseURL:    env.cfg.GitHubAPIURL,
		Token:      token,
		HTTPClient: env.httpClient,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	auditLog := audit.New(filepath.Join(root, audit.FileName))
	observer := auditObserver(root, auditLog, logger)

	engine := &reconcile.Engine{
		Root:     root,
		Manifest: m,
		Remote:   reconcile.NewOrgRepoSource(client),
		Reporter: env.reporter,
		Gate:     env.gate,
		Factory: func(rel string) reconcile.Repository {
			return gitrepo.New(filepath.Join(root, rel), observer)
		},
		Bots:          reconcile.NewBotMatcher(env.cfg.BotAuthors),
		Ignore:        env.cfg.IgnoreDirs,
		Logger:        logger,
		UpdateWorkers: env.cfg.UpdateWorkers,
		CloneWorkers:  env.cfg.CloneWorkers,
	}

	logger.Debug("sync starting",
		slog.Bool("ask_clone", opts.AskClone),
		slog.Bool("ask_move", opts.AskMove),
	)

	res, runErr := engine.Run(ctx, opts)

	env.reporter.Infof("Number of GitHub requests: %d", client.RequestCount())

	if remaining, ok := client.RateLimitRemaining(); ok {
		env.reporter.Infof("GitHub rate limit remaining: %d", remaining)
	}

	if res != nil {
		logger.Info("sync finished",
			slog.Int("desired", len(res.Desired)),
			slog.Int("updated", len(res.Updated)),
			slog.Int("cloned", len(res.Cloned)),
			slog.Int("dirty", len(res.Dirty)),
			slog.Int("failed", res.Failed),
			slog.Bool("moved", res.Moved),
		)
	}

	return runErr
}

// resolveToken prefers a token from the environment over the token file.
func resolveToken(cfg *config.Resolved) (string, error) {
	if cfg.GitHubToken != "" {
		return cfg.GitHubToken, nil
	}

	tok, err := tokenfile.Load(cfg.TokenFile)
	if err != nil {
		return "", err
	}

	if tok == nil {
		return "", fmt.Errorf("no GitHub token: set %s or %s, or write %s",
			config.EnvGitHubToken, config.EnvGitHubTokenFallback, cfg.TokenFile)
	}

	return tok.AccessToken, nil
}

// openCache opens the on-disk response cache, or an in-memory one when the
// cache is disabled. The returned function closes it.
func openCache(ctx context.Context, cfg *config.Resolved, logger *slog.Logger) (github.Cache, func(), error) {
	if !cfg.CacheEnabled {
		return github.NewMemoryCache(), func() {}, nil
	}

	store, err := respcache.Open(ctx, cfg.CachePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening response cache: %w", err)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing response cache", slog.String("error", err.Error()))
		}
	}, nil
}

// auditObserver records every git invocation in the workspace audit log,
// keyed by the repository path relative to root.
func auditObserver(root string, log *audit.Log, logger *slog.Logger) gitrepo.Observer {
	return func(r gitrepo.ExecResult) {
		rel, err := filepath.Rel(root, r.Dir)
		if err != nil {
			rel = r.Dir
		}

		if err := log.Append(filepath.ToSlash(rel), audit.TypeExecResult, r); err != nil {
			logger.Warn("writing audit log", slog.String("error", err.Error()))
		}
	}
}
