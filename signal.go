package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// exitInterrupted is the status used when a second signal abandons the run.
const exitInterrupted = 130

// errInterrupted is the cancellation cause of a sync stopped by a signal.
var errInterrupted = errors.New("sync interrupted")

// shutdownContext returns the context a sync runs under and a func that
// releases the signal handler.
//
// The first SIGINT or SIGTERM cancels the context with errInterrupted as
// its cause. Every git subprocess is started with exec.CommandContext, so
// in-flight fetches and clones are killed and reported as failed,
// and a pending prompt returns prompt.Interrupted. No further bulk
// operation starts. The workspace lock is still released on the way out.
//
// A second signal exits with status 130 without waiting for git to die.
// Directories of half-finished clones may be left behind and show up as
// unknown on the next run.
func shutdownContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	stop := sync.OnceFunc(func() {
		signal.Stop(sigCh)
		close(stopped)
		cancel(context.Canceled)
	})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("stopping git operations", slog.String("signal", sig.String()))
			cancel(fmt.Errorf("%w by %s", errInterrupted, sig))
		case <-ctx.Done():
			return
		case <-stopped:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("exiting without waiting for git", slog.String("signal", sig.String()))
			os.Exit(exitInterrupted)
		case <-stopped:
		}
	}()

	return ctx, stop
}

// interruptedErr prefers the signal over whatever error a canceled run
// produced, so the user sees why the sync stopped.
func interruptedErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if cause := context.Cause(ctx); errors.Is(cause, errInterrupted) {
		return cause
	}

	return err
}
