// Package respcache persists conditional-request state for the GitHub API
// client: the ETag, body and pagination link of every response, keyed by
// URL, so later runs can revalidate with If-None-Match and reuse the body
// on 304 Not Modified.
package respcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqlGet = `SELECT etag, body, link, fetched_at FROM responses WHERE url = ?`

	sqlUpsert = `INSERT INTO responses (url, etag, body, link, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
		 etag = excluded.etag,
		 body = excluded.body,
		 link = excluded.link,
		 fetched_at = excluded.fetched_at`
)

// Entry is one cached response.
type Entry struct {
	ETag      string
	Body      []byte
	Link      string // raw Link header, carries the next-page URL
	FetchedAt time.Time
}

// Store is a SQLite-backed response cache. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time
}

// Open opens (creating if needed) the cache database at path and applies
// migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("respcache: creating directory for %s: %w", path, err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"+
			"&_pragma=busy_timeout(5000)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("respcache: opening database %s: %w", path, err)
	}

	// Parallel org fetches share one writer.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("response cache opened", slog.String("path", path))

	return &Store{db: db, logger: logger, nowFunc: time.Now}, nil
}

// Get returns the cached entry for url. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, url string) (Entry, bool, error) {
	var (
		e       Entry
		fetched int64
	)

	err := s.db.QueryRowContext(ctx, sqlGet, url).Scan(&e.ETag, &e.Body, &e.Link, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}

	if err != nil {
		return Entry{}, false, fmt.Errorf("respcache: reading %s: %w", url, err)
	}

	e.FetchedAt = time.Unix(0, fetched)

	return e, true, nil
}

// Put stores or replaces the entry for url. A zero FetchedAt is stamped
// with the current time.
func (s *Store) Put(ctx context.Context, url string, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = s.nowFunc()
	}

	if _, err := s.db.ExecContext(ctx, sqlUpsert, url, e.ETag, e.Body, e.Link, e.FetchedAt.UnixNano()); err != nil {
		return fmt.Errorf("respcache: writing %s: %w", url, err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
