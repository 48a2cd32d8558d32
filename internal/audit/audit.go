// Package audit appends one JSON object per line to a workspace-local log
// file. The log is write-only from the tool's point of view: nothing in cals
// reads it back, it exists for humans investigating what a sync did.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the audit log name, created next to the workspace manifest.
const FileName = ".cals.log"

// TypeExecResult marks a record carrying the outcome of one git invocation.
const TypeExecResult = "exec-result"

// timeLayout is ISO-8601 with millisecond precision in UTC.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const filePerms = 0o644

// Record is a single audit log line.
type Record struct {
	Time    string `json:"time"`
	Context string `json:"context"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Log appends records to a file. Each Append opens, locks, writes one line
// and closes the file, so no descriptor outlives a call and concurrent
// writers (goroutines or processes) never interleave partial lines.
type Log struct {
	path    string
	nowFunc func() time.Time
}

// New returns a Log writing to path. The file is created on first Append.
func New(path string) *Log {
	return &Log{path: path, nowFunc: time.Now}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Append writes a record for the given context (a workspace-relative path),
// record type and payload.
func (l *Log) Append(context, recordType string, payload any) error {
	rec := Record{
		Time:    l.nowFunc().UTC().Format(timeLayout),
		Context: context,
		Type:    recordType,
		Payload: payload,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("audit: encoding record: %w", err)
	}

	line = append(line, '\n')

	lock := flock.New(l.path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("audit: locking %s: %w", l.path, err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerms)
	if err != nil {
		return fmt.Errorf("audit: opening %s: %w", l.path, err)
	}

	// One Write per record: with O_APPEND the line lands at the end as a unit.
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("audit: writing %s: %w", l.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("audit: closing %s: %w", l.path, err)
	}

	return nil
}
