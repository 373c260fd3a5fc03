// Package ledger persists the set of item IDs already notified.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

// fileFormat is the on-disk JSON shape. IDs stay sorted so commits of
// the state file produce minimal diffs.
type fileFormat struct {
	SeenIDs []string `json:"seen_ids"`
}

// Ledger is an append-only set of notified item IDs backed by a JSON
// file. It is not safe for concurrent use; runs serialize on Lock.
type Ledger struct {
	path string
	ids  map[string]struct{}
}

// Load reads the ledger at path. A missing file, an unreadable file or
// a malformed document all yield an empty ledger, never an error; the
// worst case after losing the file is a repeated notification.
func Load(path string) *Ledger {
	l := &Ledger{path: path, ids: make(map[string]struct{})}
	raw, err := os.ReadFile(path)
	if err != nil {
		return l
	}
	var doc fileFormat
	if err := json.Unmarshal(raw, &doc); err != nil {
		return l
	}
	for _, id := range doc.SeenIDs {
		l.ids[id] = struct{}{}
	}
	return l
}

// Contains reports whether id was already notified.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Add records ids as notified. Entries are never removed.
func (l *Ledger) Add(ids ...string) {
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}
}

// Len returns the number of recorded IDs.
func (l *Ledger) Len() int {
	return len(l.ids)
}

// IDs returns the recorded IDs sorted lexicographically.
func (l *Ledger) IDs() []string {
	out := make([]string, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Save writes the ledger as indented JSON via a temp file and rename,
// creating the state directory when needed. A crash mid-save leaves the
// previous file intact.
func (l *Ledger) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	raw, err := json.MarshalIndent(fileFormat{SeenIDs: l.IDs()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := atomic.WriteFile(l.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return nil
}

// Lock serializes runs sharing a state directory. The advisory file
// lock spans the whole load-mutate-save sequence, so a schedule tick
// fired while the previous run is still delivering cannot interleave
// with it.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns a lock scoped to the state directory of statePath.
func NewLock(statePath string) *Lock {
	return &Lock{fl: flock.New(filepath.Join(filepath.Dir(statePath), ".lock"))}
}

// Acquire takes the lock, retrying until ctx is done.
func (l *Lock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	ok, err := l.fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s: held by another run", l.fl.Path())
	}
	return nil
}

// Release drops the lock. Releasing a lock that was never acquired is a
// no-op.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
