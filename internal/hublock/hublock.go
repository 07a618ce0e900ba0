// Package hublock enforces single-writer access to a hub. Runs, repair, and
// undo all acquire the lock before mutating hub state so two invocations can
// never interleave on the same tree.
package hublock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"crates/internal/services"
)

// Lock is a file lock guarding one hub.
type Lock struct {
	path  string
	flock *flock.Flock
}

// New prepares a lock at the given path without acquiring it.
func New(path string) *Lock {
	return &Lock{path: path, flock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. A hub already locked by another
// process yields services.ErrLocked.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return services.Wrap(services.ErrFileSystem, "hublock", "acquire", fmt.Sprintf("create lock directory for %q", l.path), err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrFileSystem, "hublock", "acquire", fmt.Sprintf("acquire hub lock %q", l.path), err)
	}
	if !ok {
		return services.Wrap(services.ErrLocked, "hublock", "acquire", fmt.Sprintf("hub lock %q held by another run", l.path), nil)
	}
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
