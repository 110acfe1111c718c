package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
)

const (
	// LocksDirName is the directory under the app dir holding session locks.
	LocksDirName = "locks"

	lockRetryDelay = 100 * time.Millisecond
)

// DefaultLockTimeout bounds how long a command waits for another aoe-ctl
// process working on the same session.
var DefaultLockTimeout = 10 * time.Second

// LockPath returns the lock file for session id.
func (a *App) LockPath(id string) string {
	return filepath.Join(a.AppDir, LocksDirName, naming.ShortID(id)+".lock")
}

// LockSession serializes lifecycle commands on one session across
// processes. The caller must Unlock the returned lock.
func (a *App) LockSession(ctx context.Context, id string) (*flock.Flock, error) {
	path := a.LockPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.IOError("failed to create lock directory", err)
	}

	lock := flock.New(path)

	ctx, cancel := context.WithTimeout(ctx, DefaultLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.IOError("lock acquisition failed", err)
	}
	if !locked {
		return nil, errors.New(errors.ExitGeneralError, fmt.Sprintf("session %s is busy (lock held: %s)", id, path))
	}

	logging.Debug("acquired session lock", "path", path)
	return lock, nil
}
