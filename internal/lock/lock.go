// Package lock serializes vault writers that share a configuration root.
//
// The vault store itself takes no locks; callers that may run concurrently
// (several CLI invocations, a UI plus a CLI) hold a Gate around create, save
// and export.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Error variables for gate operations
var (
	// ErrLockTimeout is returned when the gate cannot be acquired in time
	ErrLockTimeout = errors.New("lock acquisition timeout")
	// ErrLockNotHeld is returned when releasing a gate that isn't held
	ErrLockNotHeld = errors.New("lock not held")
)

// retryDelay is how often a busy lock is polled.
const retryDelay = 50 * time.Millisecond

// Gate is an advisory OS file lock.
type Gate struct {
	lock *flock.Flock
}

// New returns a gate backed by the lock file at path.
func New(path string) *Gate {
	return &Gate{lock: flock.New(path)}
}

// Path returns the lock file path.
func (g *Gate) Path() string {
	return g.lock.Path()
}

// Acquire blocks until the gate is held, timeout elapses or ctx is done.
func (g *Gate) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(g.lock.Path()), 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	locked, err := g.lock.TryLockContext(ctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLockTimeout
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrLockTimeout
	}

	return nil
}

// Release unlocks the gate.
func (g *Gate) Release() error {
	if !g.lock.Locked() {
		return ErrLockNotHeld
	}
	return g.lock.Unlock()
}

// IsLocked reports whether this gate currently holds the lock.
func (g *Gate) IsLocked() bool {
	return g.lock.Locked()
}

// WithGate runs fn while holding a gate on path.
func WithGate(ctx context.Context, path string, timeout time.Duration, fn func() error) (err error) {
	g := New(path)
	if err := g.Acquire(ctx, timeout); err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("failed to release lock: %w", rerr)
		}
	}()

	return fn()
}
