// Package clipboard copies secrets to the system clipboard and clears them
// again after a timeout.
package clipboard

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
)

// Board is the clipboard backend.
type Board interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// systemBoard talks to the OS clipboard.
type systemBoard struct{}

func (systemBoard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemBoard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// System returns the OS clipboard backend.
func System() Board {
	return systemBoard{}
}

// Manager copies text and schedules the clear.
type Manager struct {
	board Board
	after func(time.Duration) <-chan time.Time
}

// NewManager returns a Manager using board, or the OS clipboard when board is nil.
func NewManager(board Board) *Manager {
	if board == nil {
		board = System()
	}
	return &Manager{board: board, after: time.After}
}

// CopyWithTimeout writes text to the clipboard and clears it after ttl, but
// only if the clipboard still holds text at that point. The returned channel
// is closed once the clear attempt finished or ctx was cancelled.
func (m *Manager) CopyWithTimeout(ctx context.Context, text string, ttl time.Duration) (<-chan struct{}, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("clipboard timeout must be positive, got %v", ttl)
	}

	if err := m.board.WriteAll(text); err != nil {
		return nil, fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		select {
		case <-m.after(ttl):
		case <-ctx.Done():
			return
		}

		current, err := m.board.ReadAll()
		if err == nil && current == text {
			_ = m.board.WriteAll("")
		}
	}()

	return done, nil
}

// IsAvailable reports whether the clipboard can be read
func (m *Manager) IsAvailable() bool {
	_, err := m.board.ReadAll()
	return err == nil
}

