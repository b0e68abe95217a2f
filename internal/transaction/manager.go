package transaction

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// UndoFunc reverses a single filesystem or registration step
type UndoFunc func() error

type step struct {
	name string
	fn   UndoFunc
}

// Manager collects undo steps while an install or upgrade progresses.
// If the operation fails partway, Rollback unwinds the completed steps
// in reverse order so the target directory is never left half-placed.
type Manager struct {
	steps    []step
	onCommit []func()
	mu       sync.Mutex
	logger   *zerolog.Logger
}

// NewManager creates an empty transaction
func NewManager(logger *zerolog.Logger) *Manager {
	return &Manager{logger: logger}
}

// Add registers an undo step for work that just completed
func (m *Manager) Add(name string, fn UndoFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step{name: name, fn: fn})
}

// OnCommit registers cleanup that only runs once the operation has
// fully succeeded, such as removing a parked previous install
func (m *Manager) OnCommit(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCommit = append(m.onCommit, fn)
}

// Len reports how many undo steps are pending
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Rollback runs every registered undo step, newest first.
// Failures are collected rather than aborting so later steps still run.
func (m *Manager) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.steps) == 0 {
		return nil
	}

	if m.logger != nil {
		m.logger.Warn().Int("steps", len(m.steps)).Msg("rolling back partial operation")
	}

	var errs []error
	for i := len(m.steps) - 1; i >= 0; i-- {
		s := m.steps[i]
		if m.logger != nil {
			m.logger.Debug().Str("step", s.name).Msg("undoing")
		}
		if err := s.fn(); err != nil {
			errs = append(errs, fmt.Errorf("undo %q: %w", s.name, err))
			if m.logger != nil {
				m.logger.Error().Err(err).Str("step", s.name).Msg("undo failed")
			}
		}
	}

	m.steps = nil
	m.onCommit = nil

	if len(errs) > 0 {
		return fmt.Errorf("rollback finished with %d error(s): %v", len(errs), errs)
	}
	return nil
}

// Commit discards the undo stack and runs deferred cleanup once the
// operation has fully succeeded
func (m *Manager) Commit() {
	m.mu.Lock()
	cleanup := m.onCommit
	m.steps = nil
	m.onCommit = nil
	m.mu.Unlock()

	for _, fn := range cleanup {
		fn()
	}
}
