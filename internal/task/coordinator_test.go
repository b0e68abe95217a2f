package task

import (
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	return NewCoordinator(filepath.Join(t.TempDir(), ".squashmate.lock"), logging.NewTestLogger(io.Discard))
}

func TestRunExecutesFunction(t *testing.T) {
	c := newCoordinator(t)
	ran := false
	require.NoError(t, c.Run("Cursor", func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestConcurrentSameNameRejected(t *testing.T) {
	c := newCoordinator(t)

	started := make(chan struct{})
	finish := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Run("Cursor", func() error {
			close(started)
			<-finish
			return nil
		})
	}()

	<-started
	err := c.Run("Cursor", func() error { return nil })
	assert.ErrorIs(t, err, core.ErrOperationInFlight)

	close(finish)
	wg.Wait()
}

func TestSequentialSameNameAllowed(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.Run("Cursor", func() error { return nil }))
	require.NoError(t, c.Run("Cursor", func() error { return nil }))
}

func TestCrossProcessLockRejected(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".squashmate.lock")
	log := logging.NewTestLogger(io.Discard)
	first := NewCoordinator(lockPath, log)
	second := NewCoordinator(lockPath, log)

	started := make(chan struct{})
	finish := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = first.Run("Cursor", func() error {
			close(started)
			<-finish
			return nil
		})
	}()

	<-started
	// A different coordinator (standing in for another process) hits
	// the flock even though the logical name differs
	err := second.Run("Zoom", func() error { return nil })
	assert.ErrorIs(t, err, core.ErrOperationInFlight)

	close(finish)
	wg.Wait()
}
