package task

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/squashmate/squashmate/internal/core"
	"golang.org/x/sys/unix"
)

// Coordinator serializes mutating operations. Two layers guard the
// managed tree: an in-process single-flight map keyed by logical name,
// and an advisory flock on the lock file so concurrent squashmate
// processes exclude each other too.
type Coordinator struct {
	lockPath string
	logger   *zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCoordinator creates a Coordinator using the given lock file path
func NewCoordinator(lockPath string, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		lockPath: lockPath,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Run executes fn while holding both guards for the named item.
// A second mutation for the same name, from this process or another,
// fails immediately with ErrOperationInFlight instead of queueing.
func (c *Coordinator) Run(name string, fn func() error) error {
	if err := c.claim(name); err != nil {
		return err
	}
	defer c.release(name)

	unlock, err := c.flock()
	if err != nil {
		return err
	}
	defer unlock()

	return fn()
}

func (c *Coordinator) claim(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[name]; busy {
		return fmt.Errorf("%w: %s", core.ErrOperationInFlight, name)
	}
	c.inflight[name] = struct{}{}
	return nil
}

func (c *Coordinator) release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, name)
}

// flock takes the cross-process lock without blocking
func (c *Coordinator) flock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(c.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(c.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("%w: another squashmate process holds the lock", core.ErrOperationInFlight)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return func() {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			c.logger.Warn().Err(err).Msg("failed to release lock")
		}
		f.Close()
	}, nil
}
