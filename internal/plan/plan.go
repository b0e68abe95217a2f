package plan

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/fsops"
	"github.com/squashmate/squashmate/internal/heuristics"
	"github.com/squashmate/squashmate/internal/transaction"
)

// Kind says whether placement creates a new app or replaces one
type Kind string

const (
	FreshInstall Kind = "fresh-install"
	Upgrade      Kind = "upgrade"
)

// InstallPlan describes where an extracted payload will land
type InstallPlan struct {
	Name      string
	TargetDir string
	Kind      Kind
	// Preserve lists top-level entries of the old install carried into
	// the new one. Only set for upgrades.
	Preserve []string
}

// Planner decides and applies payload placement under the apps root
type Planner struct {
	fs     afero.Fs
	logger *zerolog.Logger
	now    func() time.Time
}

// NewPlanner creates a planner over the given filesystem
func NewPlanner(fs afero.Fs, logger *zerolog.Logger) *Planner {
	return &Planner{fs: fs, logger: logger, now: time.Now}
}

// Plan inspects the apps root and classifies the operation. A target
// directory that already exists makes this an upgrade; the preserve
// set is computed against the fresh payload so files the new version
// ships are never shadowed by stale copies.
func (p *Planner) Plan(appsRoot, name, payloadDir string) (*InstallPlan, error) {
	if err := fsops.EnsureDir(p.fs, appsRoot, 0o755); err != nil {
		return nil, &core.PlanningError{Root: appsRoot, Err: err}
	}
	if err := fsops.CheckWritable(p.fs, appsRoot); err != nil {
		return nil, &core.PlanningError{Root: appsRoot, Err: err}
	}

	targetDir := filepath.Join(appsRoot, name)
	plan := &InstallPlan{Name: name, TargetDir: targetDir, Kind: FreshInstall}

	exists, err := afero.DirExists(p.fs, targetDir)
	if err != nil {
		return nil, &core.PlanningError{Root: appsRoot, Err: err}
	}
	if exists {
		plan.Kind = Upgrade
		preserve, err := heuristics.PreserveSet(p.fs, targetDir, payloadDir)
		if err != nil {
			return nil, &core.PlanningError{Root: appsRoot, Err: fmt.Errorf("compute preserve set: %w", err)}
		}
		plan.Preserve = preserve
	}

	p.logger.Debug().
		Str("name", name).
		Str("target", targetDir).
		Str("kind", string(plan.Kind)).
		Strs("preserve", plan.Preserve).
		Msg("install planned")

	return plan, nil
}

// Apply moves the payload into place. For upgrades the old directory
// is parked next to the target until the operation commits, so a
// failure at any point can put everything back.
func (p *Planner) Apply(plan *InstallPlan, payloadDir string, tx *transaction.Manager) error {
	var backupDir string

	if plan.Kind == Upgrade {
		backupDir = fmt.Sprintf("%s.replaced-%d", plan.TargetDir, p.now().UnixNano())
		if err := fsops.MoveTree(p.fs, plan.TargetDir, backupDir); err != nil {
			return &core.PlanningError{Root: plan.TargetDir, Err: fmt.Errorf("park old install: %w", err)}
		}
		tx.Add("restore previous install", func() error {
			_ = p.fs.RemoveAll(plan.TargetDir)
			return fsops.MoveTree(p.fs, backupDir, plan.TargetDir)
		})
	}

	// Registered before the move: a cross-device copy can fail midway
	// and leave a partial target, which the rollback must sweep away.
	tx.Add("remove placed payload", func() error {
		return p.fs.RemoveAll(plan.TargetDir)
	})
	if err := fsops.MoveTree(p.fs, payloadDir, plan.TargetDir); err != nil {
		return &core.PlanningError{Root: plan.TargetDir, Err: fmt.Errorf("place payload: %w", err)}
	}

	for _, name := range plan.Preserve {
		src := filepath.Join(backupDir, name)
		dst := filepath.Join(plan.TargetDir, name)
		if err := fsops.CopyTree(p.fs, src, dst); err != nil {
			return &core.PlanningError{Root: plan.TargetDir, Err: fmt.Errorf("carry over %s: %w", name, err)}
		}
		p.logger.Debug().Str("entry", name).Msg("preserved user data across upgrade")
	}

	if backupDir != "" {
		dir := backupDir
		tx.OnCommit(func() {
			if err := p.fs.RemoveAll(dir); err != nil {
				p.logger.Warn().Err(err).Str("dir", dir).Msg("failed to remove parked install")
			}
		})
	}

	return nil
}
