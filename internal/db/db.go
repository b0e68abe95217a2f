package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotTracked is returned when a package has no tracking record
var ErrNotTracked = errors.New("package not tracked")

// TrackingDB records which native packages were installed through
// squashmate, so listing and uninstall can tell them apart from
// packages the user installed some other way. Separate read/write
// pools: the write pool is pinned to one connection for sqlite.
type TrackingDB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// Open opens (and if needed initializes) the tracking database
func Open(ctx context.Context, dbPath string) (*TrackingDB, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	tdb := &TrackingDB{write: write, read: read, path: dbPath}

	if err := tdb.initSchema(ctx); err != nil {
		tdb.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return tdb, nil
}

// Close closes both pools
func (t *TrackingDB) Close() error {
	writeErr := t.write.Close()
	readErr := t.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

func (t *TrackingDB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS tracked_packages (
    name TEXT PRIMARY KEY,
    version TEXT NOT NULL,
    depends TEXT,
    source_file TEXT NOT NULL,
    installed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tracked_installed_at ON tracked_packages(installed_at);
	`

	if _, err := t.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// TrackedPackage is one native package installed through squashmate
type TrackedPackage struct {
	Name        string
	Version     string
	Depends     []string
	SourceFile  string
	InstalledAt time.Time
}

// Track records a package, replacing any previous record of the same
// name (reinstalling a deb is an upgrade, not a conflict)
func (t *TrackingDB) Track(ctx context.Context, pkg *TrackedPackage) error {
	dependsJSON, err := json.Marshal(pkg.Depends)
	if err != nil {
		return fmt.Errorf("marshal depends: %w", err)
	}

	query := `
INSERT INTO tracked_packages (name, version, depends, source_file, installed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    version = excluded.version,
    depends = excluded.depends,
    source_file = excluded.source_file,
    installed_at = excluded.installed_at
	`

	installedAt := pkg.InstalledAt
	if installedAt.IsZero() {
		installedAt = time.Now()
	}

	if _, err := t.write.ExecContext(ctx, query,
		pkg.Name, pkg.Version, string(dependsJSON), pkg.SourceFile, installedAt,
	); err != nil {
		return fmt.Errorf("track package %q: %w", pkg.Name, err)
	}
	return nil
}

// Get retrieves a tracking record by package name
func (t *TrackingDB) Get(ctx context.Context, name string) (*TrackedPackage, error) {
	query := `
SELECT name, version, depends, source_file, installed_at
FROM tracked_packages WHERE name = ?
	`

	var pkg TrackedPackage
	var dependsJSON sql.NullString

	err := t.read.QueryRowContext(ctx, query, name).Scan(
		&pkg.Name, &pkg.Version, &dependsJSON, &pkg.SourceFile, &pkg.InstalledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotTracked, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query package %q: %w", name, err)
	}

	if dependsJSON.Valid && dependsJSON.String != "" {
		if err := json.Unmarshal([]byte(dependsJSON.String), &pkg.Depends); err != nil {
			return nil, fmt.Errorf("unmarshal depends: %w", err)
		}
	}

	return &pkg, nil
}

// List returns every tracked package, newest first
func (t *TrackingDB) List(ctx context.Context) ([]TrackedPackage, error) {
	query := `
SELECT name, version, depends, source_file, installed_at
FROM tracked_packages ORDER BY installed_at DESC
	`

	rows, err := t.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tracked packages: %w", err)
	}
	defer rows.Close()

	var pkgs []TrackedPackage
	for rows.Next() {
		var pkg TrackedPackage
		var dependsJSON sql.NullString

		if err := rows.Scan(&pkg.Name, &pkg.Version, &dependsJSON, &pkg.SourceFile, &pkg.InstalledAt); err != nil {
			return nil, fmt.Errorf("scan tracked package: %w", err)
		}
		if dependsJSON.Valid && dependsJSON.String != "" {
			if err := json.Unmarshal([]byte(dependsJSON.String), &pkg.Depends); err != nil {
				return nil, fmt.Errorf("unmarshal depends: %w", err)
			}
		}
		pkgs = append(pkgs, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return pkgs, nil
}

// Untrack removes a tracking record. Removing an unknown name is not
// an error so uninstall stays idempotent.
func (t *TrackingDB) Untrack(ctx context.Context, name string) error {
	if _, err := t.write.ExecContext(ctx, "DELETE FROM tracked_packages WHERE name = ?", name); err != nil {
		return fmt.Errorf("untrack package %q: %w", name, err)
	}
	return nil
}
