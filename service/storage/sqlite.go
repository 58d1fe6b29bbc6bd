// Package storage persists release history in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultDBPath = "~/.image-release/history.db"

// timeLayout is fixed width so that started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when no release matches the query.
var ErrNotFound = errors.New("release not found")

// NewService creates a SQLite-backed storage service.
func NewService(dbPath string) (Service, error) {
	resolved, err := resolvePath(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &service{db: db, dbPath: resolved}, nil
}

type service struct {
	db     *sql.DB
	dbPath string
}

func resolvePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		p = defaultDBPath
	}
	if strings.HasPrefix(p, "~/") || p == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home dir: %w", err)
		}
		if p == "~" {
			p = home
		} else {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Clean(p), nil
}

func (s *service) SaveRelease(ctx context.Context, input SaveReleaseInput) (id int64, err error) {
	if input.CommitID == "" {
		return 0, errors.New("commit id is required")
	}
	if input.Image == "" {
		return 0, errors.New("image is required")
	}
	if input.Status == "" {
		return 0, errors.New("status is required")
	}
	if input.ReleaseUUID == "" {
		input.ReleaseUUID = uuid.NewString()
	}
	if input.StartedAt.IsZero() {
		input.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO releases (
			release_uuid, commit_id, image, local_ref, remote_ref, registry, status,
			failed_step, error_message, dry_run, duration_ms, manifest_uri, cli_version, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, input.ReleaseUUID, input.CommitID, input.Image, input.LocalRef, input.RemoteRef, input.Registry, input.Status,
		input.FailedStep, input.ErrorMessage, input.DryRun, input.Duration.Milliseconds(), input.ManifestURI, input.Version,
		input.StartedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, ref := range input.ExtraRefs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO release_tags(release_id, ref) VALUES (?, ?)`, id, ref); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *service) GetRecentReleases(ctx context.Context, image string, limit int) ([]ReleaseSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT release_id, commit_id, image, COALESCE(remote_ref, ''), status,
			COALESCE(failed_step, ''), dry_run, duration_ms, started_at
		FROM releases
	`
	args := []any{}
	if image != "" {
		query += " WHERE image=?"
		args = append(args, image)
	}
	query += " ORDER BY started_at DESC, release_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReleaseSummary{}
	for rows.Next() {
		var (
			r       ReleaseSummary
			started string
		)
		if err := rows.Scan(&r.ReleaseID, &r.CommitID, &r.Image, &r.RemoteRef, &r.Status, &r.FailedStep, &r.DryRun, &r.DurationMS, &started); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *service) GetRelease(ctx context.Context, commitID string) (*ReleaseDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT release_id, release_uuid, commit_id, image, COALESCE(local_ref, ''), COALESCE(remote_ref, ''),
			COALESCE(registry, ''), status, COALESCE(failed_step, ''), COALESCE(error_message, ''), dry_run,
			duration_ms, COALESCE(manifest_uri, ''), COALESCE(cli_version, ''), started_at
		FROM releases WHERE commit_id=?
		ORDER BY dry_run ASC, started_at DESC, release_id DESC LIMIT 1
	`, commitID)

	var (
		d       ReleaseDetail
		started string
	)
	err := row.Scan(&d.ReleaseID, &d.ReleaseUUID, &d.CommitID, &d.Image, &d.LocalRef, &d.RemoteRef,
		&d.Registry, &d.Status, &d.FailedStep, &d.ErrorMessage, &d.DryRun,
		&d.DurationMS, &d.ManifestURI, &d.CLIVersion, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, commitID)
	}
	if err != nil {
		return nil, err
	}
	d.StartedAt = parseTime(started)

	rows, err := s.db.QueryContext(ctx, `SELECT ref FROM release_tags WHERE release_id=? ORDER BY id`, d.ReleaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		d.ExtraRefs = append(d.ExtraRefs, ref)
	}
	return &d, rows.Err()
}

func (s *service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, errors.New("days must be > 0")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM releases WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *service) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

func (s *service) Close() error {
	return s.db.Close()
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
