// Package sqlite persists the onboarding history of every package in a
// SQLite database fed by package events.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS packages (
	service_uuid TEXT PRIMARY KEY,
	sha1         TEXT NOT NULL,
	digest       TEXT NOT NULL DEFAULT '',
	size         INTEGER NOT NULL DEFAULT 0,
	package_name TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	uploaded_at  INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS packages_uploaded_at ON packages (uploaded_at);
`

const upsertRecord = `
INSERT INTO packages (service_uuid, sha1, digest, size, package_name, state, error, uploaded_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(service_uuid) DO UPDATE SET
	package_name = CASE WHEN excluded.package_name <> '' THEN excluded.package_name ELSE packages.package_name END,
	state        = excluded.state,
	error        = excluded.error,
	updated_at   = excluded.updated_at
`

const selectRecords = `
SELECT service_uuid, sha1, digest, size, package_name, state, error, uploaded_at, updated_at
FROM packages
ORDER BY uploaded_at, service_uuid
`

// Index is the onboarding history store. It implements out.PackageIndex and
// out.EventHandler.
type Index struct {
	db  *sql.DB
	log logging.Logger
}

// Open opens or creates the database at path.
func Open(path string, log logging.Logger) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	// one writer at a time keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping index database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate index database: %w", err)
	}

	log.Info().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "sqlite").
		Str(logging.FieldPath, path).
		Msg("package index opened")

	return &Index{db: db, log: log}, nil
}

// Close closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Record inserts rec or updates the mutable columns of an existing row.
func (i *Index) Record(ctx context.Context, rec domain.PackageRecord) error {
	if rec.ServiceUUID == "" {
		return fmt.Errorf("record without service uuid")
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := i.db.ExecContext(ctx, upsertRecord,
		rec.ServiceUUID,
		rec.SHA1,
		rec.Digest,
		rec.Size,
		rec.PackageName,
		string(rec.State),
		rec.Error,
		rec.UploadedAt.UnixNano(),
		updated.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record package %s: %w", rec.ServiceUUID, err)
	}
	return nil
}

// List returns all records ordered by upload time.
func (i *Index) List(ctx context.Context) ([]domain.PackageRecord, error) {
	rows, err := i.db.QueryContext(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to query package index: %w", err)
	}
	defer rows.Close()

	records := []domain.PackageRecord{}
	for rows.Next() {
		var (
			rec                 domain.PackageRecord
			state               string
			uploaded, updatedAt int64
		)
		if err := rows.Scan(&rec.ServiceUUID, &rec.SHA1, &rec.Digest, &rec.Size,
			&rec.PackageName, &state, &rec.Error, &uploaded, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan package record: %w", err)
		}
		rec.State = domain.OnboardingState(state)
		rec.UploadedAt = time.Unix(0, uploaded).UTC()
		rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read package index: %w", err)
	}
	return records, nil
}

// CanHandle reports whether the index records events of type t.
func (i *Index) CanHandle(t domain.EventType) bool {
	return t == domain.EventPackageStateChanged || t == domain.EventPackageOnboardingFailed
}

// Handle records the package carried by a package event.
func (i *Index) Handle(ctx context.Context, event domain.Event) error {
	p, ok := event.Data.(domain.PackageEventPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Data, event.Type)
	}

	i.log.Debug().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "sqlite").
		Str(logging.FieldEvent, string(event.Type)).
		Str(logging.FieldEntityID, p.Record.ServiceUUID).
		Str("state", string(p.Record.State)).
		Msg("recording package event")

	return i.Record(ctx, p.Record)
}
