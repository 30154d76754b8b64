package repository

import (
	"context"
	"database/sql"
	"time"
)

// ExportRecord is one written export artifact.
type ExportRecord struct {
	ID         int64
	Filename   string
	MIMEType   string
	SizeBytes  int
	ExportedAt time.Time
}

// ExportRepo keeps the export history of a profile.
type ExportRepo struct {
	db      *sql.DB
	profile string
}

func NewExportRepo(db *sql.DB, profile string) *ExportRepo {
	return &ExportRepo{db: db, profile: profile}
}

func (r *ExportRepo) Record(ctx context.Context, filename, mimeType string, size int) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO exports(profile, filename, mime_type, size_bytes) VALUES (?, ?, ?, ?);
	`, r.profile, filename, mimeType, size)
	return err
}

// Recent returns up to limit records, newest first.
func (r *ExportRepo) Recent(ctx context.Context, limit int) ([]ExportRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, filename, mime_type, size_bytes, exported_at
	FROM exports WHERE profile = ? ORDER BY exported_at DESC, id DESC LIMIT ?`, r.profile, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var at string
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.MIMEType, &rec.SizeBytes, &at); err != nil {
			return nil, err
		}
		rec.ExportedAt, _ = time.Parse("2006-01-02 15:04:05", at)
		out = append(out, rec)
	}
	return out, rows.Err()
}
