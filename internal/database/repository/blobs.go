package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jask/claritycanvas/internal/database"
)

// ErrQuotaExceeded is returned when a blob is larger than the repo allows.
var ErrQuotaExceeded = errors.New("blob exceeds storage quota")

// BlobRepo is a key-value blob store scoped to one profile.
type BlobRepo struct {
	db       *sql.DB
	profile  string
	maxBytes int
}

// NewBlobRepo scopes blobs to profile. maxBytes <= 0 disables the quota.
func NewBlobRepo(db *sql.DB, profile string, maxBytes int) *BlobRepo {
	return &BlobRepo{db: db, profile: profile, maxBytes: maxBytes}
}

func (r *BlobRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT value FROM session_blobs WHERE profile = ? AND key = ?`, r.profile, key)
	var v []byte
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (r *BlobRepo) Put(ctx context.Context, key string, value []byte) error {
	if r.maxBytes > 0 && len(value) > r.maxBytes {
		return fmt.Errorf("%s: %d bytes: %w", key, len(value), ErrQuotaExceeded)
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO session_blobs(profile, key, value, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(profile, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
	`, r.profile, key, value, database.Now().Format("2006-01-02 15:04:05"))
	return err
}

func (r *BlobRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM session_blobs WHERE profile = ? AND key = ?`, r.profile, k); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}
