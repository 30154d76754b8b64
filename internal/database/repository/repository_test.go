package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/claritycanvas/internal/database"
	"github.com/jask/claritycanvas/internal/session"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBlobRepoRoundTrip(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := NewBlobRepo(openTestDB(t), "p1", 0)

	_, ok, err := repo.Get(ctx, "content")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Put(ctx, "content", []byte(`"one"`)))
	require.NoError(t, repo.Put(ctx, "content", []byte(`"two"`)))
	v, ok, err := repo.Get(ctx, "content")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `"two"`, string(v))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"content"}, keys)

	require.NoError(t, repo.Delete(ctx, "content", "pins"))
	_, ok, err = repo.Get(ctx, "content")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlobRepoProfilesAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	a := NewBlobRepo(db, "a", 0)
	b := NewBlobRepo(db, "b", 0)

	require.NoError(t, a.Put(ctx, "pins", []byte("[]")))
	_, ok, err := b.Get(ctx, "pins")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.Delete(ctx, "pins"))
	_, ok, err = a.Get(ctx, "pins")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBlobRepoQuota(t *testing.T) {
	t.Parallel()
	repo := NewBlobRepo(openTestDB(t), "p", 4)
	require.NoError(t, repo.Put(context.Background(), "k", []byte("1234")))
	require.ErrorIs(t, repo.Put(context.Background(), "k", []byte("12345")), ErrQuotaExceeded)
}

func TestBlobRepoBacksSessionStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewStore(NewBlobRepo(openTestDB(t), "p", 0))
	want := session.State{LayoutContent: "<main>x</main>", Pins: []session.Pin{{ID: 7, X: 1.5, Y: 98, Feedback: "hi"}}}

	require.NoError(t, store.Save(ctx, want))
	got, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx))
	_, found, err = store.Load(ctx)
	require.NoError(t, err)
	require.False(t, found)
}

func TestQuotaSurfacesAsPersistError(t *testing.T) {
	t.Parallel()
	store := session.NewStore(NewBlobRepo(openTestDB(t), "p", 8))
	err := store.Save(context.Background(), session.State{LayoutContent: "far too long for the quota"})

	var pe *session.PersistError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, []string{session.KeyContent}, pe.Keys)
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestExportRepoRecent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewExportRepo(db, "p")
	require.NoError(t, repo.Record(ctx, "a-export.html", "text/html", 10))
	require.NoError(t, repo.Record(ctx, "a-export.md", "text/markdown", 7))
	require.NoError(t, NewExportRepo(db, "other").Record(ctx, "b.html", "text/html", 1))

	recs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "a-export.md", recs[0].Filename)
	require.Equal(t, 7, recs[0].SizeBytes)
	require.False(t, recs[0].ExportedAt.IsZero())
}

func TestMigrateTwice(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	require.NoError(t, database.Migrate(db))
}

// Keys lists the stored keys of the profile.
func (r *BlobRepo) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM session_blobs WHERE profile = ? ORDER BY key`, r.profile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
