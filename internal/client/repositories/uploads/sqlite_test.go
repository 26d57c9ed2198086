package uploads

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE uploads (
  fingerprint    TEXT PRIMARY KEY,
  location       TEXT NOT NULL,
  bucket         TEXT NOT NULL,
  object_key     TEXT NOT NULL,
  size           INTEGER NOT NULL,
  bytes_uploaded INTEGER NOT NULL DEFAULT 0,
  status         TEXT NOT NULL,
  updated_at     TIMESTAMP NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func newRepoAt(db *sql.DB, now time.Time) *SQLiteRepository {
	r := NewSQLiteRepository(db)
	r.now = func() time.Time { return now }
	return r
}

func TestPut_InsertAndReplace(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	e := &models.ResumeEntry{
		Fingerprint: "fp1",
		Location:    "http://host/upload/resumable/abc",
		Bucket:      "kumpil",
		ObjectKey:   "baptismal_certificate_1.jpg",
		Size:        10_000_000,
	}
	require.NoError(t, r.Put(ctx, e))

	got, err := r.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, "http://host/upload/resumable/abc", got.Location)
	assert.Equal(t, int64(10_000_000), got.Size)
	assert.Equal(t, int64(0), got.BytesUploaded)
	assert.Equal(t, models.UploadStatusPending, got.Status)

	e.Location = "http://host/upload/resumable/def"
	e.BytesUploaded = 6 << 20
	require.NoError(t, r.Put(ctx, e))

	got, err = r.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, "http://host/upload/resumable/def", got.Location)
	assert.Equal(t, int64(6<<20), got.BytesUploaded)
}

func TestGet_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateProgress_SuccessAndNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, &models.ResumeEntry{Fingerprint: "fp", Location: "l", Bucket: "b", ObjectKey: "k", Size: 10}))
	require.NoError(t, r.UpdateProgress(ctx, "fp", 7))

	got, err := r.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.BytesUploaded)

	err = r.UpdateProgress(ctx, "absent", 1)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, &models.ResumeEntry{Fingerprint: "fp", Location: "l", Bucket: "b", ObjectKey: "k", Size: 1}))
	require.NoError(t, r.Delete(ctx, "fp"))
	require.NoError(t, r.Delete(ctx, "fp"))

	_, err := r.Get(ctx, "fp")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestListPending_OnlyPendingOldestFirst(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, newRepoAt(db, base.Add(time.Hour)).Put(ctx, &models.ResumeEntry{Fingerprint: "p2", Location: "l2", Bucket: "b", ObjectKey: "k2", Size: 1}))
	require.NoError(t, newRepoAt(db, base).Put(ctx, &models.ResumeEntry{Fingerprint: "p1", Location: "l1", Bucket: "b", ObjectKey: "k1", Size: 1}))
	require.NoError(t, newRepoAt(db, base).Put(ctx, &models.ResumeEntry{Fingerprint: "c1", Location: "l3", Bucket: "b", ObjectKey: "k3", Size: 1, Status: models.UploadStatusCompleted}))

	got, err := NewSQLiteRepository(db).ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].Fingerprint)
	assert.Equal(t, "p2", got[1].Fingerprint)
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, newRepoAt(db, base).Put(ctx, &models.ResumeEntry{Fingerprint: "old", Location: "l", Bucket: "b", ObjectKey: "k", Size: 1}))
	require.NoError(t, newRepoAt(db, base.Add(48*time.Hour)).Put(ctx, &models.ResumeEntry{Fingerprint: "new", Location: "l", Bucket: "b", ObjectKey: "k", Size: 1}))

	n, err := NewSQLiteRepository(db).DeleteOlderThan(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = NewSQLiteRepository(db).Get(ctx, "old")
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = NewSQLiteRepository(db).Get(ctx, "new")
	require.NoError(t, err)
}
