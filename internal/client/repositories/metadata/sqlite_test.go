package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
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
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func countKeys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	return n
}

func sampleSession() *models.AuthSession {
	return &models.AuthSession{
		AccessToken:  "at",
		RefreshToken: "rt",
		UserID:       "u-1",
		Email:        "maria@parish.ph",
		ExpiresAt:    time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoad_NothingSaved_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSaveThenLoad(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := sampleSession()
	require.NoError(t, r.Save(ctx, want))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSave_OverwritesPreviousSession(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleSession()))
	next := sampleSession()
	next.AccessToken = "at2"
	next.RefreshToken = "rt2"
	require.NoError(t, r.Save(ctx, next))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "rt2", got.RefreshToken)
	require.Equal(t, 1, countKeys(t, db))
}

func TestSave_NilClears(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleSession()))
	require.NoError(t, r.Save(ctx, nil))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClear_KeepsOtherKeys_AndIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('device_id', x'01')`)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, sampleSession()))

	require.NoError(t, r.Clear(ctx))
	require.NoError(t, r.Clear(ctx))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, countKeys(t, db))
}

func TestReset_RemovesAllKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('device_id', x'01')`)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, sampleSession()))

	require.NoError(t, r.Reset(ctx))
	require.Zero(t, countKeys(t, db))
}

func TestLoad_CorruptValue(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES (?, ?)`, sessionKey, []byte("{not json"))
	require.NoError(t, err)

	_, err = NewSQLiteRepository(db).Load(context.Background())
	require.ErrorContains(t, err, "decode session")
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Load(ctx)
	require.ErrorContains(t, err, "failed to load session")

	err = r.Save(ctx, sampleSession())
	require.ErrorContains(t, err, "failed to save session")

	err = r.Clear(ctx)
	require.ErrorContains(t, err, "failed to clear session")

	err = r.Reset(ctx)
	require.ErrorContains(t, err, "failed to reset metadata")
}
