package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Put(ctx context.Context, e *models.ResumeEntry) error {

	query := ` INSERT INTO uploads (fingerprint, location, bucket, object_key, size, bytes_uploaded, status, updated_at)
			values (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(fingerprint) DO UPDATE SET
				location = excluded.location,
				bucket = excluded.bucket,
				object_key = excluded.object_key,
				size = excluded.size,
				bytes_uploaded = excluded.bytes_uploaded,
				status = excluded.status,
				updated_at = excluded.updated_at
	`
	status := e.Status
	if status == "" {
		status = models.UploadStatusPending
	}

	_, err := r.db.ExecContext(ctx, query, e.Fingerprint, e.Location, e.Bucket, e.ObjectKey, e.Size, e.BytesUploaded, status, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert upload: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, fingerprint string) (*models.ResumeEntry, error) {

	query := `select fingerprint, location, bucket, object_key, size, bytes_uploaded, status, updated_at from uploads where fingerprint=?`
	row := r.db.QueryRowContext(ctx, query, fingerprint)

	e := &models.ResumeEntry{}
	err := row.Scan(&e.Fingerprint, &e.Location, &e.Bucket, &e.ObjectKey, &e.Size, &e.BytesUploaded, &e.Status, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select upload: %w", err)
	}

	return e, nil
}

func (r *SQLiteRepository) UpdateProgress(ctx context.Context, fingerprint string, offset int64) error {

	query := `update uploads set bytes_uploaded=?, updated_at=? where fingerprint=?`
	result, err := r.db.ExecContext(ctx, query, offset, r.now().UTC(), fingerprint)
	if err != nil {
		return fmt.Errorf("failed to update upload progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("update progress %s: %w", fingerprint, common.ErrNotFound)
	}

	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, fingerprint string) error {
	_, err := r.db.ExecContext(ctx, `delete from uploads where fingerprint=?`, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.ResumeEntry, error) {

	query := `select fingerprint, location, bucket, object_key, size, bytes_uploaded, status, updated_at
		from uploads where status=? order by updated_at`
	rows, err := r.db.QueryContext(ctx, query, models.UploadStatusPending)
	if err != nil {
		return nil, fmt.Errorf("error selecting uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.ResumeEntry

	for rows.Next() {
		var item = &models.ResumeEntry{}
		err := rows.Scan(&item.Fingerprint, &item.Location, &item.Bucket, &item.ObjectKey, &item.Size, &item.BytesUploaded, &item.Status, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `delete from uploads where updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune uploads: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Clear forgets every unfinished upload.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `delete from uploads`); err != nil {
		return fmt.Errorf("failed to clear uploads: %w", err)
	}
	return nil
}
