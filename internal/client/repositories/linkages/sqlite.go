package linkages

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Add inserts l as pending. Empty ID and CreatedAt are filled in.
func (r *SQLiteRepository) Add(ctx context.Context, l *models.Linkage) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.Status = models.LinkageStatusPending

	query := `INSERT INTO linkages (id, appointment_id, requirement, bucket, object_key, public_url,
			table_name, column_name, key_column, key_value, status, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, l.ID, l.AppointmentID, l.Requirement, l.Bucket, l.ObjectKey, l.PublicURL,
		l.TableName, l.ColumnName, l.KeyColumn, l.KeyValue, l.Status, l.LastError, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert linkage: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkLinked(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.LinkageStatusLinked, "")
}

// MarkFailed keeps the row pending and records why the write failed.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.setStatus(ctx, id, models.LinkageStatusPending, lastError)
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id, status, lastError string) error {
	result, err := r.db.ExecContext(ctx, `update linkages set status=?, last_error=? where id=?`, status, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to update linkage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("linkage %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) SupersedeOlder(ctx context.Context, l *models.Linkage) (int64, error) {
	query := `update linkages set status=?
		where status=? and id<>? and table_name=? and column_name=? and key_column=? and key_value=?`

	result, err := r.db.ExecContext(ctx, query, models.LinkageStatusSuperseded, models.LinkageStatusPending,
		l.ID, l.TableName, l.ColumnName, l.KeyColumn, l.KeyValue)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede linkages: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.Linkage, error) {
	query := `select id, appointment_id, requirement, bucket, object_key, public_url,
			table_name, column_name, key_column, key_value, status, last_error, created_at
		from linkages where status=? order by created_at, rowid`

	rows, err := r.db.QueryContext(ctx, query, models.LinkageStatusPending)
	if err != nil {
		return nil, fmt.Errorf("error selecting linkages: %w", err)
	}
	defer rows.Close()

	var result []*models.Linkage
	for rows.Next() {
		l := &models.Linkage{}
		if err := rows.Scan(&l.ID, &l.AppointmentID, &l.Requirement, &l.Bucket, &l.ObjectKey, &l.PublicURL,
			&l.TableName, &l.ColumnName, &l.KeyColumn, &l.KeyValue, &l.Status, &l.LastError, &l.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
