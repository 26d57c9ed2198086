package uploads

import (
	"context"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
)

// Repository describes the resume ledger operations used by upload sessions.
type Repository interface {
	// Put inserts or replaces the entry for e.Fingerprint.
	Put(ctx context.Context, e *models.ResumeEntry) error

	// Get returns the entry for fingerprint or common.ErrNotFound.
	Get(ctx context.Context, fingerprint string) (*models.ResumeEntry, error)

	// UpdateProgress stores the last offset acknowledged by the server.
	UpdateProgress(ctx context.Context, fingerprint string, offset int64) error

	// Delete forgets the entry; deleting a missing entry is not an error.
	Delete(ctx context.Context, fingerprint string) error

	// ListPending returns unfinished uploads, oldest first.
	ListPending(ctx context.Context) ([]*models.ResumeEntry, error)

	// DeleteOlderThan removes entries not touched since cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
