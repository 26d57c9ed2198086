// Package linkages stores the local ledger of uploaded objects and the
// database writes that must reference them. A row is written as pending
// before the linkage write and flipped to linked once it succeeds, so an
// object whose write failed stays visible and can be re-linked later. A
// pending row is superseded when a newer upload for the same cell links.
package linkages

import (
	"context"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
)

type Repository interface {
	Add(ctx context.Context, l *models.Linkage) error
	MarkLinked(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	// SupersedeOlder retires every other pending row that writes the same
	// cell as l. It is called once l has been linked.
	SupersedeOlder(ctx context.Context, l *models.Linkage) (int64, error)
	ListPending(ctx context.Context) ([]*models.Linkage, error)
}
