package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

type NotificationService struct {
	tables   backend.Tables
	realtime backend.Realtime
}

func NewNotificationService(tables backend.Tables, realtime backend.Realtime) *NotificationService {
	return &NotificationService{tables: tables, realtime: realtime}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := backend.From(common.NotificationsTable).
		Select("notification_id", "user_id", "message", "is_read", "created_at").
		Eq("user_id", userID).
		Order("created_at", true)
	if unreadOnly {
		q.Eq("is_read", false)
	}

	rows, err := s.tables.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]models.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, notificationFromRow(r))
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	rows, err := s.tables.Update(ctx,
		backend.From(common.NotificationsTable).Eq("notification_id", id),
		backend.Row{"is_read": true})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("notification %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// Watch calls fn for every notification inserted for userID until the
// returned stop func is called or ctx ends.
func (s *NotificationService) Watch(ctx context.Context, userID string, fn func(models.Notification)) (func(), error) {
	sub := backend.Subscription{
		Table:  common.NotificationsTable,
		Event:  "INSERT",
		Filter: "user_id=eq." + userID,
	}
	return s.realtime.Subscribe(ctx, sub, func(c backend.Change) {
		fn(notificationFromRow(c.Record))
	})
}

func notificationFromRow(r backend.Row) models.Notification {
	return models.Notification{
		ID:        r.String("notification_id"),
		UserID:    r.String("user_id"),
		Message:   r.String("message"),
		Read:      r.Bool("is_read"),
		CreatedAt: r.Time("created_at"),
	}
}
