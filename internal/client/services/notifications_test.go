package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_ListUnread(t *testing.T) {
	tables := &fakeTables{rows: []backend.Row{{"notification_id": "1", "message": "Approved", "is_read": false}}}
	svc := NewNotificationService(tables, nil)

	got, err := svc.List(context.Background(), "u1", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Approved", got[0].Message)

	q := tables.selects[0]
	assert.Equal(t, []backend.Filter{
		{Column: "user_id", Op: backend.OpEq, Values: []any{"u1"}},
		{Column: "is_read", Op: backend.OpEq, Values: []any{false}},
	}, q.Filters)
}

func TestNotificationService_MarkRead(t *testing.T) {
	tables := &fakeTables{rows: []backend.Row{{"notification_id": "1"}}}
	svc := NewNotificationService(tables, nil)

	require.NoError(t, svc.MarkRead(context.Background(), "1"))
	assert.Equal(t, backend.Row{"is_read": true}, tables.patches[0])

	tables.rows = nil
	require.ErrorIs(t, svc.MarkRead(context.Background(), "2"), common.ErrNotFound)
}

func TestNotificationService_Watch(t *testing.T) {
	rt := &fakeRealtime{}
	svc := NewNotificationService(&fakeTables{}, rt)

	var got []models.Notification
	stop, err := svc.Watch(context.Background(), "u1", func(n models.Notification) { got = append(got, n) })
	require.NoError(t, err)
	assert.Equal(t, backend.Subscription{Table: "notifications", Event: "INSERT", Filter: "user_id=eq.u1"}, rt.sub)

	rt.emit(t, backend.Change{Table: "notifications", Type: "INSERT", Record: backend.Row{"notification_id": "5", "message": "hi"}})
	require.Len(t, got, 1)
	assert.Equal(t, "5", got[0].ID)

	stop()
	assert.True(t, rt.stopped)
}
