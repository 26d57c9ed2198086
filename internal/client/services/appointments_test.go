package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentService_List(t *testing.T) {
	tables := &fakeTables{rows: []backend.Row{{
		"appointment_id":   "9",
		"user_id":          "u1",
		"appointment_type": "Kumpil",
		"form_id":          "7",
		"status":           "pending for requirements",
		"appointment_date": "2026-11-01",
		"created_at":       "2026-10-01T10:00:00Z",
	}}}
	svc := NewAppointmentService(tables)

	got, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Appointment{
		ID:        "9",
		UserID:    "u1",
		Type:      "Kumpil",
		FormID:    "7",
		Status:    models.StatusPendingRequirements,
		Date:      "2026-11-01",
		CreatedAt: time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
	}, got[0])
	assert.Equal(t, models.AppointmentContext{AppointmentID: "9", Type: "Kumpil", RecordID: "7"}, got[0].Context())

	q := tables.selects[0]
	assert.Equal(t, "appointments", q.Table)
	assert.Equal(t, "created_at", q.OrderBy)
	assert.True(t, q.Desc)
}

func TestAppointmentService_LoadNotFound(t *testing.T) {
	svc := NewAppointmentService(&fakeTables{})

	_, err := svc.Load(context.Background(), "404")
	require.ErrorIs(t, err, common.ErrNotFound)
}
