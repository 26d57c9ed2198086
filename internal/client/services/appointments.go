package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

var appointmentColumns = []string{"appointment_id", "user_id", "appointment_type", "form_id", "status", "appointment_date", "created_at"}

type AppointmentService struct {
	tables backend.Tables
}

func NewAppointmentService(tables backend.Tables) *AppointmentService {
	return &AppointmentService{tables: tables}
}

// List returns the user's appointments, newest first.
func (s *AppointmentService) List(ctx context.Context, userID string) ([]models.Appointment, error) {
	rows, err := s.tables.Select(ctx, backend.From(common.AppointmentsTable).
		Select(appointmentColumns...).
		Eq("user_id", userID).
		Order("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := make([]models.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, appointmentFromRow(r))
	}
	return out, nil
}

func (s *AppointmentService) Load(ctx context.Context, id string) (*models.Appointment, error) {
	rows, err := s.tables.Select(ctx, backend.From(common.AppointmentsTable).
		Select(appointmentColumns...).
		Eq("appointment_id", id).
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("appointment %s: %w", id, common.ErrNotFound)
	}
	a := appointmentFromRow(rows[0])
	return &a, nil
}

func appointmentFromRow(r backend.Row) models.Appointment {
	return models.Appointment{
		ID:        r.String("appointment_id"),
		UserID:    r.String("user_id"),
		Type:      r.String("appointment_type"),
		FormID:    r.String("form_id"),
		Status:    r.String("status"),
		Date:      r.String("appointment_date"),
		CreatedAt: r.Time("created_at"),
	}
}
