// Package gate decides whether an appointment has every required document
// and moves it from "pending for requirements" to "pending for approval".
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
)

var (
	ErrIncomplete       = fmt.Errorf("%w: required documents missing", common.ErrValidation)
	ErrAlreadySubmitted = errors.New("appointment already submitted")
)

// IsComplete reports whether every required label has a non-empty URL.
func IsComplete(required []string, attachments map[string]string) bool {
	return len(Missing(required, attachments)) == 0
}

// Missing lists the required labels without a URL, in order.
func Missing(required []string, attachments map[string]string) []string {
	var out []string
	for _, label := range required {
		if strings.TrimSpace(attachments[label]) == "" {
			out = append(out, label)
		}
	}
	return out
}

type Gate struct {
	tables backend.Tables
	log    logging.Logger
}

func New(tables backend.Tables, log logging.Logger) *Gate {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Gate{tables: tables, log: log}
}

// Submit flips the appointment to pending for approval. Completeness is
// checked again here and the update only applies while the row is still
// pending for requirements, so a repeated submit changes nothing.
func (g *Gate) Submit(ctx context.Context, appointmentID string, required []string, attachments map[string]string) error {
	if missing := Missing(required, attachments); len(missing) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(missing, ", "), ErrIncomplete)
	}

	rows, err := g.tables.Select(ctx, backend.From(common.AppointmentsTable).
		Select("appointment_id", "status").
		Eq("appointment_id", appointmentID).
		Limit(1))
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("appointment %s: %w", appointmentID, common.ErrNotFound)
	}
	if status := rows[0].String("status"); status != models.StatusPendingRequirements {
		return fmt.Errorf("appointment %s is %q: %w", appointmentID, status, ErrAlreadySubmitted)
	}

	updated, err := g.tables.Update(ctx,
		backend.From(common.AppointmentsTable).
			Eq("appointment_id", appointmentID).
			Eq("status", models.StatusPendingRequirements),
		backend.Row{"status": models.StatusPendingApproval})
	if err != nil {
		return fmt.Errorf("submit appointment: %w", err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("appointment %s: %w", appointmentID, ErrAlreadySubmitted)
	}

	g.log.Info(ctx, "appointment submitted", "appointment_id", appointmentID)
	return nil
}
