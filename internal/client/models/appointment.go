// Package models defines client-side data models shared by the upload
// engine, the coordinator and the terminal client.
package models

import "time"

// Appointment statuses that the client transitions between.
const (
	StatusPendingRequirements = "pending for requirements"
	StatusPendingApproval     = "pending for approval"
)

// Appointment is a row of the appointments table as the client sees it.
type Appointment struct {
	ID        string    `json:"appointment_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"appointment_type"`
	FormID    string    `json:"form_id"`
	Status    string    `json:"status"`
	Date      string    `json:"appointment_date"`
	CreatedAt time.Time `json:"created_at"`
}

// AppointmentContext carries what the coordinator needs to resolve and link
// an upload: the owning appointment, its type, and the id of the row that
// receives the public URL (the type-specific form row, or the user row for
// profile fields).
type AppointmentContext struct {
	AppointmentID string
	Type          string
	RecordID      string
}

// Context builds the upload context for a, keyed by its form row.
func (a Appointment) Context() AppointmentContext {
	return AppointmentContext{AppointmentID: a.ID, Type: a.Type, RecordID: a.FormID}
}

// Notification is a row of the notifications table.
type Notification struct {
	ID        string    `json:"notification_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
