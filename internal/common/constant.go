// Package common contains shared constants and sentinel errors used across
// parishkeeper components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"

	// APIKeyHeaderName carries the project's anon key on every backend request.
	APIKeyHeaderName = "apikey"

	// AppointmentsTable holds one row per booked appointment.
	AppointmentsTable = "appointments"

	// NotificationsTable holds per-user notifications.
	NotificationsTable = "notifications"
)
