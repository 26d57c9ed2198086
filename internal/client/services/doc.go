// Package services holds the application services the terminal client
// calls: sign-in and local session housekeeping, appointment lookup, and
// notifications.
package services
