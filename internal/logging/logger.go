// Package logging defines the structured-logging interface used across the
// client. Implementations wrap slog and zerolog.
package logging

import (
	"context"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs, e.g.:
//
//	log.Info(ctx, "upload started", "bucket", bucket, "object_key", key)
//
// Values under credential keys (token, password, apikey and the like) are
// replaced with "[redacted]" by every implementation.
type Logger interface {
	// Debug logs chatty diagnostics such as per-chunk offsets.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for conditions the client recovers from, e.g. a retried chunk.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

const redacted = "[redacted]"

var secretKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"password":      true,
	"apikey":        true,
	"anon_key":      true,
	"authorization": true,
}

// scrub returns args with secret values masked. args itself is never
// modified.
func scrub(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok || !secretKeys[strings.ToLower(k)] {
			continue
		}
		if out == nil {
			out = append([]any(nil), args...)
		}
		out[i+1] = redacted
	}
	if out == nil {
		return args
	}
	return out
}
