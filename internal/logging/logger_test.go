package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrub(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"nothing secret", []any{"bucket", "kumpil", "offset", 6}, []any{"bucket", "kumpil", "offset", 6}},
		{"token masked", []any{"token", "abc", "bucket", "kumpil"}, []any{"token", redacted, "bucket", "kumpil"}},
		{"case insensitive", []any{"Password", "hunter2"}, []any{"Password", redacted}},
		{"odd trailing key", []any{"bucket", "kumpil", "token"}, []any{"bucket", "kumpil", "token"}},
		{"non-string key", []any{42, "token"}, []any{42, "token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrub(tt.in))
		})
	}
}

func TestScrub_DoesNotModifyInput(t *testing.T) {
	in := []any{"token", "abc"}
	_ = scrub(in)
	assert.Equal(t, "abc", in[1])
}
