package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_WritesFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	log.With("session_id", "s1").Warn(context.Background(), "retrying chunk", "attempt", 2)

	out := buf.String()
	require.Contains(t, out, `"level":"warn"`)
	require.Contains(t, out, `"message":"retrying chunk"`)
	require.Contains(t, out, `"session_id":"s1"`)
	require.Contains(t, out, `"attempt":2`)
}

func TestZerologLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	log.Debug(context.Background(), "hidden")
	require.Empty(t, buf.String())
}

func TestZerologLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	log.Info(context.Background(), "signed in", "access_token", "eyJ.secret", "email", "ana@parish.test")

	out := buf.String()
	require.NotContains(t, out, "eyJ.secret")
	require.Contains(t, out, `"access_token":"[redacted]"`)
	require.Contains(t, out, `"email":"ana@parish.test"`)
}

func TestNew_PicksImplementation(t *testing.T) {
	var buf bytes.Buffer

	_, ok := New(FormatConsole, "debug", &buf).(*ZerologLogger)
	require.True(t, ok)

	_, ok = New(FormatJSON, "info", &buf).(*SlogLogger)
	require.True(t, ok)

	l := New("whatever", "nonsense", &buf)
	l.Info(context.Background(), "hello", "k", "v")
	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "k=v")
}
