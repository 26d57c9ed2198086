// Package backend is the client's view of the remote backend-as-a-service:
// password auth with refreshable sessions (GoTrue), table reads and writes
// (PostgREST over HTTP, or Postgres directly through pgx), object storage
// URLs, and realtime change feeds over a Phoenix websocket.
//
// Components receive a DataBackend explicitly. Background token refresh runs
// only between Start and Stop; nothing here is a process-wide singleton.
package backend
