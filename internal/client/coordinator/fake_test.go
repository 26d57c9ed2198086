package coordinator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/device"
	"github.com/dmitrijs2005/parishkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/linkages"
	"github.com/dmitrijs2005/parishkeeper/internal/client/requirements"
	"github.com/dmitrijs2005/parishkeeper/internal/client/upload"
	"github.com/stretchr/testify/require"
)

const storageBase = "http://storage.test"

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(context.Context) (string, error) { return s.token, s.err }

// fakePicker returns sel. When gate is set, a pick announces itself on
// entered and waits for gate to close.
type fakePicker struct {
	mu      sync.Mutex
	sel     device.Selection
	err     error
	images  int
	docs    int
	allowed []string
	entered chan struct{}
	gate    chan struct{}
}

func (p *fakePicker) PickImage(ctx context.Context) (device.Selection, error) {
	p.mu.Lock()
	p.images++
	p.mu.Unlock()
	return p.wait(ctx)
}

func (p *fakePicker) PickDocument(ctx context.Context, allowed []string) (device.Selection, error) {
	p.mu.Lock()
	p.docs++
	p.allowed = allowed
	p.mu.Unlock()
	return p.wait(ctx)
}

func (p *fakePicker) wait(ctx context.Context) (device.Selection, error) {
	if p.gate != nil {
		p.entered <- struct{}{}
		select {
		case <-p.gate:
		case <-ctx.Done():
			return device.Selection{}, ctx.Err()
		}
	}
	return p.sel, p.err
}

type updateCall struct {
	query *backend.Query
	patch backend.Row
}

// fakeTables records updates. Updates match one row unless noMatch is set
// or updateErr is returned.
type fakeTables struct {
	mu        sync.Mutex
	updates   []updateCall
	updateErr error
	noMatch   bool
	selects   []*backend.Query
	rows      map[string][]backend.Row
}

func (f *fakeTables) Select(_ context.Context, q *backend.Query) ([]backend.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, q)
	return f.rows[q.Table], nil
}

func (f *fakeTables) Insert(_ context.Context, _ string, row backend.Row) (backend.Row, error) {
	return row, nil
}

func (f *fakeTables) Update(_ context.Context, q *backend.Query, patch backend.Row) ([]backend.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{query: q, patch: patch})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.noMatch {
		return nil, nil
	}
	return []backend.Row{patch}, nil
}

func (f *fakeTables) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// memTransport keeps uploads in memory and counts requests.
type memTransport struct {
	mu      sync.Mutex
	data    map[string][]byte
	creates int
	patches int
	failAll error
}

func newMemTransport() *memTransport {
	return &memTransport{data: map[string][]byte{}}
}

func (m *memTransport) Create(_ context.Context, r upload.CreateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return "", m.failAll
	}
	m.creates++
	loc := fmt.Sprintf("%s/%s", r.Endpoint, r.ObjectKey)
	m.data[loc] = nil
	return loc, nil
}

func (m *memTransport) Offset(_ context.Context, location, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.data[location])), nil
}

func (m *memTransport) Patch(_ context.Context, location, _ string, offset int64, chunk []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int64(len(m.data[location])) != offset {
		return 0, &upload.StatusError{Code: 409}
	}
	m.patches++
	m.data[location] = append(m.data[location], chunk...)
	return int64(len(m.data[location])), nil
}

func (m *memTransport) Finish(context.Context, string, string, int64) error { return nil }

func (m *memTransport) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.patches
}

func newLedger(t *testing.T) *linkages.SQLiteRepository {
	t.Helper()
	db, err := localdb.Init(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return linkages.NewSQLiteRepository(db)
}

type harness struct {
	c         *Coordinator
	picker    *fakePicker
	tables    *fakeTables
	transport *memTransport
	ledger    *linkages.SQLiteRepository
}

func newHarness(t *testing.T, size int) *harness {
	t.Helper()
	h := &harness{
		picker:    &fakePicker{sel: device.Selection{URI: "file:///tmp/scan.jpg", Name: "scan.jpg", MimeType: "image/jpeg"}},
		tables:    &fakeTables{rows: map[string][]backend.Row{}},
		transport: newMemTransport(),
		ledger:    newLedger(t),
	}
	up := upload.New(h.transport, backend.NewObjectStorage(storageBase), nil,
		upload.Config{ChunkSize: upload.DefaultChunkSize, RetryDelays: []time.Duration{}}, nil)

	h.c = New(Deps{
		Tokens:   staticTokens{token: "tok"},
		Tables:   h.tables,
		Registry: requirements.Default(),
		Picker:   h.picker,
		Uploader: up,
		Ledger:   h.ledger,
	})
	h.c.readBlob = func(context.Context, string) (*models.Blob, error) {
		return models.NewBlob("picked", "image/jpeg", int64(size), time.Now(), bytes.NewReader(make([]byte, size))), nil
	}
	return h
}

var kumpil = models.AppointmentContext{AppointmentID: "a1", Type: "Kumpil", RecordID: "7"}

var errBoom = errors.New("boom")
