package upload

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

type patchCall struct {
	location string
	offset   int64
	size     int
}

// memTransport is an in-memory tus server. failPatch, when set, is asked
// before every Patch; commitOnFail makes a failed Patch still store the
// bytes, like a connection dropped after the server wrote them.
type memTransport struct {
	mu           sync.Mutex
	data         map[string][]byte
	sizes        map[string]int64
	creates      int
	offsets      int
	finishes     int
	patches      []patchCall
	failPatch    func(call int, offset int64) error
	failOffset   error
	commitOnFail bool
	aborted      []string
}

func newMemTransport() *memTransport {
	return &memTransport{data: map[string][]byte{}, sizes: map[string]int64{}}
}

func (m *memTransport) Create(_ context.Context, r CreateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	loc := fmt.Sprintf("%s/upload-%d", r.Endpoint, m.creates)
	m.data[loc] = nil
	m.sizes[loc] = r.Size
	return loc, nil
}

func (m *memTransport) Offset(_ context.Context, location, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets++
	if m.failOffset != nil {
		return 0, m.failOffset
	}
	d, ok := m.data[location]
	if !ok {
		return 0, &StatusError{Code: 404}
	}
	return int64(len(d)), nil
}

func (m *memTransport) Patch(_ context.Context, location, _ string, offset int64, chunk []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, patchCall{location: location, offset: offset, size: len(chunk)})

	if int64(len(m.data[location])) != offset {
		return 0, &StatusError{Code: 409, Body: "offset mismatch"}
	}
	if m.failPatch != nil {
		if err := m.failPatch(len(m.patches), offset); err != nil {
			if m.commitOnFail {
				m.data[location] = append(m.data[location], chunk...)
			}
			return 0, err
		}
	}
	m.data[location] = append(m.data[location], chunk...)
	return int64(len(m.data[location])), nil
}

func (m *memTransport) Finish(context.Context, string, string, int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishes++
	return nil
}

func (m *memTransport) patchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patches)
}

type abortingTransport struct {
	*memTransport
}

func (a abortingTransport) Abort(_ context.Context, location, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aborted = append(a.aborted, location)
	return nil
}

type recorder struct {
	mu        sync.Mutex
	progress  []int64
	successes []string
	errors    []error
}

func (r *recorder) listener() Listener {
	return Listener{
		OnProgress: func(uploaded, _ int64) {
			r.mu.Lock()
			r.progress = append(r.progress, uploaded)
			r.mu.Unlock()
		},
		OnSuccess: func(url string) {
			r.mu.Lock()
			r.successes = append(r.successes, url)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errors = append(r.errors, err)
			r.mu.Unlock()
		},
	}
}

func testBlob(size int) (*models.Blob, []byte) {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return models.NewBlob("scan.jpg", "image/jpeg", int64(size), time.Now(), bytes.NewReader(data)), data
}

func testTarget(key string) models.UploadTarget {
	return models.UploadTarget{
		Bucket:    "kumpil",
		ObjectKey: key,
		Table:     "kumpilforms",
		Column:    "student_baptismal_certificate",
		RecordKey: models.RecordKey{Table: "kumpilforms", Column: "kumpil_form_id", Value: "7"},
	}
}

var testStorage = backend.NewObjectStorage("http://storage.test")

func newResumeStore(t *testing.T) *uploads.SQLiteRepository {
	t.Helper()
	db, err := localdb.Init(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return uploads.NewSQLiteRepository(db)
}

func newTestUploader(tr Transport, resume ResumeStore, chunk int64, delays []time.Duration) *Uploader {
	return New(tr, testStorage, resume, Config{ChunkSize: chunk, RetryDelays: delays}, logging.NewDiscard())
}
