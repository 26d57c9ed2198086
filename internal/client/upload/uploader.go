package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const DefaultChunkSize int64 = 6 << 20

// DefaultRetryDelays is the wait before each retry of a failed chunk.
var DefaultRetryDelays = []time.Duration{0, 3 * time.Second, 5 * time.Second, 10 * time.Second, 20 * time.Second}

// Endpoints resolves storage URLs. backend.Storage satisfies it.
type Endpoints interface {
	ResumableUploadEndpoint(bucket string) string
	PublicURL(bucket, objectKey string) string
}

// ResumeStore is the local ledger of unfinished uploads.
type ResumeStore interface {
	Put(ctx context.Context, e *models.ResumeEntry) error
	Get(ctx context.Context, fingerprint string) (*models.ResumeEntry, error)
	UpdateProgress(ctx context.Context, fingerprint string, offset int64) error
	Delete(ctx context.Context, fingerprint string) error
	ListPending(ctx context.Context) ([]*models.ResumeEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	ChunkSize int64
	// RetryDelays of length k allow k+1 attempts per chunk. Nil means
	// DefaultRetryDelays, an empty slice means no retries.
	RetryDelays  []time.Duration
	Upsert       bool
	CacheControl string
}

type Uploader struct {
	transport Transport
	endpoints Endpoints
	resume    ResumeStore
	cfg       Config
	log       logging.Logger
	newID     func() string
	now       func() time.Time
}

// New builds an Uploader. resume may be nil, which disables resuming.
func New(transport Transport, endpoints Endpoints, resume ResumeStore, cfg Config, log logging.Logger) *Uploader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.RetryDelays == nil {
		cfg.RetryDelays = DefaultRetryDelays
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "3600"
	}
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Uploader{
		transport: transport,
		endpoints: endpoints,
		resume:    resume,
		cfg:       cfg,
		log:       log,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Start validates its input and runs the transfer on a new goroutine. The
// token must have been fetched right before the call; it is used for every
// request of this session and never refreshed.
func (u *Uploader) Start(ctx context.Context, blob *models.Blob, target models.UploadTarget, token string, l Listener) (*Session, error) {
	if blob == nil || blob.Size <= 0 {
		return nil, ErrEmptyFile
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	if target.Bucket == "" || target.ObjectKey == "" {
		return nil, ErrInvalidTarget
	}

	s := newSession(u.newID(), target.Bucket, target.ObjectKey, blob.Size, l)
	go u.run(ctx, s, blob, target, token)
	return s, nil
}

// Upload is Start followed by Wait.
func (u *Uploader) Upload(ctx context.Context, blob *models.Blob, target models.UploadTarget, token string, l Listener) (string, error) {
	s, err := u.Start(ctx, blob, target, token, l)
	if err != nil {
		return "", err
	}
	return s.Wait()
}

func (u *Uploader) run(ctx context.Context, s *Session, blob *models.Blob, target models.UploadTarget, token string) {
	log := u.log.With("session_id", s.ID, "bucket", target.Bucket, "object_key", target.ObjectKey)
	endpoint := u.endpoints.ResumableUploadEndpoint(target.Bucket)
	fp := Fingerprint(endpoint, target, blob)

	s.setState(StateProbing)
	location, offset, err := u.probe(ctx, log, fp, token)
	if err != nil {
		u.terminate(ctx, log, s, err)
		return
	}

	if location == "" {
		err = u.withRetry(ctx, func(ctx context.Context) error {
			loc, err := u.transport.Create(ctx, CreateRequest{
				Endpoint:     endpoint,
				Token:        token,
				Bucket:       target.Bucket,
				ObjectKey:    target.ObjectKey,
				ContentType:  blob.ContentType,
				CacheControl: u.cfg.CacheControl,
				Size:         blob.Size,
				Upsert:       u.cfg.Upsert,
			})
			if err != nil {
				return classify(ctx, err)
			}
			location = loc
			return nil
		})
		if err != nil {
			u.terminate(ctx, log, s, fmt.Errorf("create upload: %w", err))
			return
		}
		u.remember(ctx, log, &models.ResumeEntry{
			Fingerprint: fp,
			Location:    location,
			Bucket:      target.Bucket,
			ObjectKey:   target.ObjectKey,
			Size:        blob.Size,
		})
		log.Info(ctx, "upload created", "size", blob.Size)
	} else {
		log.Info(ctx, "resuming upload", "offset", offset, "size", blob.Size)
	}

	s.setLocation(location)
	s.setState(StateTransferring)
	s.uploaded.Store(offset)

	buf := make([]byte, u.cfg.ChunkSize)
	for offset < blob.Size {
		offset, err = u.sendChunk(ctx, log, blob, location, token, offset, buf)
		if err != nil {
			u.terminate(ctx, log, s, err)
			return
		}
		s.chunks.Add(1)
		s.advance(offset)
		u.progress(ctx, log, fp, offset)
		log.Debug(ctx, "chunk committed", "offset", offset, "size", blob.Size)
	}

	err = u.withRetry(ctx, func(ctx context.Context) error {
		return classify(ctx, u.transport.Finish(ctx, location, token, blob.Size))
	})
	if err != nil {
		u.terminate(ctx, log, s, fmt.Errorf("finish upload: %w", err))
		return
	}

	u.forget(ctx, log, fp)
	publicURL := u.endpoints.PublicURL(target.Bucket, target.ObjectKey)
	log.Info(ctx, "upload finished", "size", blob.Size, "chunks", s.ChunksSent())
	s.succeed(publicURL)
}

// probe looks for an unfinished upload of the same blob and asks the
// server where it stopped. Anything that cannot be resumed is forgotten and
// the caller starts over.
func (u *Uploader) probe(ctx context.Context, log logging.Logger, fp, token string) (string, int64, error) {
	if u.resume == nil {
		return "", 0, nil
	}

	entry, err := u.resume.Get(ctx, fp)
	if errors.Is(err, common.ErrNotFound) {
		return "", 0, nil
	}
	if err != nil {
		log.Warn(ctx, "resume ledger unavailable", "error", err)
		return "", 0, nil
	}

	offset, err := u.transport.Offset(ctx, entry.Location, token)
	switch {
	case errors.Is(err, ErrAuth):
		return "", 0, err
	case err != nil:
		log.Info(ctx, "previous upload not resumable", "error", err)
		u.forget(ctx, log, fp)
		return "", 0, nil
	case offset > entry.Size:
		log.Warn(ctx, "server offset beyond file size", "offset", offset, "size", entry.Size)
		u.forget(ctx, log, fp)
		return "", 0, nil
	}
	return entry.Location, offset, nil
}

// sendChunk sends the chunk starting at offset, retrying per schedule. A
// retry first asks the server for its offset so no byte is sent twice.
func (u *Uploader) sendChunk(ctx context.Context, log logging.Logger, blob *models.Blob, location, token string, offset int64, buf []byte) (int64, error) {
	attempt := 0
	next := offset

	err := u.withRetry(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			log.Warn(ctx, "retrying chunk", "attempt", attempt, "offset", offset)
			off, err := u.transport.Offset(ctx, location, token)
			if err != nil {
				return classify(ctx, err)
			}
			if off > blob.Size {
				return fmt.Errorf("server offset %d beyond size %d", off, blob.Size)
			}
			if off != offset {
				log.Info(ctx, "offset resynced", "from", offset, "to", off)
				offset = off
			}
			if offset == blob.Size {
				next = offset
				return nil
			}
		}

		n := blob.Size - offset
		if n > int64(len(buf)) {
			n = int64(len(buf))
		}
		chunk := buf[:n]
		if m, err := blob.Data.ReadAt(chunk, offset); m < len(chunk) {
			return fmt.Errorf("read %s at %d: %w", blob.Name, offset, err)
		}

		got, err := u.transport.Patch(ctx, location, token, offset, chunk)
		if err != nil {
			return classify(ctx, err)
		}
		if got <= offset || got > blob.Size {
			return retry.RetryableError(fmt.Errorf("server acknowledged offset %d after %d bytes at %d", got, n, offset))
		}
		next = got
		return nil
	})
	return next, err
}

func (u *Uploader) withRetry(ctx context.Context, f retry.RetryFunc) error {
	delays := u.cfg.RetryDelays
	i := 0
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		if i >= len(delays) {
			return 0, true
		}
		d := delays[i]
		i++
		return d, false
	})
	return retry.Do(ctx, b, f)
}

func (u *Uploader) terminate(ctx context.Context, log logging.Logger, s *Session, err error) {
	if errors.Is(err, ErrAuth) {
		log.Warn(ctx, "upload rejected, a fresh token is needed", "error", err)
	} else {
		log.Error(ctx, "upload failed", "error", err, "uploaded", s.BytesUploaded())
	}
	s.fail(err)
}

func (u *Uploader) remember(ctx context.Context, log logging.Logger, e *models.ResumeEntry) {
	if u.resume == nil {
		return
	}
	if err := u.resume.Put(ctx, e); err != nil {
		log.Warn(ctx, "cannot record upload for resume", "error", err)
	}
}

func (u *Uploader) progress(ctx context.Context, log logging.Logger, fp string, offset int64) {
	if u.resume == nil {
		return
	}
	if err := u.resume.UpdateProgress(ctx, fp, offset); err != nil {
		log.Warn(ctx, "cannot record upload progress", "error", err)
	}
}

func (u *Uploader) forget(ctx context.Context, log logging.Logger, fp string) {
	if u.resume == nil {
		return
	}
	if err := u.resume.Delete(ctx, fp); err != nil {
		log.Warn(ctx, "cannot drop resume entry", "error", err)
	}
}

// PruneStale drops resume entries untouched for maxAge and aborts their
// remote uploads when the transport can.
func (u *Uploader) PruneStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	if u.resume == nil {
		return 0, nil
	}
	cutoff := u.now().Add(-maxAge)

	if ab, ok := u.transport.(Aborter); ok {
		pending, err := u.resume.ListPending(ctx)
		if err != nil {
			return 0, err
		}
		for _, e := range pending {
			if !e.UpdatedAt.Before(cutoff) {
				continue
			}
			if err := ab.Abort(ctx, e.Location, ""); err != nil {
				u.log.Warn(ctx, "cannot abort stale upload", "location", e.Location, "error", err)
			}
		}
	}

	n, err := u.resume.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info(ctx, "pruned stale resume entries", "count", n)
	}
	return n, nil
}
