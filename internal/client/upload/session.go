package upload

import (
	"math"
	"sync"
	"sync/atomic"
)

type State int32

const (
	StateIdle State = iota
	StateProbing
	StateTransferring
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateTransferring:
		return "transferring"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether s is Succeeded or Failed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Listener receives session events. Nil callbacks are skipped. Callbacks run
// on the session goroutine.
type Listener struct {
	OnProgress func(uploaded, total int64)
	OnSuccess  func(publicURL string)
	OnError    func(err error)
}

// Session is one transfer. It never leaves a terminal state; a new attempt
// needs a new session.
type Session struct {
	ID        string
	Bucket    string
	ObjectKey string

	total    int64
	uploaded atomic.Int64
	state    atomic.Int32
	chunks   atomic.Int32

	mu        sync.Mutex
	location  string
	publicURL string
	err       error

	listener Listener
	once     sync.Once
	done     chan struct{}
}

func newSession(id, bucket, key string, total int64, l Listener) *Session {
	return &Session{ID: id, Bucket: bucket, ObjectKey: key, total: total, listener: l, done: make(chan struct{})}
}

func (s *Session) State() State          { return State(s.state.Load()) }
func (s *Session) BytesUploaded() int64  { return s.uploaded.Load() }
func (s *Session) BytesTotal() int64     { return s.total }
func (s *Session) Done() <-chan struct{} { return s.done }

// ChunksSent counts chunks the server accepted during this session.
func (s *Session) ChunksSent() int { return int(s.chunks.Load()) }

// Location is the remote upload the session is writing to, once known.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Wait blocks until the session is terminal and returns the public URL or
// the terminal error.
func (s *Session) Wait() (string, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicURL, s.err
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) setLocation(loc string) {
	s.mu.Lock()
	s.location = loc
	s.mu.Unlock()
}

// advance records a committed offset. The counter never goes backwards even
// if the server reports less than it acknowledged before.
func (s *Session) advance(offset int64) {
	for {
		cur := s.uploaded.Load()
		if offset <= cur || s.uploaded.CompareAndSwap(cur, offset) {
			break
		}
	}
	if s.listener.OnProgress != nil {
		s.listener.OnProgress(s.uploaded.Load(), s.total)
	}
}

func (s *Session) succeed(publicURL string) {
	s.once.Do(func() {
		s.mu.Lock()
		s.publicURL = publicURL
		s.mu.Unlock()
		s.setState(StateSucceeded)
		if s.listener.OnSuccess != nil {
			s.listener.OnSuccess(publicURL)
		}
		close(s.done)
	})
}

func (s *Session) fail(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.setState(StateFailed)
		if s.listener.OnError != nil {
			s.listener.OnError(err)
		}
		close(s.done)
	})
}

// Percentage is uploaded/total as a percentage rounded to two decimals.
// It is meant for display only.
func Percentage(uploaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(uploaded)/float64(total)*10000) / 100
}
