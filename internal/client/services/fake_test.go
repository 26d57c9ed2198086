package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
)

type fakeAuth struct {
	session    *models.AuthSession
	signInErr  error
	signUpErr  error
	signOutErr error

	lastEmail    string
	lastPassword string
	lastData     map[string]any
	signedOut    bool
}

func (f *fakeAuth) AccessToken(context.Context) (string, error) { return "tok", nil }

func (f *fakeAuth) GetSession(context.Context) (*models.AuthSession, error) { return f.session, nil }

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*models.AuthSession, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeAuth) SignUp(_ context.Context, email, password string, data map[string]any) (*models.AuthSession, error) {
	f.lastEmail, f.lastPassword, f.lastData = email, password, data
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.session, nil
}

func (f *fakeAuth) Refresh(context.Context) (*models.AuthSession, error) { return f.session, nil }

func (f *fakeAuth) SignOut(context.Context) error {
	f.signedOut = true
	return f.signOutErr
}

type fakeReconciler struct {
	calls int
	n     int
	err   error
}

func (f *fakeReconciler) RetryLinkages(context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

type fakeTables struct {
	rows    []backend.Row
	err     error
	selects []*backend.Query
	updates []*backend.Query
	patches []backend.Row
}

func (f *fakeTables) Select(_ context.Context, q *backend.Query) ([]backend.Row, error) {
	f.selects = append(f.selects, q)
	return f.rows, f.err
}

func (f *fakeTables) Insert(_ context.Context, _ string, row backend.Row) (backend.Row, error) {
	return row, f.err
}

func (f *fakeTables) Update(_ context.Context, q *backend.Query, patch backend.Row) ([]backend.Row, error) {
	f.updates = append(f.updates, q)
	f.patches = append(f.patches, patch)
	return f.rows, f.err
}

type fakeRealtime struct {
	mu      sync.Mutex
	sub     backend.Subscription
	handler func(backend.Change)
	stopped bool
}

func (f *fakeRealtime) Subscribe(_ context.Context, sub backend.Subscription, handler func(backend.Change)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sub, f.handler = sub, handler
	return func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeRealtime) emit(t *testing.T, c backend.Change) {
	t.Helper()
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(c)
}
