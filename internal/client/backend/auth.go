package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultRefreshMargin   = 60 * time.Second

	// refreshTimeout bounds a shared refresh request.
	refreshTimeout = 15 * time.Second
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// RESTAuth talks to the GoTrue endpoints under /auth/v1. It keeps the
// current session in memory, mirrors it into a SessionStore and refreshes
// it when it gets close to expiry. Concurrent refreshes collapse into one
// request.
type RESTAuth struct {
	rest     *restClient
	store    SessionStore
	log      logging.Logger
	interval time.Duration
	margin   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	session *models.AuthSession
	loaded  bool
	cancel  context.CancelFunc

	group singleflight.Group
	wg    sync.WaitGroup
}

func NewRESTAuth(opts Options) *RESTAuth {
	return newRESTAuth(newRESTClient(opts.URL, opts.AnonKey, opts.HTTPClient), opts)
}

func newRESTAuth(rest *restClient, opts Options) *RESTAuth {
	opts = opts.withDefaults()
	return &RESTAuth{
		rest:     rest,
		store:    opts.Sessions,
		log:      opts.Logger,
		interval: opts.RefreshInterval,
		margin:   opts.RefreshMargin,
		now:      time.Now,
	}
}

func (a *RESTAuth) GetSession(ctx context.Context) (*models.AuthSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded && a.store != nil {
		s, err := a.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		a.session = s
		a.loaded = true
	}
	if a.session == nil {
		return nil, nil
	}
	s := *a.session
	return &s, nil
}

func (a *RESTAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var resp tokenResponse
	err := a.rest.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &resp)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
		return nil, fmt.Errorf("sign in: %w: %w", ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return a.adopt(ctx, &resp)
}

func (a *RESTAuth) SignUp(ctx context.Context, email, password string, data map[string]any) (*models.AuthSession, error) {
	body := map[string]any{"email": email, "password": password}
	if len(data) > 0 {
		body["data"] = data
	}

	var resp tokenResponse
	err := a.rest.do(ctx, request{method: http.MethodPost, path: "/auth/v1/signup", body: body}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	return a.adopt(ctx, &resp)
}

// Refresh exchanges the refresh token for a new session unconditionally.
func (a *RESTAuth) Refresh(ctx context.Context) (*models.AuthSession, error) {
	return a.refresh(ctx, true)
}

// AccessToken returns the current access token, refreshing first when it
// expires within the configured margin.
func (a *RESTAuth) AccessToken(ctx context.Context) (string, error) {
	s, err := a.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", ErrNoSession
	}
	if s.ExpiresWithin(a.now(), a.margin) {
		if s, err = a.refresh(ctx, false); err != nil {
			return "", err
		}
	}
	return s.AccessToken, nil
}

// refresh runs at most one token request at a time. The request ignores the
// caller's cancellation; a cancelled caller only stops waiting for it.
func (a *RESTAuth) refresh(ctx context.Context, force bool) (*models.AuthSession, error) {
	ch := a.group.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		current, err := a.GetSession(ctx)
		if err != nil {
			return nil, err
		}
		if current == nil || current.RefreshToken == "" {
			return nil, ErrNoSession
		}
		// a caller that queued behind a finished refresh gets its result
		if !force && !current.ExpiresWithin(a.now(), a.margin) {
			return current, nil
		}

		var resp tokenResponse
		err = a.rest.do(ctx, request{
			method: http.MethodPost,
			path:   "/auth/v1/token",
			query:  url.Values{"grant_type": {"refresh_token"}},
			body:   map[string]string{"refresh_token": current.RefreshToken},
		}, &resp)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				a.log.Warn(ctx, "refresh token rejected, dropping session")
				if fErr := a.forget(ctx); fErr != nil {
					a.log.Warn(ctx, "cannot clear cached session", "error", fErr)
				}
			}
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		return a.adopt(ctx, &resp)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*models.AuthSession), nil
	}
}

func (a *RESTAuth) SignOut(ctx context.Context) error {
	s, err := a.GetSession(ctx)
	if err != nil {
		return err
	}
	if s != nil {
		err := a.rest.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", token: s.AccessToken}, nil)
		if err != nil {
			a.log.Warn(ctx, "remote sign out failed", "error", err)
		}
	}
	return a.forget(ctx)
}

// Start launches the background refresh loop. Calling Start twice is a no-op.
func (a *RESTAuth) Start(ctx context.Context) {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.refreshIfStale(ctx)
			}
		}
	}()
}

func (a *RESTAuth) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		a.wg.Wait()
	}
}

func (a *RESTAuth) refreshIfStale(ctx context.Context) {
	s, err := a.GetSession(ctx)
	if err != nil || s == nil || !s.ExpiresWithin(a.now(), a.margin) {
		return
	}
	if _, err := a.refresh(ctx, false); err != nil {
		a.log.Warn(ctx, "background token refresh failed", "error", err)
		return
	}
	a.log.Debug(ctx, "access token refreshed")
}

func (a *RESTAuth) adopt(ctx context.Context, resp *tokenResponse) (*models.AuthSession, error) {
	s, err := a.sessionFrom(resp)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.session = s
	a.loaded = true
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	out := *s
	return &out, nil
}

func (a *RESTAuth) forget(ctx context.Context) error {
	a.mu.Lock()
	a.session = nil
	a.loaded = true
	a.mu.Unlock()

	if a.store != nil {
		return a.store.Clear(ctx)
	}
	return nil
}

// sessionFrom prefers the claims inside the access token and falls back to
// the expiry fields of the response body.
func (a *RESTAuth) sessionFrom(resp *tokenResponse) (*models.AuthSession, error) {
	if resp.AccessToken == "" {
		return nil, common.ErrInvalidToken
	}
	s := &models.AuthSession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
		if s.UserID == "" {
			if sub, err := claims.GetSubject(); err == nil {
				s.UserID = sub
			}
		}
	}

	if s.ExpiresAt.IsZero() {
		switch {
		case resp.ExpiresAt > 0:
			s.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
		case resp.ExpiresIn > 0:
			s.ExpiresAt = a.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		}
	}

	if s.UserID == "" {
		return nil, fmt.Errorf("session without user: %w", common.ErrInvalidToken)
	}
	return s, nil
}
