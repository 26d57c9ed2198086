package backend

import (
	"context"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

var (
	ErrUnauthorized       = common.ErrUnauthorized
	ErrNoSession          = common.ErrNoSession
	ErrInvalidCredentials = common.ErrInvalidCredentials
)

// TokenSource hands out a currently valid access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// SessionStore persists the signed-in session between runs.
type SessionStore interface {
	Load(ctx context.Context) (*models.AuthSession, error)
	Save(ctx context.Context, session *models.AuthSession) error
	Clear(ctx context.Context) error
}

type Auth interface {
	TokenSource
	// GetSession returns (nil, nil) when nobody is signed in.
	GetSession(ctx context.Context) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	// SignUp returns a nil session when the account still needs email
	// confirmation.
	SignUp(ctx context.Context, email, password string, data map[string]any) (*models.AuthSession, error)
	Refresh(ctx context.Context) (*models.AuthSession, error)
	SignOut(ctx context.Context) error
}

type Tables interface {
	Select(ctx context.Context, q *Query) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update applies patch to every row matching q and returns the rows
	// that were changed.
	Update(ctx context.Context, q *Query, patch Row) ([]Row, error)
}

type Storage interface {
	ResumableUploadEndpoint(bucket string) string
	PublicURL(bucket, objectKey string) string
}

type Realtime interface {
	Subscribe(ctx context.Context, sub Subscription, handler func(Change)) (func(), error)
}

// DataBackend bundles the backend capabilities with an explicit lifecycle.
type DataBackend interface {
	Auth() Auth
	Tables() Tables
	Storage() Storage
	Realtime() Realtime
	Start(ctx context.Context)
	Stop()
}
