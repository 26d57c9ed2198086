package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/dbx"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
)

// Reconciler re-links uploads whose database write failed earlier.
type Reconciler interface {
	RetryLinkages(ctx context.Context) (int, error)
}

type AuthService struct {
	auth       backend.Auth
	db         *sql.DB
	reconciler Reconciler
	log        logging.Logger
}

// NewAuthService builds the service. reconciler may be nil.
func NewAuthService(auth backend.Auth, db *sql.DB, reconciler Reconciler, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &AuthService{auth: auth, db: db, reconciler: reconciler, log: log}
}

// Login signs in and then retries pending linkages once. The password is
// wiped before returning.
func (a *AuthService) Login(ctx context.Context, email string, password []byte) (*models.AuthSession, error) {
	defer common.WipeByteArray(password)

	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	session, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	a.reconcile(ctx)
	return session, nil
}

func (a *AuthService) reconcile(ctx context.Context) {
	if a.reconciler == nil {
		return
	}
	n, err := a.reconciler.RetryLinkages(ctx)
	if err != nil {
		a.log.Warn(ctx, "some uploads are still not linked", "error", err)
	}
	if n > 0 {
		a.log.Info(ctx, "linked earlier uploads", "count", n)
	}
}

// Register creates an account. A nil session means the address has to be
// confirmed before the first login.
func (a *AuthService) Register(ctx context.Context, email string, password []byte, fullName string) (*models.AuthSession, error) {
	defer common.WipeByteArray(password)

	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	var data map[string]any
	if name := strings.TrimSpace(fullName); name != "" {
		data = map[string]any{"full_name": name}
	}

	session, err := a.auth.SignUp(ctx, email, string(password), data)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return session, nil
}

// Restore returns the session cached from an earlier run, or (nil, nil).
func (a *AuthService) Restore(ctx context.Context) (*models.AuthSession, error) {
	return a.auth.GetSession(ctx)
}

// Logout signs out and forgets local state tied to the account.
// Pending linkages are kept.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		a.log.Warn(ctx, "remote sign out failed", "error", err)
	}
	return a.ClearLocalData(ctx)
}

// ClearLocalData wipes the cached session and the resume ledger in one
// transaction.
func (a *AuthService) ClearLocalData(ctx context.Context) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).Reset(ctx); err != nil {
			return err
		}
		return uploads.NewSQLiteRepository(tx).Clear(ctx)
	})
}
