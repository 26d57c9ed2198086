package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

var (
	ErrEmptyFile     = fmt.Errorf("%w: file is empty", common.ErrValidation)
	ErrMissingToken  = fmt.Errorf("%w: auth token is required", common.ErrValidation)
	ErrInvalidTarget = fmt.Errorf("%w: bucket and object key are required", common.ErrValidation)

	// ErrAuth matches storage answers 401 and 403. Such failures end the
	// session at once; a new session needs a fresh token.
	ErrAuth = errors.New("storage rejected credentials")
)

// StatusError is an unexpected HTTP status from the storage endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("storage: status %d", e.Code)
	}
	return fmt.Sprintf("storage: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	if target != ErrAuth && target != common.ErrUnauthorized {
		return false
	}
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	switch {
	case e.Code >= 500:
		return true
	case e.Code == http.StatusConflict, e.Code == http.StatusLocked, e.Code == http.StatusTooManyRequests:
		return true
	}
	return false
}

// classify marks err retryable for go-retry when another attempt can help.
// A done ctx, auth rejections and other 4xx answers are final; network
// failures, request timeouts and temporary statuses are retried.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Temporary() {
			return retry.RetryableError(err)
		}
		return err
	}
	return retry.RetryableError(err)
}
