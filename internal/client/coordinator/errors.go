package coordinator

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

var (
	ErrInvalidFile      = fmt.Errorf("%w: file type not allowed", common.ErrValidation)
	ErrUnresolvedTarget = errors.New("no upload target for requirement")
	ErrLinkageFailed    = errors.New("file uploaded but not recorded")
	ErrNoMatchingRow    = errors.New("no row matched the record key")
)

// LinkageError reports an object that reached storage while the write
// pointing at it failed. The object stays in storage; URL names it.
type LinkageError struct {
	URL string
	Err error
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("file uploaded to %s but not recorded: %v", e.URL, e.Err)
}

func (e *LinkageError) Unwrap() []error {
	return []error{ErrLinkageFailed, e.Err}
}
