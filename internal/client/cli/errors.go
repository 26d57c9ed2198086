package cli

import (
	"errors"

	"github.com/dmitrijs2005/parishkeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/parishkeeper/internal/client/gate"
	"github.com/dmitrijs2005/parishkeeper/internal/client/upload"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var le *coordinator.LinkageError
	switch {
	case errors.As(err, &le):
		return "The file was uploaded but could not be saved to your form. Run 'reconcile' to try again."
	case errors.Is(err, coordinator.ErrInvalidFile):
		return "This file type is not allowed here. Use a JPG, PNG or, where accepted, a PDF."
	case errors.Is(err, coordinator.ErrUnresolvedTarget):
		return "This requirement cannot be uploaded for this appointment."
	case errors.Is(err, gate.ErrIncomplete):
		return "Some required documents are still missing: " + err.Error()
	case errors.Is(err, gate.ErrAlreadySubmitted):
		return "This appointment was already submitted."
	case errors.Is(err, upload.ErrEmptyFile):
		return "The selected file is empty."
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, common.ErrNoSession), errors.Is(err, common.ErrUnauthorized), errors.Is(err, upload.ErrAuth):
		return "Your session has expired. Please log in again."
	case errors.Is(err, common.ErrNotFound):
		return "Not found."
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	}
	return "Something went wrong: " + err.Error()
}

func (a *App) report(err error) error {
	printlnFn(describe(err))
	return err
}
