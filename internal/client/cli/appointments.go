package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/parishkeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/parishkeeper/internal/client/gate"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/client/requirements"
	"github.com/dmitrijs2005/parishkeeper/internal/client/upload"
)

func (a *App) Appointments(ctx context.Context) error {
	list, err := a.appointments.List(ctx, a.currentSession().UserID)
	if err != nil {
		return a.report(err)
	}
	if len(list) == 0 {
		printlnFn("No appointments.")
		return nil
	}
	for _, ap := range list {
		printlnFn(fmt.Sprintf("%s  %-10s %-12s %s", ap.ID, ap.Type, ap.Date, ap.Status))
	}
	return nil
}

// Show prints the appointment with each requirement and whether it is filled.
func (a *App) Show(ctx context.Context, id string) error {
	ap, attachments, err := a.loadWithAttachments(ctx, id)
	if err != nil {
		return a.report(err)
	}

	printlnFn(fmt.Sprintf("%s  %s  %s  %s", ap.ID, ap.Type, ap.Date, ap.Status))
	for i, e := range a.uploads.Registry().Entries(ap.Type) {
		printlnFn(requirementLine(i+1, e, attachments[e.Label]))
	}

	required := a.uploads.Registry().Required(ap.Type)
	if gate.IsComplete(required, attachments) {
		printlnFn("All required documents are attached.")
	} else {
		printlnFn(fmt.Sprintf("Missing: %v", gate.Missing(required, attachments)))
	}
	return nil
}

func requirementLine(n int, e requirements.Entry, url string) string {
	mark := "[ ]"
	if url != "" {
		mark = "[x]"
	}
	opt := ""
	if e.Optional {
		opt = " (optional)"
	}
	return fmt.Sprintf("%2d. %s %s%s %s", n, mark, e.Label, opt, url)
}

func (a *App) loadWithAttachments(ctx context.Context, id string) (*models.Appointment, map[string]string, error) {
	ap, err := a.appointments.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	attachments, err := a.uploads.LoadAttachments(ctx, ap.Context())
	if err != nil {
		return nil, nil, err
	}
	return ap, attachments, nil
}

// Upload asks which requirement to fill and runs the pick and upload.
func (a *App) Upload(ctx context.Context, id string) error {
	ap, attachments, err := a.loadWithAttachments(ctx, id)
	if err != nil {
		return a.report(err)
	}
	entries := a.uploads.Registry().Entries(ap.Type)
	if len(entries) == 0 {
		printlnFn("Nothing to upload for", ap.Type)
		return nil
	}

	for i, e := range entries {
		printlnFn(requirementLine(i+1, e, attachments[e.Label]))
	}
	choice, err := getSimpleText(a.reader, "Which requirement?", a.out)
	if err != nil {
		return err
	}
	i, ok := ParseChoice(choice, len(entries))
	if !ok {
		printlnFn("Please enter a number between 1 and", len(entries))
		return nil
	}

	return a.pickAndUpload(ctx, entries[i].Label, ap.Context())
}

func (a *App) ProfileImage(ctx context.Context) error {
	return a.pickAndUpload(ctx, requirements.LabelProfileImage, coordinator.ProfileContext(a.currentSession().UserID))
}

func (a *App) Receipt(ctx context.Context, donationID string) error {
	return a.pickAndUpload(ctx, requirements.LabelReceipt, coordinator.DonationContext(donationID))
}

func (a *App) pickAndUpload(ctx context.Context, label string, appt models.AppointmentContext) error {
	last := -1.0
	progress := func(uploaded, total int64) {
		p := upload.Percentage(uploaded, total)
		if p-last >= 10 || p == 100 {
			last = p
			printlnFn(fmt.Sprintf("  %s: %.2f%%", label, p))
		}
	}

	out, err := a.uploads.PickAndUpload(ctx, label, appt, coordinator.WithProgress(progress))
	if err != nil {
		return a.report(err)
	}

	switch out.Status {
	case coordinator.StatusCancelled:
		printlnFn("Cancelled.")
	case coordinator.StatusIgnored:
		printlnFn("An upload for", label, "is already running.")
	case coordinator.StatusUploaded:
		printlnFn("Uploaded", label+":", out.PublicURL)
	}
	return nil
}

// Submit sends the appointment for approval once every required document
// is attached.
func (a *App) Submit(ctx context.Context, id string) error {
	ap, attachments, err := a.loadWithAttachments(ctx, id)
	if err != nil {
		return a.report(err)
	}

	required := a.uploads.Registry().Required(ap.Type)
	if err := a.gate.Submit(ctx, ap.ID, required, attachments); err != nil {
		return a.report(err)
	}
	a.uploads.Attachments().Clear(ap.ID)
	printlnFn("Submitted. Status: " + models.StatusPendingApproval)
	return nil
}

func (a *App) Reconcile(ctx context.Context) error {
	n, err := a.uploads.RetryLinkages(ctx)
	if n > 0 {
		printlnFn(fmt.Sprintf("Saved %d earlier upload(s).", n))
	}
	if err != nil {
		return a.report(err)
	}
	if n == 0 {
		printlnFn("Nothing to reconcile.")
	}
	return nil
}
