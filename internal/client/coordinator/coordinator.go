package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/device"
	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/linkages"
	"github.com/dmitrijs2005/parishkeeper/internal/client/requirements"
	"github.com/dmitrijs2005/parishkeeper/internal/client/upload"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
)

type Status int

const (
	StatusCancelled Status = iota
	StatusIgnored
	StatusUploaded
)

func (s Status) String() string {
	switch s {
	case StatusCancelled:
		return "cancelled"
	case StatusIgnored:
		return "ignored"
	case StatusUploaded:
		return "uploaded"
	}
	return "unknown"
}

type Outcome struct {
	Status    Status
	PublicURL string
	ObjectKey string
}

// Uploader starts a transfer session. *upload.Uploader satisfies it.
type Uploader interface {
	Start(ctx context.Context, blob *models.Blob, target models.UploadTarget, token string, l upload.Listener) (*upload.Session, error)
}

type options struct {
	onProgress func(uploaded, total int64)
}

type Option func(*options)

// WithProgress reports transferred bytes while the upload runs.
func WithProgress(fn func(uploaded, total int64)) Option {
	return func(o *options) { o.onProgress = fn }
}

type slotKey struct {
	appointmentID string
	label         string
}

type Coordinator struct {
	tokens      backend.TokenSource
	tables      backend.Tables
	registry    *requirements.Registry
	picker      device.Picker
	uploader    Uploader
	ledger      linkages.Repository
	keys        *KeyGenerator
	attachments *Attachments
	log         logging.Logger

	readBlob func(ctx context.Context, uri string) (*models.Blob, error)

	mu     sync.Mutex
	active map[slotKey]struct{}
}

type Deps struct {
	Tokens   backend.TokenSource
	Tables   backend.Tables
	Registry *requirements.Registry
	Picker   device.Picker
	Uploader Uploader
	Ledger   linkages.Repository
	Log      logging.Logger
}

func New(d Deps) *Coordinator {
	log := d.Log
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Coordinator{
		tokens:      d.Tokens,
		tables:      d.Tables,
		registry:    d.Registry,
		picker:      d.Picker,
		uploader:    d.Uploader,
		ledger:      d.Ledger,
		keys:        NewKeyGenerator(time.Now),
		attachments: NewAttachments(),
		log:         log,
		readBlob:    device.ReadFileAsBlob,
		active:      map[slotKey]struct{}{},
	}
}

func (c *Coordinator) Attachments() *Attachments { return c.attachments }

func (c *Coordinator) Registry() *requirements.Registry { return c.registry }

// claim marks the slot active. It returns false if another call holds it.
func (c *Coordinator) claim(k slotKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.active[k]; busy {
		return false
	}
	c.active[k] = struct{}{}
	return true
}

func (c *Coordinator) release(k slotKey) {
	c.mu.Lock()
	delete(c.active, k)
	c.mu.Unlock()
}

// PickAndUpload lets the user pick a file for requirement, uploads it and
// links its public URL to the appointment's record.
func (c *Coordinator) PickAndUpload(ctx context.Context, requirement string, appt models.AppointmentContext, opts ...Option) (Outcome, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	entry, ok := c.registry.Resolve(appt.Type, requirement)
	if !ok {
		return Outcome{}, fmt.Errorf("%s/%s: %w", appt.Type, requirement, ErrUnresolvedTarget)
	}

	// Keyed on the registry's label so every spelling of a slot shares it.
	key := slotKey{appointmentID: appt.AppointmentID, label: entry.Label}
	if !c.claim(key) {
		c.log.Debug(ctx, "upload already running", "appointment_id", appt.AppointmentID, "requirement", entry.Label)
		return Outcome{Status: StatusIgnored}, nil
	}
	defer c.release(key)

	sel, err := c.pick(ctx, entry)
	if errors.Is(err, device.ErrCancelled) {
		return Outcome{Status: StatusCancelled}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("pick file: %w", err)
	}

	ext := (&models.Blob{Name: sel.Name}).Ext()
	if !entry.Allows(ext, sel.MimeType) {
		return Outcome{}, fmt.Errorf("%s (%s): %w", sel.Name, sel.MimeType, ErrInvalidFile)
	}

	if appt.RecordID == "" {
		return Outcome{}, fmt.Errorf("%s/%s has no record: %w", appt.Type, requirement, ErrUnresolvedTarget)
	}

	blob, err := c.readBlob(ctx, sel.URI)
	if err != nil {
		return Outcome{}, fmt.Errorf("read file: %w", err)
	}
	defer blob.Close()
	if sel.Name != "" {
		blob.Name = sel.Name
	}

	target := entry.Target(appt.RecordID, c.keys.Next(entry.Label, ext))

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("access token: %w", err)
	}

	s, err := c.uploader.Start(ctx, blob, target, token, upload.Listener{OnProgress: o.onProgress})
	if err != nil {
		return Outcome{}, err
	}
	publicURL, err := s.Wait()
	if err != nil {
		return Outcome{}, fmt.Errorf("upload %s: %w", target.ObjectKey, err)
	}

	l := &models.Linkage{
		AppointmentID: appt.AppointmentID,
		Requirement:   entry.Label,
		Bucket:        target.Bucket,
		ObjectKey:     target.ObjectKey,
		PublicURL:     publicURL,
		TableName:     target.Table,
		ColumnName:    target.Column,
		KeyColumn:     target.RecordKey.Column,
		KeyValue:      target.RecordKey.Value,
	}
	if err := c.link(ctx, l); err != nil {
		return Outcome{}, err
	}

	c.attachments.Set(appt.AppointmentID, entry.Label, publicURL)
	return Outcome{Status: StatusUploaded, PublicURL: publicURL, ObjectKey: target.ObjectKey}, nil
}

func (c *Coordinator) pick(ctx context.Context, e requirements.Entry) (device.Selection, error) {
	if e.Accept == requirements.ImagesOnly {
		return c.picker.PickImage(ctx)
	}
	return c.picker.PickDocument(ctx, e.MimeTypes())
}

// link records l in the ledger and writes the URL into its row. The ledger
// row stays pending when the write fails.
func (c *Coordinator) link(ctx context.Context, l *models.Linkage) error {
	log := c.log.With("object_key", l.ObjectKey, "table", l.TableName, "column", l.ColumnName)

	recorded := true
	if err := c.ledger.Add(ctx, l); err != nil {
		recorded = false
		log.Warn(ctx, "linkage ledger unavailable", "error", err)
	}

	err := c.write(ctx, l)
	if err != nil {
		log.Error(ctx, "linkage write failed", "error", err)
		if recorded {
			if mErr := c.ledger.MarkFailed(ctx, l.ID, err.Error()); mErr != nil {
				log.Warn(ctx, "failed to record linkage error", "error", mErr)
			}
		}
		return &LinkageError{URL: l.PublicURL, Err: err}
	}

	if recorded {
		if mErr := c.ledger.MarkLinked(ctx, l.ID); mErr != nil {
			log.Warn(ctx, "failed to mark linkage", "error", mErr)
		}
	}
	c.supersede(ctx, log, l)
	log.Info(ctx, "linked upload")
	return nil
}

// supersede retires older pending rows for the cell l was just written to.
func (c *Coordinator) supersede(ctx context.Context, log logging.Logger, l *models.Linkage) {
	n, err := c.ledger.SupersedeOlder(ctx, l)
	if err != nil {
		log.Warn(ctx, "failed to retire older linkages", "error", err)
		return
	}
	if n > 0 {
		log.Info(ctx, "older uploads superseded", "count", n)
	}
}

func (c *Coordinator) write(ctx context.Context, l *models.Linkage) error {
	q := backend.From(l.TableName).Eq(l.KeyColumn, l.KeyValue)
	rows, err := c.tables.Update(ctx, q, backend.Row{l.ColumnName: l.PublicURL})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s.%s=%s: %w", l.TableName, l.KeyColumn, l.KeyValue, ErrNoMatchingRow)
	}
	return nil
}

// RetryLinkages re-runs the write for the newest pending ledger row of each
// cell. Older rows for that cell are superseded once it links. Objects are
// not uploaded again. It returns how many rows were linked.
func (c *Coordinator) RetryLinkages(ctx context.Context) (int, error) {
	pending, err := c.ledger.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending linkages: %w", err)
	}

	var (
		linked int
		errs   []error
	)
	for _, l := range newestPerCell(pending) {
		if err := c.write(ctx, l); err != nil {
			if mErr := c.ledger.MarkFailed(ctx, l.ID, err.Error()); mErr != nil {
				errs = append(errs, mErr)
			}
			errs = append(errs, &LinkageError{URL: l.PublicURL, Err: err})
			continue
		}
		if err := c.ledger.MarkLinked(ctx, l.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		linked++
		c.supersede(ctx, c.log.With("object_key", l.ObjectKey), l)
		c.attachments.Set(l.AppointmentID, l.Requirement, l.PublicURL)
		c.log.Info(ctx, "re-linked upload", "object_key", l.ObjectKey, "table", l.TableName)
	}

	return linked, errors.Join(errs...)
}

type cell struct {
	table, column, keyColumn, keyValue string
}

// newestPerCell keeps the latest row per target cell. pending is ordered
// oldest first, so on equal timestamps the later row wins.
func newestPerCell(pending []*models.Linkage) []*models.Linkage {
	idx := map[cell]int{}
	var out []*models.Linkage
	for _, l := range pending {
		k := cell{l.TableName, l.ColumnName, l.KeyColumn, l.KeyValue}
		i, seen := idx[k]
		if !seen {
			idx[k] = len(out)
			out = append(out, l)
			continue
		}
		if !l.CreatedAt.Before(out[i].CreatedAt) {
			out[i] = l
		}
	}
	return out
}

// LoadAttachments reads the current URLs of every slot of appt from the
// backend and replaces the cached map with them.
func (c *Coordinator) LoadAttachments(ctx context.Context, appt models.AppointmentContext) (map[string]string, error) {
	entries := c.registry.Entries(appt.Type)
	out := map[string]string{}
	if len(entries) == 0 || appt.RecordID == "" {
		c.attachments.Replace(appt.AppointmentID, out)
		return out, nil
	}

	// Slots of one type may live in different tables.
	byTable := map[string][]requirements.Entry{}
	var order []string
	for _, e := range entries {
		if _, ok := byTable[e.Table]; !ok {
			order = append(order, e.Table)
		}
		byTable[e.Table] = append(byTable[e.Table], e)
	}

	for _, table := range order {
		group := byTable[table]
		cols := make([]string, 0, len(group))
		for _, e := range group {
			cols = append(cols, e.Column)
		}
		q := backend.From(table).Select(cols...).Eq(group[0].KeyColumn, appt.RecordID).Limit(1)
		rows, err := c.tables.Select(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", table, err)
		}
		if len(rows) == 0 {
			continue
		}
		for _, e := range group {
			if v := rows[0].String(e.Column); v != "" {
				out[e.Label] = v
			}
		}
	}

	c.attachments.Replace(appt.AppointmentID, out)
	return out, nil
}

// ProfileContext addresses the signed-in user's own row.
func ProfileContext(userID string) models.AppointmentContext {
	return models.AppointmentContext{AppointmentID: "profile:" + userID, Type: requirements.TypeProfile, RecordID: userID}
}

// DonationContext addresses a donation row.
func DonationContext(donationID string) models.AppointmentContext {
	return models.AppointmentContext{AppointmentID: "donation:" + donationID, Type: requirements.TypeDonation, RecordID: donationID}
}
