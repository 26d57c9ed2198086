package models

import (
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Blob is a local file opened for upload. Size is known up front and the
// data is read by offset, so a chunk can be re-read on retry.
type Blob struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Data        io.ReaderAt

	closer io.Closer
}

// NewBlob wraps data; if data also implements io.Closer, Close releases it.
func NewBlob(name, contentType string, size int64, modTime time.Time, data io.ReaderAt) *Blob {
	b := &Blob{Name: name, ContentType: contentType, Size: size, ModTime: modTime, Data: data}
	if c, ok := data.(io.Closer); ok {
		b.closer = c
	}
	return b
}

// Ext returns the lower-case extension without the dot ("jpg", "pdf").
func (b *Blob) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(b.Name)), ".")
}

func (b *Blob) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// RecordKey identifies the row updated by a linkage write.
type RecordKey struct {
	Table  string
	Column string
	Value  string
}

// UploadTarget says where a file lands and where its public URL is recorded.
type UploadTarget struct {
	Bucket    string
	ObjectKey string
	Table     string
	Column    string
	RecordKey RecordKey
}

// Upload statuses stored in the local resume ledger.
const (
	UploadStatusPending   = "pending"
	UploadStatusCompleted = "completed"
)

// ResumeEntry maps a blob fingerprint to an unfinished remote upload.
type ResumeEntry struct {
	Fingerprint   string
	Location      string
	Bucket        string
	ObjectKey     string
	Size          int64
	BytesUploaded int64
	Status        string
	UpdatedAt     time.Time
}

// Linkage statuses.
const (
	LinkageStatusPending    = "pending"
	LinkageStatusLinked     = "linked"
	LinkageStatusSuperseded = "superseded"
)

// Linkage records an uploaded object and the database write that must point
// at it. Rows that stay pending are orphaned objects awaiting a retry.
type Linkage struct {
	ID            string
	AppointmentID string
	Requirement   string
	Bucket        string
	ObjectKey     string
	PublicURL     string
	TableName     string
	ColumnName    string
	KeyColumn     string
	KeyValue      string
	Status        string
	LastError     string
	CreatedAt     time.Time
}

// Target rebuilds the upload target the linkage was created for.
func (l *Linkage) Target() UploadTarget {
	return UploadTarget{
		Bucket:    l.Bucket,
		ObjectKey: l.ObjectKey,
		Table:     l.TableName,
		Column:    l.ColumnName,
		RecordKey: RecordKey{Table: l.TableName, Column: l.KeyColumn, Value: l.KeyValue},
	}
}
