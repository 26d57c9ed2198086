package models

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlob_Ext(t *testing.T) {
	b := NewBlob("Scan.JPEG", "image/jpeg", 3, time.Time{}, bytes.NewReader([]byte("abc")))
	require.Equal(t, "jpeg", b.Ext())

	b = NewBlob("noext", "", 0, time.Time{}, bytes.NewReader(nil))
	require.Equal(t, "", b.Ext())
}

func TestBlob_CloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)

	b := NewBlob("a.pdf", "application/pdf", 4, time.Now(), f)
	require.NoError(t, b.Close())

	_, err = f.Read(make([]byte, 1))
	require.Error(t, err, "file must be closed")
}

func TestBlob_CloseWithoutCloser(t *testing.T) {
	b := NewBlob("a.png", "image/png", 1, time.Now(), bytes.NewReader([]byte{1}))
	require.NoError(t, b.Close())
}

func TestLinkage_Target(t *testing.T) {
	l := &Linkage{
		Bucket:     "kumpil",
		ObjectKey:  "baptismal_certificate_1.jpg",
		TableName:  "kumpilforms",
		ColumnName: "student_baptismal_certificate",
		KeyColumn:  "kumpil_form_id",
		KeyValue:   "42",
	}

	got := l.Target()
	require.Equal(t, UploadTarget{
		Bucket:    "kumpil",
		ObjectKey: "baptismal_certificate_1.jpg",
		Table:     "kumpilforms",
		Column:    "student_baptismal_certificate",
		RecordKey: RecordKey{Table: "kumpilforms", Column: "kumpil_form_id", Value: "42"},
	}, got)
}

func TestAppointment_Context(t *testing.T) {
	a := Appointment{ID: "a1", Type: "Kumpil", FormID: "f9"}
	require.Equal(t, AppointmentContext{AppointmentID: "a1", Type: "Kumpil", RecordID: "f9"}, a.Context())
}
