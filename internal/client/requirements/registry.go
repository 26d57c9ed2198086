// Package requirements maps an appointment type and a requirement label to
// where the uploaded document lives and which row/column records its URL.
//
// The table is static. Lookups are pure; an unknown type or label is
// reported by the ok result, never by an error.
package requirements

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
)

// Accept says which file kinds an entry takes.
type Accept int

const (
	ImagesOnly Accept = iota
	ImagesAndDocuments
)

var (
	imageTypes = map[string]string{"jpg": "image/jpeg", "jpeg": "image/jpeg", "png": "image/png"}
	docTypes   = map[string]string{"pdf": "application/pdf"}
)

// Entry is one requirement slot.
type Entry struct {
	Type      string
	Label     string
	Bucket    string
	Table     string
	Column    string
	KeyColumn string
	Accept    Accept
	Optional  bool
}

// Allows reports whether a file with extension ext (no dot) and MIME type
// mime may fill this slot. Both must agree with the allow-list; an empty
// mime is judged by the extension alone.
func (e Entry) Allows(ext, mime string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	want, ok := imageTypes[ext]
	if !ok && e.Accept == ImagesAndDocuments {
		want, ok = docTypes[ext]
	}
	if !ok {
		return false
	}
	if mime == "" {
		return true
	}
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	return mime == want
}

// Extensions lists the accepted extensions, sorted.
func (e Entry) Extensions() []string {
	out := make([]string, 0, len(imageTypes)+len(docTypes))
	for ext := range imageTypes {
		out = append(out, ext)
	}
	if e.Accept == ImagesAndDocuments {
		for ext := range docTypes {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// MimeTypes lists the accepted MIME types, sorted and without duplicates.
func (e Entry) MimeTypes() []string {
	seen := map[string]bool{}
	var out []string
	for _, ext := range e.Extensions() {
		m := imageTypes[ext]
		if m == "" {
			m = docTypes[ext]
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// Target places objectKey in the entry's bucket and links it to the row
// whose KeyColumn equals recordValue.
func (e Entry) Target(recordValue, objectKey string) models.UploadTarget {
	return models.UploadTarget{
		Bucket:    e.Bucket,
		ObjectKey: objectKey,
		Table:     e.Table,
		Column:    e.Column,
		RecordKey: models.RecordKey{Table: e.Table, Column: e.KeyColumn, Value: recordValue},
	}
}

type slot struct {
	typ   string
	label string
}

type Registry struct {
	entries map[slot]Entry
	labels  map[string][]string
	aliases map[string]string
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// New builds a registry and rejects duplicate slots and table or column
// names that are not plain identifiers.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[slot]Entry, len(entries)),
		labels:  map[string][]string{},
		aliases: map[string]string{},
	}
	for _, e := range entries {
		for _, id := range []string{e.Table, e.Column, e.KeyColumn} {
			if !identRe.MatchString(id) {
				return nil, fmt.Errorf("requirement %s/%s: bad identifier %q", e.Type, e.Label, id)
			}
		}
		if e.Bucket == "" {
			return nil, fmt.Errorf("requirement %s/%s: empty bucket", e.Type, e.Label)
		}
		k := slot{typ: fold(e.Type), label: fold(e.Label)}
		if _, dup := r.entries[k]; dup {
			return nil, fmt.Errorf("requirement %s/%s registered twice", e.Type, e.Label)
		}
		r.entries[k] = e
		r.labels[k.typ] = append(r.labels[k.typ], e.Label)
	}
	return r, nil
}

// Alias lets name resolve as appointmentType, e.g. "Confirmation" as "Kumpil".
func (r *Registry) Alias(name, appointmentType string) *Registry {
	r.aliases[fold(name)] = fold(appointmentType)
	return r
}

func (r *Registry) canonical(appointmentType string) string {
	t := fold(appointmentType)
	if a, ok := r.aliases[t]; ok {
		return a
	}
	return t
}

func (r *Registry) Resolve(appointmentType, label string) (Entry, bool) {
	e, ok := r.entries[slot{typ: r.canonical(appointmentType), label: fold(label)}]
	return e, ok
}

// Entries returns every slot of appointmentType in registration order.
func (r *Registry) Entries(appointmentType string) []Entry {
	t := r.canonical(appointmentType)
	out := make([]Entry, 0, len(r.labels[t]))
	for _, l := range r.labels[t] {
		out = append(out, r.entries[slot{typ: t, label: fold(l)}])
	}
	return out
}

// Required returns the labels that must be filled before submission.
func (r *Registry) Required(appointmentType string) []string {
	var out []string
	for _, e := range r.Entries(appointmentType) {
		if !e.Optional {
			out = append(out, e.Label)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeLabel turns "Baptismal Certificate" into "baptismal_certificate".
func NormalizeLabel(label string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(label), "_"), "_")
}

// ObjectKey renders {normalizedLabel}_{unixMillis}.{ext}.
func ObjectKey(label string, ts time.Time, ext string) string {
	key := NormalizeLabel(label) + "_" + strconv.FormatInt(ts.UnixMilli(), 10)
	if ext = strings.TrimPrefix(strings.ToLower(ext), "."); ext != "" {
		key += "." + ext
	}
	return key
}
