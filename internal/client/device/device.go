// Package device stands in for the phone's file and image pickers: it lets
// the user choose a local file and opens it as an upload blob.
package device

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/parishkeeper/internal/client/models"
	"github.com/gabriel-vasile/mimetype"
)

var ErrCancelled = errors.New("selection cancelled")

// Selection is a file the user picked.
type Selection struct {
	URI      string
	Name     string
	MimeType string
}

type Picker interface {
	PickImage(ctx context.Context) (Selection, error)
	// PickDocument offers files of the allowed MIME types.
	PickDocument(ctx context.Context, allowed []string) (Selection, error)
}

// FileURI turns a local path into a file:// URI.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func pathFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file:") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("bad file uri %q: %w", uri, err)
	}
	return filepath.FromSlash(u.Path), nil
}

// ReadFileAsBlob opens the file behind uri. The content type is sniffed from
// the file itself. The caller must Close the blob.
func ReadFileAsBlob(_ context.Context, uri string) (*models.Blob, error) {
	path, err := pathFromURI(uri)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return models.NewBlob(filepath.Base(path), mt.String(), st.Size(), st.ModTime(), f), nil
}
