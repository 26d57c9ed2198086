package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var imageMimeTypes = []string{"image/jpeg", "image/png"}

// PromptPicker asks for a path on the terminal. An empty answer cancels.
type PromptPicker struct {
	ask func(prompt string) (string, error)
}

func NewPromptPicker(ask func(prompt string) (string, error)) *PromptPicker {
	return &PromptPicker{ask: ask}
}

func (p *PromptPicker) PickImage(ctx context.Context) (Selection, error) {
	return p.pick(ctx, "Path to an image ("+strings.Join(imageMimeTypes, ", ")+"), empty to cancel")
}

func (p *PromptPicker) PickDocument(ctx context.Context, allowed []string) (Selection, error) {
	return p.pick(ctx, "Path to a document ("+strings.Join(allowed, ", ")+"), empty to cancel")
}

func (p *PromptPicker) pick(ctx context.Context, prompt string) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}

	raw, err := p.ask(prompt)
	if err != nil {
		return Selection{}, err
	}
	path := strings.Trim(strings.TrimSpace(raw), `"'`)
	if path == "" {
		return Selection{}, ErrCancelled
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Selection{}, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return Selection{}, fmt.Errorf("cannot use %s: %w", path, err)
	}
	if st.IsDir() {
		return Selection{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return Selection{}, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return Selection{URI: FileURI(abs), Name: filepath.Base(abs), MimeType: mt.String()}, nil
}
