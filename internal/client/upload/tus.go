package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

const tusVersion = "1.0.0"

// TUSTransport speaks tus 1.0.0 (creation + core) to the storage API.
type TUSTransport struct {
	http    *http.Client
	anonKey string
}

// NewTUSTransport uses hc for every request; its Timeout bounds each chunk.
func NewTUSTransport(hc *http.Client, anonKey string) *TUSTransport {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &TUSTransport{http: hc, anonKey: anonKey}
}

func encodeMetadata(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		parts = append(parts, pairs[i]+" "+base64.StdEncoding.EncodeToString([]byte(pairs[i+1])))
	}
	return strings.Join(parts, ",")
}

func (t *TUSTransport) newRequest(ctx context.Context, method, target, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Tus-Resumable", tusVersion)
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	if t.anonKey != "" {
		req.Header.Set(common.APIKeyHeaderName, t.anonKey)
	}
	return req, nil
}

func (t *TUSTransport) Create(ctx context.Context, r CreateRequest) (string, error) {
	req, err := t.newRequest(ctx, http.MethodPost, r.Endpoint, r.Token, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Upload-Length", strconv.FormatInt(r.Size, 10))
	req.Header.Set("Upload-Metadata", encodeMetadata(
		"bucketName", r.Bucket,
		"objectName", r.ObjectKey,
		"contentType", r.ContentType,
		"cacheControl", r.CacheControl,
	))
	req.Header.Set("x-upsert", strconv.FormatBool(r.Upsert))

	resp, err := t.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", statusError(resp)
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("tus create: response without Location")
	}
	base, err := url.Parse(r.Endpoint)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("tus create: bad Location %q: %w", loc, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (t *TUSTransport) Offset(ctx context.Context, location, token string) (int64, error) {
	req, err := t.newRequest(ctx, http.MethodHead, location, token, nil)
	if err != nil {
		return 0, err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return 0, statusError(resp)
	}
	return parseOffset(resp)
}

func (t *TUSTransport) Patch(ctx context.Context, location, token string, offset int64, chunk []byte) (int64, error) {
	req, err := t.newRequest(ctx, http.MethodPatch, location, token, bytes.NewReader(chunk))
	if err != nil {
		return 0, err
	}
	req.ContentLength = int64(len(chunk))
	req.Header.Set("Content-Type", "application/offset+octet-stream")
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))

	resp, err := t.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}
	return parseOffset(resp)
}

// Finish is a no-op: a tus upload completes when its offset reaches the
// declared length.
func (t *TUSTransport) Finish(context.Context, string, string, int64) error {
	return nil
}

func parseOffset(resp *http.Response) (int64, error) {
	raw := resp.Header.Get("Upload-Offset")
	off, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || off < 0 {
		return 0, fmt.Errorf("tus: bad Upload-Offset %q", raw)
	}
	return off, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
