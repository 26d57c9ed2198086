package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/parishkeeper/internal/common"
)

// restClient carries what every REST call needs: the project URL, the anon
// key sent as apikey, and the HTTP client whose timeout bounds each request.
type restClient struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func newRESTClient(baseURL, anonKey string, hc *http.Client) *restClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &restClient{baseURL: strings.TrimRight(baseURL, "/"), anonKey: anonKey, http: hc}
}

type request struct {
	method  string
	path    string
	query   url.Values
	token   string
	headers map[string]string
	body    any
}

// do sends r and decodes a JSON answer into out (when out is non-nil).
func (c *restClient) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set(common.APIKeyHeaderName, c.anonKey)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := r.token
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
