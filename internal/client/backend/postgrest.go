package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// RESTTables reads and writes tables through PostgREST at /rest/v1. Calls
// carry the signed-in user's token so row level security applies; with
// nobody signed in the anon key is used.
type RESTTables struct {
	rest   *restClient
	tokens TokenSource
}

func NewRESTTables(opts Options, tokens TokenSource) *RESTTables {
	return &RESTTables{rest: newRESTClient(opts.URL, opts.AnonKey, opts.HTTPClient), tokens: tokens}
}

func (t *RESTTables) token(ctx context.Context) (string, error) {
	if t.tokens == nil {
		return "", nil
	}
	token, err := t.tokens.AccessToken(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	return token, err
}

func (t *RESTTables) Select(ctx context.Context, q *Query) ([]Row, error) {
	token, err := t.token(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = t.rest.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + q.Table,
		query:  q.restValues(true),
		token:  token,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	return rows, nil
}

func (t *RESTTables) Insert(ctx context.Context, table string, row Row) (Row, error) {
	token, err := t.token(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = t.rest.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + table,
		token:   token,
		headers: map[string]string{"Prefer": "return=representation"},
		body:    row,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if len(rows) == 0 {
		return Row{}, nil
	}
	return rows[0], nil
}

func (t *RESTTables) Update(ctx context.Context, q *Query, patch Row) ([]Row, error) {
	if len(q.Filters) == 0 {
		return nil, fmt.Errorf("update %s without filters refused", q.Table)
	}
	token, err := t.token(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = t.rest.do(ctx, request{
		method:  http.MethodPatch,
		path:    "/rest/v1/" + q.Table,
		query:   q.restValues(false),
		token:   token,
		headers: map[string]string{"Prefer": "return=representation"},
		body:    patch,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", q.Table, err)
	}
	return rows, nil
}
