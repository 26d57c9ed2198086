package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/parishkeeper/internal/dbx"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres opens a pgx-backed *sql.DB for a self-hosted deployment
// where the client is allowed to reach Postgres directly.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresTables implements Tables with plain SQL. Identifiers are quoted
// with pgx, values always travel as bind parameters.
type PostgresTables struct {
	db dbx.DBTX
}

func NewPostgresTables(db dbx.DBTX) *PostgresTables {
	return &PostgresTables{db: db}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

type sqlBuilder struct {
	sb   strings.Builder
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) where(filters []Filter) {
	for i, f := range filters {
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		b.sb.WriteString(ident(f.Column))
		switch f.Op {
		case OpIn:
			params := make([]string, len(f.Values))
			for j, v := range f.Values {
				params[j] = b.arg(v)
			}
			b.sb.WriteString(" IN (" + strings.Join(params, ", ") + ")")
		case OpNeq:
			b.sb.WriteString(" <> " + b.arg(f.Values[0]))
		default:
			b.sb.WriteString(" = " + b.arg(f.Values[0]))
		}
	}
}

func selectSQL(q *Query) (string, []any) {
	b := &sqlBuilder{}
	b.sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.sb.WriteString("*")
	} else {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = ident(c)
		}
		b.sb.WriteString(strings.Join(cols, ", "))
	}
	b.sb.WriteString(" FROM " + ident(q.Table))
	b.where(q.Filters)
	if q.OrderBy != "" {
		b.sb.WriteString(" ORDER BY " + ident(q.OrderBy))
		if q.Desc {
			b.sb.WriteString(" DESC")
		}
	}
	if q.Max > 0 {
		b.sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Max))
	}
	return b.sb.String(), b.args
}

func insertSQL(table string, row Row) (string, []any) {
	b := &sqlBuilder{}
	keys := row.sortedKeys()
	cols := make([]string, len(keys))
	params := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = ident(k)
		params[i] = b.arg(row[k])
	}
	b.sb.WriteString("INSERT INTO " + ident(table) + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(params, ", ") + ") RETURNING *")
	return b.sb.String(), b.args
}

func updateSQL(q *Query, patch Row) (string, []any) {
	b := &sqlBuilder{}
	keys := patch.sortedKeys()
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = ident(k) + " = " + b.arg(patch[k])
	}
	b.sb.WriteString("UPDATE " + ident(q.Table) + " SET " + strings.Join(sets, ", "))
	b.where(q.Filters)
	b.sb.WriteString(" RETURNING *")
	return b.sb.String(), b.args
}

func (t *PostgresTables) Select(ctx context.Context, q *Query) ([]Row, error) {
	query, args := selectSQL(q)
	rows, err := t.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	return rows, nil
}

func (t *PostgresTables) Insert(ctx context.Context, table string, row Row) (Row, error) {
	query, args := insertSQL(table, row)
	rows, err := t.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if len(rows) == 0 {
		return Row{}, nil
	}
	return rows[0], nil
}

func (t *PostgresTables) Update(ctx context.Context, q *Query, patch Row) ([]Row, error) {
	if len(q.Filters) == 0 {
		return nil, fmt.Errorf("update %s without filters refused", q.Table)
	}
	query, args := updateSQL(q, patch)
	rows, err := t.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", q.Table, err)
	}
	return rows, nil
}

func (t *PostgresTables) query(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
