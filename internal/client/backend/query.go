package backend

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Filter operators understood by both table implementations.
const (
	OpEq  = "eq"
	OpNeq = "neq"
	OpIn  = "in"
)

type Filter struct {
	Column string
	Op     string
	Values []any
}

// Query is a single-table read or write selector.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	OrderBy string
	Desc    bool
	Max     int
}

func From(table string) *Query {
	return &Query{Table: table}
}

func (q *Query) Select(columns ...string) *Query {
	q.Columns = append(q.Columns, columns...)
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpEq, Values: []any{value}})
	return q
}

func (q *Query) Neq(column string, value any) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpNeq, Values: []any{value}})
	return q
}

func (q *Query) In(column string, values ...any) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpIn, Values: values})
	return q
}

func (q *Query) Order(column string, desc bool) *Query {
	q.OrderBy = column
	q.Desc = desc
	return q
}

func (q *Query) Limit(n int) *Query {
	q.Max = n
	return q
}

// restValues renders q as PostgREST query parameters.
func (q *Query) restValues(withSelect bool) url.Values {
	v := url.Values{}
	if withSelect {
		if len(q.Columns) == 0 {
			v.Set("select", "*")
		} else {
			v.Set("select", strings.Join(q.Columns, ","))
		}
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpIn:
			parts := make([]string, len(f.Values))
			for i, val := range f.Values {
				parts[i] = restLiteral(val)
			}
			v.Add(f.Column, "in.("+strings.Join(parts, ",")+")")
		default:
			var val any
			if len(f.Values) > 0 {
				val = f.Values[0]
			}
			v.Add(f.Column, f.Op+"."+restLiteral(val))
		}
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		v.Set("order", q.OrderBy+"."+dir)
	}
	if q.Max > 0 {
		v.Set("limit", strconv.Itoa(q.Max))
	}
	return v
}

func restLiteral(v any) string {
	if v == nil {
		return "null"
	}
	s := fmt.Sprint(v)
	if strings.ContainsAny(s, ",()\"") {
		return strconv.Quote(s)
	}
	return s
}

// Row is one table row keyed by column name. Values come back as whatever
// the implementation decoded: json.Number and string over REST, driver
// types over Postgres. Use the typed getters instead of asserting.
type Row map[string]any

func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (r Row) Bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case json.Number:
		return v.String() != "0"
	case int64:
		return v != 0
	default:
		return false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the zero time when the column is empty or unparseable.
func (r Row) Time(column string) time.Time {
	switch v := r[column].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// sortedKeys gives a stable column order for generated statements.
func (r Row) sortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
