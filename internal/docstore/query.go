package docstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Op is a filter operator.
type Op string

const (
	Eq            Op = "=="
	Lt            Op = "<"
	Lte           Op = "<="
	Gt            Op = ">"
	Gte           Op = ">="
	In            Op = "in"
	ArrayContains Op = "array-contains"
)

// DocumentID addresses the document id instead of a body field.
const DocumentID = "__id__"

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var fieldPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Filter is one predicate of a query.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents of a collection. Results are ordered by OrderBy
// (when set) and then by insertion order.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where returns a copy of q with one more filter.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Order returns a copy of q ordered by field.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

// Take returns a copy of q limited to n results.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Where starts a query with a single filter.
func Where(field string, op Op, value any) Query {
	return Query{}.Where(field, op, value)
}

func column(field string) (string, []any, error) {
	if field == DocumentID {
		return "id", nil, nil
	}
	if !fieldPath.MatchString(field) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return "json_extract(data, ?)", []any{"$." + field}, nil
}

// build renders q as SQL against the documents table.
func (q Query) build(collection string) (string, []any, error) {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString("SELECT seq, id, data, version, created_at, updated_at FROM documents WHERE collection = ?")

	for _, f := range q.Filters {
		col, colArgs, err := column(f.Field)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case Eq:
			if f.Value == nil {
				sb.WriteString(" AND " + col + " IS NULL")
				args = append(args, colArgs...)
				continue
			}
			sb.WriteString(" AND " + col + " = ?")
			args = append(append(args, colArgs...), bindValue(f.Value))
		case Lt, Lte, Gt, Gte:
			sb.WriteString(" AND " + col + " " + string(f.Op) + " ?")
			args = append(append(args, colArgs...), bindValue(f.Value))
		case In:
			values, err := listValues(f.Value)
			if err != nil {
				return "", nil, err
			}
			if len(values) == 0 {
				sb.WriteString(" AND 0")
				continue
			}
			sb.WriteString(" AND " + col + " IN (" + strings.TrimSuffix(strings.Repeat("?,", len(values)), ",") + ")")
			args = append(args, colArgs...)
			args = append(args, values...)
		case ArrayContains:
			if f.Field == DocumentID {
				return "", nil, fmt.Errorf("array-contains on document id")
			}
			sb.WriteString(" AND EXISTS (SELECT 1 FROM json_each(documents.data, ?) WHERE json_each.value = ?)")
			args = append(args, "$."+f.Field, bindValue(f.Value))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}

	sb.WriteString(" ORDER BY ")
	if q.OrderBy != "" {
		col, colArgs, err := column(q.OrderBy)
		if err != nil {
			return "", nil, err
		}
		dir := " ASC"
		if q.Desc {
			dir = " DESC"
		}
		sb.WriteString(col + dir + ", seq" + dir)
		args = append(args, colArgs...)
	} else {
		sb.WriteString("seq ASC")
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sb.String(), args, nil
}

func bindValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}

func listValues(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = bindValue(el)
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = el
		}
		return out, nil
	case []int:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = el
		}
		return out, nil
	default:
		return nil, fmt.Errorf("in filter needs a slice, got %T", v)
	}
}
