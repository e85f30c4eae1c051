package repository

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lib/pq"
)

// Predicate is a filter over a whitelisted set of columns. Predicates are
// compiled to parameterized SQL; values never reach the query text.
type Predicate interface {
	compile(b *queryBuilder) (string, error)
}

type eqPred struct {
	col string
	val any
}

type inPred struct {
	col    string
	values any
}

type notPred struct {
	p Predicate
}

type boolPred struct {
	op    string
	preds []Predicate
}

// Eq matches rows where col equals value
func Eq(col string, value any) Predicate { return eqPred{col: col, val: value} }

// In matches rows where col is any element of values, which must be a
// slice supported by pq.Array.
func In(col string, values any) Predicate { return inPred{col: col, values: values} }

// Not negates p
func Not(p Predicate) Predicate { return notPred{p: p} }

// And matches rows satisfying every predicate; an empty And matches all
func And(preds ...Predicate) Predicate { return boolPred{op: "AND", preds: preds} }

// Or matches rows satisfying any predicate; an empty Or matches none
func Or(preds ...Predicate) Predicate { return boolPred{op: "OR", preds: preds} }

// ListOptions controls paging and ordering of Find queries
type ListOptions struct {
	Limit  int
	Offset int
	Sort   string // column name, optionally prefixed with '-' for descending
}

// MaxListLimit caps a single page
const MaxListLimit = 100

type queryBuilder struct {
	columns map[string]bool
	args    []any
}

func (b *queryBuilder) column(col string) (string, error) {
	if !b.columns[col] {
		return "", fmt.Errorf("%w: unknown column %q", ErrInvalidQuery, col)
	}
	return col, nil
}

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (p eqPred) compile(b *queryBuilder) (string, error) {
	col, err := b.column(p.col)
	if err != nil {
		return "", err
	}
	if p.val == nil {
		return col + " IS NULL", nil
	}
	return col + " = " + b.bind(p.val), nil
}

func (p inPred) compile(b *queryBuilder) (string, error) {
	col, err := b.column(p.col)
	if err != nil {
		return "", err
	}
	return col + " = ANY(" + b.bind(pq.Array(p.values)) + ")", nil
}

func (p notPred) compile(b *queryBuilder) (string, error) {
	inner, err := p.p.compile(b)
	if err != nil {
		return "", err
	}
	return "NOT (" + inner + ")", nil
}

func (p boolPred) compile(b *queryBuilder) (string, error) {
	if len(p.preds) == 0 {
		if p.op == "AND" {
			return "TRUE", nil
		}
		return "FALSE", nil
	}
	parts := make([]string, 0, len(p.preds))
	for _, sub := range p.preds {
		s, err := sub.compile(b)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+s+")")
	}
	return strings.Join(parts, " "+p.op+" "), nil
}

// buildWhere compiles p into a WHERE clause body and its arguments.
// A nil predicate matches every row.
func buildWhere(p Predicate, columns map[string]bool) (string, []any, error) {
	b := &queryBuilder{columns: columns}
	if p == nil {
		return "TRUE", nil, nil
	}
	where, err := p.compile(b)
	if err != nil {
		return "", nil, err
	}
	return where, b.args, nil
}

// buildSuffix renders ORDER BY / LIMIT / OFFSET for opts, binding values
// after the existing args.
func buildSuffix(opts ListOptions, columns map[string]bool, defaultSort string, args []any) (string, []any, error) {
	sort := opts.Sort
	if sort == "" {
		sort = defaultSort
	}
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	if !columns[sort] {
		return "", nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, sort)
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	suffix := fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d", sort, dir, dir, len(args)-1, len(args))
	return suffix, args, nil
}

// Matches evaluates p against a row given as column values. It mirrors
// the SQL semantics for in-memory stores; values compare by their string
// form so typed string constants match plain strings.
func Matches(p Predicate, row map[string]any) bool {
	switch p := p.(type) {
	case nil:
		return true
	case eqPred:
		v, ok := row[p.col]
		if p.val == nil {
			return !ok || v == nil
		}
		return ok && sameValue(v, p.val)
	case inPred:
		v, ok := row[p.col]
		if !ok {
			return false
		}
		rv := reflect.ValueOf(p.values)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if sameValue(v, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	case notPred:
		return !Matches(p.p, row)
	case boolPred:
		if p.op == "AND" {
			for _, sub := range p.preds {
				if !Matches(sub, row) {
					return false
				}
			}
			return true
		}
		for _, sub := range p.preds {
			if Matches(sub, row) {
				return true
			}
		}
		return false
	}
	return false
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
