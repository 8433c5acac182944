package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// CompileWhere renders filters into a parameterized SQL WHERE clause
// (empty string if filters is empty) plus its bound arguments, in filter
// order. Every value is parameterized, never interpolated (spec §4.6
// "All user strings are parameterized or escape-quoted").
func CompileWhere(filters []Filter) (clause string, args []interface{}, err error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	var parts []string
	for _, f := range filters {
		part, fargs, ferr := compileFilter(f)
		if ferr != nil {
			return "", nil, ferr
		}
		parts = append(parts, part)
		args = append(args, fargs...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func compileFilter(f Filter) (string, []interface{}, error) {
	switch f.Op {
	case OpEq:
		return fmt.Sprintf("%s = ?", f.Field), []interface{}{f.Value}, nil
	case OpNe:
		return fmt.Sprintf("%s != ?", f.Field), []interface{}{f.Value}, nil
	case OpGt:
		return fmt.Sprintf("%s > ?", f.Field), []interface{}{f.Value}, nil
	case OpGte:
		return fmt.Sprintf("%s >= ?", f.Field), []interface{}{f.Value}, nil
	case OpLt:
		return fmt.Sprintf("%s < ?", f.Field), []interface{}{f.Value}, nil
	case OpLte:
		return fmt.Sprintf("%s <= ?", f.Field), []interface{}{f.Value}, nil
	case OpLike:
		return fmt.Sprintf("%s LIKE ?", f.Field), []interface{}{f.Value}, nil
	case OpNotLike:
		return fmt.Sprintf("%s NOT LIKE ?", f.Field), []interface{}{f.Value}, nil
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", f.Field), nil, nil
	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", f.Field), nil, nil
	case OpIn, OpNotIn:
		list, err := asList(f.Value)
		if err != nil {
			return "", nil, &ValidationError{Reason: fmt.Sprintf("field %q: %s requires a list value: %s", f.Field, f.Op, err)}
		}
		if len(list) == 0 {
			return "", nil, &ValidationError{Reason: fmt.Sprintf("field %q: %s requires a non-empty list", f.Field, f.Op)}
		}
		placeholders := make([]string, len(list))
		for i := range list {
			placeholders[i] = "?"
		}
		kw := "IN"
		if f.Op == OpNotIn {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", f.Field, kw, strings.Join(placeholders, ",")), list, nil
	case OpBetween, OpNotBetween:
		list, err := asList(f.Value)
		if err != nil || len(list) != 2 {
			return "", nil, &ValidationError{Reason: fmt.Sprintf("field %q: %s requires a 2-element list value", f.Field, f.Op)}
		}
		kw := "BETWEEN"
		if f.Op == OpNotBetween {
			kw = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s ? AND ?", f.Field, kw), list, nil
	default:
		return "", nil, &ValidationError{Reason: fmt.Sprintf("field %q: unknown operator %q", f.Field, f.Op)}
	}
}

// asList normalizes a filter value expected to be a list ([]interface{}
// or any other slice type) into []interface{}, or reports that it is not
// a list at all.
func asList(v interface{}) ([]interface{}, error) {
	if v == nil {
		return nil, fmt.Errorf("value is nil, expected a list")
	}
	if list, ok := v.([]interface{}); ok {
		return list, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("value is %T, expected a list", v)
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// CompileOrderBy renders sorts into an ORDER BY clause (empty string if
// sorts is empty), ordered by explicit Priority, ties broken by input
// order (spec §4.6).
func CompileOrderBy(sorts []Sort) string {
	if len(sorts) == 0 {
		return ""
	}
	ordered := make([]Sort, len(sorts))
	copy(ordered, sorts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	parts := make([]string, len(ordered))
	for i, s := range ordered {
		dir := "ASC"
		if s.Direction == Desc {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", s.Field, dir)
	}
	return strings.Join(parts, ", ")
}

// ResolvePagination turns a Pagination into a concrete (limit, offset)
// pair; ok is false if p is nil (no pagination requested).
func ResolvePagination(p *Pagination) (limit, offset int, ok bool) {
	if p == nil {
		return 0, 0, false
	}
	if p.UsePageStyle {
		page := p.Page
		if page < 1 {
			page = 1
		}
		return p.PageSize, (page - 1) * p.PageSize, true
	}
	return p.Limit, p.Offset, true
}
