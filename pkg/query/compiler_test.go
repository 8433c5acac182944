package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileWhere_AllOperators(t *testing.T) {
	cases := []struct {
		f        Filter
		wantSQL  string
		wantArgs []interface{}
	}{
		{Filter{Field: "a", Op: OpEq, Value: 1}, "a = ?", []interface{}{1}},
		{Filter{Field: "a", Op: OpNe, Value: 1}, "a != ?", []interface{}{1}},
		{Filter{Field: "a", Op: OpGt, Value: 1}, "a > ?", []interface{}{1}},
		{Filter{Field: "a", Op: OpGte, Value: 1}, "a >= ?", []interface{}{1}},
		{Filter{Field: "a", Op: OpLt, Value: 1}, "a < ?", []interface{}{1}},
		{Filter{Field: "a", Op: OpLte, Value: 1}, "a <= ?", []interface{}{1}},
		{Filter{Field: "a", Op: OpLike, Value: "x%"}, "a LIKE ?", []interface{}{"x%"}},
		{Filter{Field: "a", Op: OpNotLike, Value: "x%"}, "a NOT LIKE ?", []interface{}{"x%"}},
		{Filter{Field: "a", Op: OpIsNull}, "a IS NULL", nil},
		{Filter{Field: "a", Op: OpIsNotNull}, "a IS NOT NULL", nil},
		{Filter{Field: "a", Op: OpIn, Value: []interface{}{1, 2}}, "a IN (?,?)", []interface{}{1, 2}},
		{Filter{Field: "a", Op: OpNotIn, Value: []interface{}{1, 2}}, "a NOT IN (?,?)", []interface{}{1, 2}},
		{Filter{Field: "a", Op: OpBetween, Value: []interface{}{1, 2}}, "a BETWEEN ? AND ?", []interface{}{1, 2}},
		{Filter{Field: "a", Op: OpNotBetween, Value: []interface{}{1, 2}}, "a NOT BETWEEN ? AND ?", []interface{}{1, 2}},
	}
	for _, c := range cases {
		clause, args, err := CompileWhere([]Filter{c.f})
		require.NoError(t, err, c.f.Op)
		require.Equal(t, c.wantSQL, clause, c.f.Op)
		require.Equal(t, c.wantArgs, args, c.f.Op)
	}
}

func TestCompileWhere_RejectsUnknownOperator(t *testing.T) {
	_, _, err := CompileWhere([]Filter{{Field: "a", Op: "bogus", Value: 1}})
	require.Error(t, err)
}

func TestCompileWhere_RejectsEmptyInList(t *testing.T) {
	_, _, err := CompileWhere([]Filter{{Field: "a", Op: OpIn, Value: []interface{}{}}})
	require.Error(t, err)
}

func TestCompileWhere_RejectsWrongLengthBetween(t *testing.T) {
	_, _, err := CompileWhere([]Filter{{Field: "a", Op: OpBetween, Value: []interface{}{1}}})
	require.Error(t, err)
}

func TestCompileWhere_MultipleFiltersJoinedWithAnd(t *testing.T) {
	clause, args, err := CompileWhere([]Filter{
		{Field: "a", Op: OpEq, Value: 1},
		{Field: "b", Op: OpGt, Value: 2},
	})
	require.NoError(t, err)
	require.Equal(t, "a = ? AND b > ?", clause)
	require.Equal(t, []interface{}{1, 2}, args)
}

func TestCompileOrderBy_RespectsPriorityThenInputOrder(t *testing.T) {
	sorts := []Sort{
		{Field: "b", Direction: Asc, Priority: 1},
		{Field: "a", Direction: Desc, Priority: 0},
		{Field: "c", Direction: Asc, Priority: 1},
	}
	got := CompileOrderBy(sorts)
	require.Equal(t, "a DESC, b ASC, c ASC", got)
}

func TestCompileOrderBy_Empty(t *testing.T) {
	require.Equal(t, "", CompileOrderBy(nil))
}

func TestResolvePagination_PageStyle(t *testing.T) {
	limit, offset, ok := ResolvePagination(&Pagination{UsePageStyle: true, Page: 3, PageSize: 10})
	require.True(t, ok)
	require.Equal(t, 10, limit)
	require.Equal(t, 20, offset)
}

func TestResolvePagination_OffsetStyle(t *testing.T) {
	limit, offset, ok := ResolvePagination(&Pagination{Offset: 5, Limit: 15})
	require.True(t, ok)
	require.Equal(t, 15, limit)
	require.Equal(t, 5, offset)
}

func TestResolvePagination_Nil(t *testing.T) {
	_, _, ok := ResolvePagination(nil)
	require.False(t, ok)
}
