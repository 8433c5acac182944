package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/committer"
)

func newTestStore(t *testing.T) *committer.Store {
	t.Helper()
	s, err := committer.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	err = s.Migrate(context.Background(), []string{
		"CREATE TABLE IF NOT EXISTS store_counter3 (entity_id TEXT, hp BIGINT, PRIMARY KEY (entity_id));",
	})
	require.NoError(t, err)

	rows := []string{"0xa", "0xb", "0xc", "0xd"}
	hps := []int{10, 20, 30, 40}
	for i, id := range rows {
		_, err := s.DB().Exec("INSERT INTO store_counter3 (entity_id, hp) VALUES (?, ?)", id, hps[i])
		require.NoError(t, err)
	}
	return s
}

func TestExecute_EqFilter(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	res, err := svc.Execute(context.Background(), Query{
		Table:   "counter3",
		Filters: []Filter{{Field: "entity_id", Op: OpEq, Value: "0xb"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int64(20), res.Rows[0]["hp"])
	require.Nil(t, res.Pagination)
}

func TestExecute_InFilter(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	res, err := svc.Execute(context.Background(), Query{
		Table:   "counter3",
		Filters: []Filter{{Field: "entity_id", Op: OpIn, Value: []interface{}{"0xa", "0xc"}}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}

func TestExecute_InFilterRejectsScalarValue(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	_, err := svc.Execute(context.Background(), Query{
		Table:   "counter3",
		Filters: []Filter{{Field: "entity_id", Op: OpIn, Value: "0xa"}},
	})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestExecute_SortDescByPriority(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	res, err := svc.Execute(context.Background(), Query{
		Table: "counter3",
		Sort:  []Sort{{Field: "hp", Direction: Desc, Priority: 0}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
	require.Equal(t, int64(40), res.Rows[0]["hp"])
	require.Equal(t, int64(10), res.Rows[3]["hp"])
}

func TestExecute_PageStylePaginationReturnsPageInfo(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	res, err := svc.Execute(context.Background(), Query{
		Table: "counter3",
		Sort:  []Sort{{Field: "entity_id", Direction: Asc, Priority: 0}},
		Pagination: &Pagination{
			UsePageStyle: true,
			Page:         1,
			PageSize:     2,
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.NotNil(t, res.Pagination)
	require.Equal(t, 4, res.Pagination.TotalRows)
	require.Equal(t, 2, res.Pagination.TotalPages)
	require.True(t, res.Pagination.HasNextPage)
}

func TestExecute_OffsetLimitPagination_LastPageHasNoNext(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	res, err := svc.Execute(context.Background(), Query{
		Table: "counter3",
		Sort:  []Sort{{Field: "entity_id", Direction: Asc, Priority: 0}},
		Pagination: &Pagination{
			Offset: 2,
			Limit:  2,
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.False(t, res.Pagination.HasNextPage)
}

func TestExecute_BetweenFilter(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s)

	res, err := svc.Execute(context.Background(), Query{
		Table:   "counter3",
		Filters: []Filter{{Field: "hp", Op: OpBetween, Value: []interface{}{15, 35}}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}
