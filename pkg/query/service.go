package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/committer"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
)

// Service executes structured Queries against the committer's relational
// store. There is no teacher or pack equivalent for a generic query
// layer (the teacher only exposes fixed Get/List methods per resource
// type); this is built directly against database/sql, the same way
// pkg/committer is, rather than adopting a query-builder library, for
// the same literal-SQL-fidelity reason pkg/schema/compile.go gives.
type Service struct {
	store *committer.Store
}

// NewService builds a Service over store.
func NewService(store *committer.Store) *Service {
	return &Service{store: store}
}

// Execute compiles q into SQL and runs it (spec §4.6 contract).
func (s *Service) Execute(ctx context.Context, q Query) (*Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, q.Table)

	where, args, err := CompileWhere(q.Filters)
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	tableName := "store_" + q.Table
	selectSQL := "SELECT * FROM " + tableName
	if where != "" {
		selectSQL += " WHERE " + where
	}
	if orderBy := CompileOrderBy(q.Sort); orderBy != "" {
		selectSQL += " ORDER BY " + orderBy
	}

	limit, offset, paginated := ResolvePagination(q.Pagination)
	if paginated {
		selectSQL += " LIMIT ? OFFSET ?"
	}

	selectArgs := args
	if paginated {
		selectArgs = append(append([]interface{}{}, args...), limit, offset)
	}

	rows, err := s.store.DB().QueryContext(ctx, selectSQL, selectArgs...)
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("exec").Inc()
		return nil, fmt.Errorf("query: select %s: %w", q.Table, err)
	}
	defer rows.Close()

	resultRows, err := scanRows(rows)
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("query: scan %s: %w", q.Table, err)
	}

	result := &Result{Rows: resultRows}

	if paginated {
		pageInfo, err := s.countPage(ctx, tableName, where, args, limit, len(resultRows), offset)
		if err != nil {
			metrics.QueryErrorsTotal.WithLabelValues("count").Inc()
			return nil, err
		}
		result.Pagination = pageInfo
	}

	return result, nil
}

func (s *Service) countPage(ctx context.Context, tableName, where string, args []interface{}, limit, returned, offset int) (*PageInfo, error) {
	countSQL := "SELECT COUNT(*) FROM " + tableName
	if where != "" {
		countSQL += " WHERE " + where
	}
	var total int
	if err := s.store.DB().QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("query: count: %w", err)
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	hasNext := offset+returned < total

	return &PageInfo{TotalRows: total, TotalPages: totalPages, HasNextPage: hasNext}, nil
}

// scanRows decodes every row of rs into a Row keyed by column name,
// without assuming a fixed schema (the query layer is table-agnostic).
func scanRows(rs *sql.Rows) ([]Row, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rs.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rs.Err()
}
