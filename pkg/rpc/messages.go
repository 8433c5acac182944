// Package rpc implements the RPC surface (spec §4.6/§4.5/§6: "RPC
// surface (binary, HTTP/2): QueryTable(QueryRequest) -> QueryResponse" and
// "SubscribeTable(SubscribeRequest) -> stream ChangeRecord"). Grounded on
// cuemby-warren/pkg/api/server.go's shape (a struct embedding the
// generated *Server, wired into a *grpc.Server) and
// cuemby-warren/pkg/client/client.go's typed-wrapper shape for the
// equivalent client side. The pack's retrieval filtered out generated
// .pb.go stubs, and this exercise does not run protoc, so the wire
// messages below are plain Go structs carried over google.golang.org/grpc
// using a hand-registered encoding.Codec (messages.go/codec.go) instead of
// codegen'd protobuf types — google.golang.org/grpc and
// google.golang.org/protobuf (both teacher dependencies) remain the real
// transport.
package rpc

import "github.com/0xobelisk/dubhe-indexer-go/pkg/query"

// FilterMsg mirrors query.Filter on the wire.
type FilterMsg struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

// SortMsg mirrors query.Sort on the wire.
type SortMsg struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
	Priority  int    `json:"priority"`
}

// PaginationMsg mirrors query.Pagination on the wire.
type PaginationMsg struct {
	UsePageStyle bool `json:"use_page_style"`
	Page         int  `json:"page,omitempty"`
	PageSize     int  `json:"page_size,omitempty"`
	Offset       int  `json:"offset,omitempty"`
	Limit        int  `json:"limit,omitempty"`
}

// QueryRequest is the wire request for the QueryTable RPC (spec §4.6).
type QueryRequest struct {
	Table      string         `json:"table"`
	Filters    []FilterMsg    `json:"filters,omitempty"`
	Sort       []SortMsg      `json:"sort,omitempty"`
	Pagination *PaginationMsg `json:"pagination,omitempty"`
}

// PageInfoMsg mirrors query.PageInfo on the wire.
type PageInfoMsg struct {
	TotalRows   int  `json:"total_rows"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
}

// QueryResponse is the wire response for the QueryTable RPC.
type QueryResponse struct {
	Rows       []map[string]interface{} `json:"rows"`
	Pagination *PageInfoMsg             `json:"pagination,omitempty"`
}

// SubscribeRequest is the wire request for the SubscribeTable RPC (spec
// §4.5: "subscribe(table_names | ∅) -> Stream<ChangeRecord> where ∅ means
// all tables").
type SubscribeRequest struct {
	TableIds []string `json:"table_ids,omitempty"`
}

// ChangeRecordMsg mirrors hub.ChangeRecord on the wire.
type ChangeRecordMsg struct {
	TableName   string                 `json:"table_name"`
	Payload     map[string]interface{} `json:"payload"`
	Op          string                 `json:"op"`
	Digest      string                 `json:"digest"`
	TimestampMs uint64                 `json:"timestamp_ms"`
}

// toQuery converts the wire QueryRequest into a query.Query.
func (m *QueryRequest) toQuery() query.Query {
	q := query.Query{Table: m.Table}
	for _, f := range m.Filters {
		q.Filters = append(q.Filters, query.Filter{
			Field: f.Field,
			Op:    query.Operator(f.Op),
			Value: f.Value,
		})
	}
	for _, s := range m.Sort {
		q.Sort = append(q.Sort, query.Sort{
			Field:     s.Field,
			Direction: query.SortDirection(s.Direction),
			Priority:  s.Priority,
		})
	}
	if m.Pagination != nil {
		q.Pagination = &query.Pagination{
			UsePageStyle: m.Pagination.UsePageStyle,
			Page:         m.Pagination.Page,
			PageSize:     m.Pagination.PageSize,
			Offset:       m.Pagination.Offset,
			Limit:        m.Pagination.Limit,
		}
	}
	return q
}

func fromResult(r *query.Result) *QueryResponse {
	resp := &QueryResponse{Rows: make([]map[string]interface{}, 0, len(r.Rows))}
	for _, row := range r.Rows {
		resp.Rows = append(resp.Rows, map[string]interface{}(row))
	}
	if r.Pagination != nil {
		resp.Pagination = &PageInfoMsg{
			TotalRows:   r.Pagination.TotalRows,
			TotalPages:  r.Pagination.TotalPages,
			HasNextPage: r.Pagination.HasNextPage,
		}
	}
	return resp
}
