// Package query implements the Query Service (spec §4.6): compiling a
// structured filter/sort/pagination request over one table into SQL and
// returning its rows, with an optional second COUNT(*) pass for
// pagination metadata.
package query

// Operator is the closed set of filter operators spec §4.6 accepts.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpLike       Operator = "like"
	OpNotLike    Operator = "not_like"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpIsNull     Operator = "is_null"
	OpIsNotNull  Operator = "is_not_null"
	OpBetween    Operator = "between"
	OpNotBetween Operator = "not_between"
)

// Filter is one WHERE predicate on a single field. Value's required
// shape depends on Op: a scalar for eq/ne/gt/gte/lt/lte/like/not_like, a
// non-empty slice for in/not_in, a 2-element slice for between/
// not_between, and nothing at all for is_null/is_not_null.
type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

// SortDirection is asc or desc.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Sort is one ORDER BY term. Priority establishes explicit precedence
// among multiple Sort terms (lower Priority sorts first); terms with
// equal Priority keep the order they were given in (spec §4.6 "ties
// broken by input order").
type Sort struct {
	Field     string
	Direction SortDirection
	Priority  int
}

// Pagination selects one of the two accepted pagination styles (spec
// §4.6): a 1-based (Page, PageSize) pair, or an explicit (Offset, Limit)
// pair. Exactly one style is read, chosen by UsePageStyle.
type Pagination struct {
	UsePageStyle bool
	Page         int
	PageSize     int
	Offset       int
	Limit        int
}

// Query is a fully structured request over one table.
type Query struct {
	Table      string
	Filters    []Filter
	Sort       []Sort
	Pagination *Pagination
}

// Row is one result row, column name to decoded Go value.
type Row map[string]interface{}

// PageInfo is returned only when Query.Pagination is set (spec §4.6:
// "when pagination is requested the service performs a second COUNT(*)
// ... and returns total pages / next-page flag").
type PageInfo struct {
	TotalRows   int
	TotalPages  int
	HasNextPage bool
}

// Result is the Query Service's response: { rows, pagination? }.
type Result struct {
	Rows       []Row
	Pagination *PageInfo
}
