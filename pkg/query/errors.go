package query

import "fmt"

// ValidationError reports a structurally well-formed query whose filter
// value does not match its operator's required shape (spec §4.6: "the
// compiler rejects any filter whose value type does not match its
// operator") (spec §7 "Validation" kind, 400 to client). Table names are
// not checked here; a query on an unknown table fails with the database's
// error from Execute instead.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query: validation error: %s", e.Reason)
}
