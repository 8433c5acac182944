package schema

import (
	"fmt"
	"strings"
)

// DDL renders the CREATE TABLE statement for table, per its storage
// shape (spec §3; supplemented feature, grounded on original_source's
// create_tables_sql): keyed tables get a composite PRIMARY KEY on their
// key fields, singleton resources get a synthetic unique_resource_id
// CHECKed to 1, offchain tables get neither. Every shape carries the
// same four system columns.
func (t *Table) DDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS store_%s (", t.Name)

	var cols []string
	if t.Shape() == ShapeSingleton {
		cols = append(cols, "unique_resource_id INTEGER PRIMARY KEY CHECK (unique_resource_id = 1)")
	}
	for _, f := range t.AllFields() {
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, f.DBType))
	}
	cols = append(cols,
		"created_at_timestamp_ms BIGINT DEFAULT 0",
		"updated_at_timestamp_ms BIGINT DEFAULT 0",
		"last_update_digest VARCHAR(255) DEFAULT ''",
		"is_deleted BOOLEAN DEFAULT FALSE",
	)

	if t.Shape() == ShapeKeyed {
		names := make([]string, len(t.Keys))
		for i, f := range t.Keys {
			names[i] = f.Name
		}
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(names, ",")))
	}

	b.WriteString(strings.Join(cols, ","))
	b.WriteString(");")
	return b.String()
}

// DDL renders CREATE TABLE statements for every table in the schema, in
// map-iteration order; neither the migrate nor the serve subcommand sorts
// them before applying them.
func (s *Schema) DDL() []string {
	out := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		out = append(out, t.DDL())
	}
	return out
}
