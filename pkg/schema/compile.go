package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/storeevents"
)

// ValidationError reports a request that is well-formed JSON/BCS but
// violates a schema-level contract: an unknown table, a key/value tuple
// length mismatch, or similar (spec §7 "Validation" kind).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: validation error: %s", e.Reason)
}

// rejectedError is the sentinel CanCompile returns for an event that is
// recognized-but-not-ours: unknown table, or dapp_key mismatch. It is not
// a fatal error (spec §4.1 can_compile returns "ok | reject(reason)");
// callers check for it with IsRejected and silently drop the event.
type rejectedError struct {
	Reason string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("schema: rejected: %s", e.Reason)
}

// IsRejected reports whether err is a CanCompile rejection (as opposed to
// a fatal ValidationError).
func IsRejected(err error) bool {
	_, ok := err.(*rejectedError)
	return ok
}

// CanCompile returns nil iff tableID is known in the schema and dappKey
// matches this schema's DappKey(), or tableID is the hard-coded
// FeeStateExceptionTable (accepted regardless of origin). Otherwise it
// returns a rejection error (spec §4.1 "can_compile").
func (s *Schema) CanCompile(tableID, dappKey string) error {
	if tableID == FeeStateExceptionTable {
		return nil
	}
	if dappKey != s.dappKey {
		return &rejectedError{Reason: fmt.Sprintf("dapp_key %q does not match origin %q", dappKey, s.dappKey)}
	}
	if _, ok := s.Tables[tableID]; !ok {
		return &rejectedError{Reason: fmt.Sprintf("table %q not declared in schema", tableID)}
	}
	return nil
}

func (s *Schema) table(tableID string) (*Table, error) {
	t, ok := s.Tables[tableID]
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown table %q", tableID)}
	}
	return t, nil
}

// renderField renders one field's SQL literal and payload value,
// resolving enum ordinals against the schema when the field is enum-typed.
func (s *Schema) renderField(f Field, raw []byte) (sqlLiteral string, payload interface{}, err error) {
	if f.IsEnum {
		if len(raw) < 1 {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: "empty enum ordinal"}
		}
		ordinal := raw[0]
		variants := s.Enums[f.EnumName]
		for _, v := range variants {
			if v.Ordinal == ordinal {
				return quoteSQLString(v.Label), v.Label, nil
			}
		}
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: fmt.Sprintf("enum %q: ordinal %d out of range", f.EnumName, ordinal)}
	}
	return RenderValue(f, raw)
}

func checkTupleLengths(table *Table, keyTuple, valueTuple [][]byte) error {
	if len(keyTuple) != len(table.Keys) {
		return &ValidationError{Reason: fmt.Sprintf("table %q: key_tuple length %d does not match %d key fields", table.Name, len(keyTuple), len(table.Keys))}
	}
	if valueTuple != nil && len(valueTuple) != len(table.Values) {
		return &ValidationError{Reason: fmt.Sprintf("table %q: value_tuple length %d does not match %d value fields", table.Name, len(valueTuple), len(table.Values))}
	}
	return nil
}

// CompileSetRecordToSQL renders a StoreSetRecord as an upsert/insert
// statement (spec §4.1 SQL generation rules; §8 S1/S2).
func (s *Schema) CompileSetRecordToSQL(ev storeevents.StoreSetRecord, checkpointTsMs uint64, digest string) (string, error) {
	table, err := s.table(ev.TableID)
	if err != nil {
		return "", err
	}
	if err := checkTupleLengths(table, ev.KeyTuple, ev.ValueTuple); err != nil {
		return "", err
	}

	keyLiterals := make([]string, len(table.Keys))
	for i, f := range table.Keys {
		lit, _, err := s.renderField(f, ev.KeyTuple[i])
		if err != nil {
			return "", err
		}
		keyLiterals[i] = lit
	}
	valLiterals := make([]string, len(table.Values))
	for i, f := range table.Values {
		lit, _, err := s.renderField(f, ev.ValueTuple[i])
		if err != nil {
			return "", err
		}
		valLiterals[i] = lit
	}

	tsLit := strconv.FormatUint(checkpointTsMs, 10)
	digestLit := quoteSQLString(digest)
	tableName := "store_" + table.Name

	var cols, vals []string
	switch table.Shape() {
	case ShapeKeyed:
		for _, f := range table.Keys {
			cols = append(cols, f.Name)
		}
		vals = append(vals, keyLiterals...)
	case ShapeSingleton:
		cols = append(cols, "unique_resource_id")
		vals = append(vals, "1")
	case ShapeOffchain:
		// no identity column at all
	}
	for _, f := range table.Values {
		cols = append(cols, f.Name)
	}
	vals = append(vals, valLiterals...)
	cols = append(cols, "created_at_timestamp_ms", "updated_at_timestamp_ms", "last_update_digest")
	vals = append(vals, tsLit, tsLit, digestLit)

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(cols, ","), strings.Join(vals, ","))

	if table.Shape() == ShapeOffchain {
		b.WriteString(";")
		return b.String(), nil
	}

	var conflictCol string
	if table.Shape() == ShapeKeyed {
		names := make([]string, len(table.Keys))
		for i, f := range table.Keys {
			names[i] = f.Name
		}
		conflictCol = strings.Join(names, ",")
	} else {
		conflictCol = "unique_resource_id"
	}

	var setClauses []string
	for i, f := range table.Values {
		setClauses = append(setClauses, fmt.Sprintf("%s=%s", f.Name, valLiterals[i]))
	}
	setClauses = append(setClauses, "updated_at_timestamp_ms="+tsLit, "last_update_digest="+digestLit)

	fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s;", conflictCol, strings.Join(setClauses, ", "))
	return b.String(), nil
}

// whereClauseFor renders the WHERE clause identifying the single row a
// SetField/DeleteRecord targets, per table shape (spec §4.1 table).
// Offchain tables have no addressable identity column; spec marks their
// SetField/DeleteRecord behavior as "same" as the singleton case without
// defining one for a keyless, constraint-free table, so this targets
// every row — an explicitly documented edge case, not a guessed fix.
func whereClauseFor(table *Table, keyTuple [][]byte, render func(Field, []byte) (string, interface{}, error)) (string, error) {
	switch table.Shape() {
	case ShapeKeyed:
		parts := make([]string, len(table.Keys))
		for i, f := range table.Keys {
			lit, _, err := render(f, keyTuple[i])
			if err != nil {
				return "", err
			}
			parts[i] = fmt.Sprintf("%s=%s", f.Name, lit)
		}
		return strings.Join(parts, " AND "), nil
	case ShapeSingleton:
		return "unique_resource_id=1", nil
	default: // ShapeOffchain
		return "TRUE", nil
	}
}

// CompileSetFieldToSQL renders a StoreSetField as a targeted UPDATE of one
// non-key column (spec §4.1 SQL generation rules; §8 S4). Unlike
// SetRecord/DeleteRecord, a field update does not touch last_update_digest.
func (s *Schema) CompileSetFieldToSQL(ev storeevents.StoreSetField, checkpointTsMs uint64) (string, error) {
	table, err := s.table(ev.TableID)
	if err != nil {
		return "", err
	}
	if err := checkTupleLengths(table, ev.KeyTuple, nil); err != nil {
		return "", err
	}
	if int(ev.FieldIndex) >= len(table.Values) {
		return "", &ValidationError{Reason: fmt.Sprintf("table %q: field_index %d out of range (%d value fields)", table.Name, ev.FieldIndex, len(table.Values))}
	}
	field := table.Values[ev.FieldIndex]
	lit, _, err := s.renderField(field, ev.Value)
	if err != nil {
		return "", err
	}

	where, err := whereClauseFor(table, ev.KeyTuple, s.renderField)
	if err != nil {
		return "", err
	}

	tsLit := strconv.FormatUint(checkpointTsMs, 10)
	return fmt.Sprintf("UPDATE store_%s SET %s=%s, updated_at_timestamp_ms=%s WHERE %s;",
		table.Name, field.Name, lit, tsLit, where), nil
}

// CompileDeleteRecordToSQL renders a StoreDeleteRecord as a logical
// delete (spec §4.1 SQL generation rules; §8 S3).
func (s *Schema) CompileDeleteRecordToSQL(ev storeevents.StoreDeleteRecord, checkpointTsMs uint64, digest string) (string, error) {
	table, err := s.table(ev.TableID)
	if err != nil {
		return "", err
	}
	if err := checkTupleLengths(table, ev.KeyTuple, nil); err != nil {
		return "", err
	}
	where, err := whereClauseFor(table, ev.KeyTuple, s.renderField)
	if err != nil {
		return "", err
	}
	tsLit := strconv.FormatUint(checkpointTsMs, 10)
	digestLit := quoteSQLString(digest)
	return fmt.Sprintf("UPDATE store_%s SET is_deleted=TRUE, updated_at_timestamp_ms=%s, last_update_digest=%s WHERE %s;",
		table.Name, tsLit, digestLit, where), nil
}

// StructuredRecord is the key→typed-value map handed to subscribers
// (spec §4.1 "compile_to_payload"). Integers ≤64 bits are Go uint64,
// wider integers and addresses/strings are Go strings, vectors are Go
// slices, enums are their label string.
type StructuredRecord map[string]interface{}

// CompileSetRecordToPayload renders a StoreSetRecord's full row as a
// StructuredRecord.
func (s *Schema) CompileSetRecordToPayload(ev storeevents.StoreSetRecord) (StructuredRecord, error) {
	table, err := s.table(ev.TableID)
	if err != nil {
		return nil, err
	}
	if err := checkTupleLengths(table, ev.KeyTuple, ev.ValueTuple); err != nil {
		return nil, err
	}
	out := make(StructuredRecord, len(table.Keys)+len(table.Values))
	for i, f := range table.Keys {
		_, payload, err := s.renderField(f, ev.KeyTuple[i])
		if err != nil {
			return nil, err
		}
		out[f.Name] = payload
	}
	for i, f := range table.Values {
		_, payload, err := s.renderField(f, ev.ValueTuple[i])
		if err != nil {
			return nil, err
		}
		out[f.Name] = payload
	}
	return out, nil
}

// CompileSetFieldToPayload renders a StoreSetField as a single-entry
// StructuredRecord (the changed field only).
func (s *Schema) CompileSetFieldToPayload(ev storeevents.StoreSetField) (StructuredRecord, error) {
	table, err := s.table(ev.TableID)
	if err != nil {
		return nil, err
	}
	if int(ev.FieldIndex) >= len(table.Values) {
		return nil, &ValidationError{Reason: fmt.Sprintf("table %q: field_index %d out of range", table.Name, ev.FieldIndex)}
	}
	field := table.Values[ev.FieldIndex]
	_, payload, err := s.renderField(field, ev.Value)
	if err != nil {
		return nil, err
	}
	return StructuredRecord{field.Name: payload}, nil
}

// CompileDeleteRecordToPayload renders a StoreDeleteRecord as a
// StructuredRecord carrying just its key fields (enough to identify the
// deleted row to a subscriber).
func (s *Schema) CompileDeleteRecordToPayload(ev storeevents.StoreDeleteRecord) (StructuredRecord, error) {
	table, err := s.table(ev.TableID)
	if err != nil {
		return nil, err
	}
	if err := checkTupleLengths(table, ev.KeyTuple, nil); err != nil {
		return nil, err
	}
	out := make(StructuredRecord, len(table.Keys))
	for i, f := range table.Keys {
		_, payload, err := s.renderField(f, ev.KeyTuple[i])
		if err != nil {
			return nil, err
		}
		out[f.Name] = payload
	}
	return out, nil
}
