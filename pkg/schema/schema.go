// Package schema owns the declarative table/field/enum metadata parsed
// from a dapp's schema JSON, and compiles store events against it into
// SQL statements and structured subscriber payloads.
package schema

import (
	"encoding/json"
	"fmt"
)

// MoveType is the closed set of primitive and vector types a field may
// declare (spec §3).
type MoveType string

const (
	MoveU8     MoveType = "u8"
	MoveU16    MoveType = "u16"
	MoveU32    MoveType = "u32"
	MoveU64    MoveType = "u64"
	MoveU128   MoveType = "u128"
	MoveU256   MoveType = "u256"
	MoveBool   MoveType = "bool"
	MoveAddr   MoveType = "address"
	MoveString MoveType = "String"

	MoveVecU8     MoveType = "vector<u8>"
	MoveVecU16    MoveType = "vector<u16>"
	MoveVecU32    MoveType = "vector<u32>"
	MoveVecU64    MoveType = "vector<u64>"
	MoveVecU128   MoveType = "vector<u128>"
	MoveVecU256   MoveType = "vector<u256>"
	MoveVecBool   MoveType = "vector<bool>"
	MoveVecAddr   MoveType = "vector<address>"
	MoveVecString MoveType = "vector<String>"
	MoveVecVecU8  MoveType = "vector<vector<u8>>"
)

var knownMoveTypes = map[MoveType]bool{
	MoveU8: true, MoveU16: true, MoveU32: true, MoveU64: true,
	MoveU128: true, MoveU256: true, MoveBool: true, MoveAddr: true, MoveString: true,
	MoveVecU8: true, MoveVecU16: true, MoveVecU32: true, MoveVecU64: true,
	MoveVecU128: true, MoveVecU256: true, MoveVecBool: true, MoveVecAddr: true,
	MoveVecString: true, MoveVecVecU8: true,
}

// DBType is the relational column type a move_type maps to.
type DBType string

const (
	DBInteger     DBType = "INTEGER"
	DBBigInt      DBType = "BIGINT"
	DBText        DBType = "TEXT"
	DBBoolean     DBType = "BOOLEAN"
	DBIntegerArr  DBType = "INTEGER[]"
	DBBigIntArr   DBType = "BIGINT[]"
	DBTextArr     DBType = "TEXT[]"
	DBBooleanArr  DBType = "BOOLEAN[]"
)

// DBTypeFor returns the relational column type for a move_type (spec §4.1
// / original_source get_sql_type).
func DBTypeFor(t MoveType) (DBType, error) {
	switch t {
	case MoveU8, MoveU16, MoveU32:
		return DBInteger, nil
	case MoveU64:
		return DBBigInt, nil
	case MoveU128, MoveU256, MoveAddr, MoveString:
		return DBText, nil
	case MoveBool:
		return DBBoolean, nil
	case MoveVecU8, MoveVecU16, MoveVecU32:
		return DBIntegerArr, nil
	case MoveVecU64:
		return DBBigIntArr, nil
	case MoveVecU128, MoveVecU256, MoveVecAddr, MoveVecString, MoveVecVecU8:
		return DBTextArr, nil
	case MoveVecBool:
		return DBBooleanArr, nil
	default:
		return "", fmt.Errorf("schema: unknown move_type %q", t)
	}
}

// Field describes one column of a table. An enum-typed field is declared
// in the schema JSON with the enum's own name in place of a primitive
// move_type; it serializes on the wire as a single byte ordinal (as if
// MoveType were u8) and is rendered in SQL/payloads as its label string
// (original_source table.rs is_enum/enum_value).
type Field struct {
	Table        string
	Name         string
	Index        int
	MoveType     MoveType
	EnumName     string
	DBType       DBType
	IsPrimaryKey bool
	IsEnum       bool
}

// EnumVariant is one labeled ordinal of a closed enum.
type EnumVariant struct {
	EnumName string
	Ordinal  uint8
	Label    string
}

// Shape classifies how a table is stored (spec §3).
type Shape int

const (
	ShapeKeyed Shape = iota
	ShapeSingleton
	ShapeOffchain
)

// Table is one schema-declared table: its fields in declaration order,
// split by key/value role, plus the storage shape predicate.
type Table struct {
	Name      string
	Offchain  bool
	Component bool
	Keys      []Field // primary-key fields, in key-tuple index order
	Values    []Field // non-key fields, in value-tuple index order
}

// Shape classifies t per spec §3: keyed (has key fields), singleton
// resource (no keys, not offchain), or offchain append (no keys, offchain).
func (t *Table) Shape() Shape {
	if len(t.Keys) > 0 {
		return ShapeKeyed
	}
	if t.Offchain {
		return ShapeOffchain
	}
	return ShapeSingleton
}

// AllFields returns keys followed by values, the canonical column order
// used everywhere SQL or payloads are generated (spec §4.1 "Ordering").
func (t *Table) AllFields() []Field {
	out := make([]Field, 0, len(t.Keys)+len(t.Values))
	out = append(out, t.Keys...)
	out = append(out, t.Values...)
	return out
}

// FeeStateExceptionTable is the one hard-coded table id accepted
// regardless of dapp_key/origin-package match (spec §4.1; literal string
// from original_source's can_convert_event_to_sql).
const FeeStateExceptionTable = "dapp_fee_state"

// Schema is the immutable, process-lifetime registry parsed from the
// dapp's schema JSON (spec §3 "Schema").
type Schema struct {
	PackageID       string
	StartCheckpoint uint64
	Tables          map[string]*Table
	Enums           map[string][]EnumVariant // enumName -> ordinal-ordered variants
	dappKey         string
}

// DappKey returns "{package_id}::dapp_key::DappKey", the value a store
// event's dapp_key must equal for this schema to accept it (spec §3/§8).
func (s *Schema) DappKey() string {
	return s.dappKey
}

// SetPackageID overrides the schema-declared package_id (spec §6
// --package-id: "the application origin package id filtering events") and
// recomputes the derived dapp key together with it, so the two can never
// drift out of sync the way a bare field assignment on PackageID would
// leave dappKey stale.
func (s *Schema) SetPackageID(id string) {
	s.PackageID = id
	s.dappKey = id + "::dapp_key::DappKey"
}

// rawSchema mirrors the on-disk JSON shape documented in spec §6.
type rawSchema struct {
	PackageID       string                          `json:"package_id"`
	StartCheckpoint string                           `json:"start_checkpoint"`
	Components      []map[string]rawTable           `json:"components"`
	Resources       []map[string]rawTable            `json:"resources"`
	Enums           []map[string][]string           `json:"enums"`
}

type rawTable struct {
	Fields   []map[string]string `json:"fields"`
	Keys     []string            `json:"keys"`
	Offchain bool                `json:"offchain"`
}

// ParseError reports a malformed schema document (spec §7 "Schema" kind).
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: parse error: %s", e.Reason)
}

// Load parses and validates a schema JSON document (spec §4.1 "load").
// It rejects unrecognized move_types, keys not present among a table's
// fields, and malformed enum declarations.
func Load(schemaJSON []byte) (*Schema, error) {
	var raw rawSchema
	if err := json.Unmarshal(schemaJSON, &raw); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	if raw.PackageID == "" {
		return nil, &ParseError{Reason: "missing package_id"}
	}

	s := &Schema{
		PackageID: raw.PackageID,
		Tables:    make(map[string]*Table),
		Enums:     make(map[string][]EnumVariant),
	}
	s.dappKey = raw.PackageID + "::dapp_key::DappKey"

	if raw.StartCheckpoint != "" {
		var cp uint64
		if _, err := fmt.Sscanf(raw.StartCheckpoint, "%d", &cp); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("invalid start_checkpoint %q", raw.StartCheckpoint)}
		}
		s.StartCheckpoint = cp
	}

	for _, enumGroup := range raw.Enums {
		for enumName, labels := range enumGroup {
			if len(labels) == 0 {
				return nil, &ParseError{Reason: fmt.Sprintf("enum %q has no variants", enumName)}
			}
			variants := make([]EnumVariant, len(labels))
			for i, label := range labels {
				variants[i] = EnumVariant{EnumName: enumName, Ordinal: uint8(i), Label: label}
			}
			s.Enums[enumName] = variants
		}
	}

	if err := loadTableGroup(s, raw.Components, true); err != nil {
		return nil, err
	}
	if err := loadTableGroup(s, raw.Resources, false); err != nil {
		return nil, err
	}

	return s, nil
}

func loadTableGroup(s *Schema, group []map[string]rawTable, component bool) error {
	for _, tableGroup := range group {
		for tableName, rt := range tableGroup {
			table, err := buildTable(tableName, rt, component, s.Enums)
			if err != nil {
				return err
			}
			s.Tables[tableName] = table
		}
	}
	return nil
}

func buildTable(tableName string, rt rawTable, component bool, enums map[string][]EnumVariant) (*Table, error) {
	keySet := make(map[string]bool, len(rt.Keys))
	for _, k := range rt.Keys {
		keySet[k] = true
	}

	table := &Table{Name: tableName, Offchain: rt.Offchain, Component: component}
	keyIdx, valIdx := 0, 0
	seen := make(map[string]bool)

	for _, fieldMap := range rt.Fields {
		for name, typeStr := range fieldMap {
			f := Field{Table: tableName, Name: name, IsPrimaryKey: keySet[name]}

			if knownMoveTypes[MoveType(typeStr)] {
				f.MoveType = MoveType(typeStr)
				dbType, err := DBTypeFor(f.MoveType)
				if err != nil {
					return nil, &ParseError{Reason: err.Error()}
				}
				f.DBType = dbType
			} else if _, ok := enums[typeStr]; ok {
				f.IsEnum = true
				f.EnumName = typeStr
				f.MoveType = MoveU8
				f.DBType = DBText
			} else {
				return nil, &ParseError{Reason: fmt.Sprintf("table %q field %q: unknown move_type or enum %q", tableName, name, typeStr)}
			}

			if f.IsPrimaryKey {
				f.Index = keyIdx
				keyIdx++
				table.Keys = append(table.Keys, f)
			} else {
				f.Index = valIdx
				valIdx++
				table.Values = append(table.Values, f)
			}
			seen[name] = true
		}
	}

	for _, k := range rt.Keys {
		if !seen[k] {
			return nil, &ParseError{Reason: fmt.Sprintf("table %q: key %q is not among its fields", tableName, k)}
		}
	}

	return table, nil
}
