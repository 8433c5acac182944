package schema

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/storeevents"
)

const testAddrHex = "d8f042479dcb0028d868051bd53f0d3a41c600db7b14241674db1c2e60124975"

func mustAddrBytes(t *testing.T) []byte {
	t.Helper()
	b, err := hex.DecodeString(testAddrHex)
	require.NoError(t, err)
	require.Len(t, b, 32)
	return b
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func counter3Schema(t *testing.T) *Schema {
	t.Helper()
	return &Schema{
		PackageID: "0xorigin",
		Tables: map[string]*Table{
			"counter3": {
				Name: "counter3",
				Keys: []Field{
					{Table: "counter3", Name: "entity_id", Index: 0, MoveType: MoveAddr, DBType: DBText, IsPrimaryKey: true},
				},
				Values: []Field{
					{Table: "counter3", Name: "hp", Index: 0, MoveType: MoveU64, DBType: DBBigInt},
					{Table: "counter3", Name: "attack", Index: 1, MoveType: MoveU64, DBType: DBBigInt},
					{Table: "counter3", Name: "defense", Index: 2, MoveType: MoveU64, DBType: DBBigInt},
				},
			},
			"counter5": {
				Name: "counter5",
				Values: []Field{
					{Table: "counter5", Name: "player", Index: 0, MoveType: MoveAddr, DBType: DBText},
					{Table: "counter5", Name: "value", Index: 1, MoveType: MoveU32, DBType: DBInteger},
				},
			},
		},
		Enums: map[string][]EnumVariant{},
	}
}

// S1: SetRecord on a keyed table upserts the full row.
func TestCompileSetRecordToSQL_Keyed(t *testing.T) {
	s := counter3Schema(t)
	ev := storeevents.StoreSetRecord{
		TableID:    "counter3",
		KeyTuple:   [][]byte{mustAddrBytes(t)},
		ValueTuple: [][]byte{u64le(10), u64le(10), u64le(10)},
	}
	got, err := s.CompileSetRecordToSQL(ev, 1000, "d1")
	require.NoError(t, err)
	want := "INSERT INTO store_counter3 (entity_id,hp,attack,defense,created_at_timestamp_ms,updated_at_timestamp_ms,last_update_digest) VALUES ('0x" +
		testAddrHex + "',10,10,10,1000,1000,'d1') ON CONFLICT (entity_id) DO UPDATE SET hp=10, attack=10, defense=10, updated_at_timestamp_ms=1000, last_update_digest='d1';"
	require.Equal(t, want, got)
}

// S2: SetRecord on a singleton resource upserts against unique_resource_id.
func TestCompileSetRecordToSQL_Singleton(t *testing.T) {
	s := counter3Schema(t)
	ev := storeevents.StoreSetRecord{
		TableID:    "counter5",
		KeyTuple:   nil,
		ValueTuple: [][]byte{mustAddrBytes(t), u32le(10)},
	}
	got, err := s.CompileSetRecordToSQL(ev, 2000, "d2")
	require.NoError(t, err)
	want := "INSERT INTO store_counter5 (unique_resource_id,player,value,created_at_timestamp_ms,updated_at_timestamp_ms,last_update_digest) VALUES (1,'0x" +
		testAddrHex + "',10,2000,2000,'d2') ON CONFLICT (unique_resource_id) DO UPDATE SET player='0x" + testAddrHex + "', value=10, updated_at_timestamp_ms=2000, last_update_digest='d2';"
	require.Equal(t, want, got)
}

// S3: DeleteRecord flips is_deleted and stamps the digest.
func TestCompileDeleteRecordToSQL(t *testing.T) {
	s := counter3Schema(t)
	ev := storeevents.StoreDeleteRecord{
		TableID:  "counter3",
		KeyTuple: [][]byte{mustAddrBytes(t)},
	}
	got, err := s.CompileDeleteRecordToSQL(ev, 3000, "d3")
	require.NoError(t, err)
	want := "UPDATE store_counter3 SET is_deleted=TRUE, updated_at_timestamp_ms=3000, last_update_digest='d3' WHERE entity_id='0x" + testAddrHex + "';"
	require.Equal(t, want, got)
}

// S4: SetField updates exactly one non-key column and does not touch digest.
func TestCompileSetFieldToSQL(t *testing.T) {
	s := counter3Schema(t)
	ev := storeevents.StoreSetField{
		TableID:    "counter3",
		KeyTuple:   [][]byte{mustAddrBytes(t)},
		FieldIndex: 1, // attack
		Value:      u64le(99),
	}
	got, err := s.CompileSetFieldToSQL(ev, 4000)
	require.NoError(t, err)
	want := "UPDATE store_counter3 SET attack=99, updated_at_timestamp_ms=4000 WHERE entity_id='0x" + testAddrHex + "';"
	require.Equal(t, want, got)
}

func TestCanCompile(t *testing.T) {
	s, err := Load([]byte(`{
		"package_id": "0xorigin",
		"components": [{"counter3": {"fields": [{"entity_id":"address"},{"hp":"u64"}], "keys": ["entity_id"]}}],
		"resources": [],
		"enums": []
	}`))
	require.NoError(t, err)

	require.NoError(t, s.CanCompile("counter3", "0xorigin::dapp_key::DappKey"))

	err = s.CanCompile("counter3", "0xother::dapp_key::DappKey")
	require.Error(t, err)
	require.True(t, IsRejected(err))

	err = s.CanCompile("unknown_table", "0xorigin::dapp_key::DappKey")
	require.Error(t, err)
	require.True(t, IsRejected(err))

	// the fee-state exception table is accepted regardless of dapp_key
	require.NoError(t, s.CanCompile(FeeStateExceptionTable, "0xwhoever::dapp_key::DappKey"))
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	_, err := Load([]byte(`{
		"package_id": "0xorigin",
		"components": [{"bad": {"fields": [{"a":"u8"}], "keys": ["b"]}}]
	}`))
	require.Error(t, err)
}

func TestLoad_RejectsUnknownMoveType(t *testing.T) {
	_, err := Load([]byte(`{
		"package_id": "0xorigin",
		"components": [{"bad": {"fields": [{"a":"u9"}], "keys": []}}]
	}`))
	require.Error(t, err)
}

func TestTableShapes(t *testing.T) {
	s := counter3Schema(t)
	require.Equal(t, ShapeKeyed, s.Tables["counter3"].Shape())
	require.Equal(t, ShapeSingleton, s.Tables["counter5"].Shape())

	offchain := &Table{Name: "events_log", Offchain: true}
	require.Equal(t, ShapeOffchain, offchain.Shape())
}

func TestDDL_Keyed(t *testing.T) {
	s := counter3Schema(t)
	ddl := s.Tables["counter3"].DDL()
	require.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS store_counter3 (")
	require.Contains(t, ddl, "entity_id TEXT")
	require.Contains(t, ddl, "PRIMARY KEY (entity_id)")
	require.Contains(t, ddl, "is_deleted BOOLEAN DEFAULT FALSE")
}

func TestDDL_Singleton(t *testing.T) {
	s := counter3Schema(t)
	ddl := s.Tables["counter5"].DDL()
	require.Contains(t, ddl, "unique_resource_id INTEGER PRIMARY KEY CHECK (unique_resource_id = 1)")
}
