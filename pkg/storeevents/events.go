package storeevents

import "fmt"

// Event type names as they appear on the wire (the Move event's type tag
// short name), used by the checkpoint processor to dispatch.
const (
	TypeSetRecord    = "Dubhe_Store_SetRecord"
	TypeSetField     = "Dubhe_Store_SetField"
	TypeDeleteRecord = "Dubhe_Store_DeleteRecord"
)

// StoreSetRecord is emitted when a full row is written to a table. Both
// KeyTuple and ValueTuple hold BCS-encoded field values in schema field
// order; decoding against the declared move_type happens in
// pkg/schema.Decode. DappKey gates which events a given schema accepts
// (spec §3): it must equal "{origin_package_id}::dapp_key::DappKey", with
// one hard-coded exception table honored regardless of origin.
type StoreSetRecord struct {
	DappKey    string
	TableID    string
	KeyTuple   [][]byte
	ValueTuple [][]byte
}

// StoreSetField is emitted when a single non-key field of an existing row
// is updated. FieldIndex is the ordinal among non-key fields.
type StoreSetField struct {
	DappKey    string
	TableID    string
	KeyTuple   [][]byte
	FieldIndex uint8
	Value      []byte
}

// StoreDeleteRecord is emitted when a row is removed (soft-deleted —
// callers set is_deleted = true rather than issuing DELETE).
type StoreDeleteRecord struct {
	DappKey  string
	TableID  string
	KeyTuple [][]byte
}

// DecodeSetRecord parses a BCS-encoded Dubhe_Store_SetRecord payload.
func DecodeSetRecord(payload []byte) (StoreSetRecord, error) {
	r := NewReader(payload)
	dappKey, err := r.ReadString()
	if err != nil {
		return StoreSetRecord{}, fmt.Errorf("storeevents: decode SetRecord dapp_key: %w", err)
	}
	tableID, err := r.ReadString()
	if err != nil {
		return StoreSetRecord{}, fmt.Errorf("storeevents: decode SetRecord table_id: %w", err)
	}
	keyTuple, err := r.ReadVecOfBytes()
	if err != nil {
		return StoreSetRecord{}, fmt.Errorf("storeevents: decode SetRecord key_tuple: %w", err)
	}
	valueTuple, err := r.ReadVecOfBytes()
	if err != nil {
		return StoreSetRecord{}, fmt.Errorf("storeevents: decode SetRecord value_tuple: %w", err)
	}
	return StoreSetRecord{DappKey: dappKey, TableID: tableID, KeyTuple: keyTuple, ValueTuple: valueTuple}, nil
}

// DecodeSetField parses a BCS-encoded Dubhe_Store_SetField payload.
func DecodeSetField(payload []byte) (StoreSetField, error) {
	r := NewReader(payload)
	dappKey, err := r.ReadString()
	if err != nil {
		return StoreSetField{}, fmt.Errorf("storeevents: decode SetField dapp_key: %w", err)
	}
	tableID, err := r.ReadString()
	if err != nil {
		return StoreSetField{}, fmt.Errorf("storeevents: decode SetField table_id: %w", err)
	}
	keyTuple, err := r.ReadVecOfBytes()
	if err != nil {
		return StoreSetField{}, fmt.Errorf("storeevents: decode SetField key_tuple: %w", err)
	}
	fieldIndex, err := r.ReadByte()
	if err != nil {
		return StoreSetField{}, fmt.Errorf("storeevents: decode SetField field_index: %w", err)
	}
	value, err := r.ReadBytes()
	if err != nil {
		return StoreSetField{}, fmt.Errorf("storeevents: decode SetField value: %w", err)
	}
	return StoreSetField{DappKey: dappKey, TableID: tableID, KeyTuple: keyTuple, FieldIndex: fieldIndex, Value: value}, nil
}

// DecodeDeleteRecord parses a BCS-encoded Dubhe_Store_DeleteRecord payload.
func DecodeDeleteRecord(payload []byte) (StoreDeleteRecord, error) {
	r := NewReader(payload)
	dappKey, err := r.ReadString()
	if err != nil {
		return StoreDeleteRecord{}, fmt.Errorf("storeevents: decode DeleteRecord dapp_key: %w", err)
	}
	tableID, err := r.ReadString()
	if err != nil {
		return StoreDeleteRecord{}, fmt.Errorf("storeevents: decode DeleteRecord table_id: %w", err)
	}
	keyTuple, err := r.ReadVecOfBytes()
	if err != nil {
		return StoreDeleteRecord{}, fmt.Errorf("storeevents: decode DeleteRecord key_tuple: %w", err)
	}
	return StoreDeleteRecord{DappKey: dappKey, TableID: tableID, KeyTuple: keyTuple}, nil
}
