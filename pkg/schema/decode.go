package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/storeevents"
)

// DecodeError reports a per-field decode failure (spec §7 "Decode" kind).
// The event that produced it is dropped from its batch; the batch
// continues (spec §4.1 "Failure").
type DecodeError struct {
	Table  string
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("schema: decode error: table=%s field=%s: %s", e.Table, e.Field, e.Reason)
}

// quoteSQLString single-quotes s, doubling any embedded single quote
// (spec §4.1 "Escaping discipline").
func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// RenderValue decodes raw (one element of an event's key_tuple or
// value_tuple) per f's move_type and renders both its SQL literal form
// and its JSON-friendly structured-payload form (spec §4.1).
//
// Enum-typed fields are not handled here: the caller resolves the label
// via the owning Schema before calling RenderValue for non-enum fields.
func RenderValue(f Field, raw []byte) (sqlLiteral string, payload interface{}, err error) {
	switch f.MoveType {
	case MoveU8:
		return decodeFixedUint(f, raw, 1)
	case MoveU16:
		return decodeFixedUint(f, raw, 2)
	case MoveU32:
		return decodeFixedUint(f, raw, 4)
	case MoveU64:
		return decodeFixedUint(f, raw, 8)
	case MoveU128:
		return decodeBigUint(f, raw, 16)
	case MoveU256:
		return decodeBigUint(f, raw, 32)
	case MoveBool:
		return decodeBool(f, raw)
	case MoveAddr:
		return decodeAddress(f, raw)
	case MoveString:
		return decodeString(f, raw)
	case MoveVecU8:
		return decodeVecUint(f, raw, 1)
	case MoveVecU16:
		return decodeVecUint(f, raw, 2)
	case MoveVecU32:
		return decodeVecUint(f, raw, 4)
	case MoveVecU64:
		return decodeVecUint(f, raw, 8)
	case MoveVecU128:
		return decodeVecBigUint(f, raw, 16)
	case MoveVecU256:
		return decodeVecBigUint(f, raw, 32)
	case MoveVecBool:
		return decodeVecBool(f, raw)
	case MoveVecAddr:
		return decodeVecAddress(f, raw)
	case MoveVecString:
		return decodeVecString(f, raw)
	case MoveVecVecU8:
		return decodeVecVecU8(f, raw)
	default:
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: fmt.Sprintf("unhandled move_type %q", f.MoveType)}
	}
}

func decodeFixedUint(f Field, raw []byte, width int) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	var v uint64
	var err error
	switch width {
	case 1:
		var b byte
		b, err = r.ReadByte()
		v = uint64(b)
	case 2:
		var u uint16
		u, err = r.ReadU16()
		v = uint64(u)
	case 4:
		var u uint32
		u, err = r.ReadU32()
		v = uint64(u)
	case 8:
		v, err = r.ReadU64()
	}
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	return strconv.FormatUint(v, 10), v, nil
}

func decodeBigUint(f Field, raw []byte, width int) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	v, err := r.ReadUint(width)
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	s := v.String()
	return quoteSQLString(s), s, nil
}

func decodeBool(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	b, err := r.ReadBool()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	if b {
		return "true", true, nil
	}
	return "false", false, nil
}

func decodeAddress(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	a, err := r.ReadAddress()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	s := a.Hex()
	return quoteSQLString(s), s, nil
}

func decodeString(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	s, err := r.ReadString()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	return quoteSQLString(s), s, nil
}

func decodeVecUint(f Field, raw []byte, width int) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	n, err := r.ReadULEB128()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	literals := make([]string, 0, n)
	payload := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		var v uint64
		switch width {
		case 1:
			var b byte
			b, err = r.ReadByte()
			v = uint64(b)
		case 2:
			var u uint16
			u, err = r.ReadU16()
			v = uint64(u)
		case 4:
			var u uint32
			u, err = r.ReadU32()
			v = uint64(u)
		case 8:
			v, err = r.ReadU64()
		}
		if err != nil {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
		}
		literals = append(literals, strconv.FormatUint(v, 10))
		payload = append(payload, v)
	}
	return "ARRAY[" + strings.Join(literals, ", ") + "]", payload, nil
}

func decodeVecBigUint(f Field, raw []byte, width int) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	n, err := r.ReadULEB128()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	literals := make([]string, 0, n)
	payload := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := r.ReadUint(width)
		if err != nil {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
		}
		s := v.String()
		literals = append(literals, quoteSQLString(s))
		payload = append(payload, s)
	}
	if len(literals) == 0 {
		return "ARRAY[]::TEXT[]", payload, nil
	}
	return "ARRAY[" + strings.Join(literals, ", ") + "]::TEXT[]", payload, nil
}

func decodeVecBool(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	n, err := r.ReadULEB128()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	literals := make([]string, 0, n)
	payload := make([]bool, 0, n)
	for i := uint64(0); i < n; i++ {
		b, err := r.ReadBool()
		if err != nil {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
		}
		if b {
			literals = append(literals, "true")
		} else {
			literals = append(literals, "false")
		}
		payload = append(payload, b)
	}
	return "ARRAY[" + strings.Join(literals, ", ") + "]", payload, nil
}

func decodeVecAddress(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	n, err := r.ReadULEB128()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	literals := make([]string, 0, n)
	payload := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := r.ReadAddress()
		if err != nil {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
		}
		literals = append(literals, quoteSQLString(a.Hex()))
		payload = append(payload, a.Hex())
	}
	if len(literals) == 0 {
		return "ARRAY[]::TEXT[]", payload, nil
	}
	return "ARRAY[" + strings.Join(literals, ", ") + "]::TEXT[]", payload, nil
}

func decodeVecString(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	n, err := r.ReadULEB128()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	literals := make([]string, 0, n)
	payload := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
		}
		literals = append(literals, quoteSQLString(s))
		payload = append(payload, s)
	}
	if len(literals) == 0 {
		return "ARRAY[]::TEXT[]", payload, nil
	}
	return "ARRAY[" + strings.Join(literals, ", ") + "]::TEXT[]", payload, nil
}

// decodeVecVecU8 decodes vector<vector<u8>>, rendered as a nested ARRAY
// literal (e.g. ARRAY[ARRAY[1, 2], ARRAY[3]]) with no element-type cast.
// DBTypeFor maps this move_type to a TEXT[] column.
func decodeVecVecU8(f Field, raw []byte) (string, interface{}, error) {
	r := storeevents.NewReader(raw)
	n, err := r.ReadULEB128()
	if err != nil {
		return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
	}
	outerLiterals := make([]string, 0, n)
	payload := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		inner, err := r.ReadBytes()
		if err != nil {
			return "", nil, &DecodeError{Table: f.Table, Field: f.Name, Reason: err.Error()}
		}
		innerLiterals := make([]string, len(inner))
		for j, b := range inner {
			innerLiterals[j] = strconv.Itoa(int(b))
		}
		outerLiterals = append(outerLiterals, "ARRAY["+strings.Join(innerLiterals, ", ")+"]")
		cp := make([]byte, len(inner))
		copy(cp, inner)
		payload = append(payload, cp)
	}
	return "ARRAY[" + strings.Join(outerLiterals, ", ") + "]", payload, nil
}
