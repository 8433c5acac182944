package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func TestRenderValue_FixedUints(t *testing.T) {
	f := Field{MoveType: MoveU8}
	lit, payload, err := RenderValue(f, []byte{7})
	require.NoError(t, err)
	require.Equal(t, "7", lit)
	require.Equal(t, uint64(7), payload)

	f64 := Field{MoveType: MoveU64}
	lit, payload, err = RenderValue(f64, u64leTest(10))
	require.NoError(t, err)
	require.Equal(t, "10", lit)
	require.Equal(t, uint64(10), payload)
}

func u64leTest(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func TestRenderValue_U128IsQuotedDecimalString(t *testing.T) {
	f := Field{MoveType: MoveU128}
	raw := make([]byte, 16)
	raw[0] = 0xff // 255
	lit, payload, err := RenderValue(f, raw)
	require.NoError(t, err)
	require.Equal(t, "'255'", lit)
	require.Equal(t, "255", payload)
}

func TestRenderValue_Bool(t *testing.T) {
	f := Field{MoveType: MoveBool}
	lit, payload, err := RenderValue(f, []byte{1})
	require.NoError(t, err)
	require.Equal(t, "true", lit)
	require.Equal(t, true, payload)
}

func TestRenderValue_StringEscapesQuotes(t *testing.T) {
	f := Field{MoveType: MoveString}
	raw := append(uleb(len("O'Brien")), []byte("O'Brien")...)
	lit, payload, err := RenderValue(f, raw)
	require.NoError(t, err)
	require.Equal(t, "'O''Brien'", lit)
	require.Equal(t, "O'Brien", payload)
}

func TestRenderValue_VectorU8NoCast(t *testing.T) {
	f := Field{MoveType: MoveVecU8}
	raw := append(uleb(3), []byte{1, 2, 3}...)
	lit, _, err := RenderValue(f, raw)
	require.NoError(t, err)
	require.Equal(t, "ARRAY[1, 2, 3]", lit)
}

func TestRenderValue_VectorU128EmptyCast(t *testing.T) {
	f := Field{MoveType: MoveVecU128}
	raw := uleb(0)
	lit, _, err := RenderValue(f, raw)
	require.NoError(t, err)
	require.Equal(t, "ARRAY[]::TEXT[]", lit)
}

func TestRenderValue_VectorAddressCast(t *testing.T) {
	f := Field{MoveType: MoveVecAddr}
	addr := make([]byte, 32)
	addr[0] = 0xab
	raw := append(uleb(1), addr...)
	lit, _, err := RenderValue(f, raw)
	require.NoError(t, err)
	require.Contains(t, lit, "::TEXT[]")
	require.Contains(t, lit, "'0xab")
}

func TestRenderValue_VectorVectorU8Nested(t *testing.T) {
	f := Field{MoveType: MoveVecVecU8}
	var raw []byte
	raw = append(raw, uleb(2)...)
	raw = append(raw, uleb(2)...)
	raw = append(raw, []byte{1, 2}...)
	raw = append(raw, uleb(1)...)
	raw = append(raw, []byte{3}...)
	lit, _, err := RenderValue(f, raw)
	require.NoError(t, err)
	require.Equal(t, "ARRAY[ARRAY[1, 2], ARRAY[3]]", lit)
}

// Round-trip: decode(encode(v)) under every fixed-width integer type
// equals v, and the rendered SQL literal carries no stray metacharacters.
func TestRenderValue_RoundTripFixedWidths(t *testing.T) {
	cases := []struct {
		mt  MoveType
		raw []byte
		lit string
	}{
		{MoveU8, []byte{255}, "255"},
		{MoveU16, []byte{0xff, 0xff}, "65535"},
		{MoveU32, []byte{0xff, 0xff, 0xff, 0xff}, "4294967295"},
		{MoveU64, u64leTest(18446744073709551615), "18446744073709551615"},
	}
	for _, c := range cases {
		lit, _, err := RenderValue(Field{MoveType: c.mt}, c.raw)
		require.NoError(t, err)
		require.Equal(t, c.lit, lit)
	}
}
