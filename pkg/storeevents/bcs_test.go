package storeevents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadULEB128(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, c := range cases {
		r := NewReader(c.in)
		got, err := r.ReadULEB128()
		require.NoError(t, err)
		require.Equal(t, c.want, got)
		require.Equal(t, 0, r.Remaining())
	}
}

func TestReadBytesAndString(t *testing.T) {
	// uleb128(5) + "hello"
	buf := append([]byte{5}, []byte("hello")...)
	r := NewReader(buf)
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
}

func TestReadU64LittleEndian(t *testing.T) {
	r := NewReader([]byte{10, 0, 0, 0, 0, 0, 0, 0})
	v, err := r.ReadU64()
	require.NoError(t, err)
	require.Equal(t, uint64(10), v)
}

func TestReadUint128(t *testing.T) {
	le := make([]byte, 16)
	le[0] = 0xff
	le[1] = 0x01
	r := NewReader(le)
	v, err := r.ReadUint(16)
	require.NoError(t, err)
	require.Equal(t, "511", v.String())
}

func TestReadAddressHex(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 0xd8
	raw[31] = 0x75
	r := NewReader(raw)
	a, err := r.ReadAddress()
	require.NoError(t, err)
	require.Equal(t, 66, len(a.Hex())) // "0x" + 64 hex digits
	require.Equal(t, byte(0xd8), a[0])
}

func TestReadVecOfBytes(t *testing.T) {
	// uleb128(2) entries: [uleb128(1) 0x0a] [uleb128(2) 0x0b 0x0c]
	buf := []byte{2, 1, 0x0a, 2, 0x0b, 0x0c}
	r := NewReader(buf)
	got, err := r.ReadVecOfBytes()
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x0a}, {0x0b, 0x0c}}, got)
}

func TestShortBufferErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadU64()
	require.Error(t, err)
}
