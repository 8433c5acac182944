package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/hub"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/schema"
)

const testDappKey = "0xorigin::dapp_key::DappKey"

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

func bcsString(s string) []byte {
	out := append([]byte{}, uleb(len(s))...)
	return append(out, []byte(s)...)
}

func bcsBytes(b []byte) []byte {
	out := append([]byte{}, uleb(len(b))...)
	return append(out, b...)
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Load([]byte(`{
		"package_id": "0xorigin",
		"components": [{"counter3": {"fields": [{"entity_id":"address"},{"hp":"u64"}], "keys": ["entity_id"]}}],
		"resources": [],
		"enums": []
	}`))
	require.NoError(t, err)
	return s
}

func setRecordBCS(t *testing.T, dappKey, tableID string, addr [32]byte, hp uint64) []byte {
	t.Helper()
	var buf []byte
	buf = append(buf, bcsString(dappKey)...)
	buf = append(buf, bcsString(tableID)...)
	buf = append(buf, uleb(1)...)
	buf = append(buf, bcsBytes(addr[:])...)
	buf = append(buf, uleb(1)...)
	buf = append(buf, bcsBytes(u64le(hp))...)
	return buf
}

func TestProcess_CompilesMatchingEventIntoRowBatch(t *testing.T) {
	s := testSchema(t)
	h := hub.New()
	ch, stop := h.Subscribe(context.Background(), []string{"counter3"})
	defer stop()

	p := NewProcessor(s, h)
	var addr [32]byte
	addr[0] = 0xaa

	cp := Checkpoint{
		Sequence:    7,
		TimestampMs: 5000,
		Transactions: []Transaction{
			{
				Digest: "txdigest1",
				Events: []RawEvent{
					{
						PackageID: "0xorigin",
						Type:      "Dubhe_Store_SetRecord",
						BCS:       setRecordBCS(t, testDappKey, "counter3", addr, 42),
					},
				},
			},
		},
	}

	batches, err := p.Process(context.Background(), cp)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, "counter3", batches[0].TableName)
	require.Equal(t, uint64(7), batches[0].CheckpointSequence)
	require.Contains(t, batches[0].SQL, "INSERT INTO store_counter3")

	select {
	case rec := <-ch:
		require.Equal(t, "counter3", rec.TableName)
		require.Equal(t, hub.OpSet, rec.Op)
		require.Equal(t, "txdigest1", rec.Digest)
	case <-time.After(time.Second):
		t.Fatal("expected a fanned-out change record")
	}
}

func TestProcess_IgnoresEventsFromOtherPackages(t *testing.T) {
	s := testSchema(t)
	p := NewProcessor(s, nil)
	var addr [32]byte

	cp := Checkpoint{
		Sequence: 1,
		Transactions: []Transaction{
			{
				Digest: "tx1",
				Events: []RawEvent{
					{
						PackageID: "0xsomeoneelse",
						Type:      "Dubhe_Store_SetRecord",
						BCS:       setRecordBCS(t, testDappKey, "counter3", addr, 1),
					},
				},
			},
		},
	}

	batches, err := p.Process(context.Background(), cp)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestProcess_DropsEventWithWrongDappKey(t *testing.T) {
	s := testSchema(t)
	p := NewProcessor(s, nil)
	var addr [32]byte

	cp := Checkpoint{
		Sequence: 1,
		Transactions: []Transaction{
			{
				Digest: "tx1",
				Events: []RawEvent{
					{
						PackageID: "0xorigin",
						Type:      "Dubhe_Store_SetRecord",
						BCS:       setRecordBCS(t, "0xother::dapp_key::DappKey", "counter3", addr, 1),
					},
				},
			},
		},
	}

	batches, err := p.Process(context.Background(), cp)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestProcess_DropsEventForUnknownTable(t *testing.T) {
	s := testSchema(t)
	p := NewProcessor(s, nil)
	var addr [32]byte

	cp := Checkpoint{
		Sequence: 1,
		Transactions: []Transaction{
			{
				Digest: "tx1",
				Events: []RawEvent{
					{
						PackageID: "0xorigin",
						Type:      "Dubhe_Store_SetRecord",
						BCS:       setRecordBCS(t, testDappKey, "no_such_table", addr, 1),
					},
				},
			},
		},
	}

	batches, err := p.Process(context.Background(), cp)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestProcess_IgnoresUnrecognizedEventType(t *testing.T) {
	s := testSchema(t)
	p := NewProcessor(s, nil)

	cp := Checkpoint{
		Sequence: 1,
		Transactions: []Transaction{
			{
				Digest: "tx1",
				Events: []RawEvent{
					{PackageID: "0xorigin", Type: "SomeOtherEvent", BCS: []byte{1, 2, 3}},
				},
			},
		},
	}

	batches, err := p.Process(context.Background(), cp)
	require.NoError(t, err)
	require.Empty(t, batches)
}
