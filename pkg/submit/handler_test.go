package submit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/cache"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/checkpoint"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/committer"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/schema"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/vm"
)

// fakeMoveVM is a deterministic stand-in for the linked Move VM, the same
// shape as pkg/vm's own test fake.
type fakeMoveVM struct {
	result *vm.ExecutionResult
	err    error
}

func (f *fakeMoveVM) MaxProtocolVersion() uint64 { return 1 }

func (f *fakeMoveVM) Execute(ctx context.Context, req vm.ExecutionRequest) (*vm.ExecutionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type noopRemote struct{}

func (noopRemote) FetchObject(ctx context.Context, id cache.ObjectId) (*cache.Object, error) {
	return nil, nil
}
func (noopRemote) FetchObjects(ctx context.Context, ids []cache.ObjectId) ([]*cache.Object, error) {
	return nil, nil
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

func newTestStore(t *testing.T) *committer.Store {
	t.Helper()
	s, err := committer.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	err = s.Migrate(context.Background(), []string{
		"CREATE TABLE IF NOT EXISTS store_counter3 (entity_id TEXT, hp BIGINT, PRIMARY KEY (entity_id));",
	})
	require.NoError(t, err)
	return s
}

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
	return append(append([]byte{}, uleb(len(s))...), []byte(s)...)
}

func bcsBytes(b []byte) []byte {
	return append(append([]byte{}, uleb(len(b))...), b...)
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func setRecordBCS(dappKey, tableID string, addr [32]byte, hp uint64) []byte {
	var buf []byte
	buf = append(buf, bcsString(dappKey)...)
	buf = append(buf, bcsString(tableID)...)
	buf = append(buf, uleb(1)...)
	buf = append(buf, bcsBytes(addr[:])...)
	buf = append(buf, uleb(1)...)
	buf = append(buf, bcsBytes(u64le(hp))...)
	return buf
}

func newTestHandler(t *testing.T, moveVM vm.MoveVM) *Handler {
	t.Helper()
	s := testSchema(t)
	h := checkpoint.NewProcessor(s, nil)
	c := cache.New(noopRemote{}, 1)
	t.Cleanup(c.Close)
	store := newTestStore(t)
	cm := committer.NewCommitter(store)
	driver := vm.NewDriver(moveVM)
	return NewHandler(driver, c, h, cm)
}

func postSubmit(t *testing.T, h *Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeHTTP_RejectsNonPost(t *testing.T) {
	h := newTestHandler(t, &fakeMoveVM{})
	req := httptest.NewRequest(http.MethodGet, "/submit", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeHTTP_InvalidSenderReturns400(t *testing.T) {
	h := newTestHandler(t, &fakeMoveVM{})
	rec := postSubmit(t, h, Request{
		Chain:  vm.ChainNative,
		Sender: "not-hex",
		PTB:    PTB{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.Success)
}

// TestServeHTTP_ForeignASubmission_CommitsEmittedEvent exercises spec §8
// scenario S5: foreign-A sender normalization, successful simulation, and
// at least one committed row.
func TestServeHTTP_ForeignASubmission_CommitsEmittedEvent(t *testing.T) {
	var addr [32]byte
	addr[0] = 0xaa

	moveVM := &fakeMoveVM{
		result: &vm.ExecutionResult{
			Events: []vm.UserEvent{
				{
					PackageID: "0xorigin",
					EventType: "Dubhe_Store_SetRecord",
					BCS:       setRecordBCS("0xorigin::dapp_key::DappKey", "counter3", addr, 7),
				},
			},
			EpochTimestampMs: 9000,
		},
	}
	h := newTestHandler(t, moveVM)

	nonce := uint64(1)
	rec := postSubmit(t, h, Request{
		Chain:  vm.ChainForeignA,
		Sender: "0x9168765EE952de7C6f8fC6FaD5Ec209B960b7622",
		Nonce:  &nonce,
		PTB: PTB{
			Inputs: []RawInput{
				{Kind: "Pure", Bytes: base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
			},
			Commands: []RawCommand{
				{Package: "0xorigin", Module: "counter", Function: "bump", Arguments: []int{0}},
			},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Equal(t, "0x0000000000000000000000009168765EE952de7C6f8fC6FaD5Ec209B960b7622", resp.Sender)
	require.GreaterOrEqual(t, resp.SQLCount, 1)
}

func TestServeHTTP_SimulationFailureReturns500(t *testing.T) {
	h := newTestHandler(t, &fakeMoveVM{err: &vm.SimulationError{Stage: "execution", Message: "boom"}})
	rec := postSubmit(t, h, Request{
		Chain:  vm.ChainNative,
		Sender: "0x1122000000000000000000000000000000000000000000000000000000000099",
		PTB:    PTB{},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeHTTP_UnresolvedObjectInputNotFoundReturns400(t *testing.T) {
	h := newTestHandler(t, &fakeMoveVM{})
	var missing cache.ObjectId
	missing[31] = 0x42

	rec := postSubmit(t, h, Request{
		Chain:  vm.ChainNative,
		Sender: "0x1122000000000000000000000000000000000000000000000000000000000099",
		PTB: PTB{
			Inputs: []RawInput{{Kind: "UnresolvedObject", ObjectID: missing.String()}},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
