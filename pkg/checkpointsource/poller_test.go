package checkpointsource

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoller_Next_DecodesCheckpoint(t *testing.T) {
	payload := []byte{1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{
			"sequenceNumber":"5",
			"timestampMs":"1000",
			"transactions":[{"digest":"d1","events":[{"packageId":"0xabc","type":"Dubhe_Store_SetRecord","bcs":"` + base64.StdEncoding.EncodeToString(payload) + `"}]}]
		}}`))
	}))
	defer srv.Close()

	p := NewPoller(srv.URL, 5)
	cp, err := p.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(5), cp.Sequence)
	require.Equal(t, uint64(1000), cp.TimestampMs)
	require.Len(t, cp.Transactions, 1)
	require.Equal(t, "d1", cp.Transactions[0].Digest)
	require.Equal(t, payload, cp.Transactions[0].Events[0].BCS)
	require.Equal(t, uint64(6), p.next)
}

func TestPoller_Next_RetriesUntilAvailable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls < 3 {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-1,"message":"not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"sequenceNumber":"0","timestampMs":"0","transactions":[]}}`))
	}))
	defer srv.Close()

	p := NewPoller(srv.URL, 0)
	p.pollEvery = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cp, err := p.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), cp.Sequence)
	require.Equal(t, 3, calls)
}
