package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/cache"
)

// fakeMoveVM is a deterministic in-memory stand-in for the linked Move VM,
// used the same way the teacher's pkg/storage.Store interface pairs with a
// concrete BoltStore: an interface plus a fake for tests.
type fakeMoveVM struct {
	protocolVersion uint64
	result          *ExecutionResult
	err             error
	gotReq          ExecutionRequest
}

func (f *fakeMoveVM) MaxProtocolVersion() uint64 { return f.protocolVersion }

func (f *fakeMoveVM) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newObjectCache() *cache.Cache {
	return cache.New(noopRemote{}, 1)
}

type noopRemote struct{}

func (noopRemote) FetchObject(ctx context.Context, id cache.ObjectId) (*cache.Object, error) {
	return nil, nil
}
func (noopRemote) FetchObjects(ctx context.Context, ids []cache.ObjectId) ([]*cache.Object, error) {
	return nil, nil
}

func TestSimulate_WritesFoldedIntoCache(t *testing.T) {
	var id cache.ObjectId
	id[31] = 7

	vm := &fakeMoveVM{
		protocolVersion: 42,
		result: &ExecutionResult{
			Written:          []*cache.Object{{ID: id, Version: 2}},
			Events:           []UserEvent{{PackageID: "0xabc", EventType: "Dubhe_Store_SetRecord", BCS: []byte{1}}},
			EpochTimestampMs: 123,
		},
	}
	d := NewDriver(vm)
	c := newObjectCache()
	defer c.Close()

	res, err := d.Simulate(context.Background(), &ProgrammableTransaction{}, c, "0xsender", "digest-1")
	require.NoError(t, err)
	require.Equal(t, "digest-1", res.Digest)
	require.Len(t, res.Events, 1)
	require.Equal(t, uint64(42), vm.gotReq.ProtocolVersion)
	require.Equal(t, syntheticGasBudget, vm.gotReq.GasBudget)
	require.Equal(t, syntheticGasPrice, vm.gotReq.GasPrice)
	require.True(t, vm.gotReq.DevInspect)

	got := c.LatestParentRef(id)
	require.NotNil(t, got)
	require.Equal(t, uint64(2), got.Version)
}

func TestSimulate_FailureReturnsNoEventsAndLeavesCacheUntouched(t *testing.T) {
	var id cache.ObjectId
	id[31] = 8

	vm := &fakeMoveVM{
		protocolVersion: 1,
		err:             &SimulationError{Stage: "execution", Message: "abort code 1"},
	}
	d := NewDriver(vm)
	c := newObjectCache()
	defer c.Close()
	c.InsertObject(&cache.Object{ID: id, Version: 1})

	_, err := d.Simulate(context.Background(), &ProgrammableTransaction{}, c, "0xsender", "digest-2")
	require.Error(t, err)

	// Unrelated object untouched by the failed simulation.
	got := c.LatestParentRef(id)
	require.NotNil(t, got)
	require.Equal(t, uint64(1), got.Version)
}
