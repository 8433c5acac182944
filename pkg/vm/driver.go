package vm

import (
	"context"
	"time"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/cache"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
)

// synthetic gas parameters for dev-inspect execution (spec §4.3): no real
// payment coins, a budget large enough that no real program exhausts it,
// and unit price so the VM's internal accounting is well-defined without
// meaning anything economically.
const (
	syntheticGasBudget = uint64(1_000_000_000)
	syntheticGasPrice  = uint64(1)
)

// UserEvent is one Move event emitted by a simulated transaction. The
// driver is agnostic to which events get compiled downstream (spec §4.3);
// it just returns everything the VM emitted, tagged with the emitting
// package so the checkpoint processor can filter by origin package.
type UserEvent struct {
	PackageID string
	EventType string
	BCS       []byte
}

// ExecutionRequest is what the driver hands to the linked Move VM.
type ExecutionRequest struct {
	Tx              *ProgrammableTransaction
	Sender          string
	GasBudget       uint64
	GasPrice        uint64
	ProtocolVersion uint64
	DevInspect      bool
}

// ExecutionResult is what the linked Move VM hands back on success.
type ExecutionResult struct {
	Written          []*cache.Object
	Events           []UserEvent
	EpochTimestampMs uint64
}

// MoveVM is the external collaborator this package drives (spec §1): the
// actual Move bytecode interpreter. It is never asked to meter gas or touch
// payment coins in this module — only dev-inspect execution is performed.
type MoveVM interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
	// MaxProtocolVersion reports the highest protocol version the linked
	// VM supports; the driver always pins to this value (spec §4.3).
	MaxProtocolVersion() uint64
}

// Result is what Simulate returns on success (spec §4.3 contract).
type Result struct {
	WrittenObjects   []*cache.Object
	Events           []UserEvent
	EpochTimestampMs uint64
	Digest           string
}

// Driver runs programmable transactions against a MoveVM in dev-inspect
// mode, folding written objects back into the cache on success.
type Driver struct {
	moveVM MoveVM
}

// NewDriver builds a Driver over moveVM.
func NewDriver(moveVM MoveVM) *Driver {
	return &Driver{moveVM: moveVM}
}

// Simulate executes tx against d's linked VM (spec §4.3). digest is
// caller-supplied, not derived, so foreign-chain replays can assign
// deterministic fan-out identifiers independent of any cryptographic
// transaction image.
//
// On success every written object is folded back into the cache (L0
// replace) and every user event is returned. On failure the cache is left
// untouched — the VM's written-set is empty, so there is nothing to roll
// back — and no events are returned.
func (d *Driver) Simulate(ctx context.Context, tx *ProgrammableTransaction, c *cache.Cache, sender, digest string) (*Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SimulateDuration)

	req := ExecutionRequest{
		Tx:              tx,
		Sender:          sender,
		GasBudget:       syntheticGasBudget,
		GasPrice:        syntheticGasPrice,
		ProtocolVersion: d.moveVM.MaxProtocolVersion(),
		DevInspect:      true,
	}

	res, err := d.moveVM.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, obj := range res.Written {
		c.InsertObject(obj)
	}

	return &Result{
		WrittenObjects:   res.Written,
		Events:           res.Events,
		EpochTimestampMs: res.EpochTimestampMs,
		Digest:           digest,
	}, nil
}

// epochNowMs is a small helper a fake MoveVM can use to stamp a result with
// a plausible epoch timestamp without depending on a real clock source
// beyond what's passed in at call time.
func epochNowMs(base time.Time) uint64 {
	return uint64(base.UnixMilli())
}
