package vm

import (
	"context"
	"fmt"
)

// UnlinkedMoveVM is the default MoveVM until a real one is linked in. The
// Move VM itself is an explicit external collaborator (spec §1: "the Move
// VM itself ... only their contracts are specified"); no Move VM
// implementation exists anywhere in the retrieved pack to ground a
// concrete one on, so this stub occupies the MoveVM slot at process start
// and fails loudly and immediately rather than silently no-op'ing, the
// same "fail fast on a missing required collaborator" instinct as
// cuemby-warren/pkg/api/server.go's NewServer refusing to start without a
// certificate on disk. Swapping in a real VM is a one-line change at the
// Driver construction site in cmd/dubhe-indexer.
type UnlinkedMoveVM struct {
	// ProtocolVersion is reported back to the driver (spec §4.3 "pinned to
	// the maximum version supported by the linked VM").
	ProtocolVersion uint64
}

func (UnlinkedMoveVM) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	return nil, &SimulationError{Stage: "execute", Message: fmt.Sprintf("no Move VM linked; cannot execute %d command(s)", len(req.Tx.Commands))}
}

func (u UnlinkedMoveVM) MaxProtocolVersion() uint64 { return u.ProtocolVersion }
