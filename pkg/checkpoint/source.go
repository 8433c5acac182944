package checkpoint

import "context"

// Source is the checkpoint-stream reader framework's contract (spec §1:
// "the checkpoint-stream reader framework" is an external collaborator,
// only its contract is specified). Next blocks until the next finalized
// checkpoint after the last one returned is available, or ctx is done.
// Sequence numbers Next returns must be strictly ascending; pkg/committer
// enforces that independently and rejects anything else.
type Source interface {
	Next(ctx context.Context) (*Checkpoint, error)
}
