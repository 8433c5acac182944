package committer

import "fmt"

// OutOfOrderError reports a Commit call whose checkpoint sequence is not
// strictly greater than the last one committed (spec §4.4: "Between
// checkpoints the commit order is strictly ascending by checkpoint
// sequence"). The rejected checkpoint's batches are not applied. The
// checkpoint pipeline in cmd/dubhe-indexer returns this error like any
// other commit error, which stops the pipeline.
type OutOfOrderError struct {
	Got           uint64
	LastCommitted uint64
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("committer: checkpoint %d is not after last committed checkpoint %d", e.Got, e.LastCommitted)
}
