// Package checkpoint implements the Checkpoint Processor (spec §4.4):
// for each finalized checkpoint, filter its events by origin package and
// dapp key, decode the three store event variants, compile them through
// the Schema Registry into row batches, and fan a structured payload out
// to the Subscription Hub asynchronously, ahead of relational commit.
package checkpoint

// RawEvent is one event as delivered by the chain stream source, before
// this package narrows it to one of the three recognized store events.
type RawEvent struct {
	PackageID string
	Type      string
	BCS       []byte
}

// Transaction is one finalized transaction within a Checkpoint. Digest
// identifies it for last_update_digest columns and ChangeRecord.Digest.
type Transaction struct {
	Digest string
	Events []RawEvent
}

// Checkpoint is a batch of finalized transactions delivered atomically by
// the stream source (glossary). Sequence is strictly ascending across
// checkpoints; TimestampMs stamps every row this checkpoint produces.
type Checkpoint struct {
	Sequence     uint64
	TimestampMs  uint64
	Transactions []Transaction
}

// RowBatch is one compiled SQL statement bound to the table it targets
// (spec §4.4 "compile ... into (table_name, [DBData])"). The committer
// accumulates RowBatches across a checkpoint and applies them in emit
// order inside a single transaction.
type RowBatch struct {
	CheckpointSequence uint64
	TableName          string
	SQL                string
}
