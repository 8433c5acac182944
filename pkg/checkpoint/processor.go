package checkpoint

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/hub"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/schema"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/storeevents"
)

// Processor implements process(checkpoint) -> [RowBatch] (spec §4.4).
type Processor struct {
	schema *schema.Schema
	hub    *hub.Hub
}

// NewProcessor builds a Processor bound to one dapp's Schema and the
// process-wide Subscription Hub.
func NewProcessor(s *schema.Schema, h *hub.Hub) *Processor {
	return &Processor{schema: s, hub: h}
}

// Process filters cp's events to this processor's origin package, decodes
// the three recognized store event variants, compiles each into a SQL
// RowBatch, and fans a structured ChangeRecord out to the hub
// asynchronously so a slow subscriber never blocks checkpoint processing.
// A per-event decode/validation/rejection failure drops that event and
// continues the batch (spec §4.1 "Failure"); it never fails the whole
// checkpoint.
func (p *Processor) Process(ctx context.Context, cp Checkpoint) ([]RowBatch, error) {
	logger := log.WithCheckpoint(cp.Sequence)
	var batches []RowBatch

	for _, tx := range cp.Transactions {
		for _, ev := range tx.Events {
			if ev.PackageID != p.schema.PackageID {
				continue
			}

			sql, tableName, record, err := p.compileEvent(ev, tx.Digest, cp.TimestampMs)
			if err != nil {
				p.recordEventFailure(logger, ev, err)
				continue
			}
			if sql == "" {
				// Unrecognized event type name; not one of the three
				// store event variants.
				continue
			}

			metrics.EventsDecodedTotal.WithLabelValues(ev.Type).Inc()
			batches = append(batches, RowBatch{
				CheckpointSequence: cp.Sequence,
				TableName:          tableName,
				SQL:                sql,
			})

			if p.hub != nil {
				go p.hub.Publish(tableName, record)
			}
		}
	}

	metrics.CheckpointsProcessedTotal.Inc()
	metrics.CheckpointSequence.Set(float64(cp.Sequence))
	logger.Debug().Int("row_batches", len(batches)).Msg("checkpoint processed")
	return batches, nil
}

func (p *Processor) recordEventFailure(logger zerolog.Logger, ev RawEvent, err error) {
	label, isRejection := classifyFailure(err)
	if isRejection {
		metrics.EventsRejectedTotal.WithLabelValues(label).Inc()
		logger.Debug().Str("table", ev.Type).Err(err).Msg("event rejected")
		return
	}
	var decErr *schema.DecodeError
	if errors.As(err, &decErr) {
		metrics.DecodeErrorsTotal.WithLabelValues(decErr.Table).Inc()
		logger.Warn().Err(err).Msg("event decode failed")
		return
	}
	logger.Warn().Err(err).Msg("event validation failed")
}

// compileEvent dispatches ev by its event-type name, decodes its BCS
// body, confirms dapp_key/table via CanCompile, and renders both the SQL
// statement (for the committer) and the structured payload (for the
// hub). sql == "" signals an unrecognized event-type name.
func (p *Processor) compileEvent(ev RawEvent, digest string, tsMs uint64) (sql, tableName string, record *hub.ChangeRecord, err error) {
	switch ev.Type {
	case storeevents.TypeSetRecord:
		decoded, derr := storeevents.DecodeSetRecord(ev.BCS)
		if derr != nil {
			return "", "", nil, derr
		}
		if cerr := p.schema.CanCompile(decoded.TableID, decoded.DappKey); cerr != nil {
			return "", "", nil, cerr
		}
		sql, err = p.schema.CompileSetRecordToSQL(decoded, tsMs, digest)
		if err != nil {
			return "", "", nil, err
		}
		payload, perr := p.schema.CompileSetRecordToPayload(decoded)
		if perr != nil {
			return "", "", nil, perr
		}
		return sql, decoded.TableID, &hub.ChangeRecord{
			TableName:   decoded.TableID,
			Payload:     payload,
			Op:          hub.OpSet,
			Digest:      digest,
			TimestampMs: tsMs,
		}, nil

	case storeevents.TypeSetField:
		decoded, derr := storeevents.DecodeSetField(ev.BCS)
		if derr != nil {
			return "", "", nil, derr
		}
		if cerr := p.schema.CanCompile(decoded.TableID, decoded.DappKey); cerr != nil {
			return "", "", nil, cerr
		}
		sql, err = p.schema.CompileSetFieldToSQL(decoded, tsMs)
		if err != nil {
			return "", "", nil, err
		}
		payload, perr := p.schema.CompileSetFieldToPayload(decoded)
		if perr != nil {
			return "", "", nil, perr
		}
		return sql, decoded.TableID, &hub.ChangeRecord{
			TableName:   decoded.TableID,
			Payload:     payload,
			Op:          hub.OpSetField,
			Digest:      digest,
			TimestampMs: tsMs,
		}, nil

	case storeevents.TypeDeleteRecord:
		decoded, derr := storeevents.DecodeDeleteRecord(ev.BCS)
		if derr != nil {
			return "", "", nil, derr
		}
		if cerr := p.schema.CanCompile(decoded.TableID, decoded.DappKey); cerr != nil {
			return "", "", nil, cerr
		}
		sql, err = p.schema.CompileDeleteRecordToSQL(decoded, tsMs, digest)
		if err != nil {
			return "", "", nil, err
		}
		payload, perr := p.schema.CompileDeleteRecordToPayload(decoded)
		if perr != nil {
			return "", "", nil, perr
		}
		return sql, decoded.TableID, &hub.ChangeRecord{
			TableName:   decoded.TableID,
			Payload:     payload,
			Op:          hub.OpDelete,
			Digest:      digest,
			TimestampMs: tsMs,
		}, nil

	default:
		return "", "", nil, nil
	}
}

// classifyFailure distinguishes a routine CanCompile rejection (unknown
// table / dapp_key mismatch) from a decode error, for metric labeling.
func classifyFailure(err error) (metricLabel string, isRejection bool) {
	var decErr *schema.DecodeError
	if errors.As(err, &decErr) {
		return decErr.Table, false
	}
	if schema.IsRejected(err) {
		return "rejected", true
	}
	return "validation", false
}
