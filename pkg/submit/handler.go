package submit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/cache"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/checkpoint"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/committer"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/vm"
)

// Handler implements POST /submit (spec §4.7): method-check, then call
// into the VM Driver, checkpoint processor, and committer in turn — the
// same check-method / call-domain-logic / JSON-encode shape as
// cuemby-warren's HealthServer handlers, generalized from a liveness
// check to a full transaction submission.
type Handler struct {
	driver    *vm.Driver
	cache     *cache.Cache
	processor *checkpoint.Processor
	committer *committer.Committer
}

// NewHandler builds a Handler over its collaborators.
func NewHandler(driver *vm.Driver, c *cache.Cache, processor *checkpoint.Processor, cm *committer.Committer) *Handler {
	return &Handler{driver: driver, cache: c, processor: processor, committer: cm}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("unknown", "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, envelope{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	sender, err := NormalizeSender(req.Chain, req.Sender)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(string(req.Chain), "invalid_sender").Inc()
		writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
		return
	}

	tx, err := h.resolvePTB(r.Context(), req.PTB)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(string(req.Chain), "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
		return
	}

	// digest is caller-supplied, not cryptographically derived (spec §4.3
	// "digest is caller-supplied, not derived"); a submission has no
	// signed transaction image to hash, so a random uuid identifies it.
	digest := uuid.NewString()

	result, err := h.driver.Simulate(r.Context(), tx, h.cache, sender, digest)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(string(req.Chain), "simulate_error").Inc()
		writeJSON(w, http.StatusInternalServerError, envelope{Error: fmt.Sprintf("simulation failed: %v", err)})
		return
	}

	// Synthetic single-transaction checkpoint: §4.7 "compile events via
	// §4.1, apply fan-out (§4.5), and commit SQL (§4.4) in the caller's
	// async task" — a submission has no real checkpoint sequence, so
	// Sequence is purely a label here; CommitAdHoc never inspects it.
	events := make([]checkpoint.RawEvent, 0, len(result.Events))
	for _, ev := range result.Events {
		events = append(events, checkpoint.RawEvent{PackageID: ev.PackageID, Type: ev.EventType, BCS: ev.BCS})
	}
	cp := checkpoint.Checkpoint{
		TimestampMs: result.EpochTimestampMs,
		Transactions: []checkpoint.Transaction{
			{Digest: digest, Events: events},
		},
	}

	batches, err := h.processor.Process(r.Context(), cp)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(string(req.Chain), "compile_error").Inc()
		writeJSON(w, http.StatusInternalServerError, envelope{Error: fmt.Sprintf("event compilation failed: %v", err)})
		return
	}

	if err := h.committer.CommitAdHoc(r.Context(), batches); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(string(req.Chain), "commit_error").Inc()
		writeJSON(w, http.StatusInternalServerError, envelope{Error: fmt.Sprintf("commit failed: %v", err)})
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(string(req.Chain), "ok").Inc()
	log.WithComponent("submit").Info().
		Str("digest", digest).
		Str("sender", sender).
		Int("sql_count", len(batches)).
		Msg("submission committed")

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: Response{
			Chain:    req.Chain,
			Sender:   sender,
			Nonce:    req.Nonce,
			TxDigest: digest,
			SQLCount: len(batches),
		},
	})
}

// resolvePTB builds a vm.ProgrammableTransaction from the wire PTB,
// resolving every UnresolvedObject input through the cache (spec §4.7
// "Transaction build").
func (h *Handler) resolvePTB(ctx context.Context, ptb PTB) (*vm.ProgrammableTransaction, error) {
	inputs := make([]vm.Input, 0, len(ptb.Inputs))
	for i, raw := range ptb.Inputs {
		switch raw.Kind {
		case "UnresolvedObject":
			id, err := cache.ParseObjectId(raw.ObjectID)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			obj, err := h.cache.GetObject(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("input %d: fetch object %s: %w", i, raw.ObjectID, err)
			}
			if obj == nil {
				return nil, fmt.Errorf("input %d: object %s not found", i, raw.ObjectID)
			}
			input := vm.Input{
				Kind:   vm.InputObject,
				Object: cache.ObjectRef{ID: obj.ID, Version: obj.Version, Digest: obj.Digest},
			}
			if obj.Owner.Kind == cache.OwnerShared {
				input.Shared = true
				input.InitialSharedVersion = obj.Owner.InitialSharedVersion
			}
			inputs = append(inputs, input)
		case "Pure":
			b, err := base64.StdEncoding.DecodeString(raw.Bytes)
			if err != nil {
				return nil, fmt.Errorf("input %d: invalid base64 pure bytes: %w", i, err)
			}
			inputs = append(inputs, vm.Input{Kind: vm.InputPure, Pure: b})
		default:
			return nil, fmt.Errorf("input %d: unrecognized kind %q", i, raw.Kind)
		}
	}

	commands := make([]vm.MoveCall, 0, len(ptb.Commands))
	for _, c := range ptb.Commands {
		commands = append(commands, vm.MoveCall{
			Package:       c.Package,
			Module:        c.Module,
			Function:      c.Function,
			TypeArguments: c.TypeArguments,
			Args:          c.Arguments,
		})
	}

	return &vm.ProgrammableTransaction{Inputs: inputs, Commands: commands}, nil
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
