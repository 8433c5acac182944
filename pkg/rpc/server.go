package rpc

import (
	"context"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/hub"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/query"
)

// Service implements IndexerServer over the Query Service (C7) and
// Subscription Hub (C6), the same "struct wired to the domain layer it
// fronts" shape as cuemby-warren/pkg/api.Server wrapping *manager.Manager.
type Service struct {
	query *query.Service
	hub   *hub.Hub
}

// NewService builds a Service over its collaborators.
func NewService(q *query.Service, h *hub.Hub) *Service {
	return &Service{query: q, hub: h}
}

// QueryTable implements the QueryTable RPC (spec §4.6/§6).
func (s *Service) QueryTable(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	result, err := s.query.Execute(ctx, req.toQuery())
	if err != nil {
		return nil, err
	}
	return fromResult(result), nil
}

// SubscribeTable implements the SubscribeTable RPC (spec §4.5/§6): an
// empty table_ids means all tables. The stream runs until the client
// disconnects (stream.Context() is done) or the hub evicts the
// subscription, whichever comes first.
func (s *Service) SubscribeTable(req *SubscribeRequest, stream Indexer_SubscribeTableServer) error {
	ctx := stream.Context()
	ch, cancel := s.hub.Subscribe(ctx, req.TableIds)
	defer cancel()

	logger := log.WithComponent("rpc")
	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return nil
			}
			msg := &ChangeRecordMsg{
				TableName:   rec.TableName,
				Payload:     map[string]interface{}(rec.Payload),
				Op:          string(rec.Op),
				Digest:      rec.Digest,
				TimestampMs: rec.TimestampMs,
			}
			if err := stream.Send(msg); err != nil {
				logger.Debug().Err(err).Str("table", rec.TableName).Msg("subscriber send failed, dropping stream")
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
