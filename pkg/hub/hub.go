// Package hub implements the Subscription Hub (spec §4.5): a publisher
// fans change records out to per-subscriber channels. Grounded directly on
// cuemby-warren/pkg/events/events.go's Broker (subscribe/publish/broadcast
// under a RWMutex, one channel per subscriber) — renamed to the indexer's
// per-table ChangeRecord fan-out, with the subscriber side reshaped from a
// fixed-size buffered channel to an effectively unbounded queue because
// spec §5 requires a slow subscriber to leak memory rather than drop
// messages, evicted only opportunistically on the next failed send.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/schema"
)

// ChangeOp names the three kinds of row mutation a ChangeRecord can carry.
type ChangeOp string

const (
	OpSet      ChangeOp = "set"
	OpSetField ChangeOp = "set_field"
	OpDelete   ChangeOp = "delete"
)

// ChangeRecord is what gets published to subscribers (spec §4.5).
type ChangeRecord struct {
	TableName   string
	Payload     schema.StructuredRecord
	Op          ChangeOp
	Digest      string
	TimestampMs uint64
}

// Hub fans published records out to subscribers. The zero value is not
// usable; construct with New.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
}

// New builds an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[uint64]*subscription)}
}

// Subscribe registers a new subscriber. tables is the set of table names to
// receive records for; an empty slice means all tables (spec §4.5:
// "subscribe(table_names | ∅) -> Stream<ChangeRecord> where ∅ means all
// tables"). The returned channel is closed when ctx is done or cancel is
// called — whichever comes first — matching the gRPC stream lifecycle in
// pkg/rpc. cancel removes the subscription from the hub at once; a
// subscription whose ctx is done is removed on the next Publish to a table
// it matches.
func (h *Hub) Subscribe(ctx context.Context, tables []string) (ch <-chan *ChangeRecord, cancel func()) {
	sub := newSubscription(ctx, tables)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	for _, t := range sub.tableList() {
		metrics.SubscribersActive.WithLabelValues(t).Inc()
	}

	cancel = func() { h.remove(id) }
	return sub.out, cancel
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	sub.stop()
	for _, t := range sub.tableList() {
		metrics.SubscribersActive.WithLabelValues(t).Dec()
	}
}

// Publish enqueues record on every subscriber interested in table. Never
// blocks the caller (spec §5: "every subscription publish is fire-and-
// forget (never suspends the producer)") — a subscriber that has been
// stopped or whose context is done is detected and evicted on this call,
// not proactively.
func (h *Hub) Publish(table string, record *ChangeRecord) {
	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs))
	ids := make([]uint64, 0, len(h.subs))
	for id, sub := range h.subs {
		if sub.matches(table) {
			targets = append(targets, sub)
			ids = append(ids, id)
		}
	}
	h.mu.RUnlock()

	for i, sub := range targets {
		if !sub.enqueue(record) {
			h.remove(ids[i])
		}
	}
	metrics.ChangesPublishedTotal.WithLabelValues(table).Inc()
}

// SubscriberCounts reports active subscriber counts by table (plus the
// synthetic key "*" for all-tables subscribers); satisfies
// pkg/metrics.SubscriberCounter.
func (h *Hub) SubscriberCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	counts := make(map[string]int)
	for _, sub := range h.subs {
		for _, t := range sub.tableList() {
			counts[t]++
		}
	}
	return counts
}

// subscription is one subscriber's effectively-unbounded, ordered queue. A
// background goroutine drains it into out, one record at a time, so that
// Publish's enqueue never blocks.
type subscription struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []*ChangeRecord
	notify chan struct{}

	out     chan *ChangeRecord
	tables  map[string]struct{}
	stopped atomic.Bool
}

func newSubscription(ctx context.Context, tables []string) *subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		ctx:    ctx,
		cancel: cancel,
		notify: make(chan struct{}, 1),
		out:    make(chan *ChangeRecord),
	}
	if len(tables) > 0 {
		s.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			s.tables[t] = struct{}{}
		}
	}
	go s.pump()
	return s
}

func (s *subscription) tableList() []string {
	if len(s.tables) == 0 {
		return []string{"*"}
	}
	out := make([]string, 0, len(s.tables))
	for t := range s.tables {
		out = append(out, t)
	}
	return out
}

func (s *subscription) matches(table string) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[table]
	return ok
}

// enqueue appends record to the tail of the queue and wakes the pump. It
// never blocks and never drops — the queue grows without bound until the
// pump drains it (spec §5 backpressure). Returns false if the subscription
// has already been stopped or its context is done, signaling the caller to
// evict it.
func (s *subscription) enqueue(record *ChangeRecord) bool {
	if s.stopped.Load() || s.ctx.Err() != nil {
		return false
	}
	s.mu.Lock()
	s.queue = append(s.queue, record)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

func (s *subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		var rec *ChangeRecord
		if len(s.queue) > 0 {
			rec = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if rec == nil {
			select {
			case <-s.notify:
				continue
			case <-s.ctx.Done():
				return
			}
		}

		select {
		case s.out <- rec:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *subscription) stop() {
	s.stopped.Store(true)
	s.cancel()
}
