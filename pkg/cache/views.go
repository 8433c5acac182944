package cache

import (
	"context"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
	"github.com/0xobelisk/dubhe-indexer-go/pkg/metrics"
)

// ChildResolver implements the VM's child-object view (spec §4.2
// "child-object view", §9 open question Q1). Two strategies exist because
// the spec flags the original behavior as possibly-a-bug and asks for a
// pluggable strategy defaulting to strict verification when possible.
type ChildResolver interface {
	// ReadChild resolves a dynamic-field child object, verifying (or not,
	// depending on the strategy) that it actually belongs to parent at the
	// requested version.
	ReadChild(ctx context.Context, c *Cache, parent, child ObjectId, version uint64) (*Object, error)
	// ReceivedAtVersion resolves an object transferred to parent at a
	// given epoch/version, under the same verification strategy.
	ReceivedAtVersion(ctx context.Context, c *Cache, parent, child ObjectId, version uint64, epoch uint64) (*Object, error)
}

// StrictChildResolver verifies that the cached child's recorded owner is
// parent and its version matches before returning it; a mismatch is a
// miss, not an error. This is the default (spec §9: "default to strict
// verification when possible").
type StrictChildResolver struct{}

func (StrictChildResolver) ReadChild(ctx context.Context, c *Cache, parent, child ObjectId, version uint64) (*Object, error) {
	obj, err := c.GetObjectAt(ctx, child, version)
	if err != nil || obj == nil {
		return nil, err
	}
	if obj.Owner.Kind != OwnerObject || obj.Owner.Parent != parent {
		log.WithComponent("cache").Debug().
			Str("parent", parent.String()).
			Str("child", child.String()).
			Msg("strict child resolver: cached object does not verify against claimed parent")
		return nil, nil
	}
	return obj, nil
}

func (s StrictChildResolver) ReceivedAtVersion(ctx context.Context, c *Cache, parent, child ObjectId, version, _ uint64) (*Object, error) {
	return s.ReadChild(ctx, c, parent, child, version)
}

// RelaxedChildResolver is the legacy, opt-in behavior spec §4.2 describes
// as currently live: it returns whatever is cached for child without
// checking parent/version provenance, logging at debug so the shortcut is
// at least visible in traces.
type RelaxedChildResolver struct{}

func (RelaxedChildResolver) ReadChild(ctx context.Context, c *Cache, parent, child ObjectId, version uint64) (*Object, error) {
	log.WithComponent("cache").Debug().
		Str("parent", parent.String()).
		Str("child", child.String()).
		Msg("relaxed child resolver: returning cached object without provenance check")
	return c.GetObject(ctx, child)
}

func (r RelaxedChildResolver) ReceivedAtVersion(ctx context.Context, c *Cache, parent, child ObjectId, version, _ uint64) (*Object, error) {
	return r.ReadChild(ctx, c, parent, child, version)
}

// Cache is the single concrete type implementing all of the VM's view
// traits over one shared L0 store (spec §9: "design as a single concrete
// type implementing four small view traits; do not store back-references —
// each view reads from the same shared L0 lock").
type Cache struct {
	store    *l0
	bridge   *asyncBridge
	resolver ChildResolver
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithChildResolver overrides the default StrictChildResolver.
func WithChildResolver(r ChildResolver) Option {
	return func(c *Cache) { c.resolver = r }
}

// New builds a Cache over remote, with workers background goroutines
// servicing the async-over-sync bridge (spec §9).
func New(remote RemoteObjectService, workers int, opts ...Option) *Cache {
	c := &Cache{
		store:    newL0(),
		bridge:   newAsyncBridge(remote, workers),
		resolver: StrictChildResolver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the bridge's worker pool.
func (c *Cache) Close() {
	c.bridge.stop()
}

// Len reports the number of objects held in L0; satisfies
// pkg/metrics.CacheSizer.
func (c *Cache) Len() int {
	return c.store.len()
}

// GetObject implements the ObjectStore view's get_object (spec §4.2
// "Read-through protocol"): probe L0 under a read lock; on miss, upgrade to
// a write lock, re-check (double-checked), fetch from L1, insert, return.
func (c *Cache) GetObject(ctx context.Context, id ObjectId) (*Object, error) {
	if obj := c.store.get(id); obj != nil {
		metrics.CacheHitsTotal.WithLabelValues("l0").Inc()
		return obj, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("l0").Inc()

	// Double-checked under the write lock: another goroutine may have filled
	// the entry between the read probe above and acquiring the lock.
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if cached, ok := c.store.objects[id]; ok {
		metrics.CacheHitsTotal.WithLabelValues("l0").Inc()
		return cached.Clone(), nil
	}

	obj, err := c.bridge.fetch(ctx, id)
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues("l1").Inc()
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	metrics.CacheHitsTotal.WithLabelValues("l1").Inc()
	c.store.objects[obj.ID] = obj.Clone()
	return obj, nil
}

// GetObjectAt implements get_object_at: a version-matched read that falls
// back to L1 only when L0 holds no entry at all; if L0 holds a different
// version it is a miss, not a stale read (spec §4.2).
func (c *Cache) GetObjectAt(ctx context.Context, id ObjectId, version uint64) (*Object, error) {
	if obj := c.store.getAt(id, version); obj != nil {
		metrics.CacheHitsTotal.WithLabelValues("l0").Inc()
		return obj, nil
	}
	obj, err := c.GetObject(ctx, id)
	if err != nil || obj == nil {
		return nil, err
	}
	if obj.Version != version {
		return nil, nil
	}
	return obj, nil
}

// InsertObject implements insert_object: an idempotent put, replacing any
// existing entry by id (spec §4.2).
func (c *Cache) InsertObject(obj *Object) {
	c.store.insert(obj)
}

// GetPackage implements the VM's package view: identical lookup, wrapped
// as a package (spec §4.2).
func (c *Cache) GetPackage(ctx context.Context, id ObjectId) (*Object, error) {
	obj, err := c.GetObject(ctx, id)
	if err != nil || obj == nil {
		return obj, err
	}
	if !obj.IsPackage() {
		return nil, nil
	}
	return obj, nil
}

// ReadChild implements the VM's child-object view via the configured
// resolver strategy.
func (c *Cache) ReadChild(ctx context.Context, parent, child ObjectId, version uint64) (*Object, error) {
	return c.resolver.ReadChild(ctx, c, parent, child, version)
}

// ReceivedAtVersion implements the VM's child-object view via the
// configured resolver strategy.
func (c *Cache) ReceivedAtVersion(ctx context.Context, parent, child ObjectId, version, epoch uint64) (*Object, error) {
	return c.resolver.ReceivedAtVersion(ctx, c, parent, child, version, epoch)
}

// LatestParentRef implements the parent-sync view: the object's own
// (id, version, digest) if cached, else none (spec §4.2 "parent sync").
func (c *Cache) LatestParentRef(id ObjectId) *ObjectRef {
	obj := c.store.get(id)
	if obj == nil {
		return nil
	}
	return &ObjectRef{ID: obj.ID, Version: obj.Version, Digest: obj.Digest}
}
