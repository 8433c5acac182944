package cache

import "sync"

// l0 is the in-memory ObjectId -> Object map (spec §4.2 "L0"). It permits
// concurrent readers and serializes writers, the same read/write-under-lock
// shape the teacher's bolt-backed store used for its buckets, translated
// from a disk bucket to a plain map since L0 is explicitly process-scoped
// with no persistence.
type l0 struct {
	mu      sync.RWMutex
	objects map[ObjectId]*Object
}

func newL0() *l0 {
	return &l0{objects: make(map[ObjectId]*Object)}
}

// get returns a clone of the cached object, or nil if absent.
func (s *l0) get(id ObjectId) *Object {
	s.mu.RLock()
	obj, ok := s.objects[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return obj.Clone()
}

// getAt returns a clone of the cached object iff its version matches want;
// otherwise it reports a miss so the caller can fall back to L1 (spec §4.2
// "get_object_at ... falls back to current version if the entry's version
// matches, otherwise miss").
func (s *l0) getAt(id ObjectId, want uint64) *Object {
	s.mu.RLock()
	obj, ok := s.objects[id]
	s.mu.RUnlock()
	if !ok || obj.Version != want {
		return nil
	}
	return obj.Clone()
}

// insert replaces (or creates) the entry for obj.ID. Idempotent: re-inserting
// the same object is a no-op in effect.
func (s *l0) insert(obj *Object) {
	cp := obj.Clone()
	s.mu.Lock()
	s.objects[cp.ID] = cp
	s.mu.Unlock()
}

// len reports the number of distinct objects held in L0; used by
// pkg/metrics.CacheSizer.
func (s *l0) len() int {
	s.mu.RLock()
	n := len(s.objects)
	s.mu.RUnlock()
	return n
}
