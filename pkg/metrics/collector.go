package metrics

import "time"

// CacheSizer reports the current object count of an object cache. Satisfied
// by *cache.Cache; kept as a narrow interface here so pkg/metrics does not
// import pkg/cache.
type CacheSizer interface {
	Len() int
}

// SubscriberCounter reports active subscriber counts by table. Satisfied by
// *hub.Hub.
type SubscriberCounter interface {
	SubscriberCounts() map[string]int
}

// Collector periodically snapshots gauge-shaped state that components don't
// naturally push on every change (cache size, subscriber counts). Counters
// and histograms (commits, decodes, queries, submissions) are updated inline
// by their owning components instead of through this collector.
type Collector struct {
	cache  CacheSizer
	subs   SubscriberCounter
	stopCh chan struct{}
	period time.Duration
}

// NewCollector builds a Collector. Either argument may be nil if that
// component isn't wired into the running process (e.g. a query-only node).
func NewCollector(cache CacheSizer, subs SubscriberCounter) *Collector {
	return &Collector{
		cache:  cache,
		subs:   subs,
		stopCh: make(chan struct{}),
		period: 15 * time.Second,
	}
}

// Start begins periodic collection in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.period)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.cache != nil {
		CacheSize.Set(float64(c.cache.Len()))
	}
	if c.subs != nil {
		for table, n := range c.subs.SubscriberCounts() {
			SubscribersActive.WithLabelValues(table).Set(float64(n))
		}
	}
}
