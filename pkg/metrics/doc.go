/*
Package metrics defines and registers the indexer's Prometheus metrics and
exposes them over HTTP for scraping.

Metrics are grouped by the component that owns them:

  - Checkpoint/decode (pkg/checkpoint): CheckpointsProcessedTotal,
    CheckpointSequence, EventsDecodedTotal, EventsRejectedTotal,
    DecodeErrorsTotal.
  - Commit (pkg/committer): CommitDuration, CommitBatchSize, CommitErrorsTotal.
  - Cache (pkg/cache): CacheHitsTotal, CacheMissesTotal, CacheSize.
  - Subscription hub (pkg/hub): SubscribersActive, ChangesPublishedTotal,
    ChangesDroppedTotal.
  - Query (pkg/query): QueryDuration, QueryErrorsTotal.
  - Submission/VM (pkg/submit, pkg/vm): SubmissionsTotal, SimulateDuration.
  - RPC surface (pkg/router, pkg/rpc): RPCRequestsTotal, RPCRequestDuration.

ChangesDroppedTotal, RPCRequestsTotal and RPCRequestDuration are registered
and exported, but no package updates them.

All metrics are package-level variables registered against the default
Prometheus registry in init(); callers update them directly rather than
going through a central collector, since the indexer has no long-lived
stateful manager to poll — metrics are updated inline as each component
does its work.

	timer := metrics.NewTimer()
	err := store.ExecTx(ctx, apply)
	timer.ObserveDuration(metrics.CommitDuration)
	if err != nil {
		metrics.CommitErrorsTotal.Inc()
	}

Handler() returns the promhttp handler to mount at /metrics.
*/
package metrics
