// Package harvest discovers the dependencies of a project directory and
// reconciles them into a [store.Store].
//
// A scan runs in three stages:
//
//  1. [Aggregator.Gather] runs every collector concurrently and concatenates
//     their deduplicated outputs. Ecosystems are never merged.
//  2. [Reconciler.Reconcile] upserts the identities in sequential batches,
//     fanning out one goroutine per dependency inside a batch.
//  3. [FindUnindexed] lists the records still awaiting the indexer.
//
// [Scanner] wires the stages together and is what hosts (CLI, worker, HTTP)
// call:
//
//	s := harvest.New(st, harvest.Options{Logger: logger})
//	summary, err := s.Scan(ctx, "/srv/projects/api")
//
// The scan never writes LastIndexedAt. Re-scanning a project only inserts
// new identities and advances LastSeenAt on existing ones, so the set of
// unindexed records is stable under repeated and partially failed scans.
package harvest
