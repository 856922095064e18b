// Package pkg holds the reusable libraries behind locallore, a harvester that
// records the third-party dependencies of local projects so an external
// indexer can pick up the ones it has not processed yet.
//
// # Data flow
//
//	project directory
//	       ↓
//	  [deps] collectors (cargo, npm, go, pypi)
//	       ↓
//	  [harvest] aggregate → reconcile in batches
//	       ↓
//	  [store] dependencies + project links
//	       ↓
//	  FindUnindexed → indexer
//
// # Packages
//
//   - deps: the Dependency model and one collector per ecosystem under
//     deps/rust, deps/javascript, deps/golang and deps/python. deps/languages
//     lists them all.
//   - harvest: the Scanner that runs collectors concurrently,
//     caches per-manifest results and upserts batches into a store.
//   - store: the Store contract with memory, postgres and mongo
//     backends.
//   - cache: byte caches (file, LRU, null) for collector results.
//   - errors: coded errors shared by every layer.
//   - observability: hook interfaces the service wires to metrics.
//   - httputil: JSON response helpers for the HTTP API.
//   - buildinfo: version information set at build time.
//
// # Quick Start
//
//	st := memory.New()
//	scanner := harvest.New(st, harvest.Options{})
//	summary, err := scanner.Scan(ctx, "/home/me/src/app")
//	if err != nil {
//	    return err
//	}
//	pending, _ := harvest.FindUnindexed(ctx, st)
//	fmt.Println(summary.Upserted, len(pending))
//
// The locallore binary in cmd/locallore wraps these packages with
// configuration, a scheduler, a Redis-backed queue and an HTTP API.
package pkg
