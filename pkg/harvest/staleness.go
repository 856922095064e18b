package harvest

import (
	"context"

	"github.com/matzehuels/locallore/pkg/store"
)

// FindUnindexed returns the records whose LastIndexedAt is unset. The
// result is never nil; store errors are returned unchanged.
func FindUnindexed(ctx context.Context, s store.Store) ([]store.Record, error) {
	recs, err := s.FindUnindexed(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []store.Record{}
	}
	return recs, nil
}
