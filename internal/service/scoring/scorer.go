// Package scoring rates the agreement between two canonical reply
// serializations. Two strategies exist behind one interface: a
// deterministic edit-distance percentage (the default) and a
// model-delegated rating. The two are not numerically comparable.
package scoring

import (
	"context"

	"github.com/danieljharvey/chatbat/internal/analysis/similarity"
)

// Scorer rates how similar two texts are on a bounded 0-100 scale
// where higher means more similar.
type Scorer interface {
	Score(ctx context.Context, a, b string) (int, error)
}

// EditScorer is the deterministic strategy: the normalized Levenshtein
// percentage from analysis/similarity. It never fails and byte-equal
// inputs always score exactly 100.
type EditScorer struct{}

func (EditScorer) Score(_ context.Context, a, b string) (int, error) {
	return similarity.Percent(a, b), nil
}
