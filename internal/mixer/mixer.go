// Package mixer re-interleaves a score-sorted feed so a target fraction
// of the visible window is discovery content. It only controls
// placement diversity: relative order within the following and
// discovery buckets is never changed, and score magnitudes are never
// touched.
package mixer

import (
	"context"
	"math"

	"github.com/openchorus/feedrank/internal/feed"
	"github.com/openchorus/feedrank/internal/tracing"
)

// DefaultTargetRatio is the default share of the feed window reserved
// for discovery posts.
const DefaultTargetRatio = 0.3

// Interleave reorders the ranked posts so that up to
// ceil(n * targetRatio) discovery posts are pulled forward, one at
// every third position. The output is a permutation of the input: no
// additions, removals, or duplication. When either bucket runs out the
// walk falls back entirely to the other, so the result always has the
// same length as the input.
//
// A non-finite or out-of-range targetRatio is clamped to [0, 1].
func Interleave(ctx context.Context, ranked []feed.RankablePost, viewer feed.ViewerContext, targetRatio float64) []feed.RankablePost {
	if math.IsNaN(targetRatio) || targetRatio < 0 {
		targetRatio = 0
	}
	if targetRatio > 1 {
		targetRatio = 1
	}

	_, endSpan := tracing.StartMixSpan(ctx, len(ranked), targetRatio)

	ix := viewer.Index()

	// Partition preserving the scored order within each bucket.
	var discovery, following []feed.RankablePost
	for _, post := range ranked {
		if ix.IsDiscovery(post.UserID) {
			discovery = append(discovery, post)
		} else {
			following = append(following, post)
		}
	}

	n := len(ranked)
	quota := int(math.Ceil(float64(n) * targetRatio))

	out := make([]feed.RankablePost, 0, n)
	di, fi := 0, 0
	placed := 0
	for i := 0; i < n; i++ {
		discoverySlot := (i+1)%3 == 0
		switch {
		case (discoverySlot || fi >= len(following)) && di < len(discovery) && placed < quota:
			out = append(out, discovery[di])
			di++
			placed++
		case fi < len(following):
			out = append(out, following[fi])
			fi++
		default:
			// Following bucket exhausted and quota met: fill from
			// whatever discovery remains.
			out = append(out, discovery[di])
			di++
			placed++
		}
	}

	endSpan(placed)
	return out
}
