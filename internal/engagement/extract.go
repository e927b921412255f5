// Package engagement normalizes raw, possibly sampled engagement data
// into the per-post counts the scoring engine consumes, including an
// estimate of how many distinct users engaged with each post.
package engagement

import (
	"math"

	"github.com/openchorus/feedrank/internal/feed"
)

// RawEngagement is the shape of engagement data as it arrives from the
// persistence layer: total counts plus optional sampled arrays of the
// user IDs behind some of those interactions. Upstream relation fetches
// are capped, so the sampled arrays may cover only a subset of the
// totals.
type RawEngagement struct {
	Likes   int `json:"likes"`
	Replies int `json:"replies"`
	Reposts int `json:"reposts"`
	Saves   int `json:"saves"`

	SampledLikerIDs    []string `json:"sampled_liker_ids,omitempty"`
	SampledReplierIDs  []string `json:"sampled_replier_ids,omitempty"`
	SampledReposterIDs []string `json:"sampled_reposter_ids,omitempty"`
	SampledSaverIDs    []string `json:"sampled_saver_ids,omitempty"`
}

// Extract converts raw engagement data into normalized PostMetrics.
//
// The distinct-engager estimate works as follows:
//  1. Collect every resolvable user ID across the sampled arrays into a
//     set; sampleSize is the number of sampled records with a
//     resolvable ID.
//  2. If the post has no interactions at all, UniqueEngagers is 0.
//  3. If the sample covers every interaction (nothing was truncated
//     upstream), UniqueEngagers is the exact size of the ID set.
//  4. Otherwise extrapolate: uniquenessRatio = |idSet| / sampleSize
//     (1.0 when the sample is empty), and
//     UniqueEngagers = round(totalInteractions * uniquenessRatio).
//
// The extrapolation trades exactness for bounded sampling cost upstream
// and is biased for small samples. The estimate is always clamped to
// the total interaction count.
func Extract(raw RawEngagement) feed.PostMetrics {
	metrics := feed.PostMetrics{
		Likes:   raw.Likes,
		Replies: raw.Replies,
		Reposts: raw.Reposts,
		Saves:   raw.Saves,
	}.Clamped()

	total := metrics.TotalInteractions()
	if total == 0 {
		return metrics
	}

	idSet := make(map[string]struct{})
	sampleSize := 0
	for _, sample := range [][]string{
		raw.SampledLikerIDs,
		raw.SampledReplierIDs,
		raw.SampledReposterIDs,
		raw.SampledSaverIDs,
	} {
		for _, id := range sample {
			if id == "" {
				continue // unresolvable record, excluded from the sample
			}
			sampleSize++
			idSet[id] = struct{}{}
		}
	}

	if sampleSize == total {
		// Every interaction was present in the sample; the distinct
		// count is exact.
		metrics.UniqueEngagers = len(idSet)
		return metrics.Clamped()
	}

	uniquenessRatio := 1.0
	if sampleSize > 0 {
		uniquenessRatio = float64(len(idSet)) / float64(sampleSize)
	}
	metrics.UniqueEngagers = int(math.Round(float64(total) * uniquenessRatio))

	return metrics.Clamped()
}
