// Package scoring computes deterministic, explainable ranking scores
// for batches of candidate posts. Every call is a pure function of its
// inputs, the caller-supplied clock, and the live weights snapshot; the
// engine performs no I/O and retains no state across calls.
package scoring

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/openchorus/feedrank/internal/feed"
	"github.com/openchorus/feedrank/internal/tracing"
	"github.com/openchorus/feedrank/internal/weights"
)

// Engine scores and orders candidate posts. It is safe for concurrent
// use: each Rank call only reads the shared weights store and never
// mutates shared post data.
type Engine struct {
	store   *weights.Store
	logger  *slog.Logger
	metrics *Metrics // nil disables instrumentation
}

// NewEngine creates a scoring engine reading live weights from store.
// A nil logger falls back to slog.Default; metrics may be nil when the
// host process does not scrape Prometheus.
func NewEngine(store *weights.Store, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// scoredPost carries the sort keys for one post through the final sort.
type scoredPost struct {
	id        string
	createdAt time.Time
	score     float64
}

// Rank scores every post in the batch against the current weights
// snapshot and returns the posts in final order with per-post
// breakdowns. The ordering is deterministic: final score descending,
// ties broken by creation time descending (newer wins), then by post ID
// for full reproducibility.
//
// Malformed records degrade to zero contribution rather than failing; a
// post whose scoring panics is isolated and assigned a zero-score
// breakdown so one bad record cannot abort the whole batch.
func (e *Engine) Rank(ctx context.Context, posts []feed.RankablePost, viewer feed.ViewerContext, now time.Time) Result {
	snap := e.store.Get()
	w := snap.Weights

	_, endSpan := tracing.StartRankSpan(ctx, len(posts), snap.Version)
	start := time.Now()

	ix := viewer.Index()
	repeats := duplicateRepeats(posts, w.Penalty)

	breakdowns := make(map[string]Breakdown, len(posts))
	order := make([]scoredPost, 0, len(posts))
	recovered := 0
	penalized := 0

	for i := range posts {
		b, ok := e.scorePost(&posts[i], ix, now, w, repeats[i])
		if !ok {
			recovered++
		}
		if b.Penalties > 0 {
			penalized++
		}
		breakdowns[posts[i].ID] = b
		order = append(order, scoredPost{
			id:        posts[i].ID,
			createdAt: posts[i].CreatedAt,
			score:     b.FinalScore,
		})
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		if !order[i].createdAt.Equal(order[j].createdAt) {
			return order[i].createdAt.After(order[j].createdAt)
		}
		return order[i].id < order[j].id
	})

	ids := make([]string, len(order))
	for i, sp := range order {
		ids[i] = sp.id
	}

	if e.metrics != nil {
		e.metrics.ObserveRank(time.Since(start), len(posts))
		e.metrics.AddPenalized(penalized)
		e.metrics.AddRecovered(recovered)
	}
	endSpan(len(ids), recovered)

	return Result{
		OrderedPostIDs: ids,
		BreakdownByID:  breakdowns,
	}
}

// scorePost computes the four-part breakdown for one post. The second
// return value is false when scoring panicked and the zero-score
// fallback was used.
func (e *Engine) scorePost(post *feed.RankablePost, ix feed.RelationshipIndex, now time.Time, w weights.Weights, repeatScore float64) (b Breakdown, ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("post scoring panicked, assigning zero score",
				"post_id", post.ID,
				"panic", r)
			b = Breakdown{}
			ok = false
		}
	}()

	rel := ix.Relationship(post.UserID)

	raw := rawEngagement(*post, rel, w)
	engagementScore := capEngagement(raw, w.Engagement)

	age := ageHours(post.CreatedAt, now)
	freshnessScore, decay := freshness(age, w.Freshness)

	newCreator := isNewCreator(*post, now, w.Discovery)
	var discoveryBoost float64
	if newCreator {
		discoveryBoost = w.Discovery.Boost
	}

	dupScore := repeatScore + duplicateHint(*post)
	penalties := dupScore*w.Penalty.DuplicatePenalty + ratioPenalty(*post, w.Penalty)
	if penalties < 0 {
		penalties = 0
	}

	final := sanitize(engagementScore*w.Blend.EngagementPercent/100 +
		freshnessScore*w.Blend.FreshnessPercent/100 +
		discoveryBoost - penalties)

	return Breakdown{
		EngagementScore: engagementScore,
		FreshnessScore:  freshnessScore,
		DiscoveryBoost:  discoveryBoost,
		Penalties:       sanitize(penalties),
		FinalScore:      final,
		Calculation: Calculation{
			RawEngagement:       raw,
			CappedEngagement:    engagementScore,
			AgeHours:            age,
			TimeDecayMultiplier: decay,
			NewCreator:          newCreator,
			DuplicateScore:      sanitize(dupScore),
			Relationship:        rel.String(),
		},
	}, ok
}

// dupKey groups batch posts by author and normalized content.
type dupKey struct {
	userID  string
	content string
}

// duplicateRepeats returns, for each post in the batch, how many
// earlier identical posts by the same author fall within the lookback
// window. The first occurrence scores 0; each repeat adds one, so the
// penalty accumulates across repeats instead of capping at the first
// offense. Empty content never counts as duplicated.
func duplicateRepeats(posts []feed.RankablePost, pw weights.PenaltyWeights) []float64 {
	repeats := make([]float64, len(posts))

	groups := make(map[dupKey][]int)
	for i := range posts {
		content := normalizeContent(posts[i].Content)
		if content == "" {
			continue
		}
		key := dupKey{userID: posts[i].UserID, content: content}
		groups[key] = append(groups[key], i)
	}

	lookback := time.Duration(pw.DuplicateLookbackHours * float64(time.Hour))
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		// Order occurrences oldest-first so the original post stays
		// unpenalized and each repeat accrues on top of the previous.
		sort.Slice(members, func(a, b int) bool {
			pa, pb := posts[members[a]], posts[members[b]]
			if !pa.CreatedAt.Equal(pb.CreatedAt) {
				return pa.CreatedAt.Before(pb.CreatedAt)
			}
			return pa.ID < pb.ID
		})
		for i := 1; i < len(members); i++ {
			post := posts[members[i]]
			prior := 0
			for j := 0; j < i; j++ {
				earlier := posts[members[j]]
				if lookback <= 0 || post.CreatedAt.Sub(earlier.CreatedAt) <= lookback {
					prior++
				}
			}
			repeats[members[i]] = float64(prior)
		}
	}

	return repeats
}
