package scoring

import (
	"context"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/openchorus/feedrank/internal/feed"
	"github.com/openchorus/feedrank/internal/weights"
)

// newTestEngine returns an engine backed by default weights and a
// discarding logger.
func newTestEngine() (*Engine, *weights.Store) {
	store := weights.NewStore(weights.Defaults())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(store, logger, nil), store
}

// testNow is a fixed clock for deterministic tests.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// makePost builds a RankablePost with sensible defaults for tests.
func makePost(id, userID string, ageHours float64, metrics feed.PostMetrics, followers int, accountAgeDays int) feed.RankablePost {
	return feed.RankablePost{
		ID:            id,
		UserID:        userID,
		CreatedAt:     testNow.Add(-time.Duration(ageHours * float64(time.Hour))),
		Content:       "post " + id,
		UserCreatedAt: testNow.AddDate(0, 0, -accountAgeDays),
		FollowerCount: followers,
		Metrics:       metrics,
	}
}

// TestRank_EmptyInput tests that an empty batch ranks to empty output
// without error.
func TestRank_EmptyInput(t *testing.T) {
	engine, _ := newTestEngine()

	result := engine.Rank(context.Background(), nil, feed.ViewerContext{}, testNow)

	if len(result.OrderedPostIDs) != 0 {
		t.Errorf("expected no ordered IDs, got %v", result.OrderedPostIDs)
	}
	if len(result.BreakdownByID) != 0 {
		t.Errorf("expected no breakdowns, got %d", len(result.BreakdownByID))
	}
}

// TestRank_Deterministic tests that repeated calls over the same inputs
// return identical output.
func TestRank_Deterministic(t *testing.T) {
	engine, _ := newTestEngine()
	posts := []feed.RankablePost{
		makePost("p1", "u1", 2, feed.PostMetrics{Likes: 25, Replies: 8, Reposts: 5, Saves: 10}, 120, 1),
		makePost("p2", "u2", 4, feed.PostMetrics{Likes: 50, Replies: 12, Reposts: 8, Saves: 20}, 8000, 365),
		makePost("p3", "u3", 10, feed.PostMetrics{Likes: 3}, 40, 5),
	}
	viewer := feed.ViewerContext{UserID: "viewer", FollowingIDs: []string{"u2"}}

	first := engine.Rank(context.Background(), posts, viewer, testNow)
	for i := 0; i < 5; i++ {
		got := engine.Rank(context.Background(), posts, viewer, testNow)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("ranking not deterministic on call %d:\n%+v\nvs\n%+v", i, got, first)
		}
	}
}

// TestRank_ScenarioNewCreatorBeatsEstablished tests that a fresh post
// from a small, day-old account outranks a better-engaged post from an
// established account: the discovery boost outweighs the raw
// engagement gap.
func TestRank_ScenarioNewCreatorBeatsEstablished(t *testing.T) {
	engine, _ := newTestEngine()
	x := makePost("x", "small", 2, feed.PostMetrics{Likes: 25, Replies: 8, Reposts: 5, Saves: 10}, 120, 1)
	y := makePost("y", "big", 4, feed.PostMetrics{Likes: 50, Replies: 12, Reposts: 8, Saves: 20}, 8000, 365)

	result := engine.Rank(context.Background(), []feed.RankablePost{x, y}, feed.ViewerContext{}, testNow)

	bx, by := result.BreakdownByID["x"], result.BreakdownByID["y"]
	if bx.FinalScore <= by.FinalScore {
		t.Errorf("expected new-creator post to win: x=%f y=%f", bx.FinalScore, by.FinalScore)
	}
	if !bx.Calculation.NewCreator {
		t.Error("expected x flagged as new creator")
	}
	if by.Calculation.NewCreator {
		t.Error("expected y not flagged as new creator")
	}
	if result.OrderedPostIDs[0] != "x" {
		t.Errorf("expected x first, got %v", result.OrderedPostIDs)
	}
}

// TestRank_ScenarioFreshBeatsStale tests that time decay lets a fresh
// modest post outrank a stale better-engaged one from the same author
// profile.
func TestRank_ScenarioFreshBeatsStale(t *testing.T) {
	engine, _ := newTestEngine()
	stale := makePost("stale", "author", 30, feed.PostMetrics{Likes: 40, Replies: 10, Reposts: 6, Saves: 8}, 500, 400)
	fresh := makePost("fresh", "author", 2, feed.PostMetrics{Likes: 10, Replies: 4, Reposts: 3, Saves: 5}, 500, 400)

	result := engine.Rank(context.Background(), []feed.RankablePost{stale, fresh}, feed.ViewerContext{}, testNow)

	if result.OrderedPostIDs[0] != "fresh" {
		t.Errorf("expected fresh post first, got %v", result.OrderedPostIDs)
	}
	bs := result.BreakdownByID["stale"]
	if bs.Calculation.TimeDecayMultiplier >= 1.0 {
		t.Errorf("expected decay on stale post, got multiplier %f", bs.Calculation.TimeDecayMultiplier)
	}
}

// TestRank_MonotonicFreshness tests that holding engagement and author
// identical, a younger post never scores lower than an older one.
func TestRank_MonotonicFreshness(t *testing.T) {
	engine, _ := newTestEngine()
	metrics := feed.PostMetrics{Likes: 20, Replies: 5}

	ages := []float64{0, 2, 6, 12, 24, 48, 96, 500}
	posts := make([]feed.RankablePost, len(ages))
	for i, age := range ages {
		posts[i] = makePost("p"+string(rune('a'+i)), "author", age, metrics, 500, 400)
		// Distinct content so duplicate detection stays out of the way.
		posts[i].Content = "unique content " + posts[i].ID
	}

	result := engine.Rank(context.Background(), posts, feed.ViewerContext{}, testNow)

	for i := 1; i < len(posts); i++ {
		younger := result.BreakdownByID[posts[i-1].ID]
		older := result.BreakdownByID[posts[i].ID]
		if younger.FinalScore < older.FinalScore {
			t.Errorf("age %.0fh scored %f, below age %.0fh at %f",
				ages[i-1], younger.FinalScore, ages[i], older.FinalScore)
		}
	}
}

// TestRank_NewCreatorBoost tests that given equal engagement, an author
// under the follower threshold scores strictly higher than an
// established one.
func TestRank_NewCreatorBoost(t *testing.T) {
	engine, _ := newTestEngine()
	metrics := feed.PostMetrics{Likes: 60, Replies: 10}
	small := makePost("small", "u1", 3, metrics, 200, 400)
	big := makePost("big", "u2", 3, metrics, 5000, 400)

	result := engine.Rank(context.Background(), []feed.RankablePost{small, big}, feed.ViewerContext{}, testNow)

	bs, bb := result.BreakdownByID["small"], result.BreakdownByID["big"]
	if bs.FinalScore <= bb.FinalScore {
		t.Errorf("expected boosted creator strictly higher: small=%f big=%f",
			bs.FinalScore, bb.FinalScore)
	}
	if bs.DiscoveryBoost <= 0 {
		t.Error("expected positive discovery boost for small creator")
	}
	if bb.DiscoveryBoost != 0 {
		t.Errorf("expected no boost for established creator, got %f", bb.DiscoveryBoost)
	}
}

// TestRank_NewCreatorByAgeAlone tests the OR eligibility: a young
// account qualifies even with a large follower count.
func TestRank_NewCreatorByAgeAlone(t *testing.T) {
	engine, _ := newTestEngine()
	post := makePost("p", "u", 2, feed.PostMetrics{Likes: 60}, 50000, 5)

	result := engine.Rank(context.Background(), []feed.RankablePost{post}, feed.ViewerContext{}, testNow)

	if !result.BreakdownByID["p"].Calculation.NewCreator {
		t.Error("expected 5-day-old account to qualify as new creator despite follower count")
	}
}

// TestRank_DuplicateAccumulation tests that repeated identical content
// by the same author accrues increasing penalty per occurrence.
func TestRank_DuplicateAccumulation(t *testing.T) {
	engine, _ := newTestEngine()
	metrics := feed.PostMetrics{Likes: 10}

	first := makePost("d1", "spammer", 5, metrics, 300, 400)
	second := makePost("d2", "spammer", 3, metrics, 300, 400)
	third := makePost("d3", "spammer", 1, metrics, 300, 400)
	for _, p := range []*feed.RankablePost{&first, &second, &third} {
		p.Content = "BUY my stuff   now"
	}
	// Re-cased and re-spaced content still matches after normalization.
	third.Content = "buy MY stuff now"

	result := engine.Rank(context.Background(), []feed.RankablePost{first, second, third}, feed.ViewerContext{}, testNow)

	b1 := result.BreakdownByID["d1"]
	b2 := result.BreakdownByID["d2"]
	b3 := result.BreakdownByID["d3"]

	if b1.Penalties != 0 {
		t.Errorf("first occurrence should be unpenalized, got %f", b1.Penalties)
	}
	if b2.Penalties < b1.Penalties || b2.Penalties == 0 {
		t.Errorf("second occurrence penalty %f should exceed first %f", b2.Penalties, b1.Penalties)
	}
	if b3.Penalties <= b2.Penalties {
		t.Errorf("third occurrence penalty %f should exceed second %f", b3.Penalties, b2.Penalties)
	}
	if b3.Calculation.DuplicateScore != 2 {
		t.Errorf("expected duplicate score 2 for third occurrence, got %f", b3.Calculation.DuplicateScore)
	}
}

// TestRank_DuplicateDifferentAuthors tests that identical content from
// different authors is not penalized.
func TestRank_DuplicateDifferentAuthors(t *testing.T) {
	engine, _ := newTestEngine()
	a := makePost("a", "u1", 2, feed.PostMetrics{Likes: 10}, 300, 400)
	b := makePost("b", "u2", 1, feed.PostMetrics{Likes: 10}, 300, 400)
	a.Content = "same words"
	b.Content = "same words"

	result := engine.Rank(context.Background(), []feed.RankablePost{a, b}, feed.ViewerContext{}, testNow)

	for id, breakdown := range result.BreakdownByID {
		if breakdown.Penalties != 0 {
			t.Errorf("post %s penalized across authors: %f", id, breakdown.Penalties)
		}
	}
}

// TestRank_DuplicateOutsideLookback tests that a repeat older than the
// lookback window does not count.
func TestRank_DuplicateOutsideLookback(t *testing.T) {
	engine, _ := newTestEngine()
	old := makePost("old", "u", 100, feed.PostMetrics{Likes: 10}, 300, 400)
	recent := makePost("recent", "u", 1, feed.PostMetrics{Likes: 10}, 300, 400)
	old.Content = "repeated text"
	recent.Content = "repeated text"

	result := engine.Rank(context.Background(), []feed.RankablePost{old, recent}, feed.ViewerContext{}, testNow)

	// Gap is 99h, beyond the default 48h lookback.
	if p := result.BreakdownByID["recent"].Penalties; p != 0 {
		t.Errorf("expected no penalty outside lookback window, got %f", p)
	}
}

// TestRank_DuplicateHint tests that the caller-provided duplicate hint
// feeds the penalty even for a single in-batch occurrence.
func TestRank_DuplicateHint(t *testing.T) {
	engine, _ := newTestEngine()
	hint := 2.0
	post := makePost("p", "u", 2, feed.PostMetrics{Likes: 10}, 300, 400)
	post.RecentDuplicateScore = &hint

	result := engine.Rank(context.Background(), []feed.RankablePost{post}, feed.ViewerContext{}, testNow)

	b := result.BreakdownByID["p"]
	if b.Calculation.DuplicateScore != 2 {
		t.Errorf("expected duplicate score 2 from hint, got %f", b.Calculation.DuplicateScore)
	}
	if b.Penalties == 0 {
		t.Error("expected penalty from duplicate hint")
	}
}

// TestRank_LowRatioPenalty tests the low engagement-to-reach heuristic.
func TestRank_LowRatioPenalty(t *testing.T) {
	engine, _ := newTestEngine()

	// 5 engagers against 10000 followers: ratio 0.0005 < 0.01.
	inflated := makePost("inflated", "u1", 2, feed.PostMetrics{Likes: 5, UniqueEngagers: 5}, 10000, 400)
	// Same absolute engagement, tiny account: exempt from the ratio check.
	organic := makePost("organic", "u2", 2, feed.PostMetrics{Likes: 5, UniqueEngagers: 5}, 20, 400)

	result := engine.Rank(context.Background(), []feed.RankablePost{inflated, organic}, feed.ViewerContext{}, testNow)

	if p := result.BreakdownByID["inflated"].Penalties; p == 0 {
		t.Error("expected low-ratio penalty for high-reach low-engagement post")
	}
	if p := result.BreakdownByID["organic"].Penalties; p != 0 {
		t.Errorf("small account should be exempt from ratio penalty, got %f", p)
	}
}

// TestRank_RatioOverride tests that a caller-provided reach ratio is
// honored for zero-follower accounts.
func TestRank_RatioOverride(t *testing.T) {
	engine, _ := newTestEngine()
	low := 0.001
	post := makePost("p", "u", 2, feed.PostMetrics{Likes: 2}, 0, 400)
	post.EngagementRatioOverride = &low

	result := engine.Rank(context.Background(), []feed.RankablePost{post}, feed.ViewerContext{}, testNow)

	if p := result.BreakdownByID["p"].Penalties; p == 0 {
		t.Error("expected penalty from low ratio override")
	}
}

// TestRank_NetworkWeighting tests that mutual-follow authors outrank
// one-way follows, which outrank strangers, for identical posts.
func TestRank_NetworkWeighting(t *testing.T) {
	engine, _ := newTestEngine()
	metrics := feed.PostMetrics{Likes: 100, Replies: 20}
	mutual := makePost("mutual", "friend", 2, metrics, 5000, 400)
	oneway := makePost("oneway", "followed", 2, metrics, 5000, 400)
	stranger := makePost("stranger", "unknown", 2, metrics, 5000, 400)
	viewer := feed.ViewerContext{
		UserID:          "viewer",
		FollowingIDs:    []string{"friend", "followed"},
		MutualFollowIDs: []string{"friend"},
	}

	result := engine.Rank(context.Background(), []feed.RankablePost{stranger, oneway, mutual}, viewer, testNow)

	expected := []string{"mutual", "oneway", "stranger"}
	if !reflect.DeepEqual(result.OrderedPostIDs, expected) {
		t.Errorf("expected order %v, got %v", expected, result.OrderedPostIDs)
	}
	if rel := result.BreakdownByID["mutual"].Calculation.Relationship; rel != "mutual" {
		t.Errorf("expected mutual relationship label, got %q", rel)
	}
}

// TestRank_TieBreak tests deterministic ordering on equal scores:
// newer post first, then lexicographic ID.
func TestRank_TieBreak(t *testing.T) {
	engine, _ := newTestEngine()
	metrics := feed.PostMetrics{Likes: 10}

	older := makePost("older", "u1", 5, metrics, 500, 400)
	newer := makePost("newer", "u2", 1, metrics, 500, 400)
	// Same age, same score: ID breaks the tie.
	twinA := makePost("twin-a", "u3", 1, metrics, 500, 400)
	twinB := makePost("twin-b", "u4", 1, metrics, 500, 400)

	result := engine.Rank(context.Background(),
		[]feed.RankablePost{older, twinB, newer, twinA}, feed.ViewerContext{}, testNow)

	ids := result.OrderedPostIDs
	if ids[len(ids)-1] != "older" {
		t.Errorf("expected oldest equal-score post last, got %v", ids)
	}
	posA, posB := -1, -1
	for i, id := range ids {
		if id == "twin-a" {
			posA = i
		}
		if id == "twin-b" {
			posB = i
		}
	}
	if posA > posB {
		t.Errorf("expected twin-a before twin-b on ID tie-break, got %v", ids)
	}
}

// TestRank_MalformedInput tests that negative counts, zero timestamps,
// and empty fields degrade to a well-defined minimum instead of
// failing.
func TestRank_MalformedInput(t *testing.T) {
	engine, _ := newTestEngine()
	posts := []feed.RankablePost{
		{
			ID:            "bad",
			UserID:        "u",
			Metrics:       feed.PostMetrics{Likes: -10, Replies: -1, UniqueEngagers: -3},
			FollowerCount: -50,
		},
		makePost("good", "u2", 2, feed.PostMetrics{Likes: 5}, 200, 400),
	}

	result := engine.Rank(context.Background(), posts, feed.ViewerContext{}, testNow)

	if len(result.OrderedPostIDs) != 2 {
		t.Fatalf("expected both posts ranked, got %v", result.OrderedPostIDs)
	}
	bad := result.BreakdownByID["bad"]
	if bad.EngagementScore != 0 {
		t.Errorf("expected zero engagement for clamped metrics, got %f", bad.EngagementScore)
	}
	if math.IsNaN(bad.FinalScore) {
		t.Error("final score must never be NaN")
	}
}

// TestRank_ReadsWeightsFresh tests that a store update between calls
// takes effect immediately.
func TestRank_ReadsWeightsFresh(t *testing.T) {
	engine, store := newTestEngine()
	post := makePost("p", "u", 2, feed.PostMetrics{Likes: 10}, 100000, 4000)
	post.Content = "some words here"

	before := engine.Rank(context.Background(), []feed.RankablePost{post}, feed.ViewerContext{}, testNow)

	override := weights.Weights{}
	override.Blend.FreshnessPercent = 80
	if err := store.Update(override); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	after := engine.Rank(context.Background(), []feed.RankablePost{post}, feed.ViewerContext{}, testNow)

	if before.BreakdownByID["p"].FinalScore == after.BreakdownByID["p"].FinalScore {
		t.Error("expected weight update to change the score on the next call")
	}
}

// TestRank_ZeroFollowerAccountNotZeroed tests that a zero-follower
// account with real engagement still earns a positive score.
func TestRank_ZeroFollowerAccountNotZeroed(t *testing.T) {
	engine, _ := newTestEngine()
	post := makePost("p", "u", 1, feed.PostMetrics{Likes: 8, Replies: 2, UniqueEngagers: 9}, 0, 2)

	result := engine.Rank(context.Background(), []feed.RankablePost{post}, feed.ViewerContext{}, testNow)

	b := result.BreakdownByID["p"]
	if b.Penalties != 0 {
		t.Errorf("zero-follower account must not accrue ratio penalty, got %f", b.Penalties)
	}
	if b.FinalScore <= 0 {
		t.Errorf("expected positive score, got %f", b.FinalScore)
	}
}
