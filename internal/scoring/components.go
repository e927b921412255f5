package scoring

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openchorus/feedrank/internal/feed"
	"github.com/openchorus/feedrank/internal/weights"
)

// sanitize replaces NaN and infinities with 0 so malformed input
// degrades to zero contribution instead of corrupting the sort.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// networkMultiplier returns the relationship multiplier for the raw
// engagement sum. Mutual-follow authors receive the strongest
// multiplier; the viewer's own posts are treated like mutuals.
func networkMultiplier(rel feed.Relationship, nw weights.NetworkWeights) float64 {
	switch rel {
	case feed.RelationshipMutual, feed.RelationshipSelf:
		return nw.MutualMultiplier
	case feed.RelationshipFollowing:
		return nw.FollowingMultiplier
	default:
		return nw.DiscoveryMultiplier
	}
}

// rawEngagement computes the weighted interaction sum with the content
// quality bonus and network weighting applied. Discovery authors get a
// fixed additive uplift on top of their baseline multiplier. A post
// with no interactions at all scores exactly zero: bonuses and uplifts
// amplify real engagement, they never create it.
func rawEngagement(post feed.RankablePost, rel feed.Relationship, w weights.Weights) float64 {
	m := post.Metrics.Clamped()

	raw := float64(m.Likes)*w.Engagement.Like +
		float64(m.Replies)*w.Engagement.Reply +
		float64(m.Reposts)*w.Engagement.Repost +
		float64(m.Saves)*w.Engagement.Save
	if raw <= 0 {
		return 0
	}

	if w.Quality.SubstantiveLengthChars > 0 &&
		utf8.RuneCountInString(strings.TrimSpace(post.Content)) >= w.Quality.SubstantiveLengthChars {
		raw += w.Quality.SubstantiveBonus
	}

	raw *= networkMultiplier(rel, w.Network)
	if rel == feed.RelationshipDiscovery {
		raw += w.Network.DiscoveryUplift
	}

	return sanitize(raw)
}

// capEngagement maps the raw sum onto the 0-100 display scale with a
// saturating cap, so very viral posts do not dominate purely by
// magnitude.
func capEngagement(raw float64, ew weights.EngagementWeights) float64 {
	scaled := raw / ew.ScaleFactor
	if scaled < 0 {
		return 0
	}
	if scaled > 100 {
		return 100
	}
	return sanitize(scaled)
}

// ageHours returns the post age at scoring time in hours, clamped at
// zero for posts timestamped in the future.
func ageHours(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt).Hours()
	if age < 0 || math.IsNaN(age) {
		return 0
	}
	return age
}

// freshness returns the 0-100 freshness score and the underlying decay
// multiplier for a post of the given age. The score stays at full value
// through the peak window, halves every half-life beyond it, and never
// drops below the configured floor so evergreen content remains faintly
// discoverable.
func freshness(age float64, fw weights.FreshnessWeights) (score, multiplier float64) {
	multiplier = 1.0
	if age > fw.PeakHours {
		multiplier = math.Pow(0.5, (age-fw.PeakHours)/fw.HalfLifeHours)
	}
	if multiplier < fw.MinimumMultiplier {
		multiplier = fw.MinimumMultiplier
	}
	multiplier = sanitize(multiplier)
	return 100 * multiplier, multiplier
}

// isNewCreator reports discovery-boost eligibility: either a follower
// count or an account age under its threshold qualifies on its own.
func isNewCreator(post feed.RankablePost, now time.Time, dw weights.DiscoveryWeights) bool {
	if post.FollowerCount >= 0 && post.FollowerCount < dw.NewCreatorFollowerThreshold {
		return true
	}
	if post.UserCreatedAt.IsZero() {
		// Unknown account age never qualifies on age alone.
		return false
	}
	accountAgeDays := now.Sub(post.UserCreatedAt).Hours() / 24
	return accountAgeDays >= 0 && accountAgeDays < float64(dw.NewCreatorAgeDays)
}

// ratioPenalty applies the low-engagement-ratio heuristic: posts with
// disproportionately low engagement relative to the author's reach
// accrue penalty. Accounts below the follower gate are exempt; their
// unique-engager count stands on its own as an absolute signal. A
// caller-provided ratio override is honored when present, which covers
// zero-follower accounts where the ratio is otherwise undefined.
func ratioPenalty(post feed.RankablePost, pw weights.PenaltyWeights) float64 {
	var ratio float64
	switch {
	case post.EngagementRatioOverride != nil:
		ratio = sanitize(*post.EngagementRatioOverride)
	case post.FollowerCount >= pw.MinFollowersForRatio && post.FollowerCount > 0:
		m := post.Metrics.Clamped()
		signal := m.UniqueEngagers
		if signal == 0 {
			signal = m.TotalInteractions()
		}
		ratio = float64(signal) / float64(post.FollowerCount)
	default:
		return 0
	}

	if ratio < pw.LowRatioThreshold {
		return pw.LowRatioPenalty
	}
	return 0
}

// normalizeContent folds case and whitespace before duplicate
// comparison, so trivially re-spaced or re-cased spam still matches.
func normalizeContent(content string) string {
	return strings.ToLower(strings.Join(strings.Fields(content), " "))
}

// duplicateHint returns the caller-provided duplicate-penalty hint,
// clamped to non-negative and finite.
func duplicateHint(post feed.RankablePost) float64 {
	if post.RecentDuplicateScore == nil {
		return 0
	}
	hint := sanitize(*post.RecentDuplicateScore)
	if hint < 0 {
		return 0
	}
	return hint
}
