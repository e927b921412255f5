// Package feed defines the shared domain types for the feed-ranking
// engine: posts prepared for scoring, their engagement metrics, and the
// viewer's social-graph context.
package feed

import (
	"time"
)

// PostMetrics holds the normalized engagement counts for a single post.
// All counts are non-negative; UniqueEngagers never exceeds the sum of
// the raw interaction counts.
type PostMetrics struct {
	Likes          int `json:"likes"`
	Replies        int `json:"replies"`
	Reposts        int `json:"reposts"`
	Saves          int `json:"saves"`
	UniqueEngagers int `json:"unique_engagers"`
}

// TotalInteractions returns the sum of all raw interaction counts.
// Negative counts contribute zero.
func (m PostMetrics) TotalInteractions() int {
	return clampNonNegative(m.Likes) +
		clampNonNegative(m.Replies) +
		clampNonNegative(m.Reposts) +
		clampNonNegative(m.Saves)
}

// Clamped returns a copy of the metrics with negative counts zeroed and
// UniqueEngagers capped at the total interaction count. Scoring always
// operates on clamped metrics so a bad record degrades instead of
// corrupting a whole batch.
func (m PostMetrics) Clamped() PostMetrics {
	out := PostMetrics{
		Likes:          clampNonNegative(m.Likes),
		Replies:        clampNonNegative(m.Replies),
		Reposts:        clampNonNegative(m.Reposts),
		Saves:          clampNonNegative(m.Saves),
		UniqueEngagers: clampNonNegative(m.UniqueEngagers),
	}
	if total := out.TotalInteractions(); out.UniqueEngagers > total {
		out.UniqueEngagers = total
	}
	return out
}

// clampNonNegative returns n, or 0 when n is negative.
func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// RankablePost is one post prepared for scoring. Instances are owned by
// the caller and constructed fresh per ranking request; the engine never
// retains references across calls.
type RankablePost struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	CreatedAt     time.Time   `json:"created_at"`
	Content       string      `json:"content"`
	UserCreatedAt time.Time   `json:"user_created_at"`
	FollowerCount int         `json:"follower_count"`
	Metrics       PostMetrics `json:"metrics"`

	// EngagementRatioOverride is a precomputed reach ratio, used when
	// follower-relative ratios are undefined (zero followers).
	EngagementRatioOverride *float64 `json:"engagement_ratio_override,omitempty"`

	// RecentDuplicateScore is a precomputed duplicate-penalty hint:
	// the number of recent identical posts by the same author seen
	// outside the current batch.
	RecentDuplicateScore *float64 `json:"recent_duplicate_score,omitempty"`
}

// Relationship classifies a post author relative to the viewer.
type Relationship int

const (
	// RelationshipDiscovery means the viewer neither follows the
	// author nor is the author themselves.
	RelationshipDiscovery Relationship = iota
	// RelationshipFollowing means the viewer follows the author
	// one-way.
	RelationshipFollowing
	// RelationshipMutual means the viewer and author follow each other.
	RelationshipMutual
	// RelationshipSelf means the viewer authored the post.
	RelationshipSelf
)

// String returns a short label for logging and breakdown display.
func (r Relationship) String() string {
	switch r {
	case RelationshipSelf:
		return "self"
	case RelationshipMutual:
		return "mutual"
	case RelationshipFollowing:
		return "following"
	default:
		return "discovery"
	}
}

// ViewerContext carries the viewer's social graph as provided by the
// persistence layer: who they are, who they follow, and which of those
// follows are mutual.
type ViewerContext struct {
	UserID          string   `json:"user_id"`
	FollowingIDs    []string `json:"following_ids"`
	MutualFollowIDs []string `json:"mutual_follow_ids"`
}

// RelationshipIndex is a set-based view of a ViewerContext for O(1)
// author lookups during a ranking pass.
type RelationshipIndex struct {
	viewerID  string
	following map[string]struct{}
	mutual    map[string]struct{}
}

// Index builds a RelationshipIndex from the viewer context. Build it
// once per ranking call; the index is read-only afterwards and safe to
// share across goroutines.
func (v ViewerContext) Index() RelationshipIndex {
	ix := RelationshipIndex{
		viewerID:  v.UserID,
		following: make(map[string]struct{}, len(v.FollowingIDs)),
		mutual:    make(map[string]struct{}, len(v.MutualFollowIDs)),
	}
	for _, id := range v.FollowingIDs {
		ix.following[id] = struct{}{}
	}
	for _, id := range v.MutualFollowIDs {
		ix.mutual[id] = struct{}{}
	}
	return ix
}

// Relationship returns the viewer's relationship to the given author.
// Mutual follows take precedence over one-way follows; the viewer's own
// posts are always RelationshipSelf.
func (ix RelationshipIndex) Relationship(authorID string) Relationship {
	if authorID == ix.viewerID && ix.viewerID != "" {
		return RelationshipSelf
	}
	if _, ok := ix.mutual[authorID]; ok {
		return RelationshipMutual
	}
	if _, ok := ix.following[authorID]; ok {
		return RelationshipFollowing
	}
	return RelationshipDiscovery
}

// IsDiscovery reports whether a post by the given author counts as
// discovery content for this viewer: not followed and not self.
func (ix RelationshipIndex) IsDiscovery(authorID string) bool {
	return ix.Relationship(authorID) == RelationshipDiscovery
}
