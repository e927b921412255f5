package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openchorus/feedrank/internal/engagement"
	"github.com/openchorus/feedrank/internal/feed"
)

// batch is a candidate batch ready for ranking.
type batch struct {
	viewer feed.ViewerContext
	posts  []feed.RankablePost
}

// batchFile is the JSON shape accepted by -posts: viewer context plus
// post aggregate records as the persistence layer would supply them.
type batchFile struct {
	Viewer feed.ViewerContext `json:"viewer"`
	Posts  []postRecord       `json:"posts"`
}

// postRecord is one post aggregate: post fields, author profile, and
// raw (possibly sampled) engagement data.
type postRecord struct {
	ID         string                   `json:"id"`
	UserID     string                   `json:"user_id"`
	CreatedAt  time.Time                `json:"created_at"`
	Content    string                   `json:"content"`
	Author     authorRecord             `json:"author"`
	Engagement engagement.RawEngagement `json:"engagement"`

	EngagementRatioOverride *float64 `json:"engagement_ratio_override,omitempty"`
	RecentDuplicateScore    *float64 `json:"recent_duplicate_score,omitempty"`
}

// authorRecord carries the author profile fields scoring needs.
type authorRecord struct {
	CreatedAt     time.Time `json:"created_at"`
	FollowerCount int       `json:"follower_count"`
}

var errNoInput = errors.New("provide -posts or -demo")

// loadBatch reads a batch from a JSON file or generates a synthetic
// one when demo > 0.
func loadBatch(path string, demo int, seed int64) (batch, error) {
	if demo > 0 {
		return demoBatch(demo, seed), nil
	}
	if path == "" {
		return batch{}, errNoInput
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return batch{}, fmt.Errorf("failed to read batch file: %w", err)
	}

	var bf batchFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return batch{}, fmt.Errorf("failed to parse batch file: %w", err)
	}

	posts := make([]feed.RankablePost, 0, len(bf.Posts))
	for _, rec := range bf.Posts {
		posts = append(posts, feed.RankablePost{
			ID:                      rec.ID,
			UserID:                  rec.UserID,
			CreatedAt:               rec.CreatedAt,
			Content:                 rec.Content,
			UserCreatedAt:           rec.Author.CreatedAt,
			FollowerCount:           rec.Author.FollowerCount,
			Metrics:                 engagement.Extract(rec.Engagement),
			EngagementRatioOverride: rec.EngagementRatioOverride,
			RecentDuplicateScore:    rec.RecentDuplicateScore,
		})
	}

	return batch{viewer: bf.Viewer, posts: posts}, nil
}

// demoBatch generates a reproducible synthetic batch: a handful of
// authors with varied follower counts and ages, a viewer following two
// of them, and engagement drawn from the seeded generator.
func demoBatch(n int, seed int64) batch {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now()

	type author struct {
		id        string
		createdAt time.Time
		followers int
	}
	authors := make([]author, 8)
	for i := range authors {
		authors[i] = author{
			id:        uuid.NewString(),
			createdAt: now.AddDate(0, 0, -rng.Intn(1000)),
			followers: rng.Intn(20000),
		}
	}
	// Ensure at least one new creator is present.
	authors[0].followers = rng.Intn(500)
	authors[0].createdAt = now.AddDate(0, 0, -rng.Intn(20))

	viewer := feed.ViewerContext{
		UserID:          uuid.NewString(),
		FollowingIDs:    []string{authors[1].id, authors[2].id},
		MutualFollowIDs: []string{authors[1].id},
	}

	posts := make([]feed.RankablePost, n)
	for i := range posts {
		a := authors[rng.Intn(len(authors))]
		raw := engagement.RawEngagement{
			Likes:   rng.Intn(200),
			Replies: rng.Intn(30),
			Reposts: rng.Intn(20),
			Saves:   rng.Intn(40),
		}
		posts[i] = feed.RankablePost{
			ID:            uuid.NewString(),
			UserID:        a.id,
			CreatedAt:     now.Add(-time.Duration(rng.Intn(72)) * time.Hour),
			Content:       fmt.Sprintf("synthetic post %d from generator", i),
			UserCreatedAt: a.createdAt,
			FollowerCount: a.followers,
			Metrics:       engagement.Extract(raw),
		}
	}

	return batch{viewer: viewer, posts: posts}
}
