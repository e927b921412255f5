// Package stats provides utilities for tracking cumulative ranking
// statistics across batches.
package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// RankStats tracks cumulative statistics for ranking passes. All
// operations are thread-safe using atomic counters.
type RankStats struct {
	batches   int64 // Total ranking passes
	ranked    int64 // Total posts scored
	penalized int64 // Total posts that accrued a penalty
	recovered int64 // Total posts assigned a zero score after a failure
}

// NewRankStats creates a new RankStats instance.
func NewRankStats() *RankStats {
	return &RankStats{}
}

// RecordBatch records one ranking pass and its per-post outcomes.
func (s *RankStats) RecordBatch(ranked, penalized, recovered int) {
	atomic.AddInt64(&s.batches, 1)
	atomic.AddInt64(&s.ranked, int64(ranked))
	atomic.AddInt64(&s.penalized, int64(penalized))
	atomic.AddInt64(&s.recovered, int64(recovered))
}

// Batches returns the total number of ranking passes.
func (s *RankStats) Batches() int64 {
	return atomic.LoadInt64(&s.batches)
}

// Ranked returns the total number of posts scored.
func (s *RankStats) Ranked() int64 {
	return atomic.LoadInt64(&s.ranked)
}

// Penalized returns the total number of penalized posts.
func (s *RankStats) Penalized() int64 {
	return atomic.LoadInt64(&s.penalized)
}

// Recovered returns the total number of posts recovered from scoring
// failures.
func (s *RankStats) Recovered() int64 {
	return atomic.LoadInt64(&s.recovered)
}

// Reset resets all counters to zero.
func (s *RankStats) Reset() {
	atomic.StoreInt64(&s.batches, 0)
	atomic.StoreInt64(&s.ranked, 0)
	atomic.StoreInt64(&s.penalized, 0)
	atomic.StoreInt64(&s.recovered, 0)
}

// String returns a human-readable summary of the statistics.
func (s *RankStats) String() string {
	return fmt.Sprintf("batches=%d ranked=%d penalized=%d recovered=%d",
		s.Batches(), s.Ranked(), s.Penalized(), s.Recovered())
}

// LogSummary logs the current statistics with structured fields.
func (s *RankStats) LogSummary(logger *slog.Logger, msg string) {
	logger.Info(msg,
		"batches", s.Batches(),
		"ranked", s.Ranked(),
		"penalized", s.Penalized(),
		"recovered", s.Recovered())
}
