package stats

import (
	"sync"
	"testing"
)

// TestRankStats tests recording and reading counters.
func TestRankStats(t *testing.T) {
	s := NewRankStats()

	s.RecordBatch(30, 2, 1)
	s.RecordBatch(10, 0, 0)

	if got := s.Batches(); got != 2 {
		t.Errorf("expected 2 batches, got %d", got)
	}
	if got := s.Ranked(); got != 40 {
		t.Errorf("expected 40 ranked, got %d", got)
	}
	if got := s.Penalized(); got != 2 {
		t.Errorf("expected 2 penalized, got %d", got)
	}
	if got := s.Recovered(); got != 1 {
		t.Errorf("expected 1 recovered, got %d", got)
	}
}

// TestRankStatsReset tests zeroing the counters.
func TestRankStatsReset(t *testing.T) {
	s := NewRankStats()
	s.RecordBatch(5, 1, 0)
	s.Reset()

	if s.Batches() != 0 || s.Ranked() != 0 || s.Penalized() != 0 || s.Recovered() != 0 {
		t.Errorf("expected all zero after reset, got %s", s)
	}
}

// TestRankStatsString tests the summary format.
func TestRankStatsString(t *testing.T) {
	s := NewRankStats()
	s.RecordBatch(3, 1, 0)

	expected := "batches=1 ranked=3 penalized=1 recovered=0"
	if got := s.String(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestRankStatsConcurrent tests thread-safety of the counters.
func TestRankStatsConcurrent(t *testing.T) {
	s := NewRankStats()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordBatch(1, 0, 0)
			}
		}()
	}
	wg.Wait()

	if got := s.Batches(); got != 1000 {
		t.Errorf("expected 1000 batches, got %d", got)
	}
	if got := s.Ranked(); got != 1000 {
		t.Errorf("expected 1000 ranked, got %d", got)
	}
}
