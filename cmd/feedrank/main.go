// Package main is an offline driver for the feed-ranking engine: it
// loads a candidate batch from a JSON file (or generates a synthetic
// one), ranks it, applies the discovery interleave, and prints the
// resulting feed with per-post score breakdowns.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openchorus/feedrank/internal/config"
	"github.com/openchorus/feedrank/internal/feed"
	"github.com/openchorus/feedrank/internal/logging"
	"github.com/openchorus/feedrank/internal/mixer"
	"github.com/openchorus/feedrank/internal/scoring"
	"github.com/openchorus/feedrank/internal/stats"
	"github.com/openchorus/feedrank/internal/weights"
)

func main() {
	var (
		configPath      = flag.String("config", "", "path to YAML config file")
		batchPath       = flag.String("posts", "", "path to JSON batch file")
		calibrationPath = flag.String("calibration", "", "path to weights calibration file (overrides config)")
		ratio           = flag.Float64("ratio", -1, "target discovery ratio (overrides config and weights)")
		demo            = flag.Int("demo", 0, "generate a synthetic batch of N posts instead of reading -posts")
		seed            = flag.Int64("seed", 1, "seed for the synthetic batch generator")
		jsonOut         = flag.Bool("json", false, "emit JSON instead of a table")
		help            = flag.Bool("help", false, "display help message")
	)
	flag.Parse()

	if *help {
		fmt.Println("feedrank - offline feed ranking driver")
		fmt.Println()
		fmt.Println("Usage: feedrank [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	calibration := cfg.CalibrationPath
	if *calibrationPath != "" {
		calibration = *calibrationPath
	}
	initial, err := weights.LoadCalibration(calibration)
	if err != nil {
		logger.Warn("continuing with default weights", "error", err)
	}
	store := weights.NewStore(initial)

	metrics := scoring.NewMetrics()
	if err := metrics.Register(prometheus.NewRegistry()); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	engine := scoring.NewEngine(store, logger, metrics)
	rankStats := stats.NewRankStats()

	batch, err := loadBatch(*batchPath, *demo, *seed)
	if err != nil {
		logger.Error("failed to load batch", "error", err)
		os.Exit(1)
	}
	if len(batch.posts) > cfg.BatchLimit {
		logger.Warn("batch exceeds limit, truncating",
			"batch_size", len(batch.posts),
			"limit", cfg.BatchLimit)
		batch.posts = batch.posts[:cfg.BatchLimit]
	}

	now := time.Now()
	ctx := context.Background()

	result := engine.Rank(ctx, batch.posts, batch.viewer, now)

	snap := store.Get()
	targetRatio := snap.Weights.Discovery.TargetFeedRatio
	if cfg.DiscoveryRatio > 0 {
		targetRatio = cfg.DiscoveryRatio
	}
	if *ratio >= 0 {
		targetRatio = *ratio
	}

	byID := make(map[string]feed.RankablePost, len(batch.posts))
	for _, p := range batch.posts {
		byID[p.ID] = p
	}
	ranked := make([]feed.RankablePost, 0, len(result.OrderedPostIDs))
	for _, id := range result.OrderedPostIDs {
		ranked = append(ranked, byID[id])
	}

	mixed := mixer.Interleave(ctx, ranked, batch.viewer, targetRatio)

	penalized := 0
	for _, b := range result.BreakdownByID {
		if b.Penalties > 0 {
			penalized++
		}
	}
	rankStats.RecordBatch(len(result.OrderedPostIDs), penalized, 0)

	if *jsonOut {
		if err := printJSON(os.Stdout, mixed, result); err != nil {
			logger.Error("failed to encode output", "error", err)
			os.Exit(1)
		}
	} else {
		printTable(os.Stdout, mixed, result, batch.viewer)
	}

	rankStats.LogSummary(logger, "ranking complete")
}

// printJSON emits the mixed feed order plus breakdowns as JSON.
func printJSON(out *os.File, mixed []feed.RankablePost, result scoring.Result) error {
	payload := struct {
		FeedOrder     []string                    `json:"feed_order"`
		BreakdownByID map[string]scoring.Breakdown `json:"breakdown_by_id"`
	}{
		FeedOrder:     make([]string, len(mixed)),
		BreakdownByID: result.BreakdownByID,
	}
	for i, p := range mixed {
		payload.FeedOrder[i] = p.ID
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// printTable renders the mixed feed as a fixed-width table.
func printTable(out *os.File, mixed []feed.RankablePost, result scoring.Result, viewer feed.ViewerContext) {
	ix := viewer.Index()

	fmt.Fprintf(out, "%-4s %-24s %-10s %8s %8s %8s %8s %8s\n",
		"#", "POST", "BUCKET", "FINAL", "ENGAGE", "FRESH", "BOOST", "PENALTY")
	for i, p := range mixed {
		b := result.BreakdownByID[p.ID]
		bucket := "following"
		if ix.IsDiscovery(p.UserID) {
			bucket = "discovery"
		}
		fmt.Fprintf(out, "%-4d %-24s %-10s %8.2f %8.2f %8.2f %8.2f %8.2f\n",
			i+1, truncate(p.ID, 24), bucket,
			b.FinalScore, b.EngagementScore, b.FreshnessScore,
			b.DiscoveryBoost, b.Penalties)
	}
}

// truncate shortens s to max characters for table display.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
