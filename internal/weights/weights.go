// Package weights holds every tunable constant of the feed-ranking
// engine and the hot-swappable store the scoring engine reads them
// from. Weights are created with defaults at process start, optionally
// calibrated from a file, and mutated only through the store's merging
// Update operation.
package weights

import (
	"errors"
	"fmt"
)

// EngagementWeights controls the weighted interaction sum and its
// saturating cap. Replies and reposts default highest because they
// signal deeper interest than a like.
type EngagementWeights struct {
	Like   float64 `json:"like" koanf:"like"`
	Reply  float64 `json:"reply" koanf:"reply"`
	Repost float64 `json:"repost" koanf:"repost"`
	Save   float64 `json:"save" koanf:"save"`

	// ScaleFactor divides the raw weighted sum before the 100-point
	// cap, keeping the scale comparable across posts of wildly
	// different reach.
	ScaleFactor float64 `json:"scale_factor" koanf:"scale_factor"`
}

// FreshnessWeights controls time decay: full score inside the peak
// window, exponential half-life decay beyond it, with a floor that
// keeps evergreen content faintly discoverable.
type FreshnessWeights struct {
	PeakHours         float64 `json:"peak_hours" koanf:"peak_hours"`
	HalfLifeHours     float64 `json:"half_life_hours" koanf:"half_life_hours"`
	MinimumMultiplier float64 `json:"minimum_multiplier" koanf:"minimum_multiplier"`
}

// DiscoveryWeights controls new-creator eligibility, the flat additive
// boost new creators receive, and the target share of discovery content
// in the mixed feed window.
type DiscoveryWeights struct {
	NewCreatorFollowerThreshold int     `json:"new_creator_follower_threshold" koanf:"new_creator_follower_threshold"`
	NewCreatorAgeDays           int     `json:"new_creator_age_days" koanf:"new_creator_age_days"`
	Boost                       float64 `json:"boost" koanf:"boost"`
	TargetFeedRatio             float64 `json:"target_feed_ratio" koanf:"target_feed_ratio"`
}

// NetworkWeights controls relationship multipliers applied to the raw
// engagement sum. Discovery authors get a baseline multiplier plus a
// fixed additive uplift that partially compensates for discovery
// content's typically lower organic engagement.
type NetworkWeights struct {
	MutualMultiplier    float64 `json:"mutual_multiplier" koanf:"mutual_multiplier"`
	FollowingMultiplier float64 `json:"following_multiplier" koanf:"following_multiplier"`
	DiscoveryMultiplier float64 `json:"discovery_multiplier" koanf:"discovery_multiplier"`
	DiscoveryUplift     float64 `json:"discovery_uplift" koanf:"discovery_uplift"`
}

// QualityWeights controls light content-quality bonuses added to the
// raw engagement sum.
type QualityWeights struct {
	SubstantiveLengthChars int     `json:"substantive_length_chars" koanf:"substantive_length_chars"`
	SubstantiveBonus       float64 `json:"substantive_bonus" koanf:"substantive_bonus"`
}

// PenaltyWeights controls the spam/duplicate penalty heuristics.
type PenaltyWeights struct {
	// LowRatioThreshold is the engagement-to-reach ratio below which
	// the low-ratio penalty accrues.
	LowRatioThreshold float64 `json:"low_ratio_threshold" koanf:"low_ratio_threshold"`
	LowRatioPenalty   float64 `json:"low_ratio_penalty" koanf:"low_ratio_penalty"`

	// MinFollowersForRatio gates the ratio heuristic to accounts with
	// meaningful reach; small and zero-follower accounts are never
	// penalized on ratio alone.
	MinFollowersForRatio int `json:"min_followers_for_ratio" koanf:"min_followers_for_ratio"`

	// DuplicatePenalty accrues once per repeat occurrence of identical
	// content by the same author, so repeated spam is progressively
	// suppressed.
	DuplicatePenalty float64 `json:"duplicate_penalty" koanf:"duplicate_penalty"`

	// DuplicateLookbackHours bounds how far back an earlier identical
	// post still counts as a repeat.
	DuplicateLookbackHours float64 `json:"duplicate_lookback_hours" koanf:"duplicate_lookback_hours"`
}

// BlendWeights are the independent percentage shares of the engagement
// and freshness components in the final score. They are not required to
// sum to 100.
type BlendWeights struct {
	EngagementPercent float64 `json:"engagement_percent" koanf:"engagement_percent"`
	FreshnessPercent  float64 `json:"freshness_percent" koanf:"freshness_percent"`
}

// Weights holds the full ranking weight configuration.
type Weights struct {
	Engagement EngagementWeights `json:"engagement" koanf:"engagement"`
	Freshness  FreshnessWeights  `json:"freshness" koanf:"freshness"`
	Discovery  DiscoveryWeights  `json:"discovery" koanf:"discovery"`
	Network    NetworkWeights    `json:"network" koanf:"network"`
	Quality    QualityWeights    `json:"quality" koanf:"quality"`
	Penalty    PenaltyWeights    `json:"penalty" koanf:"penalty"`
	Blend      BlendWeights      `json:"blend" koanf:"blend"`
}

// Validation errors.
var (
	ErrNegativeWeight       = errors.New("interaction weights must be non-negative")
	ErrInvalidScaleFactor   = errors.New("engagement scale factor must be positive")
	ErrInvalidHalfLife      = errors.New("freshness half-life must be positive")
	ErrInvalidFloor         = errors.New("freshness minimum multiplier must be in [0, 1]")
	ErrInvalidFeedRatio     = errors.New("target feed ratio must be in [0, 1]")
	ErrNegativeThreshold    = errors.New("thresholds and penalties must be non-negative")
	ErrInvalidMultiplier    = errors.New("network multipliers must be positive")
	ErrInvalidBlendPercent  = errors.New("blend percentages must be non-negative")
	ErrNegativeFreshnessAge = errors.New("freshness peak hours must be non-negative")
)

// Defaults returns the default ranking weight configuration. These
// values favor conversation (replies, reposts) over passive likes, keep
// posts at full freshness for their first six hours, and reserve a flat
// visibility floor for new creators.
func Defaults() Weights {
	return Weights{
		Engagement: EngagementWeights{
			Like:        1.0,
			Reply:       3.0,
			Repost:      2.5,
			Save:        2.0,
			ScaleFactor: 2.5,
		},
		Freshness: FreshnessWeights{
			PeakHours:         6,
			HalfLifeHours:     24,
			MinimumMultiplier: 0.05,
		},
		Discovery: DiscoveryWeights{
			NewCreatorFollowerThreshold: 1000,
			NewCreatorAgeDays:           30,
			Boost:                       25,
			TargetFeedRatio:             0.3,
		},
		Network: NetworkWeights{
			MutualMultiplier:    1.5,
			FollowingMultiplier: 1.2,
			DiscoveryMultiplier: 1.0,
			DiscoveryUplift:     5,
		},
		Quality: QualityWeights{
			SubstantiveLengthChars: 120,
			SubstantiveBonus:       10,
		},
		Penalty: PenaltyWeights{
			LowRatioThreshold:      0.01,
			LowRatioPenalty:        10,
			MinFollowersForRatio:   100,
			DuplicatePenalty:       15,
			DuplicateLookbackHours: 48,
		},
		Blend: BlendWeights{
			EngagementPercent: 60,
			FreshnessPercent:  40,
		},
	}
}

// Validate checks every tunable for a usable range. It returns the
// first violation found so a bad update can be rejected before it is
// published to readers.
func (w Weights) Validate() error {
	if w.Engagement.Like < 0 || w.Engagement.Reply < 0 ||
		w.Engagement.Repost < 0 || w.Engagement.Save < 0 {
		return ErrNegativeWeight
	}
	if w.Engagement.ScaleFactor <= 0 {
		return ErrInvalidScaleFactor
	}
	if w.Freshness.PeakHours < 0 {
		return ErrNegativeFreshnessAge
	}
	if w.Freshness.HalfLifeHours <= 0 {
		return ErrInvalidHalfLife
	}
	if w.Freshness.MinimumMultiplier < 0 || w.Freshness.MinimumMultiplier > 1 {
		return ErrInvalidFloor
	}
	if w.Discovery.TargetFeedRatio < 0 || w.Discovery.TargetFeedRatio > 1 {
		return ErrInvalidFeedRatio
	}
	if w.Discovery.NewCreatorFollowerThreshold < 0 || w.Discovery.NewCreatorAgeDays < 0 ||
		w.Discovery.Boost < 0 {
		return ErrNegativeThreshold
	}
	if w.Network.MutualMultiplier <= 0 || w.Network.FollowingMultiplier <= 0 ||
		w.Network.DiscoveryMultiplier <= 0 {
		return ErrInvalidMultiplier
	}
	if w.Network.DiscoveryUplift < 0 {
		return ErrNegativeThreshold
	}
	if w.Quality.SubstantiveLengthChars < 0 || w.Quality.SubstantiveBonus < 0 {
		return ErrNegativeThreshold
	}
	if w.Penalty.LowRatioThreshold < 0 || w.Penalty.LowRatioPenalty < 0 ||
		w.Penalty.MinFollowersForRatio < 0 || w.Penalty.DuplicatePenalty < 0 ||
		w.Penalty.DuplicateLookbackHours < 0 {
		return fmt.Errorf("penalty weights: %w", ErrNegativeThreshold)
	}
	if w.Blend.EngagementPercent < 0 || w.Blend.FreshnessPercent < 0 {
		return ErrInvalidBlendPercent
	}
	return nil
}

// Merge overlays the non-zero values of override onto base and returns
// the result. Zero values in the override mean "keep the base value",
// which allows partial calibration files and partial admin updates;
// unknown keys in the source payload are dropped during decoding and
// never reach this function.
func Merge(base, override Weights) Weights {
	result := base

	if override.Engagement.Like != 0 {
		result.Engagement.Like = override.Engagement.Like
	}
	if override.Engagement.Reply != 0 {
		result.Engagement.Reply = override.Engagement.Reply
	}
	if override.Engagement.Repost != 0 {
		result.Engagement.Repost = override.Engagement.Repost
	}
	if override.Engagement.Save != 0 {
		result.Engagement.Save = override.Engagement.Save
	}
	if override.Engagement.ScaleFactor != 0 {
		result.Engagement.ScaleFactor = override.Engagement.ScaleFactor
	}

	if override.Freshness.PeakHours != 0 {
		result.Freshness.PeakHours = override.Freshness.PeakHours
	}
	if override.Freshness.HalfLifeHours != 0 {
		result.Freshness.HalfLifeHours = override.Freshness.HalfLifeHours
	}
	if override.Freshness.MinimumMultiplier != 0 {
		result.Freshness.MinimumMultiplier = override.Freshness.MinimumMultiplier
	}

	if override.Discovery.NewCreatorFollowerThreshold != 0 {
		result.Discovery.NewCreatorFollowerThreshold = override.Discovery.NewCreatorFollowerThreshold
	}
	if override.Discovery.NewCreatorAgeDays != 0 {
		result.Discovery.NewCreatorAgeDays = override.Discovery.NewCreatorAgeDays
	}
	if override.Discovery.Boost != 0 {
		result.Discovery.Boost = override.Discovery.Boost
	}
	if override.Discovery.TargetFeedRatio != 0 {
		result.Discovery.TargetFeedRatio = override.Discovery.TargetFeedRatio
	}

	if override.Network.MutualMultiplier != 0 {
		result.Network.MutualMultiplier = override.Network.MutualMultiplier
	}
	if override.Network.FollowingMultiplier != 0 {
		result.Network.FollowingMultiplier = override.Network.FollowingMultiplier
	}
	if override.Network.DiscoveryMultiplier != 0 {
		result.Network.DiscoveryMultiplier = override.Network.DiscoveryMultiplier
	}
	if override.Network.DiscoveryUplift != 0 {
		result.Network.DiscoveryUplift = override.Network.DiscoveryUplift
	}

	if override.Quality.SubstantiveLengthChars != 0 {
		result.Quality.SubstantiveLengthChars = override.Quality.SubstantiveLengthChars
	}
	if override.Quality.SubstantiveBonus != 0 {
		result.Quality.SubstantiveBonus = override.Quality.SubstantiveBonus
	}

	if override.Penalty.LowRatioThreshold != 0 {
		result.Penalty.LowRatioThreshold = override.Penalty.LowRatioThreshold
	}
	if override.Penalty.LowRatioPenalty != 0 {
		result.Penalty.LowRatioPenalty = override.Penalty.LowRatioPenalty
	}
	if override.Penalty.MinFollowersForRatio != 0 {
		result.Penalty.MinFollowersForRatio = override.Penalty.MinFollowersForRatio
	}
	if override.Penalty.DuplicatePenalty != 0 {
		result.Penalty.DuplicatePenalty = override.Penalty.DuplicatePenalty
	}
	if override.Penalty.DuplicateLookbackHours != 0 {
		result.Penalty.DuplicateLookbackHours = override.Penalty.DuplicateLookbackHours
	}

	if override.Blend.EngagementPercent != 0 {
		result.Blend.EngagementPercent = override.Blend.EngagementPercent
	}
	if override.Blend.FreshnessPercent != 0 {
		result.Blend.FreshnessPercent = override.Blend.FreshnessPercent
	}

	return result
}
