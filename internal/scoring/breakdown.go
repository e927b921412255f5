package scoring

// Calculation exposes the intermediate values behind a post's score for
// the explainability UI ("how your score works").
type Calculation struct {
	// RawEngagement is the weighted interaction sum after quality
	// bonuses and network multipliers, before the saturating cap.
	RawEngagement float64 `json:"raw_engagement"`
	// CappedEngagement is RawEngagement scaled and capped to 100.
	CappedEngagement float64 `json:"capped_engagement"`
	// AgeHours is the post age at scoring time.
	AgeHours float64 `json:"age_hours"`
	// TimeDecayMultiplier is the freshness multiplier in
	// [minimum, 1.0].
	TimeDecayMultiplier float64 `json:"time_decay_multiplier"`
	// NewCreator reports whether the author qualified for the
	// discovery boost.
	NewCreator bool `json:"new_creator"`
	// DuplicateScore counts repeat occurrences of this content by the
	// same author, including the caller-provided hint.
	DuplicateScore float64 `json:"duplicate_score"`
	// Relationship is the viewer's relationship to the author
	// ("self", "mutual", "following", "discovery").
	Relationship string `json:"relationship"`
}

// Breakdown is the per-post scoring record produced by one ranking
// call. It exists only for the duration of the invocation and is never
// persisted.
type Breakdown struct {
	EngagementScore float64     `json:"engagement_score"`
	FreshnessScore  float64     `json:"freshness_score"`
	DiscoveryBoost  float64     `json:"discovery_boost"`
	Penalties       float64     `json:"penalties"`
	FinalScore      float64     `json:"final_score"`
	Calculation     Calculation `json:"calculation"`
}

// Result is the output of one ranking call: post IDs in final order
// plus the per-post breakdowns keyed by post ID.
type Result struct {
	OrderedPostIDs []string             `json:"ordered_post_ids"`
	BreakdownByID  map[string]Breakdown `json:"breakdown_by_id"`
}
