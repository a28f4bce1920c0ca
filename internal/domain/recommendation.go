package domain

import "errors"

// Sentinel errors shared across the service and transport layers.
var (
	// ErrUserNotFound means the user ID is unknown to the document store.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientSignal means the user exists but none of their
	// interaction IDs resolve to known content with embeddings. It is a
	// normal outcome, not a fault.
	ErrInsufficientSignal = errors.New("insufficient interaction signal")
)

// ScoreBreakdown reports the two bounded components of a final score.
// In personal-taste mode Affinity is the rule score (max 70); in discovery
// mode it is the virality score (max 50). The component caps always sum
// to 100 with the similarity cap of the active mode.
type ScoreBreakdown struct {
	Similarity float64 `json:"similarity"`
	Affinity   float64 `json:"affinity"`
}

// ScoredCandidate is one recommendation in a response. Produced per request
// and never persisted.
type ScoredCandidate struct {
	ContentID  string         `json:"content_id"`
	Type       ContentType    `json:"type"`
	Title      string         `json:"title"`
	PosterURL  string         `json:"poster_url"`
	Year       string         `json:"year"`
	FinalScore float64        `json:"final_score"`
	Breakdown  ScoreBreakdown `json:"score_breakdown"`
}

// Neighbor is one vector-index query hit: a content ID with its raw cosine
// distance in [0, 2], smaller meaning more similar.
type Neighbor struct {
	ID       string
	Distance float64
}
