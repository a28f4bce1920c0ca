package service

import (
	"math"

	"github.com/umut/reelsense/internal/domain"
)

// Scoring constants. The similarity cap and the affinity cap of each mode
// sum to 100, so final scores are always bounded by 100.
const (
	maxCosineDistance = 2.0

	personalSimilarityCap = 30.0
	personalRuleCap       = 70.0
	personalThreshold     = 70.0

	discoverySimilarityCap = 50.0
	viralityCap            = 50.0
	discoveryThreshold     = 50.0

	// significantActors bounds how many leading cast members count for
	// actor-overlap rules, on both the candidate and the taste side.
	significantActors = 3
)

// Mode names reported in responses and logs.
const (
	ModePersonal  = "personal"
	ModeDiscovery = "discovery"
)

// normalizeSimilarity maps a cosine distance d in [0, 2] to a score in
// [0, cap], linearly: distance 0 scores cap, distance 2 scores 0.
func normalizeSimilarity(distance, cap float64) float64 {
	score := (1 - distance/maxCosineDistance) * cap
	return math.Max(0, math.Min(score, cap))
}

// viralityScore converts an aggregate rating into a stepped quality score.
// Only the highest satisfied tier applies.
func viralityScore(rating float64) float64 {
	switch {
	case rating >= 9.0:
		return viralityCap
	case rating >= 8.5:
		return viralityCap * 0.8
	case rating >= 8.0:
		return viralityCap * 0.6
	case rating >= 7.5:
		return viralityCap * 0.4
	case rating >= 7.0:
		return viralityCap * 0.2
	default:
		return 0
	}
}

// tasteSignals carries the rule inputs derived from a user's strong-signal
// items (favorites and watched; watchlist is excluded).
type tasteSignals struct {
	creators map[string]struct{}
	actors   map[string]struct{}
	genres   map[string]struct{}
}

// buildTasteSignals collects creators, leading actors, and genres from
// strong-signal content items.
func buildTasteSignals(items []*domain.ContentItem) tasteSignals {
	s := tasteSignals{
		creators: make(map[string]struct{}),
		actors:   make(map[string]struct{}),
		genres:   make(map[string]struct{}),
	}
	for _, item := range items {
		if item.DirectorOrCreator != "" {
			s.creators[item.DirectorOrCreator] = struct{}{}
		}
		for _, actor := range topActors(item.Actors) {
			s.actors[actor] = struct{}{}
		}
		for _, genre := range item.Genres {
			s.genres[genre] = struct{}{}
		}
	}
	return s
}

func topActors(actors []string) []string {
	if len(actors) > significantActors {
		return actors[:significantActors]
	}
	return actors
}

// ruleScore accumulates the additive personal-affinity bonuses for a
// candidate. Individual tiers cap the total at personalRuleCap.
func (s tasteSignals) ruleScore(item *domain.ContentItem) float64 {
	score := 0.0

	if item.DirectorOrCreator != "" {
		if _, ok := s.creators[item.DirectorOrCreator]; ok {
			score += 30
		}
	}

	actorMatches := 0
	for _, actor := range topActors(item.Actors) {
		if _, ok := s.actors[actor]; ok {
			actorMatches++
		}
	}
	switch {
	case actorMatches >= 2:
		score += 20
	case actorMatches == 1:
		score += 15
	}

	genreMatches := 0
	for _, genre := range item.Genres {
		if _, ok := s.genres[genre]; ok {
			genreMatches++
		}
	}
	switch {
	case genreMatches >= 3:
		score += 15
	case genreMatches == 2:
		score += 10
	case genreMatches == 1:
		score += 5
	}

	if item.Rating >= 8.0 {
		score += 5
	}

	return score
}

// scoringStrategy is selected once per request; the two implementations
// share normalizeSimilarity and differ only in their affinity component and
// eligibility rule.
type scoringStrategy interface {
	// Score returns the breakdown for a candidate, or ok=false when the
	// candidate is ineligible under this mode.
	Score(item *domain.ContentItem, distance float64) (domain.ScoreBreakdown, bool)
	// Threshold is the minimum final score a candidate must reach.
	Threshold() float64
	// Mode names the strategy for responses and logs.
	Mode() string
}

// personalStrategy blends similarity (max 30) with history-derived rule
// bonuses (max 70).
type personalStrategy struct {
	signals tasteSignals
}

func (p personalStrategy) Score(item *domain.ContentItem, distance float64) (domain.ScoreBreakdown, bool) {
	return domain.ScoreBreakdown{
		Similarity: normalizeSimilarity(distance, personalSimilarityCap),
		Affinity:   p.signals.ruleScore(item),
	}, true
}

func (personalStrategy) Threshold() float64 { return personalThreshold }
func (personalStrategy) Mode() string       { return ModePersonal }

// discoveryStrategy gates candidates on the genres extracted from free text
// and blends similarity (max 50) with a rating-derived virality score
// (max 50). Personal history bonuses never contribute in this mode.
type discoveryStrategy struct {
	genres map[string]struct{}
}

func newDiscoveryStrategy(genres []string) discoveryStrategy {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		set[g] = struct{}{}
	}
	return discoveryStrategy{genres: set}
}

func (d discoveryStrategy) Score(item *domain.ContentItem, distance float64) (domain.ScoreBreakdown, bool) {
	matched := false
	for _, genre := range item.Genres {
		if _, ok := d.genres[genre]; ok {
			matched = true
			break
		}
	}
	if !matched {
		return domain.ScoreBreakdown{}, false
	}
	return domain.ScoreBreakdown{
		Similarity: normalizeSimilarity(distance, discoverySimilarityCap),
		Affinity:   viralityScore(item.Rating),
	}, true
}

func (discoveryStrategy) Threshold() float64 { return discoveryThreshold }
func (discoveryStrategy) Mode() string       { return ModeDiscovery }

// round2 rounds to two decimals for response payloads.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
