package service

import (
	"context"
	"fmt"

	"github.com/umut/reelsense/internal/domain"
)

// Interaction weights for the taste centroid. An ID in several lists gets a
// single weight, resolved by domain.UserProfile.KindOf precedence
// (favorite > watched > watchlisted).
var interactionWeights = map[domain.InteractionKind]float64{
	domain.InteractionFavorite:    1.0,
	domain.InteractionWatched:     0.75,
	domain.InteractionWatchlisted: 0.25,
}

// tasteProfile is the per-request outcome of resolving a user's history.
type tasteProfile struct {
	// vector is the weighted centroid of the user's known embeddings.
	vector []float32
	// strongItems are the resolved favorite/watched items feeding rule
	// derivation.
	strongItems []*domain.ContentItem
	// interacted holds every interaction ID, resolvable or not; candidates
	// in this set are never recommended back.
	interacted map[string]struct{}
}

// buildTasteProfile resolves a user's interaction lists into a taste vector.
// IDs unknown to the content store or lacking an embedding are dropped; if
// nothing survives, domain.ErrInsufficientSignal is returned so callers can
// short-circuit instead of querying with a zero vector.
func (s *RecommendService) buildTasteProfile(ctx context.Context, profile *domain.UserProfile) (*tasteProfile, error) {
	interacted := make(map[string]struct{})
	for _, id := range profile.InteractionIDs() {
		interacted[id] = struct{}{}
	}
	if len(interacted) == 0 {
		return nil, domain.ErrInsufficientSignal
	}

	allIDs := profile.InteractionIDs()
	meta, err := s.content.GetByIDs(ctx, allIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve interaction metadata: %w", err)
	}

	validIDs := make([]string, 0, len(allIDs))
	for _, id := range allIDs {
		if _, ok := meta[id]; ok {
			validIDs = append(validIDs, id)
		}
	}
	if len(validIDs) == 0 {
		return nil, domain.ErrInsufficientSignal
	}

	vectors, err := s.index.Vectors(ctx, validIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interaction embeddings: %w", err)
	}

	var (
		surviving [][]float32
		weights   []float64
	)
	for _, id := range validIDs {
		vec, ok := vectors[id]
		if !ok {
			continue
		}
		kind, ok := profile.KindOf(id)
		if !ok {
			continue
		}
		surviving = append(surviving, vec)
		weights = append(weights, interactionWeights[kind])
	}
	if len(surviving) == 0 {
		return nil, domain.ErrInsufficientSignal
	}

	centroid, err := weightedCentroid(surviving, weights)
	if err != nil {
		return nil, err
	}

	var strongItems []*domain.ContentItem
	for _, id := range profile.StrongSignalIDs() {
		if item, ok := meta[id]; ok {
			strongItems = append(strongItems, item)
		}
	}

	return &tasteProfile{
		vector:      centroid,
		strongItems: strongItems,
		interacted:  interacted,
	}, nil
}

// weightedCentroid computes the weighted arithmetic mean of the vectors.
// All vectors must share one dimensionality and total weight must be
// positive.
func weightedCentroid(vectors [][]float32, weights []float64) ([]float32, error) {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil, fmt.Errorf("mismatched vectors (%d) and weights (%d)", len(vectors), len(weights))
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	totalWeight := 0.0
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vec), dim)
		}
		w := weights[i]
		for j, v := range vec {
			sum[j] += float64(v) * w
		}
		totalWeight += w
	}
	if totalWeight <= 0 {
		return nil, fmt.Errorf("non-positive total weight %v", totalWeight)
	}

	centroid := make([]float32, dim)
	for j := range sum {
		centroid[j] = float32(sum[j] / totalWeight)
	}
	return centroid, nil
}
