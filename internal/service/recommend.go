package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/umut/reelsense/internal/domain"
	"github.com/umut/reelsense/internal/logger"
)

// Collaborator interfaces. Concrete implementations live in the repository
// package; the engine only sees these capabilities, so tests substitute
// doubles.

// ContentStore resolves catalog metadata. Missing IDs are absent from the
// result map, never an error.
type ContentStore interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.ContentItem, error)
}

// UserStore resolves user profiles; unknown IDs yield domain.ErrUserNotFound.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
}

// VectorIndex provides embedding lookup and nearest-neighbor search with
// distances in [0, 2], ordered ascending.
type VectorIndex interface {
	Vectors(ctx context.Context, ids []string) (map[string][]float32, error)
	NearestNeighbors(ctx context.Context, vector []float32, limit int, contentType domain.ContentType) ([]domain.Neighbor, error)
}

// RecommendConfig holds the engine's tuning parameters.
type RecommendConfig struct {
	// CandidatePoolSize is how many neighbors are retrieved before scoring.
	CandidatePoolSize int
	// MaxResults bounds the final ranked list.
	MaxResults int
}

const (
	defaultCandidatePoolSize = 1500
	defaultMaxResults        = 10
)

// RecommendService sequences taste-vector construction, candidate
// retrieval, scoring, and ranking for one request. It holds no mutable
// state across requests.
type RecommendService struct {
	users   UserStore
	content ContentStore
	index   VectorIndex
	logger  *logger.Logger

	poolSize   int
	maxResults int
}

// NewRecommendService creates a recommendation engine over the injected
// collaborators.
func NewRecommendService(users UserStore, content ContentStore, index VectorIndex, log *logger.Logger, cfg *RecommendConfig) *RecommendService {
	poolSize := defaultCandidatePoolSize
	maxResults := defaultMaxResults
	if cfg != nil {
		if cfg.CandidatePoolSize > 0 {
			poolSize = cfg.CandidatePoolSize
		}
		if cfg.MaxResults > 0 {
			maxResults = cfg.MaxResults
		}
	}
	return &RecommendService{
		users:      users,
		content:    content,
		index:      index,
		logger:     log,
		poolSize:   poolSize,
		maxResults: maxResults,
	}
}

// RecommendRequest carries one request's parameters. Query is only consulted
// by the discovery endpoint; an empty Query (or one without genre keywords)
// keeps the request in personal-taste mode.
type RecommendRequest struct {
	UserID string
	Type   domain.ContentType
	Query  string
}

// RecommendResponse is the ordered result list plus mode metadata.
type RecommendResponse struct {
	Results       []domain.ScoredCandidate `json:"results"`
	Total         int                      `json:"total"`
	Mode          string                   `json:"mode"`
	MatchedGenres []string                 `json:"matched_genres,omitempty"`
}

// Recommend runs the full pipeline for one request. Failures of the user
// store, content store, vector index, or taste construction surface as
// errors; zero candidates passing the threshold is a valid empty response.
func (s *RecommendService) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	start := time.Now()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "recommend",
		logger.FieldUserID:    req.UserID,
	})

	genres := MatchGenres(req.Query)

	profile, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	taste, err := s.buildTasteProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	neighbors, err := s.index.NearestNeighbors(ctx, taste.vector, s.poolSize, req.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}

	candidateIDs := make([]string, len(neighbors))
	for i, n := range neighbors {
		candidateIDs[i] = n.ID
	}
	candidates, err := s.content.GetByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidate metadata: %w", err)
	}

	var strategy scoringStrategy
	if len(genres) > 0 {
		strategy = newDiscoveryStrategy(genres)
	} else {
		strategy = personalStrategy{signals: buildTasteSignals(taste.strongItems)}
	}

	scored := scoreCandidates(neighbors, candidates, taste.interacted, strategy)
	results := rankCandidates(scored, strategy.Threshold(), s.maxResults)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldMode:       strategy.Mode(),
		logger.FieldCount:      len(results),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Infof("Ranked %d of %d candidates above threshold %.1f", len(results), len(scored), strategy.Threshold())

	return &RecommendResponse{
		Results:       results,
		Total:         len(results),
		Mode:          strategy.Mode(),
		MatchedGenres: genres,
	}, nil
}

// scoreCandidates walks the retrieval-ordered neighbor list and scores each
// eligible candidate. Already-interacted IDs and IDs without metadata are
// skipped before scoring; strategy gating drops the rest.
func scoreCandidates(
	neighbors []domain.Neighbor,
	candidates map[string]*domain.ContentItem,
	interacted map[string]struct{},
	strategy scoringStrategy,
) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, 0, len(neighbors))
	for _, n := range neighbors {
		if _, ok := interacted[n.ID]; ok {
			continue
		}
		item, ok := candidates[n.ID]
		if !ok {
			continue
		}
		breakdown, ok := strategy.Score(item, n.Distance)
		if !ok {
			continue
		}
		breakdown.Similarity = round2(breakdown.Similarity)
		breakdown.Affinity = round2(breakdown.Affinity)
		scored = append(scored, domain.ScoredCandidate{
			ContentID:  n.ID,
			Type:       item.Type,
			Title:      item.Title,
			PosterURL:  item.PosterURL,
			Year:       item.Year,
			FinalScore: round2(breakdown.Similarity + breakdown.Affinity),
			Breakdown:  breakdown,
		})
	}
	return scored
}

// rankCandidates sorts by final score descending, drops candidates below the
// threshold, and truncates. The stable sort preserves retrieval order for
// equal scores, keeping output deterministic.
func rankCandidates(scored []domain.ScoredCandidate, threshold float64, limit int) []domain.ScoredCandidate {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	results := make([]domain.ScoredCandidate, 0, limit)
	for _, c := range scored {
		if c.FinalScore < threshold {
			continue
		}
		results = append(results, c)
		if len(results) == limit {
			break
		}
	}
	return results
}

// log returns a logger from context if available, otherwise the default.
func (s *RecommendService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}
