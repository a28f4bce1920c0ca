package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/umut/reelsense/internal/domain"
)

type fakeUserStore struct {
	profiles map[string]*domain.UserProfile
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, domain.ErrUserNotFound
}

type fakeContentStore struct {
	items map[string]*domain.ContentItem
	err   error
}

func (f *fakeContentStore) GetByIDs(_ context.Context, ids []string) (map[string]*domain.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*domain.ContentItem)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type fakeVectorIndex struct {
	vectors   map[string][]float32
	neighbors []domain.Neighbor

	lastLimit int
	lastType  domain.ContentType
}

func (f *fakeVectorIndex) Vectors(_ context.Context, ids []string) (map[string][]float32, error) {
	out := make(map[string][]float32)
	for _, id := range ids {
		if v, ok := f.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeVectorIndex) NearestNeighbors(_ context.Context, _ []float32, limit int, contentType domain.ContentType) ([]domain.Neighbor, error) {
	f.lastLimit = limit
	f.lastType = contentType
	return f.neighbors, nil
}

// newPipelineFixture builds a user with one favorite ("1", directed by Nolan)
// and a candidate pool exercising skipping, thresholding, and ties.
func newPipelineFixture() (*fakeUserStore, *fakeContentStore, *fakeVectorIndex) {
	users := &fakeUserStore{profiles: map[string]*domain.UserProfile{
		"u1": {
			ID: "u1",
			FavoriteEntries: domain.InteractionList{
				{ContentID: "1", Type: domain.ContentTypeMovie},
			},
		},
	}}

	content := &fakeContentStore{items: map[string]*domain.ContentItem{
		"1": {
			ID:                "1",
			Type:              domain.ContentTypeMovie,
			Title:             "Inception",
			DirectorOrCreator: "Christopher Nolan",
			Actors:            domain.StringArray{"A1", "A2", "A3"},
			Genres:            domain.StringArray{"Science Fiction", "Action"},
		},
		"2": {
			ID:                "2",
			Type:              domain.ContentTypeMovie,
			Title:             "Strong Match",
			DirectorOrCreator: "Christopher Nolan",
			Actors:            domain.StringArray{"A1", "A2"},
			Genres:            domain.StringArray{"Science Fiction", "Action"},
			Rating:            8.5,
		},
		"3": {
			ID:     "3",
			Type:   domain.ContentTypeMovie,
			Title:  "Weak Match",
			Rating: 5.0,
		},
		"5": {
			ID:                "5",
			Type:              domain.ContentTypeMovie,
			Title:             "Director Match",
			DirectorOrCreator: "Christopher Nolan",
			Genres:            domain.StringArray{"Science Fiction", "Action"},
			Rating:            8.5,
		},
		"6": {
			ID:                "6",
			Type:              domain.ContentTypeMovie,
			Title:             "Tied First",
			DirectorOrCreator: "Christopher Nolan",
			Genres:            domain.StringArray{"Science Fiction"},
			Rating:            8.5,
		},
		"7": {
			ID:                "7",
			Type:              domain.ContentTypeMovie,
			Title:             "Tied Second",
			DirectorOrCreator: "Christopher Nolan",
			Genres:            domain.StringArray{"Science Fiction"},
			Rating:            8.5,
		},
	}}

	index := &fakeVectorIndex{
		vectors: map[string][]float32{"1": {1, 0}},
		neighbors: []domain.Neighbor{
			{ID: "1", Distance: 0},   // interacted, skipped
			{ID: "2", Distance: 0},   // 30 + 65 = 95
			{ID: "3", Distance: 0.4}, // 24 + 0, below threshold
			{ID: "4", Distance: 0},   // no metadata, skipped
			{ID: "5", Distance: 0},   // 30 + 45 = 75
			{ID: "6", Distance: 0},   // 30 + 40 = 70, tied
			{ID: "7", Distance: 0},   // 30 + 40 = 70, tied
		},
	}

	return users, content, index
}

func TestRecommendUserNotFound(t *testing.T) {
	users, content, index := newPipelineFixture()
	svc := NewRecommendService(users, content, index, nil, nil)

	_, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "nobody"})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRecommendInsufficientSignal(t *testing.T) {
	users, content, index := newPipelineFixture()
	users.profiles["empty"] = &domain.UserProfile{ID: "empty"}
	svc := NewRecommendService(users, content, index, nil, nil)

	_, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "empty"})
	if !errors.Is(err, domain.ErrInsufficientSignal) {
		t.Errorf("expected ErrInsufficientSignal, got %v", err)
	}
}

func TestRecommendPersonalPipeline(t *testing.T) {
	users, content, index := newPipelineFixture()
	svc := NewRecommendService(users, content, index, nil, nil)

	resp, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Mode != ModePersonal {
		t.Errorf("mode = %q, want %q", resp.Mode, ModePersonal)
	}
	if resp.MatchedGenres != nil {
		t.Errorf("matched genres = %v, want none", resp.MatchedGenres)
	}

	gotIDs := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		gotIDs[i] = r.ContentID
	}
	// "1" interacted, "3" below threshold, "4" unresolvable; the tie between
	// "6" and "7" keeps retrieval order.
	wantIDs := []string{"2", "5", "6", "7"}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Errorf("result IDs = %v, want %v", gotIDs, wantIDs)
	}
	if resp.Total != len(wantIDs) {
		t.Errorf("total = %d, want %d", resp.Total, len(wantIDs))
	}

	top := resp.Results[0]
	if top.FinalScore != 95 {
		t.Errorf("top final score = %v, want 95", top.FinalScore)
	}
	if top.Breakdown.Similarity != 30 || top.Breakdown.Affinity != 65 {
		t.Errorf("top breakdown = %+v, want 30/65", top.Breakdown)
	}

	if index.lastLimit != defaultCandidatePoolSize {
		t.Errorf("pool size = %d, want %d", index.lastLimit, defaultCandidatePoolSize)
	}
}

func TestRecommendTruncatesToMaxResults(t *testing.T) {
	users, content, index := newPipelineFixture()
	svc := NewRecommendService(users, content, index, nil, &RecommendConfig{MaxResults: 2})

	resp, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].ContentID != "2" || resp.Results[1].ContentID != "5" {
		t.Errorf("results = %v, want [2 5]", resp.Results)
	}
}

func TestRecommendPassesTypeFilter(t *testing.T) {
	users, content, index := newPipelineFixture()
	svc := NewRecommendService(users, content, index, nil, nil)

	_, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "u1", Type: domain.ContentTypeTV})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.lastType != domain.ContentTypeTV {
		t.Errorf("type filter = %q, want %q", index.lastType, domain.ContentTypeTV)
	}
}

func TestRecommendDiscoveryMode(t *testing.T) {
	users, content, index := newPipelineFixture()
	content.items["8"] = &domain.ContentItem{
		ID:     "8",
		Type:   domain.ContentTypeMovie,
		Title:  "Acclaimed Horror",
		Genres: domain.StringArray{"Horror"},
		Rating: 9.2,
	}
	index.neighbors = []domain.Neighbor{
		{ID: "1", Distance: 0}, // interacted, still excluded in discovery
		{ID: "2", Distance: 0}, // wrong genre, gated out
		{ID: "8", Distance: 0}, // 50 + 50 = 100
	}
	svc := NewRecommendService(users, content, index, nil, nil)

	resp, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "u1", Query: "korku önerileri"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Mode != ModeDiscovery {
		t.Errorf("mode = %q, want %q", resp.Mode, ModeDiscovery)
	}
	if !reflect.DeepEqual(resp.MatchedGenres, []string{"Horror"}) {
		t.Errorf("matched genres = %v, want [Horror]", resp.MatchedGenres)
	}
	if len(resp.Results) != 1 || resp.Results[0].ContentID != "8" {
		t.Fatalf("results = %+v, want exactly item 8", resp.Results)
	}
	if resp.Results[0].FinalScore != 100 {
		t.Errorf("final score = %v, want 100", resp.Results[0].FinalScore)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	users, content, index := newPipelineFixture()
	svc := NewRecommendService(users, content, index, nil, nil)

	first, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Recommend(context.Background(), &RecommendRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same request produced different responses:\n%+v\n%+v", first, second)
	}
}
