package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/umut/reelsense/internal/domain"
)

func profileWith(favorites, watched, watchlist []string) *domain.UserProfile {
	mk := func(ids []string) domain.InteractionList {
		list := make(domain.InteractionList, 0, len(ids))
		for _, id := range ids {
			list = append(list, domain.InteractionEntry{ContentID: id, Type: domain.ContentTypeMovie})
		}
		return list
	}
	return &domain.UserProfile{
		ID:               "u1",
		FavoriteEntries:  mk(favorites),
		WatchedEntries:   mk(watched),
		WatchlistEntries: mk(watchlist),
	}
}

func TestBuildTasteProfileWeightsByInteraction(t *testing.T) {
	content := &fakeContentStore{items: map[string]*domain.ContentItem{
		"1": {ID: "1", Title: "Fav"},
		"2": {ID: "2", Title: "Watched"},
	}}
	index := &fakeVectorIndex{vectors: map[string][]float32{
		"1": {1, 0},
		"2": {0, 1},
	}}
	svc := NewRecommendService(&fakeUserStore{}, content, index, nil, nil)

	taste, err := svc.buildTasteProfile(context.Background(), profileWith([]string{"1"}, []string{"2"}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (1.0*[1,0] + 0.75*[0,1]) / 1.75
	want := []float32{float32(1.0 / 1.75), float32(0.75 / 1.75)}
	for i := range want {
		if math.Abs(float64(taste.vector[i]-want[i])) > 1e-6 {
			t.Errorf("vector[%d] = %v, want %v", i, taste.vector[i], want[i])
		}
	}

	if len(taste.strongItems) != 2 {
		t.Errorf("expected 2 strong items, got %d", len(taste.strongItems))
	}
	if len(taste.interacted) != 2 {
		t.Errorf("expected 2 interacted IDs, got %d", len(taste.interacted))
	}
}

// An ID present in several lists must count once, at the weight of its
// strongest list.
func TestBuildTasteProfilePrecedence(t *testing.T) {
	content := &fakeContentStore{items: map[string]*domain.ContentItem{
		"1": {ID: "1"},
		"2": {ID: "2"},
	}}
	index := &fakeVectorIndex{vectors: map[string][]float32{
		"1": {2, 0},
		"2": {0, 2},
	}}
	svc := NewRecommendService(&fakeUserStore{}, content, index, nil, nil)

	// "1" is both favorited and watchlisted; favorite wins.
	taste, err := svc.buildTasteProfile(context.Background(), profileWith([]string{"1"}, nil, []string{"1", "2"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (1.0*[2,0] + 0.25*[0,2]) / 1.25
	want := []float32{2.0 / 1.25, 0.5 / 1.25}
	for i := range want {
		if math.Abs(float64(taste.vector[i]-want[i])) > 1e-6 {
			t.Errorf("vector[%d] = %v, want %v", i, taste.vector[i], want[i])
		}
	}
}

func TestBuildTasteProfileInsufficientSignal(t *testing.T) {
	tests := []struct {
		name    string
		profile *domain.UserProfile
		content *fakeContentStore
		index   *fakeVectorIndex
	}{
		{
			name:    "empty lists",
			profile: profileWith(nil, nil, nil),
			content: &fakeContentStore{},
			index:   &fakeVectorIndex{},
		},
		{
			name:    "no resolvable metadata",
			profile: profileWith([]string{"404"}, nil, nil),
			content: &fakeContentStore{},
			index:   &fakeVectorIndex{},
		},
		{
			name:    "no stored embeddings",
			profile: profileWith([]string{"1"}, nil, nil),
			content: &fakeContentStore{items: map[string]*domain.ContentItem{"1": {ID: "1"}}},
			index:   &fakeVectorIndex{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRecommendService(&fakeUserStore{}, tt.content, tt.index, nil, nil)
			_, err := svc.buildTasteProfile(context.Background(), tt.profile)
			if !errors.Is(err, domain.ErrInsufficientSignal) {
				t.Errorf("expected ErrInsufficientSignal, got %v", err)
			}
		})
	}
}

func TestWeightedCentroid(t *testing.T) {
	t.Run("single vector is its own centroid", func(t *testing.T) {
		got, err := weightedCentroid([][]float32{{1, 2, 3}}, []float64{0.75})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []float32{1, 2, 3}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("centroid[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("empty input errors", func(t *testing.T) {
		if _, err := weightedCentroid(nil, nil); err == nil {
			t.Error("expected error for empty input")
		}
	})

	t.Run("mismatched dimensions error", func(t *testing.T) {
		if _, err := weightedCentroid([][]float32{{1, 2}, {1}}, []float64{1, 1}); err == nil {
			t.Error("expected error for mismatched dimensions")
		}
	})

	t.Run("zero total weight errors", func(t *testing.T) {
		if _, err := weightedCentroid([][]float32{{1}}, []float64{0}); err == nil {
			t.Error("expected error for zero total weight")
		}
	})
}
