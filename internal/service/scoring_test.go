package service

import (
	"math"
	"testing"

	"github.com/umut/reelsense/internal/domain"
)

func TestNormalizeSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		cap      float64
		want     float64
	}{
		{"identical vectors score the cap", 0, 30, 30},
		{"orthogonal vectors score half", 1, 30, 15},
		{"opposite vectors score zero", 2, 30, 0},
		{"discovery cap", 0.5, 50, 37.5},
		{"distance below range clamps to cap", -0.1, 30, 30},
		{"distance above range clamps to zero", 2.5, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeSimilarity(tt.distance, tt.cap)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("normalizeSimilarity(%v, %v) = %v, want %v", tt.distance, tt.cap, got, tt.want)
			}
		})
	}
}

func TestViralityScore(t *testing.T) {
	tests := []struct {
		rating float64
		want   float64
	}{
		{9.5, 50},
		{9.0, 50},
		{8.9, 40},
		{8.5, 40},
		{8.4, 30},
		{8.0, 30},
		{7.9, 20},
		{7.5, 20},
		{7.4, 10},
		{7.0, 10},
		{6.9, 0},
		{0, 0},
	}

	for _, tt := range tests {
		if got := viralityScore(tt.rating); got != tt.want {
			t.Errorf("viralityScore(%v) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}

func tasteFromItems(items ...*domain.ContentItem) tasteSignals {
	return buildTasteSignals(items)
}

func TestRuleScore(t *testing.T) {
	signals := tasteFromItems(
		&domain.ContentItem{
			DirectorOrCreator: "Christopher Nolan",
			Actors:            domain.StringArray{"Leonardo DiCaprio", "Tom Hardy", "Elliot Page", "Ken Watanabe"},
			Genres:            domain.StringArray{"Science Fiction", "Action", "Thriller"},
		},
	)

	tests := []struct {
		name string
		item *domain.ContentItem
		want float64
	}{
		{
			name: "no overlap",
			item: &domain.ContentItem{
				DirectorOrCreator: "Greta Gerwig",
				Actors:            domain.StringArray{"Saoirse Ronan"},
				Genres:            domain.StringArray{"Comedy"},
				Rating:            6.5,
			},
			want: 0,
		},
		{
			name: "director only",
			item: &domain.ContentItem{
				DirectorOrCreator: "Christopher Nolan",
				Rating:            6.0,
			},
			want: 30,
		},
		{
			name: "one shared actor",
			item: &domain.ContentItem{
				Actors: domain.StringArray{"Tom Hardy"},
				Rating: 6.0,
			},
			want: 15,
		},
		{
			name: "two shared actors",
			item: &domain.ContentItem{
				Actors: domain.StringArray{"Leonardo DiCaprio", "Tom Hardy"},
				Rating: 6.0,
			},
			want: 20,
		},
		{
			name: "shared actor outside the leading three is ignored",
			item: &domain.ContentItem{
				Actors: domain.StringArray{"A", "B", "C", "Leonardo DiCaprio"},
				Rating: 6.0,
			},
			want: 0,
		},
		{
			name: "one genre",
			item: &domain.ContentItem{
				Genres: domain.StringArray{"Action"},
				Rating: 6.0,
			},
			want: 5,
		},
		{
			name: "two genres",
			item: &domain.ContentItem{
				Genres: domain.StringArray{"Action", "Thriller"},
				Rating: 6.0,
			},
			want: 10,
		},
		{
			name: "three genres",
			item: &domain.ContentItem{
				Genres: domain.StringArray{"Action", "Thriller", "Science Fiction"},
				Rating: 6.0,
			},
			want: 15,
		},
		{
			name: "high rating bonus",
			item: &domain.ContentItem{
				Rating: 8.0,
			},
			want: 5,
		},
		{
			name: "everything stacks to the cap",
			item: &domain.ContentItem{
				DirectorOrCreator: "Christopher Nolan",
				Actors:            domain.StringArray{"Leonardo DiCaprio", "Tom Hardy"},
				Genres:            domain.StringArray{"Action", "Thriller", "Science Fiction"},
				Rating:            8.7,
			},
			want: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signals.ruleScore(tt.item); got != tt.want {
				t.Errorf("ruleScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildTasteSignalsLimitsActors(t *testing.T) {
	signals := tasteFromItems(&domain.ContentItem{
		Actors: domain.StringArray{"A", "B", "C", "D", "E"},
	})
	if len(signals.actors) != 3 {
		t.Errorf("expected 3 leading actors in signals, got %d", len(signals.actors))
	}
	if _, ok := signals.actors["D"]; ok {
		t.Error("actor beyond the leading three should not be a signal")
	}
}

func TestPersonalStrategyScore(t *testing.T) {
	signals := tasteFromItems(&domain.ContentItem{
		DirectorOrCreator: "Denis Villeneuve",
		Actors:            domain.StringArray{"Timothée Chalamet", "Zendaya", "Rebecca Ferguson"},
		Genres:            domain.StringArray{"Science Fiction", "Adventure", "Drama"},
	})
	strategy := personalStrategy{signals: signals}

	item := &domain.ContentItem{
		DirectorOrCreator: "Denis Villeneuve",
		Actors:            domain.StringArray{"Timothée Chalamet", "Zendaya"},
		Genres:            domain.StringArray{"Science Fiction", "Adventure"},
		Rating:            8.3,
	}

	breakdown, ok := strategy.Score(item, 1.2)
	if !ok {
		t.Fatal("personal strategy must not gate candidates")
	}

	// distance 1.2 -> (1 - 0.6) * 30 = 12; rules: 30 + 20 + 10 + 5 = 65
	if math.Abs(breakdown.Similarity-12) > 1e-9 {
		t.Errorf("similarity = %v, want 12", breakdown.Similarity)
	}
	if breakdown.Affinity != 65 {
		t.Errorf("affinity = %v, want 65", breakdown.Affinity)
	}
	if strategy.Threshold() != 70 {
		t.Errorf("threshold = %v, want 70", strategy.Threshold())
	}
	if strategy.Mode() != ModePersonal {
		t.Errorf("mode = %q, want %q", strategy.Mode(), ModePersonal)
	}
}

func TestDiscoveryStrategyScore(t *testing.T) {
	strategy := newDiscoveryStrategy([]string{"Horror"})

	t.Run("genre gate rejects non-matching candidates", func(t *testing.T) {
		item := &domain.ContentItem{
			Genres: domain.StringArray{"Comedy", "Romance"},
			Rating: 9.9,
		}
		if _, ok := strategy.Score(item, 0); ok {
			t.Error("candidate without a requested genre must be rejected")
		}
	})

	t.Run("matching candidate blends similarity and virality", func(t *testing.T) {
		item := &domain.ContentItem{
			Genres: domain.StringArray{"Horror", "Thriller"},
			Rating: 9.2,
		}
		breakdown, ok := strategy.Score(item, 0)
		if !ok {
			t.Fatal("candidate with a requested genre must be scored")
		}
		if breakdown.Similarity != 50 {
			t.Errorf("similarity = %v, want 50", breakdown.Similarity)
		}
		if breakdown.Affinity != 50 {
			t.Errorf("affinity = %v, want 50", breakdown.Affinity)
		}
	})

	t.Run("personal history never contributes", func(t *testing.T) {
		item := &domain.ContentItem{
			Genres: domain.StringArray{"Horror"},
			Rating: 6.0,
		}
		breakdown, _ := strategy.Score(item, 2)
		if breakdown.Similarity != 0 || breakdown.Affinity != 0 {
			t.Errorf("breakdown = %+v, want zeros", breakdown)
		}
	})

	if strategy.Threshold() != 50 {
		t.Errorf("threshold = %v, want 50", strategy.Threshold())
	}
	if strategy.Mode() != ModeDiscovery {
		t.Errorf("mode = %q, want %q", strategy.Mode(), ModeDiscovery)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.345, 12.35},
		{12.344, 12.34},
		{0, 0},
		{99.999, 100},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
