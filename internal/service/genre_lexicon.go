package service

import (
	"sort"
	"strings"
)

// genreLexicon maps lowercase Turkish keyword phrases to canonical genre
// names as they appear in catalog metadata.
var genreLexicon = map[string]string{
	"bilim kurgu": "Science Fiction",
	"tv filmi":    "TV Movie",
	"aksiyon":     "Action",
	"macera":      "Adventure",
	"animasyon":   "Animation",
	"komedi":      "Comedy",
	"suç":         "Crime",
	"belgesel":    "Documentary",
	"dram":        "Drama",
	"aile":        "Family",
	"fantastik":   "Fantasy",
	"tarih":       "History",
	"korku":       "Horror",
	"müzik":       "Music",
	"gizem":       "Mystery",
	"romantik":    "Romance",
	"gerilim":     "Thriller",
	"savaş":       "War",
	"western":     "Western",
}

// MatchGenres extracts canonical genres from free text. An empty result
// means the caller should stay in personal-taste mode.
func MatchGenres(query string) []string {
	return matchAgainst(genreLexicon, query)
}

// matchAgainst tries lexicon keys longest-first and consumes each matched
// substring before continuing, so a short keyword embedded in an already
// matched longer phrase cannot also fire. The ordering rule is load-bearing:
// checking keys independently would mis-resolve overlapping phrases.
func matchAgainst(lexicon map[string]string, query string) []string {
	if query == "" {
		return nil
	}

	keys := make([]string, 0, len(lexicon))
	for k := range lexicon {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	text := strings.ToLower(query)
	var genres []string
	seen := make(map[string]struct{})
	for _, key := range keys {
		if !strings.Contains(text, key) {
			continue
		}
		text = strings.ReplaceAll(text, key, "")
		genre := lexicon[key]
		if _, ok := seen[genre]; ok {
			continue
		}
		seen[genre] = struct{}{}
		genres = append(genres, genre)
	}
	return genres
}
