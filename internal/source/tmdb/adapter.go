// Package tmdb adapts The Movie Database discover API into a catalog source.
package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/umut/reelsense/internal/domain"
	"golang.org/x/time/rate"
)

const (
	apiBaseURL    = "https://api.themoviedb.org/3"
	posterBaseURL = "https://image.tmdb.org/t/p/w500"

	// minVoteCount filters out thinly rated catalog entries.
	minVoteCount = 500

	// maxActors is how many leading cast members are recorded per item.
	maxActors = 5
)

// Config holds TMDB adapter settings.
type Config struct {
	APIKey   string
	Language string
	// MaxPages bounds discover paging per content type.
	MaxPages int
	// RPS paces requests toward the TMDB API.
	RPS float64
}

// Adapter implements source.Source over the TMDB discover/details/credits
// endpoints. Movies are fetched first, then TV shows, best-rated first.
type Adapter struct {
	client   *resty.Client
	limiter  *rate.Limiter
	language string
	maxPages int
}

// New creates a TMDB adapter.
func New(cfg *Config) *Adapter {
	client := resty.New().
		SetBaseURL(apiBaseURL).
		SetQueryParam("api_key", cfg.APIKey).
		SetQueryParam("language", cfg.Language)

	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 250
	}

	return &Adapter{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		language: cfg.Language,
		maxPages: maxPages,
	}
}

// ID identifies the source.
func (a *Adapter) ID() string {
	return "tmdb"
}

// cursor encodes the paging position as "<movie|tv>:<page>".
type cursor struct {
	contentType domain.ContentType
	page        int
}

func parseCursor(raw string) (cursor, error) {
	if raw == "" {
		return cursor{contentType: domain.ContentTypeMovie, page: 1}, nil
	}
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return cursor{}, fmt.Errorf("malformed cursor %q", raw)
	}
	contentType := domain.ContentType(parts[0])
	if !contentType.IsValid() {
		return cursor{}, fmt.Errorf("malformed cursor %q: unknown content type", raw)
	}
	page, err := strconv.Atoi(parts[1])
	if err != nil || page < 1 {
		return cursor{}, fmt.Errorf("malformed cursor %q: bad page", raw)
	}
	return cursor{contentType: contentType, page: page}, nil
}

func (c cursor) String() string {
	return fmt.Sprintf("%s:%d", c.contentType, c.page)
}

// next advances one page, rolling from movies into TV shows.
func (a *Adapter) next(c cursor) (cursor, bool) {
	if c.page < a.maxPages {
		return cursor{contentType: c.contentType, page: c.page + 1}, true
	}
	if c.contentType == domain.ContentTypeMovie {
		return cursor{contentType: domain.ContentTypeTV, page: 1}, true
	}
	return cursor{}, false
}

// FetchBatch fetches one discover page. The limit parameter caps how many of
// the page's items are detailed; TMDB pages hold 20 items.
func (a *Adapter) FetchBatch(ctx context.Context, rawCursor string, limit int) ([]domain.ContentItem, string, error) {
	cur, err := parseCursor(rawCursor)
	if err != nil {
		return nil, "", err
	}

	ids, err := a.discoverPage(ctx, cur)
	if err != nil {
		return nil, "", err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	items := make([]domain.ContentItem, 0, len(ids))
	for _, id := range ids {
		item, err := a.fetchItem(ctx, cur.contentType, id)
		if err != nil {
			return nil, "", err
		}
		// Items without an overview cannot be embedded; skip them.
		if item.Overview == "" {
			continue
		}
		items = append(items, *item)
	}

	nextCur, ok := a.next(cur)
	if !ok {
		return items, "", nil
	}
	return items, nextCur.String(), nil
}

type discoverResponse struct {
	Results []struct {
		ID int64 `json:"id"`
	} `json:"results"`
	TotalPages int `json:"total_pages"`
}

func (a *Adapter) discoverPage(ctx context.Context, cur cursor) ([]int64, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path := "/discover/movie"
	if cur.contentType == domain.ContentTypeTV {
		path = "/discover/tv"
	}

	var resp discoverResponse
	httpResp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":           strconv.Itoa(cur.page),
			"sort_by":        "vote_average.desc",
			"vote_count.gte": strconv.Itoa(minVoteCount),
		}).
		SetResult(&resp).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("tmdb discover failed: %w", err)
	}
	if httpResp.StatusCode() != 200 {
		return nil, fmt.Errorf("tmdb discover: status %d", httpResp.StatusCode())
	}

	ids := make([]int64, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

type detailsResponse struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"` // movies
	Name           string  `json:"name"`  // tv
	Overview       string  `json:"overview"`
	PosterPath     string  `json:"poster_path"`
	ReleaseDate    string  `json:"release_date"`   // movies
	FirstAirDate   string  `json:"first_air_date"` // tv
	VoteAverage    float64 `json:"vote_average"`
	Runtime        int     `json:"runtime"`          // movies
	EpisodeRunTime []int   `json:"episode_run_time"` // tv
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
	CreatedBy []struct {
		Name string `json:"name"`
	} `json:"created_by"` // tv
}

type creditsResponse struct {
	Cast []struct {
		Name string `json:"name"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

func (a *Adapter) fetchItem(ctx context.Context, contentType domain.ContentType, id int64) (*domain.ContentItem, error) {
	base := "/movie/"
	if contentType == domain.ContentTypeTV {
		base = "/tv/"
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var details detailsResponse
	httpResp, err := a.client.R().
		SetContext(ctx).
		SetResult(&details).
		Get(base + strconv.FormatInt(id, 10))
	if err != nil {
		return nil, fmt.Errorf("tmdb details failed for %d: %w", id, err)
	}
	if httpResp.StatusCode() != 200 {
		return nil, fmt.Errorf("tmdb details for %d: status %d", id, httpResp.StatusCode())
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var credits creditsResponse
	httpResp, err = a.client.R().
		SetContext(ctx).
		SetResult(&credits).
		Get(base + strconv.FormatInt(id, 10) + "/credits")
	if err != nil {
		return nil, fmt.Errorf("tmdb credits failed for %d: %w", id, err)
	}
	if httpResp.StatusCode() != 200 {
		return nil, fmt.Errorf("tmdb credits for %d: status %d", id, httpResp.StatusCode())
	}

	return buildContentItem(contentType, &details, &credits), nil
}

// buildContentItem maps TMDB responses onto the catalog model.
func buildContentItem(contentType domain.ContentType, details *detailsResponse, credits *creditsResponse) *domain.ContentItem {
	item := &domain.ContentItem{
		ID:       strconv.FormatInt(details.ID, 10),
		Type:     contentType,
		Overview: details.Overview,
		Rating:   roundRating(details.VoteAverage),
	}

	if contentType == domain.ContentTypeMovie {
		item.Title = details.Title
		item.Year = yearOf(details.ReleaseDate)
		item.Runtime = details.Runtime
		for _, crew := range credits.Crew {
			if crew.Job == "Director" {
				item.DirectorOrCreator = crew.Name
				break
			}
		}
	} else {
		item.Title = details.Name
		item.Year = yearOf(details.FirstAirDate)
		if len(details.EpisodeRunTime) > 0 {
			item.Runtime = details.EpisodeRunTime[0]
		}
		if len(details.CreatedBy) > 0 {
			item.DirectorOrCreator = details.CreatedBy[0].Name
		}
	}

	for _, g := range details.Genres {
		item.Genres = append(item.Genres, g.Name)
	}

	for i, cast := range credits.Cast {
		if i == maxActors {
			break
		}
		item.Actors = append(item.Actors, cast.Name)
	}

	if details.PosterPath != "" {
		item.PosterURL = posterBaseURL + details.PosterPath
	}

	return item
}

func yearOf(date string) string {
	if idx := strings.Index(date, "-"); idx > 0 {
		return date[:idx]
	}
	return date
}

func roundRating(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
