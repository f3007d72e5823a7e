package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"cineseek/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/w342"
)

// TMDBClient queries the TMDB API. TMDB is multi-media: movies and series are
// separate endpoint families with differently named fields, normalized here.
type TMDBClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	cache   *fileCache
}

func NewTMDBClient(apiKey, cacheDir string, httpc *http.Client) *TMDBClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	c := &TMDBClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: tmdbBaseURL,
		httpc:   httpc,
	}
	if cacheDir != "" {
		c.cache = newFileCache(cacheDir, 24*time.Hour)
	}
	return c
}

func (c *TMDBClient) Name() string { return "tmdb" }

type tmdbSearchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
		PosterPath   string `json:"poster_path"`
	} `json:"results"`
}

type tmdbMovieDetail struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbSeriesDetail struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Seasons []struct {
		SeasonNumber int `json:"season_number"`
		EpisodeCount int `json:"episode_count"`
	} `json:"seasons"`
}

type tmdbSeasonDetail struct {
	Episodes []struct {
		EpisodeNumber int `json:"episode_number"`
	} `json:"episodes"`
}

func (c *TMDBClient) SearchByTitle(ctx context.Context, query string, kind models.MediaKind, year int) ([]models.SearchResult, error) {
	kinds := []models.MediaKind{models.MediaKindMovie, models.MediaKindSeries}
	if kind.Valid() {
		kinds = []models.MediaKind{kind}
	}

	var results []models.SearchResult
	for _, k := range kinds {
		part, err := c.searchOne(ctx, query, k, year)
		if err != nil {
			return nil, err
		}
		results = append(results, part...)
	}
	return results, nil
}

func (c *TMDBClient) searchOne(ctx context.Context, query string, kind models.MediaKind, year int) ([]models.SearchResult, error) {
	path := "/search/movie"
	params := url.Values{"query": []string{query}}
	if kind == models.MediaKindSeries {
		path = "/search/tv"
		if year > 0 {
			params.Set("first_air_date_year", strconv.Itoa(year))
		}
	} else if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	key := cacheKey("tmdb", "search", string(kind), query, strconv.Itoa(year))
	var resp tmdbSearchResponse
	if !c.cached(key, &resp) {
		if err := c.doGET(ctx, path, params, &resp); err != nil {
			return nil, err
		}
		c.store(key, resp)
	}

	results := make([]models.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.Title
		date := r.ReleaseDate
		if kind == models.MediaKindSeries {
			title = r.Name
			date = r.FirstAirDate
		}
		if strings.TrimSpace(title) == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Provider:  c.Name(),
			ID:        strconv.FormatInt(r.ID, 10),
			Kind:      kind,
			Title:     title,
			Year:      yearFromDate(date),
			PosterURL: tmdbPosterURL(r.PosterPath),
		})
	}
	return results, nil
}

func (c *TMDBClient) GetDetail(ctx context.Context, id string, kind models.MediaKind) (*models.TitleDetail, error) {
	if kind == models.MediaKindSeries {
		detail, err := c.fetchSeries(ctx, id)
		if err != nil {
			return nil, err
		}
		return &models.TitleDetail{
			Provider:  c.Name(),
			ID:        id,
			Kind:      kind,
			Title:     detail.Name,
			Year:      yearFromDate(detail.FirstAirDate),
			Rating:    formatVote(detail.VoteAverage),
			Genre:     joinGenres(genreNames(detail.Genres)),
			Overview:  detail.Overview,
			PosterURL: tmdbPosterURL(detail.PosterPath),
		}, nil
	}

	key := cacheKey("tmdb", "movie", id)
	var detail tmdbMovieDetail
	if !c.cached(key, &detail) {
		if err := c.doGET(ctx, "/movie/"+url.PathEscape(id), nil, &detail); err != nil {
			return nil, err
		}
		c.store(key, detail)
	}
	return &models.TitleDetail{
		Provider:  c.Name(),
		ID:        id,
		Kind:      models.MediaKindMovie,
		Title:     detail.Title,
		Year:      yearFromDate(detail.ReleaseDate),
		Rating:    formatVote(detail.VoteAverage),
		Genre:     joinGenres(genreNames(detail.Genres)),
		Overview:  detail.Overview,
		PosterURL: tmdbPosterURL(detail.PosterPath),
	}, nil
}

func (c *TMDBClient) ListSeasons(ctx context.Context, id string) ([]int, error) {
	detail, err := c.fetchSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	seasons := make([]int, 0, len(detail.Seasons))
	for _, s := range detail.Seasons {
		// Season 0 is specials; the drill-down only offers numbered seasons.
		if s.SeasonNumber > 0 {
			seasons = append(seasons, s.SeasonNumber)
		}
	}
	return seasons, nil
}

func (c *TMDBClient) ListEpisodes(ctx context.Context, id string, season int) ([]int, error) {
	key := cacheKey("tmdb", "season", id, strconv.Itoa(season))
	var detail tmdbSeasonDetail
	if !c.cached(key, &detail) {
		path := fmt.Sprintf("/tv/%s/season/%d", url.PathEscape(id), season)
		if err := c.doGET(ctx, path, nil, &detail); err != nil {
			return nil, err
		}
		c.store(key, detail)
	}
	episodes := make([]int, 0, len(detail.Episodes))
	for _, ep := range detail.Episodes {
		if ep.EpisodeNumber > 0 {
			episodes = append(episodes, ep.EpisodeNumber)
		}
	}
	return episodes, nil
}

func (c *TMDBClient) fetchSeries(ctx context.Context, id string) (*tmdbSeriesDetail, error) {
	key := cacheKey("tmdb", "series", id)
	var detail tmdbSeriesDetail
	if c.cached(key, &detail) {
		return &detail, nil
	}
	if err := c.doGET(ctx, "/tv/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	c.store(key, detail)
	return &detail, nil
}

func (c *TMDBClient) doGET(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrContentUnavailable)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("tmdb request failed: status %d", resp.StatusCode)
			case resp.StatusCode >= 400:
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: status %d", resp.StatusCode))
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode tmdb response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] retrying request (attempt %d): %v", n+1, err)
		}),
	)
}

func (c *TMDBClient) cached(key string, v any) bool {
	if c.cache == nil {
		return false
	}
	ok, _ := c.cache.get(key, v)
	return ok
}

func (c *TMDBClient) store(key string, v any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.set(key, v); err != nil {
		log.Printf("[tmdb] cache write failed: %v", err)
	}
}

func yearFromDate(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	n, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return n
}

func tmdbPosterURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return tmdbImageBaseURL + path
}

func formatVote(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func genreNames(genres []struct {
	Name string `json:"name"`
}) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

func joinGenres(names []string) string {
	return strings.Join(names, ", ")
}
