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

const omdbBaseURL = "https://www.omdbapi.com/"

// OMDBClient queries the OMDB API. OMDB is movie-oriented: series exist but
// season/episode listings come from the Season= endpoint plus the totalSeasons
// field on the detail record.
type OMDBClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	cache   *fileCache
}

// NewOMDBClient builds an OMDB provider. cacheDir may be empty to disable
// response caching (used in tests).
func NewOMDBClient(apiKey, cacheDir string, httpc *http.Client) *OMDBClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	c := &OMDBClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: omdbBaseURL,
		httpc:   httpc,
	}
	if cacheDir != "" {
		c.cache = newFileCache(cacheDir, 24*time.Hour)
	}
	return c
}

func (c *OMDBClient) Name() string { return "omdb" }

// omdbEnvelope carries the Response/Error pair OMDB attaches to every reply.
type omdbEnvelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (e omdbEnvelope) failed() bool { return !strings.EqualFold(e.Response, "True") }

type omdbSearchResponse struct {
	omdbEnvelope
	Search []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		IMDBID string `json:"imdbID"`
		Type   string `json:"Type"`
		Poster string `json:"Poster"`
	} `json:"Search"`
}

type omdbDetailResponse struct {
	omdbEnvelope
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Rated        string `json:"Rated"`
	Genre        string `json:"Genre"`
	Plot         string `json:"Plot"`
	Poster       string `json:"Poster"`
	IMDBRating   string `json:"imdbRating"`
	IMDBID       string `json:"imdbID"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
}

type omdbSeasonResponse struct {
	omdbEnvelope
	Season   string `json:"Season"`
	Episodes []struct {
		Episode string `json:"Episode"`
	} `json:"Episodes"`
}

func (c *OMDBClient) SearchByTitle(ctx context.Context, query string, kind models.MediaKind, year int) ([]models.SearchResult, error) {
	params := url.Values{"s": []string{query}}
	if kind.Valid() {
		params.Set("type", omdbType(kind))
	}
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}

	key := cacheKey("omdb", "search", query, string(kind), strconv.Itoa(year))
	var resp omdbSearchResponse
	if !c.cached(key, &resp) {
		if err := c.doGET(ctx, params, &resp); err != nil {
			return nil, err
		}
		if resp.failed() {
			// "Movie not found!" is a normal empty result, not an error.
			return nil, nil
		}
		c.store(key, resp)
	}

	results := make([]models.SearchResult, 0, len(resp.Search))
	for _, m := range resp.Search {
		k := kindFromOMDBType(m.Type)
		if !k.Valid() {
			continue
		}
		results = append(results, models.SearchResult{
			Provider:  c.Name(),
			ID:        m.IMDBID,
			Kind:      k,
			Title:     m.Title,
			Year:      parseOMDBYear(m.Year),
			PosterURL: normalizePoster(m.Poster),
		})
	}
	return results, nil
}

func (c *OMDBClient) GetDetail(ctx context.Context, id string, kind models.MediaKind) (*models.TitleDetail, error) {
	detail, err := c.fetchDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TitleDetail{
		Provider:  c.Name(),
		ID:        detail.IMDBID,
		Kind:      kindFromOMDBType(detail.Type),
		Title:     detail.Title,
		Year:      parseOMDBYear(detail.Year),
		Rating:    notAvailableToEmpty(detail.IMDBRating),
		Genre:     notAvailableToEmpty(detail.Genre),
		Overview:  notAvailableToEmpty(detail.Plot),
		PosterURL: normalizePoster(detail.Poster),
	}, nil
}

func (c *OMDBClient) ListSeasons(ctx context.Context, id string) ([]int, error) {
	detail, err := c.fetchDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	total, err := strconv.Atoi(strings.TrimSpace(detail.TotalSeasons))
	if err != nil || total <= 0 {
		return nil, nil
	}
	seasons := make([]int, 0, total)
	for n := 1; n <= total; n++ {
		seasons = append(seasons, n)
	}
	return seasons, nil
}

func (c *OMDBClient) ListEpisodes(ctx context.Context, id string, season int) ([]int, error) {
	params := url.Values{
		"i":      []string{id},
		"Season": []string{strconv.Itoa(season)},
	}

	key := cacheKey("omdb", "season", id, strconv.Itoa(season))
	var resp omdbSeasonResponse
	if !c.cached(key, &resp) {
		if err := c.doGET(ctx, params, &resp); err != nil {
			return nil, err
		}
		if resp.failed() {
			return nil, ErrContentUnavailable
		}
		c.store(key, resp)
	}

	episodes := make([]int, 0, len(resp.Episodes))
	for _, ep := range resp.Episodes {
		if n, err := strconv.Atoi(strings.TrimSpace(ep.Episode)); err == nil && n > 0 {
			episodes = append(episodes, n)
		}
	}
	return episodes, nil
}

func (c *OMDBClient) fetchDetail(ctx context.Context, id string) (*omdbDetailResponse, error) {
	key := cacheKey("omdb", "detail", id)
	var resp omdbDetailResponse
	if c.cached(key, &resp) {
		return &resp, nil
	}
	if err := c.doGET(ctx, url.Values{"i": []string{id}, "plot": []string{"short"}}, &resp); err != nil {
		return nil, err
	}
	if resp.failed() {
		return nil, ErrContentUnavailable
	}
	c.store(key, resp)
	return &resp, nil
}

// doGET performs one OMDB call with retries on transient failures.
func (c *OMDBClient) doGET(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "?" + params.Encode()

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
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("omdb request failed: status %d", resp.StatusCode)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("omdb request failed: status %d", resp.StatusCode))
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode omdb response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[omdb] retrying request (attempt %d): %v", n+1, err)
		}),
	)
}

func (c *OMDBClient) cached(key string, v any) bool {
	if c.cache == nil {
		return false
	}
	ok, _ := c.cache.get(key, v)
	return ok
}

func (c *OMDBClient) store(key string, v any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.set(key, v); err != nil {
		log.Printf("[omdb] cache write failed: %v", err)
	}
}

func omdbType(kind models.MediaKind) string {
	if kind == models.MediaKindSeries {
		return "series"
	}
	return "movie"
}

func kindFromOMDBType(t string) models.MediaKind {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "movie":
		return models.MediaKindMovie
	case "series":
		return models.MediaKindSeries
	}
	return ""
}

// parseOMDBYear handles both plain years and series ranges like "2008–2013".
func parseOMDBYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	n, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return n
}

func notAvailableToEmpty(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "N/A") {
		return ""
	}
	return strings.TrimSpace(s)
}

func normalizePoster(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}
