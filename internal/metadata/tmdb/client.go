// Package tmdb implements the movie-metadata collaborator: search,
// discover-by-filter, trending, details, similar and credits against a
// TMDB-compatible REST API, with an optional Redis response cache.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sofilmy/internal/domain"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	posterBaseURL   = "https://image.tmdb.org/t/p/w300"
	defaultLanguage = "en-US"
	redisCacheKey   = "sofilmy:tmdb:"

	maxResponseBytes = 512 * 1024
)

type Client struct {
	apiKey   string
	baseURL  string
	language string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
}

type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Client   *http.Client
	Redis    *redis.Client
	CacheTTL time.Duration
}

// Title is the raw result shape shared by the movie and TV endpoints.
type Title struct {
	ID           int     `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	MediaType    string  `json:"media_type,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

func (t Title) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

func (t Title) Date() string {
	if t.ReleaseDate != "" {
		return t.ReleaseDate
	}
	return t.FirstAirDate
}

func (t Title) PosterURL() string {
	if t.PosterPath == "" {
		return ""
	}
	return posterBaseURL + t.PosterPath
}

// MediaItem normalizes the raw shape. The payload's media_type field wins
// over the fallback because /search/multi and /trending carry it while the
// per-type endpoints omit it.
func (t Title) MediaItem(fallback domain.MediaType) domain.MediaItem {
	mediaType := fallback
	if mt := domain.NormalizeMediaType(t.MediaType); mt != "" {
		mediaType = mt
	}
	return domain.MediaItem{
		ID:          t.ID,
		MediaType:   mediaType,
		Title:       t.DisplayTitle(),
		Overview:    t.Overview,
		PosterPath:  t.PosterPath,
		ReleaseDate: t.Date(),
		VoteAverage: t.VoteAverage,
		Popularity:  t.Popularity,
		GenreIDs:    append([]int(nil), t.GenreIDs...),
	}
}

type Person struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Popularity float64 `json:"popularity,omitempty"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
	Order       int    `json:"order"`
}

type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TitleDetails struct {
	Title
	Genres  []Genre `json:"genres,omitempty"`
	Runtime int     `json:"runtime,omitempty"`
	Status  string  `json:"status,omitempty"`
	Tagline string  `json:"tagline,omitempty"`
}

// DiscoverFilter maps an intent filter onto TMDB discover parameters.
type DiscoverFilter struct {
	MediaType domain.MediaType
	GenreIDs  []int
	PersonID  int
	YearExact int
	YearFrom  int
	YearTo    int
}

type titleListResponse struct {
	Results []Title `json:"results"`
}

type personListResponse struct {
	Results []Person `json:"results"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		http:     httpClient,
		redis:    cfg.Redis,
		cacheTTL: cacheTTL,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

func (c *Client) SearchMovies(ctx context.Context, query string) ([]Title, error) {
	var out titleListResponse
	err := c.getJSON(ctx, "/search/movie", url.Values{"query": {strings.TrimSpace(query)}},
		"search:movie:"+normalizeKey(query), &out)
	return out.Results, err
}

func (c *Client) SearchTV(ctx context.Context, query string) ([]Title, error) {
	var out titleListResponse
	err := c.getJSON(ctx, "/search/tv", url.Values{"query": {strings.TrimSpace(query)}},
		"search:tv:"+normalizeKey(query), &out)
	return out.Results, err
}

func (c *Client) SearchPerson(ctx context.Context, query string) ([]Person, error) {
	var out personListResponse
	err := c.getJSON(ctx, "/search/person", url.Values{"query": {strings.TrimSpace(query)}},
		"search:person:"+normalizeKey(query), &out)
	return out.Results, err
}

// Trending returns trending titles for window "day" or "week".
func (c *Client) Trending(ctx context.Context, window string) ([]Title, error) {
	window = strings.ToLower(strings.TrimSpace(window))
	if window != "day" {
		window = "week"
	}
	var out titleListResponse
	if err := c.getJSON(ctx, "/trending/all/"+window, nil, "trending:"+window, &out); err != nil {
		return nil, err
	}
	// Trending mixes in people; keep titles only.
	titles := make([]Title, 0, len(out.Results))
	for _, t := range out.Results {
		if domain.NormalizeMediaType(t.MediaType) != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

func (c *Client) Discover(ctx context.Context, filter DiscoverFilter) ([]Title, error) {
	mediaType := filter.MediaType
	if mediaType == "" {
		mediaType = domain.MediaTypeMovie
	}
	path := "/discover/movie"
	dateField := "primary_release_date"
	yearField := "primary_release_year"
	if mediaType == domain.MediaTypeSeries {
		path = "/discover/tv"
		dateField = "first_air_date"
		yearField = "first_air_date_year"
	}

	params := url.Values{"sort_by": {"popularity.desc"}}
	if len(filter.GenreIDs) > 0 {
		ids := make([]string, 0, len(filter.GenreIDs))
		for _, id := range filter.GenreIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	// Cast filtering only exists on the movie discover endpoint.
	if filter.PersonID > 0 && mediaType == domain.MediaTypeMovie {
		params.Set("with_cast", strconv.Itoa(filter.PersonID))
	}
	if filter.YearExact > 0 {
		params.Set(yearField, strconv.Itoa(filter.YearExact))
	} else {
		if filter.YearFrom > 0 {
			params.Set(dateField+".gte", fmt.Sprintf("%d-01-01", filter.YearFrom))
		}
		if filter.YearTo > 0 {
			params.Set(dateField+".lte", fmt.Sprintf("%d-12-31", filter.YearTo))
		}
	}

	var out titleListResponse
	err := c.getJSON(ctx, path, params, "discover:"+string(mediaType)+":"+normalizeKey(params.Encode()), &out)
	return out.Results, err
}

func (c *Client) Details(ctx context.Context, mediaType domain.MediaType, id int) (TitleDetails, error) {
	var out TitleDetails
	err := c.getJSON(ctx, titlePath(mediaType, id), nil,
		"details:"+string(mediaType)+":"+strconv.Itoa(id), &out)
	return out, err
}

func (c *Client) Similar(ctx context.Context, mediaType domain.MediaType, id int) ([]Title, error) {
	var out titleListResponse
	err := c.getJSON(ctx, titlePath(mediaType, id)+"/similar", nil,
		"similar:"+string(mediaType)+":"+strconv.Itoa(id), &out)
	return out.Results, err
}

func (c *Client) Credits(ctx context.Context, mediaType domain.MediaType, id int) (Credits, error) {
	var out Credits
	err := c.getJSON(ctx, titlePath(mediaType, id)+"/credits", nil,
		"credits:"+string(mediaType)+":"+strconv.Itoa(id), &out)
	return out, err
}

func titlePath(mediaType domain.MediaType, id int) string {
	if mediaType == domain.MediaTypeSeries {
		return "/tv/" + strconv.Itoa(id)
	}
	return "/movie/" + strconv.Itoa(id)
}

// getJSON performs a cached GET against the API. The missing-credential
// check short-circuits before any network call.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, cacheKey string, dest any) error {
	if !c.Enabled() {
		return fmt.Errorf("%w: tmdb api key", domain.ErrMissingCredential)
	}

	if c.redis != nil && cacheKey != "" {
		data, err := c.redis.Get(ctx, redisCacheKey+cacheKey).Bytes()
		if err == nil && json.Unmarshal(data, dest) == nil {
			return nil
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tmdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return err
	}

	if c.redis != nil && cacheKey != "" {
		_ = c.redis.Set(ctx, redisCacheKey+cacheKey, body, c.cacheTTL).Err()
	}
	return nil
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
