package explore

import (
	"context"
	"sort"
	"strings"
	"time"

	"log/slog"

	"sofilmy/internal/cache"
	"sofilmy/internal/domain"
	"sofilmy/internal/intent"
	"sofilmy/internal/metadata/tmdb"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultMaxConcurrent = 8

	defaultSearchTTL    = 5 * time.Minute
	defaultTrendingTTL  = 30 * time.Minute
	defaultRecommendTTL = 10 * time.Minute

	// watchlistTasteLimit caps how many watchlist titles feed genre hints.
	watchlistTasteLimit = 5
)

// IntentParser turns free text into a structured filter.
type IntentParser interface {
	Parse(ctx context.Context, freeText string) domain.IntentFilter
}

// WatchlistLister supplies a user's saved titles for taste-based hints.
type WatchlistLister interface {
	List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error)
}

type Service struct {
	sources       []Source
	meta          Metadata
	intents       IntentParser
	watchlists    WatchlistLister
	store         *cache.Cache
	logger        *slog.Logger
	timeout       time.Duration
	maxConcurrent int64
	searchTTL     time.Duration
	trendingTTL   time.Duration
	recommendTTL  time.Duration
}

type ServiceOption func(*Service)

func WithCache(store *cache.Cache) ServiceOption {
	return func(s *Service) { s.store = store }
}

func WithIntentParser(parser IntentParser) ServiceOption {
	return func(s *Service) { s.intents = parser }
}

func WithWatchlists(lister WatchlistLister) ServiceOption {
	return func(s *Service) { s.watchlists = lister }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func WithMaxConcurrent(limit int64) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.maxConcurrent = limit
		}
	}
}

func WithSearchTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.searchTTL = ttl
		}
	}
}

func WithTrendingTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.trendingTTL = ttl
		}
	}
}

func WithRecommendTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.recommendTTL = ttl
		}
	}
}

func NewService(sources []Source, meta Metadata, opts ...ServiceOption) *Service {
	svc := &Service{
		sources:       sources,
		meta:          meta,
		logger:        slog.Default(),
		timeout:       defaultTimeout,
		maxConcurrent: defaultMaxConcurrent,
		searchTTL:     defaultSearchTTL,
		trendingTTL:   defaultTrendingTTL,
		recommendTTL:  defaultRecommendTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Search runs the configured sources against the query. A blank query
// returns an empty snapshot without touching any source or the cache.
func (s *Service) Search(ctx context.Context, query string) (domain.MediaList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.MediaList{Items: []domain.MediaItem{}}, nil
	}

	cacheKey := "search-" + normalizeCacheKey(query)
	var cached domain.MediaList
	if s.store != nil && s.store.Get(ctx, cacheKey, s.searchTTL, &cached) {
		return cached, nil
	}

	list, err := s.Aggregate(ctx, query, s.sources)
	if err != nil {
		return list, err
	}
	if s.store != nil {
		if err := s.store.Set(ctx, cacheKey, list); err != nil {
			s.logger.Warn("search cache write failed", slog.String("error", err.Error()))
		}
	}
	return list, nil
}

// Trending returns the trending snapshot for a window of "day" or "week";
// anything else falls back to "week".
func (s *Service) Trending(ctx context.Context, window string) (domain.MediaList, error) {
	switch strings.ToLower(strings.TrimSpace(window)) {
	case "day":
		window = "day"
	default:
		window = "week"
	}

	cacheKey := "trending-" + window
	var cached domain.MediaList
	if s.store != nil && s.store.Get(ctx, cacheKey, s.trendingTTL, &cached) {
		return cached, nil
	}

	startedAt := time.Now()
	titles, err := s.meta.Trending(ctx, window)
	if err != nil {
		return domain.MediaList{}, err
	}

	items := titlesToItems(titles, domain.MediaTypeMovie)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})

	list := domain.MediaList{
		Items:     items,
		Sources:   []domain.SourceStatus{{Name: "trending", OK: true, Count: len(items)}},
		ElapsedMS: time.Since(startedAt).Milliseconds(),
	}
	if s.store != nil {
		if err := s.store.Set(ctx, cacheKey, list); err != nil {
			s.logger.Warn("trending cache write failed", slog.String("error", err.Error()))
		}
	}
	return list, nil
}

// Recommend builds a title list from a free-text wish. The text is parsed
// into a filter, person candidates are resolved against metadata person
// search, and the filter drives discover sources alongside the plain search
// sources. Genre precedence: explicit keywords, then a non-neutral mood,
// then the user's watchlist, then the neutral default set.
func (s *Service) Recommend(ctx context.Context, freeText, userID string) (domain.MediaList, error) {
	text := strings.TrimSpace(freeText)

	cacheKey := "recommend-" + normalizeCacheKey(text)
	if userID != "" {
		cacheKey += "-u-" + userID
	}
	var cached domain.MediaList
	if s.store != nil && s.store.Get(ctx, cacheKey, s.recommendTTL, &cached) {
		return cached, nil
	}

	filter := domain.IntentFilter{Mood: "neutral"}
	if s.intents != nil {
		filter = s.intents.Parse(ctx, text)
	}
	s.resolvePerson(ctx, &filter)

	genres := s.resolveGenres(ctx, filter, userID)
	discover := tmdb.DiscoverFilter{
		GenreIDs:  genres,
		PersonID:  filter.PersonID,
		YearExact: filter.YearExact,
		YearFrom:  filter.YearFrom,
		YearTo:    filter.YearTo,
	}

	movieFilter := discover
	movieFilter.MediaType = domain.MediaTypeMovie
	seriesFilter := discover
	seriesFilter.MediaType = domain.MediaTypeSeries

	sources := []Source{
		newDiscoverSource("discover-movies", s.meta, movieFilter),
		newDiscoverSource("discover-series", s.meta, seriesFilter),
	}
	if text != "" {
		sources = append(sources, s.sources...)
	}

	list, err := s.Aggregate(ctx, text, sources)
	if err != nil {
		return list, err
	}
	if s.store != nil {
		if err := s.store.Set(ctx, cacheKey, list); err != nil {
			s.logger.Warn("recommend cache write failed", slog.String("error", err.Error()))
		}
	}
	return list, nil
}

// resolvePerson fills filter.PersonID from the first candidate that person
// search can resolve. Failures are logged and skipped; an unresolved person
// just widens the recommendation.
func (s *Service) resolvePerson(ctx context.Context, filter *domain.IntentFilter) {
	if filter.PersonID != 0 || len(filter.PersonCandidates) == 0 {
		return
	}
	for _, candidate := range filter.PersonCandidates {
		people, err := s.meta.SearchPerson(ctx, candidate)
		if err != nil {
			s.logger.Debug("person lookup failed",
				slog.String("candidate", candidate),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(people) > 0 {
			filter.PersonID = people[0].ID
			return
		}
	}
}

func (s *Service) resolveGenres(ctx context.Context, filter domain.IntentFilter, userID string) []int {
	if len(filter.GenreIDs) > 0 {
		return filter.GenreIDs
	}
	if filter.Mood != "" && filter.Mood != "neutral" {
		return intent.MoodGenres(filter.Mood)
	}
	if hinted := s.watchlistGenres(ctx, userID); len(hinted) > 0 {
		return hinted
	}
	return intent.MoodGenres("neutral")
}

// watchlistGenres unions the genres of the user's most recent watchlist
// titles. Best-effort: any failure yields no hint.
func (s *Service) watchlistGenres(ctx context.Context, userID string) []int {
	if s.watchlists == nil || userID == "" {
		return nil
	}
	entries, err := s.watchlists.List(ctx, userID)
	if err != nil {
		s.logger.Debug("watchlist hint lookup failed",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if len(entries) > watchlistTasteLimit {
		entries = entries[len(entries)-watchlistTasteLimit:]
	}

	seen := make(map[int]struct{})
	var genres []int
	for _, entry := range entries {
		details, err := s.meta.Details(ctx, entry.MediaType, entry.ID)
		if err != nil {
			continue
		}
		for _, genre := range details.Genres {
			if _, dup := seen[genre.ID]; dup {
				continue
			}
			seen[genre.ID] = struct{}{}
			genres = append(genres, genre.ID)
		}
	}
	return genres
}

// normalizeCacheKey lowercases and collapses whitespace so equivalent
// queries share one cache entry.
func normalizeCacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
