package explore

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"sofilmy/internal/cache"
	"sofilmy/internal/domain"
	"sofilmy/internal/metadata/tmdb"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeSource struct {
	name  string
	items []domain.MediaItem
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, query string) ([]domain.MediaItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeMeta struct {
	trending       []tmdb.Title
	trendingErr    error
	trendingWindow string
	people         map[string][]tmdb.Person
	discovered     []tmdb.Title
	discoverCalls  []tmdb.DiscoverFilter
	details        map[string]tmdb.TitleDetails
}

func (f *fakeMeta) SearchMovies(ctx context.Context, query string) ([]tmdb.Title, error) {
	return nil, nil
}

func (f *fakeMeta) SearchTV(ctx context.Context, query string) ([]tmdb.Title, error) {
	return nil, nil
}

func (f *fakeMeta) SearchPerson(ctx context.Context, query string) ([]tmdb.Person, error) {
	return f.people[query], nil
}

func (f *fakeMeta) Trending(ctx context.Context, window string) ([]tmdb.Title, error) {
	f.trendingWindow = window
	return f.trending, f.trendingErr
}

func (f *fakeMeta) Discover(ctx context.Context, filter tmdb.DiscoverFilter) ([]tmdb.Title, error) {
	f.discoverCalls = append(f.discoverCalls, filter)
	return f.discovered, nil
}

func (f *fakeMeta) Details(ctx context.Context, mediaType domain.MediaType, id int) (tmdb.TitleDetails, error) {
	key := string(mediaType) + ":" + strconv.Itoa(id)
	details, ok := f.details[key]
	if !ok {
		return tmdb.TitleDetails{}, errors.New("not found")
	}
	return details, nil
}

type fixedParser struct {
	filter domain.IntentFilter
}

func (p fixedParser) Parse(ctx context.Context, freeText string) domain.IntentFilter {
	return p.filter
}

func movie(id int, popularity float64) domain.MediaItem {
	return domain.MediaItem{ID: id, MediaType: domain.MediaTypeMovie, Title: "m", Popularity: popularity}
}

// ---------------------------------------------------------------------------
// aggregation
// ---------------------------------------------------------------------------

func TestAggregateToleratesSingleSourceFailure(t *testing.T) {
	good := &fakeSource{name: "movies", items: []domain.MediaItem{movie(1, 10)}}
	bad := &fakeSource{name: "series", err: errors.New("upstream down")}
	svc := NewService([]Source{good, bad}, &fakeMeta{})

	list, err := svc.Aggregate(context.Background(), "dune", []Source{good, bad})
	if err != nil {
		t.Fatalf("one healthy source must not produce an error: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != 1 {
		t.Fatalf("items: %+v", list.Items)
	}
	if len(list.Sources) != 2 {
		t.Fatalf("statuses: %+v", list.Sources)
	}
	if !list.Sources[0].OK || list.Sources[0].Count != 1 {
		t.Errorf("movies status: %+v", list.Sources[0])
	}
	if list.Sources[1].OK || list.Sources[1].Error == "" {
		t.Errorf("series status must carry the failure: %+v", list.Sources[1])
	}
}

func TestAggregateDeduplicatesKeepingFirstSourceOrder(t *testing.T) {
	first := &fakeSource{name: "movies", items: []domain.MediaItem{
		{ID: 7, MediaType: domain.MediaTypeMovie, Title: "from movies", Popularity: 1},
	}}
	second := &fakeSource{name: "discover", items: []domain.MediaItem{
		{ID: 7, MediaType: domain.MediaTypeMovie, Title: "from discover", Popularity: 99},
		{ID: 8, MediaType: domain.MediaTypeSeries, Title: "unique", Popularity: 2},
	}}
	svc := NewService(nil, &fakeMeta{})

	list, err := svc.Aggregate(context.Background(), "q", []Source{first, second})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items after dedupe, got %+v", list.Items)
	}
	for _, item := range list.Items {
		if item.ID == 7 && item.Title != "from movies" {
			t.Fatalf("duplicate must keep the first-seen entry, got %q", item.Title)
		}
	}
}

func TestAggregateSortsByPopularityDescending(t *testing.T) {
	src := &fakeSource{name: "movies", items: []domain.MediaItem{
		movie(1, 5), movie(2, 50), movie(3, 20),
	}}
	svc := NewService(nil, &fakeMeta{})

	list, err := svc.Aggregate(context.Background(), "q", []Source{src})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := []int{2, 3, 1}
	for i, id := range want {
		if list.Items[i].ID != id {
			t.Fatalf("order: got %+v", list.Items)
		}
	}
}

func TestAggregateStableForEqualPopularity(t *testing.T) {
	first := &fakeSource{name: "a", items: []domain.MediaItem{movie(1, 10), movie(2, 10)}}
	second := &fakeSource{name: "b", items: []domain.MediaItem{
		{ID: 3, MediaType: domain.MediaTypeSeries, Popularity: 10},
	}}
	svc := NewService(nil, &fakeMeta{})

	list, err := svc.Aggregate(context.Background(), "q", []Source{first, second})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := []int{1, 2, 3}
	for i, id := range want {
		if list.Items[i].ID != id {
			t.Fatalf("equal popularity must keep merge order, got %+v", list.Items)
		}
	}
}

func TestAggregateAllSourcesFailed(t *testing.T) {
	bad := &fakeSource{name: "movies", err: domain.ErrMissingCredential}
	svc := NewService(nil, &fakeMeta{})

	_, err := svc.Aggregate(context.Background(), "q", []Source{bad})
	if err == nil {
		t.Fatal("expected an error when every source fails")
	}
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("joined error must preserve the cause, got %v", err)
	}
}

func TestAggregateNoSources(t *testing.T) {
	svc := NewService(nil, &fakeMeta{})
	_, err := svc.Aggregate(context.Background(), "q", nil)
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// search
// ---------------------------------------------------------------------------

func TestSearchEmptyQuerySkipsSources(t *testing.T) {
	src := &fakeSource{name: "movies", items: []domain.MediaItem{movie(1, 1)}}
	svc := NewService([]Source{src}, &fakeMeta{})

	list, err := svc.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", list.Items)
	}
	if src.calls.Load() != 0 {
		t.Fatal("blank query must not reach any source")
	}
}

func TestSearchReadsThroughCache(t *testing.T) {
	src := &fakeSource{name: "movies", items: []domain.MediaItem{movie(1, 1)}}
	store := cache.New(cache.NewMemoryStore())
	svc := NewService([]Source{src}, &fakeMeta{}, WithCache(store))

	ctx := context.Background()
	if _, err := svc.Search(ctx, "Dune  Part Two"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	// Different spacing and case must hit the same cache entry.
	if _, err := svc.Search(ctx, "dune part two"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source calls: got %d, want 1", got)
	}
}

func TestSearchDoesNotCacheFailures(t *testing.T) {
	src := &fakeSource{name: "movies", err: errors.New("boom")}
	store := cache.New(cache.NewMemoryStore())
	svc := NewService([]Source{src}, &fakeMeta{}, WithCache(store))

	ctx := context.Background()
	if _, err := svc.Search(ctx, "dune"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := svc.Search(ctx, "dune"); err == nil {
		t.Fatal("expected error on retry as well")
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("failed responses must not be served from cache, calls=%d", got)
	}
}

// ---------------------------------------------------------------------------
// trending
// ---------------------------------------------------------------------------

func TestTrendingNormalizesWindow(t *testing.T) {
	meta := &fakeMeta{trending: []tmdb.Title{{ID: 1, Title: "A", MediaType: "movie"}}}
	svc := NewService(nil, meta)

	if _, err := svc.Trending(context.Background(), "fortnight"); err != nil {
		t.Fatalf("trending: %v", err)
	}
	if meta.trendingWindow != "week" {
		t.Fatalf("window: got %q", meta.trendingWindow)
	}

	if _, err := svc.Trending(context.Background(), " DAY "); err != nil {
		t.Fatalf("trending: %v", err)
	}
	if meta.trendingWindow != "day" {
		t.Fatalf("window: got %q", meta.trendingWindow)
	}
}

func TestTrendingSortsAndCaches(t *testing.T) {
	meta := &fakeMeta{trending: []tmdb.Title{
		{ID: 1, Title: "low", MediaType: "movie", Popularity: 1},
		{ID: 2, Title: "high", MediaType: "movie", Popularity: 100},
	}}
	store := cache.New(cache.NewMemoryStore())
	svc := NewService(nil, meta, WithCache(store))

	ctx := context.Background()
	list, err := svc.Trending(ctx, "week")
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if list.Items[0].ID != 2 {
		t.Fatalf("order: %+v", list.Items)
	}

	meta.trendingErr = errors.New("upstream down")
	if _, err := svc.Trending(ctx, "week"); err != nil {
		t.Fatalf("cached window must not reach the upstream: %v", err)
	}
}

// ---------------------------------------------------------------------------
// recommend
// ---------------------------------------------------------------------------

func TestRecommendResolvesPersonAndUsesExplicitGenres(t *testing.T) {
	meta := &fakeMeta{
		people:     map[string][]tmdb.Person{"Tom Cruise": {{ID: 500, Name: "Tom Cruise"}}},
		discovered: []tmdb.Title{{ID: 1, Title: "A", Popularity: 3}},
	}
	parser := fixedParser{filter: domain.IntentFilter{
		GenreIDs:         []int{878},
		PersonCandidates: []string{"Tom Cruise"},
		YearTo:           2010,
	}}
	svc := NewService(nil, meta, WithIntentParser(parser))

	list, err := svc.Recommend(context.Background(), "sci-fi with Tom Cruise before 2010", "")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(list.Items) == 0 {
		t.Fatal("expected recommendations")
	}
	if len(meta.discoverCalls) != 2 {
		t.Fatalf("expected movie and series discover calls, got %d", len(meta.discoverCalls))
	}
	for _, call := range meta.discoverCalls {
		if call.PersonID != 500 {
			t.Errorf("person id not propagated: %+v", call)
		}
		if len(call.GenreIDs) != 1 || call.GenreIDs[0] != 878 {
			t.Errorf("explicit genres must win: %+v", call)
		}
		if call.YearTo != 2010 || call.YearFrom != 0 {
			t.Errorf("year bound lost: %+v", call)
		}
	}
}

func TestRecommendFallsBackToMoodGenres(t *testing.T) {
	meta := &fakeMeta{discovered: []tmdb.Title{{ID: 1, Popularity: 1, Title: "A"}}}
	parser := fixedParser{filter: domain.IntentFilter{Mood: "fear"}}
	svc := NewService(nil, meta, WithIntentParser(parser))

	if _, err := svc.Recommend(context.Background(), "something creepy", ""); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(meta.discoverCalls) == 0 {
		t.Fatal("expected discover calls")
	}
	got := meta.discoverCalls[0].GenreIDs
	if len(got) == 0 {
		t.Fatalf("mood genres must feed discover: %+v", meta.discoverCalls[0])
	}
}

type fixedWatchlist struct {
	entries []domain.WatchlistEntry
}

func (f fixedWatchlist) List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	return f.entries, nil
}

func TestRecommendUsesWatchlistGenresForNeutralMood(t *testing.T) {
	meta := &fakeMeta{
		discovered: []tmdb.Title{{ID: 9, Popularity: 1, Title: "A"}},
		details: map[string]tmdb.TitleDetails{
			"movie:42": {Genres: []tmdb.Genre{{ID: 27, Name: "Horror"}, {ID: 53, Name: "Thriller"}}},
		},
	}
	parser := fixedParser{filter: domain.IntentFilter{Mood: "neutral"}}
	watchlist := fixedWatchlist{entries: []domain.WatchlistEntry{{MediaType: domain.MediaTypeMovie, ID: 42}}}
	svc := NewService(nil, meta, WithIntentParser(parser), WithWatchlists(watchlist))

	if _, err := svc.Recommend(context.Background(), "", "user-1"); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	got := meta.discoverCalls[0].GenreIDs
	if len(got) != 2 || got[0] != 27 || got[1] != 53 {
		t.Fatalf("watchlist genres must feed discover: %+v", got)
	}
}
