// Package explore aggregates media titles from several upstream sources
// into one deduplicated, popularity-ordered snapshot, and builds
// recommendation queries out of parsed intent filters.
package explore

import (
	"context"
	"errors"

	"sofilmy/internal/domain"
	"sofilmy/internal/metadata/tmdb"
)

var (
	// ErrNoSources is returned when a fetch is attempted with nothing configured.
	ErrNoSources = errors.New("no media sources configured")
)

// Source is one upstream contributor to an aggregated snapshot.
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]domain.MediaItem, error)
}

type sourceFunc struct {
	name  string
	fetch func(ctx context.Context, query string) ([]domain.MediaItem, error)
}

func (s sourceFunc) Name() string { return s.name }

func (s sourceFunc) Fetch(ctx context.Context, query string) ([]domain.MediaItem, error) {
	return s.fetch(ctx, query)
}

// SourceFunc adapts a plain function into a Source.
func SourceFunc(name string, fetch func(ctx context.Context, query string) ([]domain.MediaItem, error)) Source {
	return sourceFunc{name: name, fetch: fetch}
}

// Metadata is the slice of the TMDB client the service depends on. Narrowed
// to an interface so tests can substitute a fake.
type Metadata interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Title, error)
	SearchTV(ctx context.Context, query string) ([]tmdb.Title, error)
	SearchPerson(ctx context.Context, query string) ([]tmdb.Person, error)
	Trending(ctx context.Context, window string) ([]tmdb.Title, error)
	Discover(ctx context.Context, filter tmdb.DiscoverFilter) ([]tmdb.Title, error)
	Details(ctx context.Context, mediaType domain.MediaType, id int) (tmdb.TitleDetails, error)
}

// NewMovieSource wraps metadata movie search as an aggregation source.
func NewMovieSource(meta Metadata) Source {
	return SourceFunc("movies", func(ctx context.Context, query string) ([]domain.MediaItem, error) {
		titles, err := meta.SearchMovies(ctx, query)
		if err != nil {
			return nil, err
		}
		return titlesToItems(titles, domain.MediaTypeMovie), nil
	})
}

// NewSeriesSource wraps metadata TV search as an aggregation source.
func NewSeriesSource(meta Metadata) Source {
	return SourceFunc("series", func(ctx context.Context, query string) ([]domain.MediaItem, error) {
		titles, err := meta.SearchTV(ctx, query)
		if err != nil {
			return nil, err
		}
		return titlesToItems(titles, domain.MediaTypeSeries), nil
	})
}

func newDiscoverSource(name string, meta Metadata, filter tmdb.DiscoverFilter) Source {
	return SourceFunc(name, func(ctx context.Context, _ string) ([]domain.MediaItem, error) {
		titles, err := meta.Discover(ctx, filter)
		if err != nil {
			return nil, err
		}
		return titlesToItems(titles, filter.MediaType), nil
	})
}

func titlesToItems(titles []tmdb.Title, fallback domain.MediaType) []domain.MediaItem {
	items := make([]domain.MediaItem, 0, len(titles))
	for _, title := range titles {
		item := title.MediaItem(fallback)
		if item.ID == 0 || item.MediaType == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}
