package domain

import "strconv"

// MediaType discriminates the two result shapes TMDB returns for titles.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// NormalizeMediaType maps raw TMDB media_type values onto our two shapes.
// Anything that is not a title (person, collection) maps to "".
func NormalizeMediaType(raw string) MediaType {
	switch raw {
	case "movie":
		return MediaTypeMovie
	case "tv", "series":
		return MediaTypeSeries
	default:
		return ""
	}
}

// MediaItem is the normalized union of movie and series result shapes.
// (MediaType, ID) is the dedupe key within one aggregated result list.
type MediaItem struct {
	ID          int       `json:"id"`
	MediaType   MediaType `json:"mediaType"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	PosterPath  string    `json:"posterPath,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	VoteAverage float64   `json:"voteAverage,omitempty"`
	Popularity  float64   `json:"popularity,omitempty"`
	GenreIDs    []int     `json:"genreIds,omitempty"`
}

// Key returns the composite dedupe key for an aggregated list.
func (m MediaItem) Key() string {
	return string(m.MediaType) + ":" + strconv.Itoa(m.ID)
}

// Year extracts the release year, or 0 when the date is absent or malformed.
func (m MediaItem) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, c := range m.ReleaseDate[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

// SourceStatus reports the outcome of one source inside an aggregated fetch.
type SourceStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// MediaList is a single aggregated snapshot: ordered, finite, non-restartable.
type MediaList struct {
	Query     string         `json:"query,omitempty"`
	Items     []MediaItem    `json:"items"`
	Sources   []SourceStatus `json:"sources,omitempty"`
	ElapsedMS int64          `json:"elapsedMs"`
}

// IntentFilter is the ephemeral filter derived from one free-text query.
// It is rebuilt on every parse and never persisted.
type IntentFilter struct {
	GenreIDs         []int    `json:"genreIds,omitempty"`
	PersonCandidates []string `json:"personCandidates,omitempty"`
	PersonID         int      `json:"personId,omitempty"`
	YearExact        int      `json:"yearExact,omitempty"`
	YearFrom         int      `json:"yearFrom,omitempty"`
	YearTo           int      `json:"yearTo,omitempty"`
	Mood             string   `json:"mood,omitempty"`
}

// HasYearRange reports whether the filter carries any year constraint.
func (f IntentFilter) HasYearRange() bool {
	return f.YearExact > 0 || f.YearFrom > 0 || f.YearTo > 0
}
