package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Session is the identity the external auth provider vouches for.
// It replaces the flat login/username/userId triple the old client kept.
type Session struct {
	UserID      string
	DisplayName string
}

// User is the profile record shadowing the external auth identity.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Following   []string  `json:"following,omitempty"`
	Followers   []string  `json:"followers,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WatchlistEntry is the "<mediaType>:<id>" key stored in the user's
// watchlist array. Add/remove use set semantics, so duplicates never occur.
type WatchlistEntry struct {
	MediaType MediaType
	ID        int
}

func (e WatchlistEntry) String() string {
	return string(e.MediaType) + ":" + strconv.Itoa(e.ID)
}

// ParseWatchlistEntry parses a stored key. Unknown media types and
// non-numeric ids are rejected so corrupt array members surface as errors
// at the boundary instead of propagating.
func ParseWatchlistEntry(raw string) (WatchlistEntry, error) {
	mediaRaw, idRaw, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return WatchlistEntry{}, fmt.Errorf("%w: watchlist entry %q", ErrInvalidInput, raw)
	}
	mediaType := NormalizeMediaType(mediaRaw)
	if mediaType == "" {
		return WatchlistEntry{}, fmt.Errorf("%w: media type %q", ErrInvalidInput, mediaRaw)
	}
	id, err := strconv.Atoi(idRaw)
	if err != nil || id <= 0 {
		return WatchlistEntry{}, fmt.Errorf("%w: media id %q", ErrInvalidInput, idRaw)
	}
	return WatchlistEntry{MediaType: mediaType, ID: id}, nil
}
