package apihttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sofilmy/internal/domain"
)

// watchlistEntryFromRequest accepts either a body {"mediaType","id"} or the
// same pair as query parameters, so DELETE callers do not need a body.
func watchlistEntryFromRequest(r *http.Request) (domain.WatchlistEntry, error) {
	var payload struct {
		MediaType string `json:"mediaType"`
		ID        int    `json:"id"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		return domain.WatchlistEntry{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if payload.MediaType == "" {
		payload.MediaType = strings.TrimSpace(r.URL.Query().Get("mediaType"))
	}
	if payload.ID == 0 {
		if raw := strings.TrimSpace(r.URL.Query().Get("id")); raw != "" {
			payload.ID, _ = strconv.Atoi(raw)
		}
	}

	mediaType := domain.NormalizeMediaType(payload.MediaType)
	if mediaType == "" {
		return domain.WatchlistEntry{}, fmt.Errorf("%w: unknown media type %q", domain.ErrInvalidInput, payload.MediaType)
	}
	if payload.ID <= 0 {
		return domain.WatchlistEntry{}, fmt.Errorf("%w: invalid media id", domain.ErrInvalidInput)
	}
	return domain.WatchlistEntry{MediaType: mediaType, ID: payload.ID}, nil
}

func (s *Server) handleWatchlistList(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.watchlist == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "watchlist storage is not configured")
		return
	}
	entries, err := s.watchlist.List(r.Context(), session.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, map[string]any{
			"mediaType": entry.MediaType,
			"id":        entry.ID,
			"key":       entry.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.watchlist == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "watchlist storage is not configured")
		return
	}
	entry, err := watchlistEntryFromRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.watchlist.Add(r.Context(), session.UserID, entry); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": entry.String()})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.watchlist == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "watchlist storage is not configured")
		return
	}
	entry, err := watchlistEntryFromRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.watchlist.Remove(r.Context(), session.UserID, entry); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	if s.reviews == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "review storage is not configured")
		return
	}

	if userID := strings.TrimSpace(r.URL.Query().Get("userId")); userID != "" {
		reviews, err := s.reviews.ListByUser(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": reviews})
		return
	}

	mediaType := domain.NormalizeMediaType(strings.TrimSpace(r.URL.Query().Get("mediaType")))
	id, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("id")))
	if mediaType == "" || err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "provide userId or a mediaType and id pair")
		return
	}
	reviews, listErr := s.reviews.ListByTitle(r.Context(), mediaType, id)
	if listErr != nil {
		writeDomainError(w, listErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": reviews})
}

func (s *Server) handleReviewCreate(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.reviews == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "review storage is not configured")
		return
	}
	var payload struct {
		MediaType string `json:"mediaType"`
		MediaID   int    `json:"mediaId"`
		Title     string `json:"title"`
		Body      string `json:"body"`
		Rating    int    `json:"rating"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	review, err := s.reviews.Create(r.Context(), domain.Review{
		UserID:    session.UserID,
		UserName:  session.DisplayName,
		MediaType: domain.NormalizeMediaType(payload.MediaType),
		MediaID:   payload.MediaID,
		Title:     strings.TrimSpace(payload.Title),
		Body:      strings.TrimSpace(payload.Body),
		Rating:    payload.Rating,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleReviewDelete(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.reviews == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "review storage is not configured")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "review id is required")
		return
	}
	if err := s.reviews.Delete(r.Context(), id, session.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Profiles and follows
// ---------------------------------------------------------------------------

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "user storage is not configured")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user id is required")
		return
	}
	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "user storage is not configured")
		return
	}
	targetID := strings.TrimSpace(r.PathValue("userId"))
	if targetID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "target user id is required")
		return
	}
	if err := s.users.Follow(r.Context(), session.UserID, targetID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "user storage is not configured")
		return
	}
	targetID := strings.TrimSpace(r.PathValue("userId"))
	if targetID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "target user id is required")
		return
	}
	if err := s.users.Unfollow(r.Context(), session.UserID, targetID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
