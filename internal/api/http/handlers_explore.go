package apihttp

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query parameter 'q' is required")
		return
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}

	result, err := s.explore.Search(r.Context(), query)
	if err != nil {
		s.logger.Warn("search failed",
			slog.String("query", truncate(query, 120)),
			slog.String("error", err.Error()),
		)
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	result, err := s.explore.Trending(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		s.logger.Warn("trending failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	freeText := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(freeText) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}

	// The session is optional here. Anonymous callers still get mood and
	// genre based picks, just without the watchlist taste signal.
	userID := ""
	if s.verifier != nil {
		if session, err := s.verifier.Authenticate(r); err == nil {
			userID = session.UserID
		}
	}

	result, err := s.explore.Recommend(r.Context(), freeText, userID)
	if err != nil {
		s.logger.Warn("recommend failed",
			slog.String("query", truncate(freeText, 120)),
			slog.String("error", err.Error()),
		)
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTitleDetails(w http.ResponseWriter, r *http.Request) {
	if s.meta == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "metadata source is not configured")
		return
	}
	mediaType, id, err := titleRef(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	details, err := s.meta.Details(r.Context(), mediaType, id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleTitleSimilar(w http.ResponseWriter, r *http.Request) {
	if s.meta == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "metadata source is not configured")
		return
	}
	mediaType, id, err := titleRef(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	titles, err := s.meta.Similar(r.Context(), mediaType, id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": titles})
}

func (s *Server) handleTitleCredits(w http.ResponseWriter, r *http.Request) {
	if s.meta == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "metadata source is not configured")
		return
	}
	mediaType, id, err := titleRef(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	credits, err := s.meta.Credits(r.Context(), mediaType, id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

// ---------------------------------------------------------------------------
// Poster proxy
// ---------------------------------------------------------------------------

const (
	posterBaseURL     = "https://image.tmdb.org/t/p"
	posterMaxBytes    = 8 << 20
	posterFetchWindow = 20 * time.Second
)

var posterSizes = map[string]bool{
	"w92":      true,
	"w154":     true,
	"w185":     true,
	"w342":     true,
	"w500":     true,
	"w780":     true,
	"original": true,
}

var posterClient = &http.Client{Timeout: posterFetchWindow}

// handlePosterProxy relays poster images from the TMDB image CDN so the
// client never needs the image host whitelisted. Only known size buckets
// and plain file names are accepted.
func (s *Server) handlePosterProxy(w http.ResponseWriter, r *http.Request) {
	size := r.PathValue("size")
	if !posterSizes[size] {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown poster size")
		return
	}
	name := r.PathValue("path")
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid poster path")
		return
	}

	target := posterBaseURL + "/" + size + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	resp, err := posterClient.Do(req)
	if err != nil {
		s.logger.Warn("poster fetch failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "upstream_error", "poster fetch failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		writeError(w, http.StatusNotFound, "not_found", "poster not found")
		return
	}
	if resp.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, "upstream_error", "poster fetch failed")
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadGateway, "upstream_error", "unexpected poster content")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, io.LimitReader(resp.Body, posterMaxBytes)); err != nil {
		s.logger.Debug("poster stream interrupted", slog.String("error", err.Error()))
	}
}
