package apihttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"sofilmy/internal/auth"
	"sofilmy/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeDomainError maps sentinel error kinds onto HTTP statuses. Unmatched
// errors default to 500; handlers talking to upstream sources should use
// writeUpstreamError instead so their failures surface as 502.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrMissingCredential):
		writeError(w, http.StatusServiceUnavailable, "not_configured", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// writeUpstreamError is writeDomainError with a 502 default for handlers
// whose failures are almost always a misbehaving upstream.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrMissingCredential):
		writeDomainError(w, err)
	default:
		writeError(w, http.StatusBadGateway, "upstream_error", "upstream request failed")
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session domain.Session)

// withSession authenticates the request and lazily refreshes the profile
// shadowing the external identity.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			writeError(w, http.StatusServiceUnavailable, "not_configured", "authentication is not configured")
			return
		}
		session, err := s.verifier.Authenticate(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if s.users != nil {
			if err := s.users.Upsert(r.Context(), domain.User{ID: session.UserID, DisplayName: session.DisplayName}); err != nil {
				s.logger.Warn("profile refresh failed",
					slog.String("userId", session.UserID),
					slog.String("error", err.Error()),
				)
			}
		}
		next(w, r.WithContext(auth.WithSession(r.Context(), session)), session)
	}
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

// titleRef pulls the {id} path value and the optional ?type= media type
// (default movie) shared by the title endpoints.
func titleRef(r *http.Request) (domain.MediaType, int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: invalid title id", domain.ErrInvalidInput)
	}
	mediaType := domain.MediaTypeMovie
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		mediaType = domain.NormalizeMediaType(raw)
		if mediaType == "" {
			return "", 0, fmt.Errorf("%w: unknown media type %q", domain.ErrInvalidInput, raw)
		}
	}
	return mediaType, id, nil
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrInvalidInput, key)
	}
	return parsed, nil
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
