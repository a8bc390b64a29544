package apihttp

import (
	"net/http"
	"strings"

	"sofilmy/internal/domain"
)

func (s *Server) handleChatList(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat storage is not configured")
		return
	}
	chats, err := s.chats.ListForUser(r.Context(), session.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": chats})
}

func (s *Server) handleChatCreate(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat storage is not configured")
		return
	}
	var payload struct {
		Kind     string `json:"kind"`
		Name     string `json:"name"`
		MemberID string `json:"memberId"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var (
		created domain.Chat
		err     error
	)
	switch domain.ChatKind(strings.TrimSpace(payload.Kind)) {
	case domain.ChatKindDirect:
		created, err = s.chats.CreateDirect(r.Context(), session.UserID, strings.TrimSpace(payload.MemberID))
	case domain.ChatKindGroup:
		created, err = s.chats.CreateGroup(r.Context(), strings.TrimSpace(payload.Name), session.UserID)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "kind must be direct or group")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// memberChat loads the chat and checks the caller belongs to it. The
// not-a-member case reads as forbidden, not as a hidden chat.
func (s *Server) memberChat(r *http.Request, session domain.Session) (domain.Chat, error) {
	chatID := strings.TrimSpace(r.PathValue("id"))
	if chatID == "" {
		return domain.Chat{}, domain.ErrInvalidInput
	}
	conversation, err := s.chats.Get(r.Context(), chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !conversation.HasMember(session.UserID) {
		return domain.Chat{}, domain.ErrForbidden
	}
	return conversation, nil
}

func (s *Server) handleMessageList(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat storage is not configured")
		return
	}
	conversation, err := s.memberChat(r, session)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	limit, err := parsePositiveInt(r, "limit", 100)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	messages, err := s.chats.ListMessages(r.Context(), conversation.ID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": messages})
}

func (s *Server) handleMessagePost(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat storage is not configured")
		return
	}
	chatID := strings.TrimSpace(r.PathValue("id"))
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "chat id is required")
		return
	}
	var payload struct {
		Body string `json:"body"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	message, err := s.chats.AppendMessage(r.Context(), chatID, session, payload.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleChatJoin(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat storage is not configured")
		return
	}
	chatID := strings.TrimSpace(r.PathValue("id"))
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "chat id is required")
		return
	}
	if err := s.chats.JoinGroup(r.Context(), chatID, session.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatLeave(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat storage is not configured")
		return
	}
	chatID := strings.TrimSpace(r.PathValue("id"))
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "chat id is required")
		return
	}
	if err := s.chats.LeaveGroup(r.Context(), chatID, session.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
