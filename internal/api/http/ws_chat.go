package apihttp

import (
	"net/http"

	"log/slog"

	"github.com/gorilla/websocket"

	"sofilmy/internal/domain"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from arbitrary origins; token auth already
	// gates the upgrade.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleChatSocket upgrades a member's connection and attaches it to the
// chat's fan-out room. Messages are posted over HTTP; the socket only
// receives.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if s.chats == nil || s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "chat is not configured")
		return
	}
	conversation, err := s.memberChat(r, session)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("chat socket upgrade failed",
			slog.String("chatId", conversation.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.hub.Join(conversation.ID, conn)
}
