package apihttp

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"sofilmy/internal/debounce"
	"sofilmy/internal/domain"
)

const searchSocketTimeout = 20 * time.Second

type searchFrame struct {
	Query string `json:"query"`
}

type searchReply struct {
	Type   string            `json:"type"`
	Query  string            `json:"query"`
	Result *domain.MediaList `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// searchSession serializes writes to one live-search connection. Debounced
// lookups complete on timer goroutines, so replies need a write lock.
type searchSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (ss *searchSession) reply(reply searchReply) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_ = ss.conn.SetWriteDeadline(time.Now().Add(writeWaitPeriod))
	return ss.conn.WriteJSON(reply)
}

const writeWaitPeriod = 10 * time.Second

// handleSearchSocket runs the live-search loop: each inbound frame carries
// the current input text, a quiet period collapses the burst, and only the
// lookup matching the latest text is delivered. Superseded lookups finish
// but their results are dropped.
func (s *Server) handleSearchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("search socket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	session := &searchSession{conn: conn}
	trigger := debounce.NewTrigger()
	defer trigger.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		var frame searchFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("search socket closed", slog.String("error", err.Error()))
			}
			return
		}

		query := strings.TrimSpace(frame.Query)
		if len(query) > maxQueryLength {
			_ = session.reply(searchReply{Type: "error", Query: truncate(query, 50), Error: "query too long"})
			continue
		}
		if query == "" {
			trigger.Schedule("", s.debounce, func(string) {})
			_ = session.reply(searchReply{Type: "results", Query: "", Result: &domain.MediaList{Items: []domain.MediaItem{}}})
			continue
		}

		trigger.Schedule(query, s.debounce, func(current string) {
			lookupCtx, done := context.WithTimeout(ctx, searchSocketTimeout)
			defer done()

			result, err := s.explore.Search(lookupCtx, current)
			if !trigger.IsCurrent(current) {
				return
			}
			if err != nil {
				s.logger.Warn("live search failed",
					slog.String("query", truncate(current, 120)),
					slog.String("error", err.Error()),
				)
				_ = session.reply(searchReply{Type: "error", Query: current, Error: "search failed"})
				return
			}
			_ = session.reply(searchReply{Type: "results", Query: current, Result: &result})
		})
	}
}
