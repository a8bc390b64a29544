// Package apihttp is the HTTP surface: REST handlers for exploring titles
// and the social features, plus the realtime websocket endpoints.
package apihttp

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"sofilmy/internal/chat"
	"sofilmy/internal/domain"
	"sofilmy/internal/metadata/tmdb"
)

const (
	maxQueryLength  = 500
	defaultDebounce = 300 * time.Millisecond
)

type ExploreService interface {
	Search(ctx context.Context, query string) (domain.MediaList, error)
	Trending(ctx context.Context, window string) (domain.MediaList, error)
	Recommend(ctx context.Context, freeText, userID string) (domain.MediaList, error)
}

type MetadataService interface {
	Details(ctx context.Context, mediaType domain.MediaType, id int) (tmdb.TitleDetails, error)
	Similar(ctx context.Context, mediaType domain.MediaType, id int) ([]tmdb.Title, error)
	Credits(ctx context.Context, mediaType domain.MediaType, id int) (tmdb.Credits, error)
}

type UserStore interface {
	Upsert(ctx context.Context, user domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	Followers(ctx context.Context, id string) ([]domain.User, error)
	Following(ctx context.Context, id string) ([]domain.User, error)
}

type WatchlistStore interface {
	Add(ctx context.Context, userID string, entry domain.WatchlistEntry) error
	Remove(ctx context.Context, userID string, entry domain.WatchlistEntry) error
	List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review domain.Review) (domain.Review, error)
	ListByTitle(ctx context.Context, mediaType domain.MediaType, mediaID int) ([]domain.Review, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Review, error)
	Delete(ctx context.Context, id, userID string) error
}

type ChatStore interface {
	CreateDirect(ctx context.Context, userA, userB string) (domain.Chat, error)
	CreateGroup(ctx context.Context, name, creatorID string) (domain.Chat, error)
	Get(ctx context.Context, id string) (domain.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Chat, error)
	JoinGroup(ctx context.Context, chatID, userID string) error
	LeaveGroup(ctx context.Context, chatID, userID string) error
	AppendMessage(ctx context.Context, chatID string, session domain.Session, body string) (domain.ChatMessage, error)
	ListMessages(ctx context.Context, chatID string, limit int) ([]domain.ChatMessage, error)
}

type SessionVerifier interface {
	Authenticate(r *http.Request) (domain.Session, error)
}

type Server struct {
	explore    ExploreService
	meta       MetadataService
	users      UserStore
	watchlist  WatchlistStore
	reviews    ReviewStore
	chats      ChatStore
	verifier   SessionVerifier
	hub        *chat.Hub
	logger     *slog.Logger
	debounce   time.Duration
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetadata(meta MetadataService) ServerOption {
	return func(s *Server) { s.meta = meta }
}

func WithUsers(users UserStore) ServerOption {
	return func(s *Server) { s.users = users }
}

func WithWatchlist(watchlist WatchlistStore) ServerOption {
	return func(s *Server) { s.watchlist = watchlist }
}

func WithReviews(reviews ReviewStore) ServerOption {
	return func(s *Server) { s.reviews = reviews }
}

func WithChats(chats ChatStore, hub *chat.Hub) ServerOption {
	return func(s *Server) {
		s.chats = chats
		s.hub = hub
	}
}

func WithVerifier(verifier SessionVerifier) ServerOption {
	return func(s *Server) { s.verifier = verifier }
}

func WithSearchDebounce(delay time.Duration) ServerOption {
	return func(s *Server) {
		if delay > 0 {
			s.debounce = delay
		}
	}
}

func NewServer(explore ExploreService, options ...ServerOption) *Server {
	server := &Server{
		explore:  explore,
		logger:   slog.Default(),
		debounce: defaultDebounce,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /explore/trending", s.handleTrending)
	mux.HandleFunc("GET /recommend", s.handleRecommend)
	mux.HandleFunc("GET /movies/{id}", s.handleTitleDetails)
	mux.HandleFunc("GET /movies/{id}/similar", s.handleTitleSimilar)
	mux.HandleFunc("GET /movies/{id}/credits", s.handleTitleCredits)
	mux.HandleFunc("GET /posters/{size}/{path}", s.handlePosterProxy)

	mux.HandleFunc("GET /watchlist", s.withSession(s.handleWatchlistList))
	mux.HandleFunc("POST /watchlist", s.withSession(s.handleWatchlistAdd))
	mux.HandleFunc("DELETE /watchlist", s.withSession(s.handleWatchlistRemove))

	mux.HandleFunc("GET /reviews", s.handleReviewList)
	mux.HandleFunc("POST /reviews", s.withSession(s.handleReviewCreate))
	mux.HandleFunc("DELETE /reviews/{id}", s.withSession(s.handleReviewDelete))

	mux.HandleFunc("GET /users/{id}", s.handleUserGet)
	mux.HandleFunc("POST /follow/{userId}", s.withSession(s.handleFollow))
	mux.HandleFunc("DELETE /follow/{userId}", s.withSession(s.handleUnfollow))

	mux.HandleFunc("GET /chats", s.withSession(s.handleChatList))
	mux.HandleFunc("POST /chats", s.withSession(s.handleChatCreate))
	mux.HandleFunc("GET /chats/{id}/messages", s.withSession(s.handleMessageList))
	mux.HandleFunc("POST /chats/{id}/messages", s.withSession(s.handleMessagePost))
	mux.HandleFunc("POST /chats/{id}/members", s.withSession(s.handleChatJoin))
	mux.HandleFunc("DELETE /chats/{id}/members", s.withSession(s.handleChatLeave))

	mux.HandleFunc("GET /ws/chats/{id}", s.withSession(s.handleChatSocket))
	mux.HandleFunc("GET /ws/search", s.handleSearchSocket)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "sofilmy",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
