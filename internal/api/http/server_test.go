package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sofilmy/internal/domain"
	"sofilmy/internal/metadata/tmdb"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeExplore struct {
	searchFn    func(ctx context.Context, query string) (domain.MediaList, error)
	trendingFn  func(ctx context.Context, window string) (domain.MediaList, error)
	recommendFn func(ctx context.Context, freeText, userID string) (domain.MediaList, error)
}

func (f *fakeExplore) Search(ctx context.Context, query string) (domain.MediaList, error) {
	if f.searchFn == nil {
		return domain.MediaList{}, nil
	}
	return f.searchFn(ctx, query)
}

func (f *fakeExplore) Trending(ctx context.Context, window string) (domain.MediaList, error) {
	if f.trendingFn == nil {
		return domain.MediaList{}, nil
	}
	return f.trendingFn(ctx, window)
}

func (f *fakeExplore) Recommend(ctx context.Context, freeText, userID string) (domain.MediaList, error) {
	if f.recommendFn == nil {
		return domain.MediaList{}, nil
	}
	return f.recommendFn(ctx, freeText, userID)
}

type fakeMeta struct {
	details tmdb.TitleDetails
	err     error
}

func (f *fakeMeta) Details(context.Context, domain.MediaType, int) (tmdb.TitleDetails, error) {
	return f.details, f.err
}

func (f *fakeMeta) Similar(context.Context, domain.MediaType, int) ([]tmdb.Title, error) {
	return nil, f.err
}

func (f *fakeMeta) Credits(context.Context, domain.MediaType, int) (tmdb.Credits, error) {
	return tmdb.Credits{}, f.err
}

// stubVerifier treats the bearer token as the user id.
type stubVerifier struct{}

func (stubVerifier) Authenticate(r *http.Request) (domain.Session, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return domain.Session{UserID: token, DisplayName: "User " + token}, nil
}

type fakeUsers struct {
	upserts  []domain.User
	users    map[string]domain.User
	followed map[string][]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]domain.User{}, followed: map[string][]string{}}
}

func (f *fakeUsers) Upsert(_ context.Context, user domain.User) error {
	f.upserts = append(f.upserts, user)
	if _, ok := f.users[user.ID]; !ok {
		f.users[user.ID] = user
	}
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) Follow(_ context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return domain.ErrInvalidInput
	}
	if _, ok := f.users[targetID]; !ok {
		return domain.ErrNotFound
	}
	f.followed[followerID] = append(f.followed[followerID], targetID)
	return nil
}

func (f *fakeUsers) Unfollow(context.Context, string, string) error { return nil }

func (f *fakeUsers) Followers(context.Context, string) ([]domain.User, error) { return nil, nil }

func (f *fakeUsers) Following(context.Context, string) ([]domain.User, error) { return nil, nil }

type fakeWatchlist struct {
	entries map[string][]domain.WatchlistEntry
}

func newFakeWatchlist() *fakeWatchlist {
	return &fakeWatchlist{entries: map[string][]domain.WatchlistEntry{}}
}

func (f *fakeWatchlist) Add(_ context.Context, userID string, entry domain.WatchlistEntry) error {
	f.entries[userID] = append(f.entries[userID], entry)
	return nil
}

func (f *fakeWatchlist) Remove(_ context.Context, userID string, entry domain.WatchlistEntry) error {
	kept := f.entries[userID][:0]
	for _, existing := range f.entries[userID] {
		if existing != entry {
			kept = append(kept, existing)
		}
	}
	f.entries[userID] = kept
	return nil
}

func (f *fakeWatchlist) List(_ context.Context, userID string) ([]domain.WatchlistEntry, error) {
	return f.entries[userID], nil
}

type fakeReviews struct {
	created []domain.Review
	err     error
}

func (f *fakeReviews) Create(_ context.Context, review domain.Review) (domain.Review, error) {
	if f.err != nil {
		return domain.Review{}, f.err
	}
	review.ID = fmt.Sprintf("review-%d", len(f.created)+1)
	f.created = append(f.created, review)
	return review, nil
}

func (f *fakeReviews) ListByTitle(context.Context, domain.MediaType, int) ([]domain.Review, error) {
	return f.created, nil
}

func (f *fakeReviews) ListByUser(context.Context, string) ([]domain.Review, error) {
	return f.created, nil
}

func (f *fakeReviews) Delete(_ context.Context, id, userID string) error {
	for _, review := range f.created {
		if review.ID == id {
			if review.UserID != userID {
				return domain.ErrForbidden
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeChats struct {
	chats map[string]domain.Chat
}

func newFakeChats() *fakeChats { return &fakeChats{chats: map[string]domain.Chat{}} }

func (f *fakeChats) CreateDirect(_ context.Context, userA, userB string) (domain.Chat, error) {
	if userB == "" || userA == userB {
		return domain.Chat{}, domain.ErrInvalidInput
	}
	created := domain.Chat{ID: "direct-1", Kind: domain.ChatKindDirect, Members: []string{userA, userB}}
	f.chats[created.ID] = created
	return created, nil
}

func (f *fakeChats) CreateGroup(_ context.Context, name, creatorID string) (domain.Chat, error) {
	if name == "" {
		return domain.Chat{}, domain.ErrInvalidInput
	}
	created := domain.Chat{ID: "group-1", Kind: domain.ChatKindGroup, Name: name, Members: []string{creatorID}, CreatedBy: creatorID}
	f.chats[created.ID] = created
	return created, nil
}

func (f *fakeChats) Get(_ context.Context, id string) (domain.Chat, error) {
	conversation, ok := f.chats[id]
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}
	return conversation, nil
}

func (f *fakeChats) ListForUser(_ context.Context, userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, conversation := range f.chats {
		if conversation.HasMember(userID) {
			out = append(out, conversation)
		}
	}
	return out, nil
}

func (f *fakeChats) JoinGroup(context.Context, string, string) error { return nil }

func (f *fakeChats) LeaveGroup(context.Context, string, string) error { return nil }

func (f *fakeChats) AppendMessage(_ context.Context, chatID string, session domain.Session, body string) (domain.ChatMessage, error) {
	conversation, ok := f.chats[chatID]
	if !ok {
		return domain.ChatMessage{}, domain.ErrNotFound
	}
	if !conversation.HasMember(session.UserID) {
		return domain.ChatMessage{}, domain.ErrForbidden
	}
	if strings.TrimSpace(body) == "" {
		return domain.ChatMessage{}, domain.ErrInvalidInput
	}
	return domain.ChatMessage{ID: "msg-1", ChatID: chatID, UserID: session.UserID, Body: body}, nil
}

func (f *fakeChats) ListMessages(context.Context, string, int) ([]domain.ChatMessage, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, explore ExploreService, options ...ServerOption) http.Handler {
	t.Helper()
	return NewServer(explore, options...).Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error envelope: %v (body %q)", err, rec.Body.String())
	}
	return payload.Error.Code
}

// ---------------------------------------------------------------------------
// Explore endpoints
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{})
	rec := doRequest(t, handler, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{})
	rec := doRequest(t, handler, http.MethodGet, "/search", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_request" {
		t.Errorf("error code: got %q", code)
	}
}

func TestSearchRejectsOverlongQuery(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{})
	rec := doRequest(t, handler, http.MethodGet, "/search?q="+strings.Repeat("a", maxQueryLength+1), "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestSearchReturnsResults(t *testing.T) {
	explore := &fakeExplore{
		searchFn: func(_ context.Context, query string) (domain.MediaList, error) {
			return domain.MediaList{
				Query: query,
				Items: []domain.MediaItem{{ID: 1, MediaType: domain.MediaTypeMovie, Title: "Dune"}},
			}, nil
		},
	}
	handler := newTestServer(t, explore)
	rec := doRequest(t, handler, http.MethodGet, "/search?q=dune", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var result domain.MediaList
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "Dune" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSearchUpstreamFailureMapsTo502(t *testing.T) {
	explore := &fakeExplore{
		searchFn: func(context.Context, string) (domain.MediaList, error) {
			return domain.MediaList{}, errors.New("connection reset by peer")
		},
	}
	handler := newTestServer(t, explore)
	rec := doRequest(t, handler, http.MethodGet, "/search?q=dune", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "upstream_error" {
		t.Errorf("error code: got %q", code)
	}
}

func TestSearchMissingCredentialMapsTo503(t *testing.T) {
	explore := &fakeExplore{
		searchFn: func(context.Context, string) (domain.MediaList, error) {
			return domain.MediaList{}, fmt.Errorf("%w: tmdb api key", domain.ErrMissingCredential)
		},
	}
	handler := newTestServer(t, explore)
	rec := doRequest(t, handler, http.MethodGet, "/search?q=dune", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestRecommendPassesSessionUserWhenAuthenticated(t *testing.T) {
	var gotUserID string
	explore := &fakeExplore{
		recommendFn: func(_ context.Context, _, userID string) (domain.MediaList, error) {
			gotUserID = userID
			return domain.MediaList{}, nil
		},
	}
	handler := newTestServer(t, explore, WithVerifier(stubVerifier{}))

	rec := doRequest(t, handler, http.MethodGet, "/recommend?q=something+scary", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if gotUserID != "alice" {
		t.Errorf("userID: got %q", gotUserID)
	}

	// Anonymous callers are allowed too.
	rec = doRequest(t, handler, http.MethodGet, "/recommend", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous status: got %d", rec.Code)
	}
	if gotUserID != "" {
		t.Errorf("anonymous userID: got %q", gotUserID)
	}
}

func TestTitleDetailsRejectsBadID(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{}, WithMetadata(&fakeMeta{}))
	rec := doRequest(t, handler, http.MethodGet, "/movies/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodGet, "/movies/5?type=book", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status: got %d", rec.Code)
	}
}

func TestTitleDetailsWithoutMetadataIs503(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{})
	rec := doRequest(t, handler, http.MethodGet, "/movies/5", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestPosterProxyRejectsUnknownSize(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{})
	rec := doRequest(t, handler, http.MethodGet, "/posters/w999/poster.jpg", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Auth and watchlist
// ---------------------------------------------------------------------------

func TestWatchlistRequiresAuth(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithWatchlist(newFakeWatchlist()),
	)
	rec := doRequest(t, handler, http.MethodGet, "/watchlist", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestWatchlistWithoutVerifierIs503(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{}, WithWatchlist(newFakeWatchlist()))
	rec := doRequest(t, handler, http.MethodGet, "/watchlist", "alice", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestWatchlistAddListRemoveFlow(t *testing.T) {
	watchlist := newFakeWatchlist()
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithWatchlist(watchlist),
	)

	rec := doRequest(t, handler, http.MethodPost, "/watchlist", "alice",
		map[string]any{"mediaType": "movie", "id": 42})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodGet, "/watchlist", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "movie:42") {
		t.Errorf("list body missing entry: %s", rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodDelete, "/watchlist?mediaType=movie&id=42", "alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove status: got %d", rec.Code)
	}
	if len(watchlist.entries["alice"]) != 0 {
		t.Errorf("entry not removed: %+v", watchlist.entries["alice"])
	}
}

func TestWatchlistAddRejectsUnknownMediaType(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithWatchlist(newFakeWatchlist()),
	)
	rec := doRequest(t, handler, http.MethodPost, "/watchlist", "alice",
		map[string]any{"mediaType": "book", "id": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestAuthenticatedRequestRefreshesProfile(t *testing.T) {
	users := newFakeUsers()
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithUsers(users),
		WithWatchlist(newFakeWatchlist()),
	)
	doRequest(t, handler, http.MethodGet, "/watchlist", "alice", nil)
	if len(users.upserts) != 1 || users.upserts[0].ID != "alice" {
		t.Fatalf("profile not refreshed: %+v", users.upserts)
	}
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

func TestReviewCreateUsesSessionIdentity(t *testing.T) {
	reviews := &fakeReviews{}
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithReviews(reviews),
	)
	rec := doRequest(t, handler, http.MethodPost, "/reviews", "alice", map[string]any{
		"mediaType": "movie",
		"mediaId":   42,
		"body":      "tense and beautiful",
		"rating":    9,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(reviews.created) != 1 {
		t.Fatalf("created: got %d", len(reviews.created))
	}
	if reviews.created[0].UserID != "alice" || reviews.created[0].UserName != "User alice" {
		t.Errorf("session identity not applied: %+v", reviews.created[0])
	}
}

func TestReviewDeleteByNonAuthorIsForbidden(t *testing.T) {
	reviews := &fakeReviews{created: []domain.Review{{ID: "review-1", UserID: "alice"}}}
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithReviews(reviews),
	)
	rec := doRequest(t, handler, http.MethodDelete, "/reviews/review-1", "bob", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodDelete, "/reviews/review-1", "alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("author delete status: got %d", rec.Code)
	}
}

func TestReviewListNeedsTitleOrUser(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{}, WithReviews(&fakeReviews{}))
	rec := doRequest(t, handler, http.MethodGet, "/reviews", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodGet, "/reviews?mediaType=movie&id=42", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("title list status: got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodGet, "/reviews?userId=alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("user list status: got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Follows
// ---------------------------------------------------------------------------

func TestFollowUnknownUserIs404(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithUsers(newFakeUsers()),
	)
	rec := doRequest(t, handler, http.MethodPost, "/follow/ghost", "alice", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestFollowSelfIsRejected(t *testing.T) {
	users := newFakeUsers()
	users.users["alice"] = domain.User{ID: "alice"}
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithUsers(users),
	)
	rec := doRequest(t, handler, http.MethodPost, "/follow/alice", "alice", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Chats
// ---------------------------------------------------------------------------

func TestChatCreateDirectAndGroup(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithChats(newFakeChats(), nil),
	)

	rec := doRequest(t, handler, http.MethodPost, "/chats", "alice",
		map[string]any{"kind": "direct", "memberId": "bob"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("direct status: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodPost, "/chats", "alice",
		map[string]any{"kind": "group", "name": "film club"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("group status: got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodPost, "/chats", "alice",
		map[string]any{"kind": "broadcast"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status: got %d", rec.Code)
	}
}

func TestMessageListRequiresMembership(t *testing.T) {
	chats := newFakeChats()
	chats.chats["group-1"] = domain.Chat{ID: "group-1", Kind: domain.ChatKindGroup, Members: []string{"alice"}}
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithChats(chats, nil),
	)

	rec := doRequest(t, handler, http.MethodGet, "/chats/group-1/messages", "bob", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider status: got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodGet, "/chats/group-1/messages", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("member status: got %d", rec.Code)
	}
}

func TestMessagePostValidation(t *testing.T) {
	chats := newFakeChats()
	chats.chats["group-1"] = domain.Chat{ID: "group-1", Kind: domain.ChatKindGroup, Members: []string{"alice"}}
	handler := newTestServer(t, &fakeExplore{},
		WithVerifier(stubVerifier{}),
		WithChats(chats, nil),
	)

	rec := doRequest(t, handler, http.MethodPost, "/chats/group-1/messages", "alice",
		map[string]any{"body": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank body status: got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodPost, "/chats/group-1/messages", "alice",
		map[string]any{"body": "anyone seen the new one?"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post status: got %d (%s)", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestUnknownRouteIs404(t *testing.T) {
	handler := newTestServer(t, &fakeExplore{})
	rec := doRequest(t, handler, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestRecoveryMiddlewareTurnsPanicInto500(t *testing.T) {
	explore := &fakeExplore{
		searchFn: func(context.Context, string) (domain.MediaList, error) {
			panic("boom")
		},
	}
	handler := newTestServer(t, explore)
	rec := doRequest(t, handler, http.MethodGet, "/search?q=dune", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "internal_error" {
		t.Errorf("error code: got %q", code)
	}
}

func TestNormalizeRouteBoundsCardinality(t *testing.T) {
	cases := map[string]string{
		"/movies/42":           "/movies/{id}",
		"/movies/42/similar":   "/movies/{id}",
		"/chats/abc/messages":  "/chats/{id}",
		"/users/alice":         "/users/{id}",
		"/ws/search":           "/ws",
		"/ws/chats/abc":        "/ws",
		"/posters/w500/x.jpg":  "/posters",
		"/search":              "/search",
		"/explore/trending":    "/explore",
		"/completely/unknown":  "/other",
	}
	for path, want := range cases {
		if got := normalizeRoute(path); got != want {
			t.Errorf("normalizeRoute(%q): got %q, want %q", path, got, want)
		}
	}
}
