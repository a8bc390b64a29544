package mongo

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sofilmy/internal/cache"
	"sofilmy/internal/domain"
)

// WatchlistRepository mutates the watchlist array on the user document.
// Entries are "<mediaType>:<id>" keys; $addToSet/$pull give set semantics,
// so saving a title twice stays a single entry.
type WatchlistRepository struct {
	collection *mongo.Collection
	store      *cache.Cache
	logger     *slog.Logger
}

type WatchlistOption func(*WatchlistRepository)

// WithWatchlistCache invalidates the per-user list cache on every mutation.
func WithWatchlistCache(store *cache.Cache) WatchlistOption {
	return func(r *WatchlistRepository) { r.store = store }
}

func WithWatchlistLogger(logger *slog.Logger) WatchlistOption {
	return func(r *WatchlistRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewWatchlistRepository(client *mongo.Client, dbName string, opts ...WatchlistOption) *WatchlistRepository {
	repo := &WatchlistRepository{
		collection: client.Database(dbName).Collection(usersCollection),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func watchlistCacheKey(userID string) string {
	return "watchlist-" + userID
}

func (r *WatchlistRepository) Add(ctx context.Context, userID string, entry domain.WatchlistEntry) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"watchlist": entry.String()},
			"$set":      bson.M{"updatedAt": toMillis(time.Now())},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *WatchlistRepository) Remove(ctx context.Context, userID string, entry domain.WatchlistEntry) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"watchlist": entry.String()},
			"$set":  bson.M{"updatedAt": toMillis(time.Now())},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	r.invalidate(ctx, userID)
	return nil
}

// List returns the saved entries in stored order. Corrupt array members are
// skipped with a log line instead of failing the whole list.
func (r *WatchlistRepository) List(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	var doc struct {
		Watchlist []string `bson:"watchlist"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	entries := make([]domain.WatchlistEntry, 0, len(doc.Watchlist))
	for _, raw := range doc.Watchlist {
		entry, parseErr := domain.ParseWatchlistEntry(raw)
		if parseErr != nil {
			r.logger.Warn("skipping corrupt watchlist entry",
				slog.String("userId", userID),
				slog.String("entry", raw),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *WatchlistRepository) invalidate(ctx context.Context, userID string) {
	if r.store != nil {
		r.store.Invalidate(ctx, watchlistCacheKey(userID))
	}
}
