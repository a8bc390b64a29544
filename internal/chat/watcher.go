package chat

import (
	"context"
	"time"

	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sofilmy/internal/domain"
)

// EventMessage is the event type rooms receive for a new message.
const EventMessage = "message"

// Broadcaster is the hub surface the watcher needs.
type Broadcaster interface {
	Broadcast(room, eventType string, data any)
}

// Watcher tails the messages collection with a change stream and pushes
// every inserted message into its chat's room.
type Watcher struct {
	messages   *mongo.Collection
	hub        Broadcaster
	logger     *slog.Logger
	retryDelay time.Duration
}

func NewWatcher(db *mongo.Database, collectionName string, hub Broadcaster, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		messages:   db.Collection(collectionName),
		hub:        hub,
		logger:     logger,
		retryDelay: 5 * time.Second,
	}
}

// Run blocks until ctx is cancelled, reconnecting the change stream on
// transient errors.
func (w *Watcher) Run(ctx context.Context) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: "insert"},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	for {
		if err := w.watch(ctx, pipeline, opts); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("message stream error, reconnecting",
				slog.Duration("retryIn", w.retryDelay),
				slog.String("error", err.Error()),
			)
			select {
			case <-time.After(w.retryDelay):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Watcher) watch(ctx context.Context, pipeline mongo.Pipeline, opts *options.ChangeStreamOptions) error {
	stream, err := w.messages.Watch(ctx, pipeline, opts)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var raw struct {
			FullDocument struct {
				ID        string `bson:"_id"`
				ChatID    string `bson:"chatId"`
				UserID    string `bson:"userId"`
				UserName  string `bson:"userName"`
				Body      string `bson:"body"`
				CreatedAt int64  `bson:"createdAt"`
			} `bson:"fullDocument"`
		}
		if err := stream.Decode(&raw); err != nil {
			w.logger.Warn("message stream decode failed", slog.String("error", err.Error()))
			continue
		}
		if raw.FullDocument.ChatID == "" {
			continue
		}
		message := domain.ChatMessage{
			ID:        raw.FullDocument.ID,
			ChatID:    raw.FullDocument.ChatID,
			UserID:    raw.FullDocument.UserID,
			UserName:  raw.FullDocument.UserName,
			Body:      raw.FullDocument.Body,
			CreatedAt: time.UnixMilli(raw.FullDocument.CreatedAt).UTC(),
		}
		w.hub.Broadcast(message.ChatID, EventMessage, message)
	}
	return stream.Err()
}
