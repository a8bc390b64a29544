// Package mongo holds the document-store repositories: user profiles with
// follow and watchlist arrays, reviews, and chats with their messages.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const (
	usersCollection    = "users"
	reviewsCollection  = "reviews"
	chatsCollection    = "chats"
	messagesCollection = "chat_messages"
)

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	base := options.Client().ApplyURI(uri).SetMonitor(otelmongo.NewMonitor())
	opts := append([]*options.ClientOptions{base}, extra...)
	return mongo.Connect(ctx, opts...)
}

// Timestamps are stored as unix milliseconds so message ordering keeps
// sub-second resolution.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
