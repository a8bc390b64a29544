package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sofilmy/internal/domain"
)

// UserRepository stores profile documents. Follow relations live in two
// mirrored string arrays mutated with set operators; concurrent writers
// follow last-write-wins with no conflict detection.
type UserRepository struct {
	collection *mongo.Collection
}

type userDoc struct {
	ID          string   `bson:"_id"`
	DisplayName string   `bson:"displayName"`
	Bio         string   `bson:"bio,omitempty"`
	AvatarURL   string   `bson:"avatarUrl,omitempty"`
	Following   []string `bson:"following,omitempty"`
	Followers   []string `bson:"followers,omitempty"`
	Watchlist   []string `bson:"watchlist,omitempty"`
	CreatedAt   int64    `bson:"createdAt"`
	UpdatedAt   int64    `bson:"updatedAt"`
}

func NewUserRepository(client *mongo.Client, dbName string) *UserRepository {
	return &UserRepository{collection: client.Database(dbName).Collection(usersCollection)}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "displayName", Value: 1}}},
		{Keys: bson.D{{Key: "followers", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Upsert creates or refreshes the profile shadowing an external identity.
// Array fields are never touched here, only profile attributes.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	now := toMillis(time.Now())
	update := bson.M{
		"$set": bson.M{
			"displayName": user.DisplayName,
			"bio":         user.Bio,
			"avatarUrl":   user.AvatarURL,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	var doc userDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return userFromDoc(doc), nil
}

// Follow adds targetID to the follower's following array and mirrors the
// relation on the target's followers array.
func (r *UserRepository) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", domain.ErrInvalidInput)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$addToSet": bson.M{"followers": followerID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	res, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$addToSet": bson.M{"following": targetID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Unfollow removes the mirrored relation. Removing an absent relation is a
// no-op, not an error.
func (r *UserRepository) Unfollow(ctx context.Context, followerID, targetID string) error {
	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$pull": bson.M{"followers": followerID}},
	); err != nil {
		return err
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"following": targetID}},
	)
	return err
}

// Followers resolves the follower ids of a user to profile records.
func (r *UserRepository) Followers(ctx context.Context, id string) ([]domain.User, error) {
	user, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.getMany(ctx, user.Followers)
}

// Following resolves the ids a user follows to profile records.
func (r *UserRepository) Following(ctx context.Context, id string) ([]domain.User, error) {
	user, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.getMany(ctx, user.Following)
}

func (r *UserRepository) getMany(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, userFromDoc(doc))
	}
	return users, nil
}

func userFromDoc(doc userDoc) domain.User {
	return domain.User{
		ID:          doc.ID,
		DisplayName: doc.DisplayName,
		Bio:         doc.Bio,
		AvatarURL:   doc.AvatarURL,
		Following:   doc.Following,
		Followers:   doc.Followers,
		CreatedAt:   fromMillis(doc.CreatedAt),
		UpdatedAt:   fromMillis(doc.UpdatedAt),
	}
}
