package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sofilmy/internal/domain"
)

type ReviewRepository struct {
	collection *mongo.Collection
}

type reviewDoc struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"userId"`
	UserName  string `bson:"userName,omitempty"`
	MediaType string `bson:"mediaType"`
	MediaID   int    `bson:"mediaId"`
	Title     string `bson:"title,omitempty"`
	Body      string `bson:"body"`
	Rating    int    `bson:"rating,omitempty"`
	CreatedAt int64  `bson:"createdAt"`
	UpdatedAt int64  `bson:"updatedAt"`
}

func NewReviewRepository(client *mongo.Client, dbName string) *ReviewRepository {
	return &ReviewRepository{collection: client.Database(dbName).Collection(reviewsCollection)}
}

func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "mediaType", Value: 1}, {Key: "mediaId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Create validates, assigns the id and timestamps, and stores the review.
func (r *ReviewRepository) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	review.Body = strings.TrimSpace(review.Body)
	if review.Body == "" {
		return domain.Review{}, fmt.Errorf("%w: review body is required", domain.ErrInvalidInput)
	}
	if review.MediaID <= 0 || domain.NormalizeMediaType(string(review.MediaType)) == "" {
		return domain.Review{}, fmt.Errorf("%w: review needs a valid title reference", domain.ErrInvalidInput)
	}
	// Rating 0 means unrated.
	if review.Rating < 0 || review.Rating > 10 {
		return domain.Review{}, fmt.Errorf("%w: rating must be between 0 and 10", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	review.ID = uuid.NewString()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, reviewToDoc(review)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Review{}, domain.ErrAlreadyExists
		}
		return domain.Review{}, err
	}
	return review, nil
}

// ListByTitle returns reviews for one title, newest first.
func (r *ReviewRepository) ListByTitle(ctx context.Context, mediaType domain.MediaType, mediaID int) ([]domain.Review, error) {
	filter := bson.M{"mediaType": string(mediaType), "mediaId": mediaID}
	return r.list(ctx, filter)
}

// ListByUser returns one user's reviews, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *ReviewRepository) list(ctx context.Context, filter bson.M) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		reviews = append(reviews, reviewFromDoc(doc))
	}
	return reviews, nil
}

// Delete removes a review if userID is its author.
func (r *ReviewRepository) Delete(ctx context.Context, id, userID string) error {
	var doc reviewDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		return err
	}
	if doc.UserID != userID {
		return domain.ErrForbidden
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func reviewToDoc(review domain.Review) reviewDoc {
	return reviewDoc{
		ID:        review.ID,
		UserID:    review.UserID,
		UserName:  review.UserName,
		MediaType: string(review.MediaType),
		MediaID:   review.MediaID,
		Title:     review.Title,
		Body:      review.Body,
		Rating:    review.Rating,
		CreatedAt: toMillis(review.CreatedAt),
		UpdatedAt: toMillis(review.UpdatedAt),
	}
}

func reviewFromDoc(doc reviewDoc) domain.Review {
	return domain.Review{
		ID:        doc.ID,
		UserID:    doc.UserID,
		UserName:  doc.UserName,
		MediaType: domain.MediaType(doc.MediaType),
		MediaID:   doc.MediaID,
		Title:     doc.Title,
		Body:      doc.Body,
		Rating:    doc.Rating,
		CreatedAt: fromMillis(doc.CreatedAt),
		UpdatedAt: fromMillis(doc.UpdatedAt),
	}
}
