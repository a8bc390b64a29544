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
	"sofilmy/internal/metrics"
)

// ChatRepository stores conversations and their messages. Messages live in
// their own collection so the realtime watcher can tail inserts.
type ChatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

type chatDoc struct {
	ID        string   `bson:"_id"`
	Kind      string   `bson:"kind"`
	Name      string   `bson:"name,omitempty"`
	Members   []string `bson:"members"`
	CreatedBy string   `bson:"createdBy"`
	CreatedAt int64    `bson:"createdAt"`
	UpdatedAt int64    `bson:"updatedAt"`
}

type messageDoc struct {
	ID        string `bson:"_id"`
	ChatID    string `bson:"chatId"`
	UserID    string `bson:"userId"`
	UserName  string `bson:"userName,omitempty"`
	Body      string `bson:"body"`
	CreatedAt int64  `bson:"createdAt"`
}

func NewChatRepository(client *mongo.Client, dbName string) *ChatRepository {
	db := client.Database(dbName)
	return &ChatRepository{
		chats:    db.Collection(chatsCollection),
		messages: db.Collection(messagesCollection),
	}
}

func (r *ChatRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.chats == nil {
		return nil
	}
	chatModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "members", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	}
	if _, err := r.chats.Indexes().CreateMany(ctx, chatModels); err != nil {
		return err
	}
	messageModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	_, err := r.messages.Indexes().CreateMany(ctx, messageModels)
	return err
}

// CreateDirect returns the direct chat between two users, creating it on
// first use. The pair has at most one direct chat.
func (r *ChatRepository) CreateDirect(ctx context.Context, userA, userB string) (domain.Chat, error) {
	if userA == "" || userB == "" || userA == userB {
		return domain.Chat{}, fmt.Errorf("%w: a direct chat needs two distinct members", domain.ErrInvalidInput)
	}

	members := []string{userA, userB}
	var doc chatDoc
	err := r.chats.FindOne(ctx, bson.M{
		"kind":    string(domain.ChatKindDirect),
		"members": bson.M{"$all": members, "$size": 2},
	}).Decode(&doc)
	if err == nil {
		return chatFromDoc(doc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Chat{}, err
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        uuid.NewString(),
		Kind:      domain.ChatKindDirect,
		Members:   members,
		CreatedBy: userA,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.chats.InsertOne(ctx, chatToDoc(chat)); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// CreateGroup creates a named group with the creator as first member.
func (r *ChatRepository) CreateGroup(ctx context.Context, name, creatorID string) (domain.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Chat{}, fmt.Errorf("%w: group name is required", domain.ErrInvalidInput)
	}
	if creatorID == "" {
		return domain.Chat{}, fmt.Errorf("%w: group creator is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        uuid.NewString(),
		Kind:      domain.ChatKindGroup,
		Name:      name,
		Members:   []string{creatorID},
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.chats.InsertOne(ctx, chatToDoc(chat)); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (r *ChatRepository) Get(ctx context.Context, id string) (domain.Chat, error) {
	var doc chatDoc
	if err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Chat{}, domain.ErrNotFound
		}
		return domain.Chat{}, err
	}
	return chatFromDoc(doc), nil
}

// ListForUser returns the user's chats, most recently active first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.chats.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []chatDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	chats := make([]domain.Chat, 0, len(docs))
	for _, doc := range docs {
		chats = append(chats, chatFromDoc(doc))
	}
	return chats, nil
}

// JoinGroup adds the user to a group's member array. Direct chats cannot be
// joined.
func (r *ChatRepository) JoinGroup(ctx context.Context, chatID, userID string) error {
	chat, err := r.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.Kind != domain.ChatKindGroup {
		return fmt.Errorf("%w: not a group chat", domain.ErrForbidden)
	}
	_, err = r.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$addToSet": bson.M{"members": userID},
			"$set":      bson.M{"updatedAt": toMillis(time.Now())},
		},
	)
	return err
}

// LeaveGroup removes the user from a group's member array.
func (r *ChatRepository) LeaveGroup(ctx context.Context, chatID, userID string) error {
	chat, err := r.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.Kind != domain.ChatKindGroup {
		return fmt.Errorf("%w: not a group chat", domain.ErrForbidden)
	}
	_, err = r.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$pull": bson.M{"members": userID},
			"$set":  bson.M{"updatedAt": toMillis(time.Now())},
		},
	)
	return err
}

// AppendMessage persists a message after checking the author's membership
// and bumps the chat's activity timestamp.
func (r *ChatRepository) AppendMessage(ctx context.Context, chatID string, session domain.Session, body string) (domain.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: message body is required", domain.ErrInvalidInput)
	}

	chat, err := r.Get(ctx, chatID)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if !chat.HasMember(session.UserID) {
		return domain.ChatMessage{}, fmt.Errorf("%w: not a chat member", domain.ErrForbidden)
	}

	message := domain.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    session.UserID,
		UserName:  session.DisplayName,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.messages.InsertOne(ctx, messageToDoc(message)); err != nil {
		return domain.ChatMessage{}, err
	}
	metrics.ChatMessagesTotal.Inc()

	_, err = r.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"updatedAt": toMillis(message.CreatedAt)}},
	)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return message, nil
}

// ListMessages returns a chat's messages oldest first. A positive limit
// returns the newest N, still in ascending order.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string, limit int) ([]domain.ChatMessage, error) {
	filter := bson.M{"chatId": chatID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		// Fetch the tail first, then restore ascending order.
		opts = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	}

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
			docs[i], docs[j] = docs[j], docs[i]
		}
	}

	messages := make([]domain.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, messageFromDoc(doc))
	}
	return messages, nil
}

func chatToDoc(chat domain.Chat) chatDoc {
	return chatDoc{
		ID:        chat.ID,
		Kind:      string(chat.Kind),
		Name:      chat.Name,
		Members:   chat.Members,
		CreatedBy: chat.CreatedBy,
		CreatedAt: toMillis(chat.CreatedAt),
		UpdatedAt: toMillis(chat.UpdatedAt),
	}
}

func chatFromDoc(doc chatDoc) domain.Chat {
	return domain.Chat{
		ID:        doc.ID,
		Kind:      domain.ChatKind(doc.Kind),
		Name:      doc.Name,
		Members:   doc.Members,
		CreatedBy: doc.CreatedBy,
		CreatedAt: fromMillis(doc.CreatedAt),
		UpdatedAt: fromMillis(doc.UpdatedAt),
	}
}

func messageToDoc(message domain.ChatMessage) messageDoc {
	return messageDoc{
		ID:        message.ID,
		ChatID:    message.ChatID,
		UserID:    message.UserID,
		UserName:  message.UserName,
		Body:      message.Body,
		CreatedAt: toMillis(message.CreatedAt),
	}
}

func messageFromDoc(doc messageDoc) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        doc.ID,
		ChatID:    doc.ChatID,
		UserID:    doc.UserID,
		UserName:  doc.UserName,
		Body:      doc.Body,
		CreatedAt: fromMillis(doc.CreatedAt),
	}
}
