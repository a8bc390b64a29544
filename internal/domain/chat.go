package domain

import "time"

// ChatKind distinguishes one-to-one chats from named groups.
type ChatKind string

const (
	ChatKindDirect ChatKind = "direct"
	ChatKindGroup  ChatKind = "group"
)

// Chat is a conversation: either a direct chat between two members or a
// group anyone can join. Membership is an array field mutated with
// set semantics; concurrent joins follow last-write-wins.
type Chat struct {
	ID        string    `json:"id"`
	Kind      ChatKind  `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Members   []string  `json:"members"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasMember reports whether userID belongs to the chat.
func (c Chat) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ChatMessage is one message inside a chat.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
