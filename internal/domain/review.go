package domain

import "time"

// Review is a user's posted review of a title.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	MediaType MediaType `json:"mediaType"`
	MediaID   int       `json:"mediaId"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	Rating    int       `json:"rating"` // 1..10, 0 = unrated
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
