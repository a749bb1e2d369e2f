package models

import "time"

// Подписка UserID на автора AuthorID. На пару (UserID, AuthorID) допускается не больше одной записи.
type Follow struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}
