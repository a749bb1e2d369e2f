package models

import "time"

// Модель комментария к посту
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`   // ID поста, к которому прикреплён комментарий
	AuthorID  int64     `json:"authorId"` // автор комментария
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
