package models

import "time"

// Модель поста. Автор обязателен и не меняется после создания, группа опциональна.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Author    User      `json:"author"`
	GroupID   *int64    `json:"groupId"`
	Group     *Group    `json:"group"`
	Text      string    `json:"text"`
	Image     *string   `json:"image"` // ссылка на файл изображения, nil если нет
	CreatedAt time.Time `json:"createdAt"`
}

// Newer сообщает, идёт ли пост p в ленте раньше other: сначала новые,
// при равном времени создания - с большим ID.
func (p Post) Newer(other Post) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.After(other.CreatedAt)
	}
	return p.ID > other.ID
}
