package models

// Модель группы (сообщества) постов
type Group struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"` // уникальный ключ для URL
	Title       string `json:"title"`
	Description string `json:"description"`
}
