package models

// Пользователь приходит из внешней системы аутентификации,
// здесь нужны только идентификатор и отображаемое имя.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Name возвращает отображаемое имя, а если оно пустое - username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
