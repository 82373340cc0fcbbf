// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и отпечаток refresh-токена.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
//
// PasswordHash и RefreshTokenHash никогда не сериализуются наружу:
// в ответы API уходит только проекция PublicUser.
type User struct {
	UID              string    `json:"uid"`  // Уникальный идентификатор пользователя
	Name             string    `json:"name"` // Отображаемое имя
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"` // bcrypt-хэш пароля
	RefreshTokenHash *string   `json:"-"` // SHA-256 отпечаток активного refresh-токена, nil — токена нет
	CreatedAt        time.Time `json:"created_at"`
}

// PublicUser — публичная проекция пользователя для API-ответов.
type PublicUser struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public возвращает проекцию пользователя без хэшей.
func (u *User) Public() PublicUser {
	return PublicUser{
		UID:   u.UID,
		Name:  u.Name,
		Email: u.Email,
	}
}
