// Package models содержит модель продукта, на который оформляются подписки.
package models

import "time"

// Product представляет продукт каталога. Подписка ссылается на продукт
// по идентификатору; каталог ведётся отдельно и здесь минимален.
type Product struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DummyProduct используется для приёма данных из JSON-запроса на создание продукта.
type DummyProduct struct {
	Name  string  `json:"name" validate:"required,min=2,max=100"`
	Price float64 `json:"price" validate:"gte=0"`
}
