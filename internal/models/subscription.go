// Package models содержит доменные структуры, описывающие подписку,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы подписки.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Типы плана подписки.
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
	PlanTrial   = "trial"
)

// ValidStatus сообщает, входит ли значение в перечень статусов подписки.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusPaused, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Subscription представляет собой основную модель подписки,
// используемую в бизнес-логике и хранилище.
//
// Даты фиксируются при создании и при смене статуса не пересчитываются.
type Subscription struct {
	ID              int       `json:"id"`
	UserUID         string    `json:"user_uid"`   // Владелец подписки
	ProductID       int       `json:"product_id"` // Продукт, на который оформлена подписка
	Status          string    `json:"status"`     // active, paused, cancelled или expired
	PlanType        string    `json:"plan_type"`  // monthly, yearly или trial
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	NextBillingDate time.Time `json:"next_billing_date"`
	AutoRenew       bool      `json:"auto_renew"`
	Price           float64   `json:"price"` // Цена за период, неотрицательная
	CreatedAt       time.Time `json:"created_at"`
}

// SubscriptionInfo — проекция подписки для выдачи наружу: вместо внешних
// ключей содержит сводку о пользователе и продукте.
type SubscriptionInfo struct {
	ID              int       `json:"id"`
	Status          string    `json:"status"`
	PlanType        string    `json:"plan_type"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	NextBillingDate time.Time `json:"next_billing_date"`
	AutoRenew       bool      `json:"auto_renew"`
	Price           float64   `json:"price"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	ProductName     string    `json:"product_name"`
	ProductPrice    float64   `json:"product_price"`
}

// DummySubscription используется для приёма данных из JSON-запроса
// на создание подписки, прежде чем конвертировать их в Subscription.
type DummySubscription struct {
	ProductID int     `json:"product_id" validate:"required,gt=0"`
	PlanType  string  `json:"plan_type" validate:"required,oneof=monthly yearly trial"`
	Price     float64 `json:"price" validate:"gte=0"`
	AutoRenew *bool   `json:"auto_renew,omitempty"` // nil означает значение по умолчанию true
}

// DummySubscriptionUpdate — частичное обновление подписки.
// Nil-поля не изменяются.
type DummySubscriptionUpdate struct {
	Status    *string  `json:"status,omitempty" validate:"omitempty,oneof=active paused cancelled expired"`
	AutoRenew *bool    `json:"auto_renew,omitempty"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}
