// Package apperr определяет типизированные ошибки бизнес-уровня.
//
// Ошибки распознаются через errors.Is по всей цепочке обёрток
// fmt.Errorf("%s: %w", op, err): хранилище переводит в них ошибки драйвера,
// сервисы добавляют нарушения своих инвариантов, HTTP-слой выбирает по ним
// статус ответа. Всё, что не входит в перечень, считается внутренней ошибкой.
package apperr

import "errors"

var (
	// ErrUnauthorized — отказ аутентификации: неверные учётные данные,
	// битый или отозванный токен. Причина отказа не детализируется.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound — запрошенная запись отсутствует.
	ErrNotFound = errors.New("not found")

	// ErrConflict — нарушение уникальности или проигранная гонка
	// конкурентной смены состояния.
	ErrConflict = errors.New("conflict")

	// ErrBadRequest — входные данные не проходят проверку бизнес-правил.
	ErrBadRequest = errors.New("bad request")
)
