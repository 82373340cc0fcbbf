// Package pause реализует HTTP-обработчик приостановки подписки.
//
// Приостановить можно только активную подписку: остальные статусы
// отвечают 400, проигранная гонка смены статуса — 409.
package pause

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики приостановки подписки.
type Service interface {
	Pause(ctx context.Context, id int) error
}

// Handler обрабатывает запросы на приостановку подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Приостановить подписку
// @Description Переводит активную подписку в статус paused.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} map[string]any "Подписка приостановлена"
// @Failure 400 {object} response.ErrorResponse "Подписка не активна"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 409 {object} response.ErrorResponse "Статус изменён конкурентно"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/{id}/pause [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.pause"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	if err := h.service.Pause(r.Context(), id); err != nil {
		log.Error("failed to pause subscription", sl.Err(err))
		w.WriteHeader(response.StatusCode(err))
		render.JSON(w, r, response.ErrorFor(err, "could not pause subscription"))
		return
	}

	log.Info("success to pause subscription", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":     id,
		"status": "paused",
	}))
}
