// Package services содержит бизнес-логику жизненного цикла подписок:
// создание, смену статусов, частичное обновление и чтение с кешированием.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// FindCurrentByUserAndProduct возвращает не отменённую подписку пары или nil.
	FindCurrentByUserAndProduct(ctx context.Context, userUID string, productID int) (*models.Subscription, error)
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// ReadSubscription возвращает подписку по ID.
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	// ReadSubscriptionInfo возвращает подписку по ID с развёрнутыми сводками.
	ReadSubscriptionInfo(ctx context.Context, id int) (*models.SubscriptionInfo, error)
	// UpdateSubscriptionStatus условно меняет статус и возвращает число изменённых строк.
	UpdateSubscriptionStatus(ctx context.Context, id int, expectedStatus, newStatus string, autoRenew *bool) (int, error)
	// UpdateSubscription частично обновляет подписку и возвращает число изменённых строк.
	UpdateSubscription(ctx context.Context, id int, upd models.DummySubscriptionUpdate) (int, error)
	// RemoveSubscription удаляет подписку и возвращает число удалённых строк.
	RemoveSubscription(ctx context.Context, id int) (int, error)
	// ListSubscriptionInfos возвращает все подписки со сводками.
	ListSubscriptionInfos(ctx context.Context) ([]*models.SubscriptionInfo, error)
	// ListSubscriptionInfosByUser возвращает подписки пользователя со сводками.
	ListSubscriptionInfosByUser(ctx context.Context, userUID string) ([]*models.SubscriptionInfo, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SubscriptionService реализует машину состояний подписки поверх хранилища.
//
// Переходы: create -> active; active -> paused (pause); paused -> active
// (resume); active|paused -> cancelled (cancel, принудительно снимает
// auto_renew). Статус expired присутствует в модели данных, но ни одна
// операция сервиса его не выставляет.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создает активную подписку для пары (пользователь, продукт).
// Дубликат не отменённой подписки возвращает apperr.ErrConflict — как при
// предварительной проверке, так и при проигрыше гонки вставки, которую
// решает уникальный индекс в базе.
//
// Даты окончания и следующего списания отсчитываются от текущего момента
// по типу плана; auto_renew по умолчанию включён.
func (s *SubscriptionService) Create(ctx context.Context, userUID string, req models.DummySubscription) (int, error) {
	const op = "services.subscription.Create"

	existing, err := s.repo.FindCurrentByUserAndProduct(ctx, userUID, req.ProductID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return 0, fmt.Errorf("%s: subscription already exists for this user and product: %w", op, apperr.ErrConflict)
	}

	now := time.Now().UTC()
	periodEnd, err := billing.PeriodEnd(req.PlanType, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, apperr.ErrBadRequest)
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	sub := models.Subscription{
		UserUID:         userUID,
		ProductID:       req.ProductID,
		Status:          models.StatusActive,
		PlanType:        req.PlanType,
		StartDate:       now,
		EndDate:         periodEnd,
		NextBillingDate: periodEnd,
		AutoRenew:       autoRenew,
		Price:           req.Price,
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created new subscription", slog.Int("id", id), slog.String("user_uid", userUID))
	return id, nil
}

// Pause переводит активную подписку в paused. Подписка в любом другом
// статусе возвращает apperr.ErrBadRequest; проигранная гонка смены
// статуса — apperr.ErrConflict.
func (s *SubscriptionService) Pause(ctx context.Context, id int) error {
	const op = "services.subscription.Pause"

	sub, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status != models.StatusActive {
		return fmt.Errorf("%s: only active subscriptions can be paused: %w", op, apperr.ErrBadRequest)
	}
	return s.transition(ctx, op, id, models.StatusActive, models.StatusPaused, nil)
}

// Resume возвращает приостановленную подписку в active.
func (s *SubscriptionService) Resume(ctx context.Context, id int) error {
	const op = "services.subscription.Resume"

	sub, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status != models.StatusPaused {
		return fmt.Errorf("%s: only paused subscriptions can be resumed: %w", op, apperr.ErrBadRequest)
	}
	return s.transition(ctx, op, id, models.StatusPaused, models.StatusActive, nil)
}

// Cancel отменяет подписку в любом не отменённом статусе и принудительно
// выключает auto_renew. Повторная отмена возвращает apperr.ErrBadRequest.
func (s *SubscriptionService) Cancel(ctx context.Context, id int) error {
	const op = "services.subscription.Cancel"

	sub, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status == models.StatusCancelled {
		return fmt.Errorf("%s: subscription is already cancelled: %w", op, apperr.ErrBadRequest)
	}
	autoRenew := false
	return s.transition(ctx, op, id, sub.Status, models.StatusCancelled, &autoRenew)
}

// Update частично обновляет подписку: nil-поля не изменяются. Значение
// статуса проверяется на принадлежность перечислению, через таблицу
// переходов прямая запись статуса не проходит.
func (s *SubscriptionService) Update(ctx context.Context, id int, req models.DummySubscriptionUpdate) error {
	const op = "services.subscription.Update"

	if req.Status != nil && !models.ValidStatus(*req.Status) {
		return fmt.Errorf("%s: invalid status %q: %w", op, *req.Status, apperr.ErrBadRequest)
	}
	if req.Price != nil && *req.Price < 0 {
		return fmt.Errorf("%s: price must not be negative: %w", op, apperr.ErrBadRequest)
	}

	count, err := s.repo.UpdateSubscription(ctx, id, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	s.invalidate(id)
	s.log.Info("updated subscription", slog.Int("id", id))
	return nil
}

// Read возвращает подписку по ID с развёрнутыми сводками, используя кеш
// или репозиторий. Отсутствие записи возвращает apperr.ErrNotFound.
func (s *SubscriptionService) Read(ctx context.Context, id int) (*models.SubscriptionInfo, error) {
	const op = "services.subscription.Read"

	var result *models.SubscriptionInfo
	cacheKey := cacheKey(id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ReadSubscriptionInfo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// List возвращает все подписки с развёрнутыми сводками.
func (s *SubscriptionService) List(ctx context.Context) ([]*models.SubscriptionInfo, error) {
	const op = "services.subscription.List"
	infos, err := s.repo.ListSubscriptionInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return infos, nil
}

// ListByUser возвращает подписки пользователя с развёрнутыми сводками.
func (s *SubscriptionService) ListByUser(ctx context.Context, userUID string) ([]*models.SubscriptionInfo, error) {
	const op = "services.subscription.ListByUser"
	infos, err := s.repo.ListSubscriptionInfosByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return infos, nil
}

// Remove удаляет подписку по ID и инвалидирует кеш.
func (s *SubscriptionService) Remove(ctx context.Context, id int) error {
	const op = "services.subscription.Remove"

	count, err := s.repo.RemoveSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	s.invalidate(id)
	s.log.Info("removed subscription", slog.Int("id", id))
	return nil
}

// transition выполняет условную смену статуса. Ноль изменённых строк
// после успешного чтения означает, что статус сменили конкурентно.
func (s *SubscriptionService) transition(ctx context.Context, op string, id int, expected, next string, autoRenew *bool) error {
	count, err := s.repo.UpdateSubscriptionStatus(ctx, id, expected, next, autoRenew)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: subscription status changed concurrently: %w", op, apperr.ErrConflict)
	}
	s.invalidate(id)
	s.log.Info("subscription status changed",
		slog.Int("id", id), slog.String("from", expected), slog.String("to", next))
	return nil
}

func (s *SubscriptionService) invalidate(id int) {
	key := cacheKey(id)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("subscription:%d", id)
}
