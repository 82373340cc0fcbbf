package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// FindCurrentByUserAndProduct возвращает не отменённую подписку на пару
// (пользователь, продукт) или nil, если такой нет. Проверка перед созданием
// — оптимизация; источником истины служит частичный уникальный индекс.
func (s *Storage) FindCurrentByUserAndProduct(ctx context.Context, userUID string, productID int) (*models.Subscription, error) {
	const op = "storage.FindCurrentByUserAndProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, product_id, status, plan_type, start_date,
			      end_date, next_billing_date, auto_renew, price, created_at
			  FROM subscriptions
			  WHERE user_uid = $1 AND product_id = $2 AND status <> 'cancelled'
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CreateSubscription вставляет новую подписку и возвращает её ID.
// Конкурирующая вставка для той же пары пользователь/продукт упирается
// в частичный уникальный индекс и возвращает apperr.ErrConflict.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, product_id, status, plan_type,
			      start_date, end_date, next_billing_date, auto_renew, price)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.ProductID, sub.Status, sub.PlanType, sub.StartDate,
		sub.EndDate, sub.NextBillingDate, sub.AutoRenew, sub.Price).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: subscription already exists for this user and product: %w", op, apperr.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%s: unknown user or product: %w", op, apperr.ErrBadRequest)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadSubscription возвращает подписку по её ID.
func (s *Storage) ReadSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.ReadSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, product_id, status, plan_type, start_date,
			      end_date, next_billing_date, auto_renew, price, created_at
			  FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapNoRows(op, err)
	}
	return sub, nil
}

// ReadSubscriptionInfo возвращает подписку по ID с развёрнутой сводкой
// о пользователе и продукте вместо внешних ключей.
func (s *Storage) ReadSubscriptionInfo(ctx context.Context, id int) (*models.SubscriptionInfo, error) {
	const op = "storage.ReadSubscriptionInfo"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := subscriptionInfoQuery + ` WHERE s.id = $1`
	info := &models.SubscriptionInfo{}
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&info.ID, &info.Status, &info.PlanType, &info.StartDate,
		&info.EndDate, &info.NextBillingDate, &info.AutoRenew, &info.Price,
		&info.UserName, &info.UserEmail, &info.ProductName, &info.ProductPrice); err != nil {
		return nil, wrapNoRows(op, err)
	}
	return info, nil
}

// UpdateSubscriptionStatus выполняет условную смену статуса: строка
// меняется только если текущий статус равен expectedStatus. Возвращает
// количество изменённых строк; 0 означает проигранную гонку перехода
// или отсутствие записи — это различает вызывающая сторона.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id int, expectedStatus, newStatus string, autoRenew *bool) (int, error) {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1,
			      auto_renew = COALESCE($2, auto_renew)
			  WHERE id = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query, newStatus, autoRenew, id, expectedStatus)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateSubscription частично обновляет подписку: nil-поля не изменяются.
// Возвращает количество изменённых строк.
func (s *Storage) UpdateSubscription(ctx context.Context, id int, upd models.DummySubscriptionUpdate) (int, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = COALESCE($1, status),
			      auto_renew = COALESCE($2, auto_renew),
			      price = COALESCE($3, price)
			  WHERE id = $4`
	result, err := s.DB.ExecContext(ctx, query, upd.Status, upd.AutoRenew, upd.Price, id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, apperr.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSubscription удаляет подписку по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveSubscription(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscriptions WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListSubscriptionInfos возвращает все подписки с развёрнутыми сводками.
func (s *Storage) ListSubscriptionInfos(ctx context.Context) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ListSubscriptionInfos"
	return s.listSubscriptionInfos(ctx, op, subscriptionInfoQuery+` ORDER BY s.id`)
}

// ListSubscriptionInfosByUser возвращает подписки одного пользователя
// с развёрнутыми сводками.
func (s *Storage) ListSubscriptionInfosByUser(ctx context.Context, userUID string) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ListSubscriptionInfosByUser"
	return s.listSubscriptionInfos(ctx, op,
		subscriptionInfoQuery+` WHERE s.user_uid = $1 ORDER BY s.id`, userUID)
}

const subscriptionInfoQuery = `SELECT s.id, s.status, s.plan_type, s.start_date,
		  s.end_date, s.next_billing_date, s.auto_renew, s.price,
		  u.name, u.email, p.name, p.price
	  FROM subscriptions s
	  JOIN users u ON u.uid = s.user_uid
	  JOIN products p ON p.id = s.product_id`

func (s *Storage) listSubscriptionInfos(ctx context.Context, op, query string, args ...any) ([]*models.SubscriptionInfo, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionInfo
	for rows.Next() {
		var info models.SubscriptionInfo
		if err = rows.Scan(&info.ID, &info.Status, &info.PlanType, &info.StartDate,
			&info.EndDate, &info.NextBillingDate, &info.AutoRenew, &info.Price,
			&info.UserName, &info.UserEmail, &info.ProductName, &info.ProductPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &info)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscription(row *sql.Row) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.ProductID, &sub.Status,
		&sub.PlanType, &sub.StartDate, &sub.EndDate, &sub.NextBillingDate,
		&sub.AutoRenew, &sub.Price, &sub.CreatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}
