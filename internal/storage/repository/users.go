package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Email приводится к нижнему регистру и обрезается на стороне базы;
// дубликат email возвращает apperr.ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (name, email, password_hash)
			  VALUES ($1, lower(trim($2)), $3)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash).Scan(&newUID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: email already exists: %w", op, apperr.ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по email вместе с хэшами,
// которые обычно исключаются из выборок. Email сравнивается без учёта
// регистра и внешних пробелов.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, email, password_hash, refresh_token_hash, created_at
			  FROM users
			  WHERE email = lower(trim($1))`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUserByUID возвращает пользователя по его UID вместе с хэшами.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, email, password_hash, refresh_token_hash, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, uid), op)
}

// UpdateRefreshTokenHash атомарно заменяет отпечаток refresh-токена
// пользователя. nil очищает отпечаток (logout).
func (s *Storage) UpdateRefreshTokenHash(ctx context.Context, uid string, hash *string) error {
	const op = "storage.UpdateRefreshTokenHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET refresh_token_hash = $1
			  WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, hash, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var refreshTokenHash sql.NullString
	if err := row.Scan(&u.UID, &u.Name, &u.Email, &u.PasswordHash,
		&refreshTokenHash, &u.CreatedAt); err != nil {
		return nil, wrapNoRows(op, err)
	}
	if refreshTokenHash.Valid {
		u.RefreshTokenHash = &refreshTokenHash.String
	}
	return u, nil
}
