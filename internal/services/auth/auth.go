// Package services содержит бизнес-логику аутентификации и жизненного
// цикла токенов: регистрацию, вход, ротацию refresh-токена и выход.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-manager/internal/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/password"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/tokenhash"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по email вместе с хэшами.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByUID возвращает пользователя по UID вместе с хэшами.
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	// UpdateRefreshTokenHash заменяет отпечаток refresh-токена; nil очищает его.
	UpdateRefreshTokenHash(ctx context.Context, uid string, hash *string) error
}

// AuthResult — пара токенов и публичная проекция пользователя,
// возвращаемые операциями входа, регистрации и ротации.
type AuthResult struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	User         models.PublicUser `json:"user"`
}

// AuthService отвечает за регистрацию, авторизацию, ротацию refresh-токенов
// и валидацию access-токенов.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля и сразу
// выпускает пару токенов, как при входе. Дубликат email возвращает
// apperr.ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*AuthResult, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: hashed,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid

	s.log.Info("registered new user", slog.String("uid", uid))
	return s.issueTokens(ctx, op, &user)
}

// Login проверяет пароль пользователя и выпускает пару токенов.
// Неизвестный email и неверный пароль неразличимы для вызывающего:
// оба случая возвращают apperr.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*AuthResult, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}
	return s.issueTokens(ctx, op, user)
}

// Refresh проверяет предъявленный refresh-токен и выпускает новую пару,
// ротируя сохранённый отпечаток. Любой сбой проверки — битая подпись,
// просроченный токен, отсутствие сохранённого отпечатка, несовпадение
// с ним (повтор уже ротированного токена) — схлопывается в один и тот же
// apperr.ErrUnauthorized, чтобы не раскрывать, какой шаг не прошёл.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	const op = "services.auth.Refresh"

	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	user, err := s.users.GetUserByUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.RefreshTokenHash == nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}
	if !tokenhash.Compare(*user.RefreshTokenHash, refreshToken) {
		s.log.Warn("refresh token reuse detected", slog.String("uid", user.UID))
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}
	return s.issueTokens(ctx, op, user)
}

// Logout очищает сохранённый отпечаток refresh-токена, безусловно
// отзывая все будущие попытки ротации для пользователя.
func (s *AuthService) Logout(ctx context.Context, uid string) error {
	const op = "services.auth.Logout"
	if err := s.users.UpdateRefreshTokenHash(ctx, uid, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user logged out", slog.String("uid", uid))
	return nil
}

// ValidateToken проверяет access-токен и возвращает пользователя,
// на которого он выпущен. Используется middleware аутентификации.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil || claims.TokenType != jwt.TokenTypeAccess {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}
	user, err := s.users.GetUserByUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// issueTokens выпускает пару access+refresh и сохраняет отпечаток нового
// refresh-токена, перезаписывая предыдущий. Перезапись отзывает все ранее
// выпущенные refresh-токены пользователя: действующий токен всегда один.
func (s *AuthService) issueTokens(ctx context.Context, op string, user *models.User) (*AuthResult, error) {
	access, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Name, jwt.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Name, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash := tokenhash.Hash(refresh)
	if err := s.users.UpdateRefreshTokenHash(ctx, user.UID, &hash); err != nil {
		s.log.Error("failed to rotate refresh token hash", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Public(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
