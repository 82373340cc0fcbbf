package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateToken создает JWT токен с claims {sub, email, name, token_type},
// подписывая его секретным ключом.
//
// Время жизни определяется разновидностью токена: accessTTL или refreshTTL.
func (j *MakerImpl) GenerateToken(uid, email, name, tokenType string) (string, error) {
	const op = "jwt.GenerateToken"

	var ttl time.Duration
	switch tokenType {
	case TokenTypeAccess:
		ttl = j.accessTTL
	case TokenTypeRefresh:
		ttl = j.refreshTTL
	default:
		return "", fmt.Errorf("%s: unknown token type %q", op, tokenType)
	}

	claims := CustomClaims{
		Email:     email,
		Name:      name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// Уникальный ID делает каждый выпущенный токен различимым:
			// два refresh-токена одного пользователя никогда не совпадают.
			ID:        uuid.NewString(),
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и срок действия,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
