// Package jwt реализует выпуск и парсинг JWT токенов с пользовательскими claim полями.
//
// Сервис выпускает две разновидности токена: короткоживущий access и
// долгоживущий refresh. Обе подписываются одним секретным ключом,
// различаются полем token_type и временем жизни.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Разновидности токена, записываемые в claim token_type.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
// Subject стандартных claims содержит UID пользователя.
type CustomClaims struct {
	Email                string `json:"email"`      // Электронная почта пользователя
	Name                 string `json:"name"`       // Отображаемое имя
	TokenType            string `json:"token_type"` // access или refresh
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс для выпуска и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен заданной разновидности для пользователя.
	GenerateToken(uid, email, name, tokenType string) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен и не просрочен.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и раздельных TTL для access и refresh токенов.
type MakerImpl struct {
	secretKey  string        // Секретный ключ для подписи токенов.
	accessTTL  time.Duration // Время жизни access токена.
	refreshTTL time.Duration // Время жизни refresh токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}
