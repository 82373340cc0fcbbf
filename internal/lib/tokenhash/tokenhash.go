// Package tokenhash считает детерминированный отпечаток refresh-токена
// для хранения в базе данных.
//
// Используется SHA-256 в hex-кодировке: bcrypt здесь не подходит,
// потому что длина JWT превышает его предел в 72 байта. Кража хранилища
// не даёт пригодного токена — в базе лежит только отпечаток.
package tokenhash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash возвращает hex-представление SHA-256 отпечатка токена.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Compare проверяет, соответствует ли предъявленный токен сохранённому
// отпечатку. Сравнение выполняется за константное время.
func Compare(storedHex, token string) bool {
	expected, err := hex.DecodeString(storedHex)
	if err != nil || len(expected) != sha256.Size {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(expected, sum[:]) == 1
}
