package models

import (
	"strings"
	"time"
)

const (
	// MaxUserAgentLen максимальная длина сохраняемого User-Agent (в рунах)
	MaxUserAgentLen = 256
	// MaxIPAddressLen максимальная длина IP адреса (текстовый IPv6)
	MaxIPAddressLen = 45
)

// User представляет зарегистрированного пользователя
type User struct {
	LastLogin    *time.Time `json:"last_login,omitempty"` // время последнего успешного входа
	CreatedAt    time.Time  `json:"created_at"`           // время регистрации
	ID           string     `json:"id"`                   // UUID пользователя
	Username     string     `json:"username"`             // уникальный username
	Email        string     `json:"email"`                // уникальный email
	PasswordHash string     `json:"-"`                    // argon2id (или legacy bcrypt) хеш пароля
}

// LoginHistory представляет запись об успешном входе пользователя.
// Запись неизменяема после создания.
type LoginHistory struct {
	LoginTime time.Time `json:"login_time"` // время входа (UTC)
	ID        string    `json:"id"`         // UUID записи
	UserID    string    `json:"user_id"`    // ID пользователя
	IPAddress string    `json:"ip_address"` // IP адрес клиента
	UserAgent string    `json:"user_agent"` // User-Agent клиента (усеченный)
}

// NewLoginHistory создает запись о входе, приводя IP и User-Agent к валидному UTF-8
// и усекая их до допустимой длины
func NewLoginHistory(id, userID, ipAddress, userAgent string, loginTime time.Time) *LoginHistory {
	return &LoginHistory{
		ID:        id,
		UserID:    userID,
		IPAddress: truncateRunes(ipAddress, MaxIPAddressLen),
		UserAgent: truncateRunes(userAgent, MaxUserAgentLen),
		LoginTime: loginTime.UTC(),
	}
}

// truncateRunes обрезает строку до max рун, не разрывая UTF-8 последовательности.
// Невалидные байты заменяются на U+FFFD: заголовки HTTP могут содержать любые байты,
// а PostgreSQL не принимает невалидный UTF-8 в text колонках.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	s = strings.ToValidUTF8(s, "\uFFFD")
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
