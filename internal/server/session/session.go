// Package session управляет сессией аутентифицированного пользователя.
//
// Сессия не хранится в БД: это JWT (HS256), подписанный секретом приложения
// и переданный клиенту в HttpOnly cookie. Обычная сессия живет до закрытия
// браузера (cookie без Expires), "remember" сессия переживает перезапуск
// клиента (cookie с Max-Age).
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iudanet/logindash/internal/models"
)

const (
	// DefaultCookieName имя cookie сессии
	DefaultCookieName = "logindash_session"
	// Issuer значение iss в токене
	Issuer = "logindash"
)

// ErrNoSession означает, что в запросе нет действительной сессии
var ErrNoSession = errors.New("no active session")

// Config содержит параметры сессий
type Config struct {
	Secret      []byte
	CookieName  string
	SessionTTL  time.Duration // срок жизни токена обычной сессии
	RememberTTL time.Duration // срок жизни токена и cookie "remember" сессии
	Secure      bool          // cookie только по HTTPS
}

// Claims представляет JWT claims сессии
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Remember bool   `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

// Manager выдает, проверяет и завершает сессии
type Manager struct {
	now func() time.Time
	cfg Config
}

// NewManager создает менеджер сессий
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = 30 * 24 * time.Hour
	}

	return &Manager{cfg: cfg, now: time.Now}, nil
}

// Establish переводит клиента в состояние Authenticated: выдает токен и ставит cookie
func (m *Manager) Establish(w http.ResponseWriter, user *models.User, remember bool) error {
	ttl := m.cfg.SessionTTL
	if remember {
		ttl = m.cfg.RememberTTL
	}

	token, err := m.issue(user, remember, ttl)
	if err != nil {
		return err
	}

	cookie := m.baseCookie(token)
	if remember {
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = m.now().Add(ttl)
	}
	http.SetCookie(w, cookie)

	return nil
}

// Terminate переводит клиента в состояние Anonymous, удаляя cookie сессии
func (m *Manager) Terminate(w http.ResponseWriter) {
	cookie := m.baseCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

// Identity возвращает claims текущей сессии.
// ErrNoSession если cookie нет, токен поврежден, подписан другим ключом или истек.
func (m *Manager) Identity(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := m.parse(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	return claims, nil
}

// CookieName возвращает имя cookie сессии
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

func (m *Manager) baseCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// issue создает подписанный токен сессии
func (m *Manager) issue(user *models.User, remember bool, ttl time.Duration) (string, error) {
	now := m.now()

	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// parse валидирует подпись, алгоритм, издателя и срок действия токена
func (m *Manager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
