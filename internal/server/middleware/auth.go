package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/iudanet/logindash/internal/server/session"
	"github.com/iudanet/logindash/internal/server/storage"
)

// LoadIdentity создает middleware, которое восстанавливает пользователя по cookie сессии
// и кладет его в контекст запроса. Без действительной сессии запрос
// продолжается анонимным. Токен удаленного пользователя очищается.
func LoadIdentity(logger *slog.Logger, sessions *session.Manager, users storage.UserStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, err := sessions.Identity(r)
			if err != nil {
				if _, cookieErr := r.Cookie(sessions.CookieName()); cookieErr == nil {
					// Cookie есть, но токен поврежден или истек
					logger.DebugContext(ctx, "discarding invalid session", slog.Any("error", err))
					sessions.Terminate(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(ctx, claims.UserID)
			switch {
			case err == nil:
				logger.DebugContext(ctx, "user authenticated",
					slog.String("user_id", user.ID),
					slog.String("username", user.Username))
				next.ServeHTTP(w, r.WithContext(session.WithUser(ctx, user)))
			case errors.Is(err, storage.ErrUserNotFound):
				logger.WarnContext(ctx, "session refers to unknown user", slog.String("user_id", claims.UserID))
				sessions.Terminate(w)
				next.ServeHTTP(w, r)
			case errors.Is(err, storage.ErrUnavailable):
				logger.ErrorContext(ctx, "failed to load session user", slog.Any("error", err))
				http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			default:
				logger.ErrorContext(ctx, "failed to load session user", slog.Any("error", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		})
	}
}

// RequireAuth пропускает только аутентифицированные запросы.
// Анонимный клиент перенаправляется на /login, для GET запросов
// с исходным адресом в next.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := session.CurrentUser(r.Context()); !ok {
				logger.DebugContext(r.Context(), "authentication required", slog.String("path", r.URL.Path))
				returnTo := ""
				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					returnTo = r.URL.RequestURI()
				}
				http.Redirect(w, r, LoginURL(returnTo), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL строит адрес страницы входа с возвратом на next
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?" + url.Values{"next": {next}}.Encode()
}
