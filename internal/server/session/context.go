package session

import (
	"context"

	"github.com/iudanet/logindash/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

// userKey ключ для хранения текущего пользователя в контексте
const userKey contextKey = "user"

// WithUser возвращает контекст с аутентифицированным пользователем
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser извлекает пользователя текущей сессии.
// false означает состояние Anonymous.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
