package auth

import (
	"errors"

	"github.com/iudanet/logindash/internal/server/storage"
	"github.com/iudanet/logindash/internal/validation"
)

// Ошибки потока аутентификации
var (
	// ErrDuplicateUsername username уже занят
	ErrDuplicateUsername = errors.New("username already registered")
	// ErrDuplicateEmail email уже занят
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials неизвестный пользователь или неверный пароль.
	// Оба случая намеренно неразличимы.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAuthenticationRequired операция требует активной сессии
	ErrAuthenticationRequired = errors.New("authentication required")
)

// Kind категория ошибки, по которой граница HTTP выбирает ответ
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindDuplicateUsername
	KindDuplicateEmail
	KindInvalidCredentials
	KindAuthenticationRequired
	KindResourceUnavailable
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindDuplicateUsername:
		return "duplicate_username"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindResourceUnavailable:
		return "resource_unavailable"
	default:
		return "internal"
	}
}

// KindOf классифицирует ошибку по цепочке обертывания.
// Все неизвестные ошибки считаются KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, validation.ErrInvalid):
		return KindValidation
	case errors.Is(err, ErrDuplicateUsername), errors.Is(err, storage.ErrUsernameTaken):
		return KindDuplicateUsername
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, storage.ErrEmailTaken):
		return KindDuplicateEmail
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrAuthenticationRequired):
		return KindAuthenticationRequired
	case errors.Is(err, storage.ErrUnavailable):
		return KindResourceUnavailable
	default:
		return KindInternal
	}
}
