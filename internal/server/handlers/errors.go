package handlers

import (
	"errors"
	"net/http"

	"github.com/iudanet/logindash/internal/server/auth"
	"github.com/iudanet/logindash/internal/validation"
)

// Сообщения для пользователя. Подробности ошибок попадают только в логи.
const (
	msgDuplicateUsername  = "That username is already taken."
	msgDuplicateEmail     = "That email address is already registered."
	msgInvalidCredentials = "Invalid username or password."
	msgUnavailable        = "The service is temporarily unavailable. Please try again shortly."
	msgInternal           = "Something went wrong. Please try again later."
	msgBadForm            = "The submitted form could not be read."
)

// statusFor отображает категорию ошибки в HTTP статус
func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindNone:
		return http.StatusOK
	case auth.KindValidation:
		return http.StatusBadRequest
	case auth.KindDuplicateUsername, auth.KindDuplicateEmail:
		return http.StatusConflict
	case auth.KindInvalidCredentials, auth.KindAuthenticationRequired:
		return http.StatusUnauthorized
	case auth.KindResourceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor возвращает безопасное для показа сообщение об ошибке
func messageFor(err error) string {
	switch auth.KindOf(err) {
	case auth.KindValidation:
		var fieldErr *validation.FieldError
		if errors.As(err, &fieldErr) {
			return fieldErr.Error()
		}
		return msgBadForm
	case auth.KindDuplicateUsername:
		return msgDuplicateUsername
	case auth.KindDuplicateEmail:
		return msgDuplicateEmail
	case auth.KindInvalidCredentials:
		return msgInvalidCredentials
	case auth.KindResourceUnavailable:
		return msgUnavailable
	default:
		return msgInternal
	}
}
