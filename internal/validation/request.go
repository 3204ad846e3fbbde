package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxUsernameLen максимальная длина username (в рунах)
	MaxUsernameLen = 80
	// MaxEmailLen максимальная длина email (в рунах)
	MaxEmailLen = 120
	// MaxPasswordLen верхняя граница длины пароля, защищает hasher от огромных входов
	MaxPasswordLen = 1024
)

// ErrInvalid базовая ошибка валидации, все FieldError оборачивают ее
var ErrInvalid = errors.New("validation failed")

// FieldError описывает ошибку конкретного поля формы
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrInvalid)
func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

func required(field string) error {
	return &FieldError{Field: field, Message: "is required"}
}

func invalidEncoding(field string) error {
	return &FieldError{Field: field, Message: "must be valid UTF-8 text"}
}

// RegisterRequest данные формы регистрации
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Validate проверяет обязательные поля (в порядке username, email, password) и их формат
func (r RegisterRequest) Validate() error {
	if r.Username == "" {
		return required("username")
	}
	if r.Email == "" {
		return required("email")
	}
	if r.Password == "" {
		return required("password")
	}
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

// LoginRequest данные формы входа
type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string // адрес клиента, заполняется на границе HTTP
	UserAgent string // User-Agent клиента
	Remember  bool   // долгоживущая сессия
}

// Validate проверяет наличие username и password.
// Формат не проверяется, чтобы не раскрывать правила через ответы на вход,
// отсекается только невалидный UTF-8, который хранилище не примет.
func (r LoginRequest) Validate() error {
	if r.Username == "" {
		return required("username")
	}
	if !utf8.ValidString(r.Username) {
		return invalidEncoding("username")
	}
	if r.Password == "" {
		return required("password")
	}
	if utf8.RuneCountInString(r.Password) > MaxPasswordLen {
		return &FieldError{Field: "password", Message: fmt.Sprintf("must not exceed %d characters", MaxPasswordLen)}
	}
	return nil
}

// ValidateUsername проверяет username: непустой, не длиннее MaxUsernameLen,
// без пробельных и управляющих символов
func ValidateUsername(username string) error {
	if username == "" {
		return required("username")
	}
	if !utf8.ValidString(username) {
		return invalidEncoding("username")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return &FieldError{Field: "username", Message: fmt.Sprintf("must not exceed %d characters", MaxUsernameLen)}
	}
	if strings.IndexFunc(username, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return &FieldError{Field: "username", Message: "must not contain spaces or control characters"}
	}
	return nil
}

// ValidateEmail проверяет, что email это одиночный адрес без display name
func ValidateEmail(email string) error {
	if email == "" {
		return required("email")
	}
	if !utf8.ValidString(email) {
		return invalidEncoding("email")
	}
	if utf8.RuneCountInString(email) > MaxEmailLen {
		return &FieldError{Field: "email", Message: fmt.Sprintf("must not exceed %d characters", MaxEmailLen)}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &FieldError{Field: "email", Message: "is not a valid email address"}
	}
	return nil
}

// ValidatePassword проверяет пароль при регистрации
func ValidatePassword(password string) error {
	if password == "" {
		return required("password")
	}
	if utf8.RuneCountInString(password) > MaxPasswordLen {
		return &FieldError{Field: "password", Message: fmt.Sprintf("must not exceed %d characters", MaxPasswordLen)}
	}
	return nil
}
