package handlers

import (
	"net/url"
	"strings"
)

// DefaultAfterLogin страница после входа, если next не задан или не прошел проверку
const DefaultAfterLogin = "/dashboard"

// SafeNext возвращает next, если это локальный абсолютный путь этого сайта.
// Адреса с схемой или хостом, protocol-relative (//host) и /\host
// заменяются на DefaultAfterLogin.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return DefaultAfterLogin
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DefaultAfterLogin
	}
	if strings.ContainsAny(next, "\r\n\t") {
		return DefaultAfterLogin
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultAfterLogin
	}
	return next
}

// AfterLogin возвращает адрес редиректа после успешного входа.
// Дашборд по умолчанию открывается с сообщением об успешном входе,
// явный next возвращается без изменений.
func AfterLogin(next string) string {
	target := SafeNext(next)
	if target == DefaultAfterLogin {
		return DefaultAfterLogin + "?status=" + StatusLoggedIn
	}
	return target
}
