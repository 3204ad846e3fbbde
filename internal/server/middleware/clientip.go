package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP возвращает IP адрес клиента для истории входов.
// Заголовки X-Forwarded-For и X-Real-IP учитываются только при trustProxy,
// иначе клиент может подставить в историю произвольный адрес.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Берем первый IP из списка (реальный клиент)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
