// Package api описывает JSON ответы HTTP API сервера
package api

// Статусы health check
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// HealthResponse представляет ответ GET /health
type HealthResponse struct {
	Status   string         `json:"status"`   // ok или unavailable
	Version  string         `json:"version"`  // версия сборки
	Database DatabaseHealth `json:"database"` // состояние БД
}

// DatabaseHealth состояние подключения к БД
type DatabaseHealth struct {
	Status string `json:"status"`          // ok или unavailable
	Driver string `json:"driver"`          // sqlite или postgres
	Target string `json:"target"`          // host:port/db или путь к файлу, без учетных данных
	Error  string `json:"error,omitempty"` // краткая причина недоступности
}
