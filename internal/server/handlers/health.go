package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/logindash/internal/server/storage"
	"github.com/iudanet/logindash/pkg/api"
)

// Pinger проверяет доступность БД
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseInfo описание БД для ответа health check
type DatabaseInfo struct {
	Driver string
	Target string // без учетных данных
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	db      Pinger
	info    DatabaseInfo
	version string
	timeout time.Duration
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger, info DatabaseInfo, version string, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		db:      db,
		info:    info,
		version: version,
		timeout: timeout,
	}
}

// Health обрабатывает GET /health.
// 200 если БД доступна, 503 если нет.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := api.HealthResponse{
		Status:  api.StatusOK,
		Version: h.version,
		Database: api.DatabaseHealth{
			Status: api.StatusOK,
			Driver: h.info.Driver,
			Target: h.info.Target,
		},
	}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check: database unreachable", slog.Any("error", err))

		resp.Status = api.StatusUnavailable
		resp.Database.Status = api.StatusUnavailable
		resp.Database.Error = "database unreachable"
		if !errors.Is(err, storage.ErrUnavailable) {
			resp.Database.Error = "database check failed"
		}
		statusCode = http.StatusServiceUnavailable
	}

	sendJSON(w, h.logger, resp, statusCode)
}

// sendJSON отправляет JSON ответ
func sendJSON(w http.ResponseWriter, logger *slog.Logger, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}
