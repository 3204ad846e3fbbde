package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/logindash/internal/logging"
	"github.com/iudanet/logindash/internal/server/auth"
	"github.com/iudanet/logindash/internal/server/middleware"
	"github.com/iudanet/logindash/internal/server/session"
)

// DashboardHandler показывает последние входы пользователя
type DashboardHandler struct {
	logger *slog.Logger
	auth   *auth.Service
	pages  *Pages
}

// NewDashboardHandler создает handler дашборда
func NewDashboardHandler(logger *slog.Logger, authService *auth.Service, pages *Pages) *DashboardHandler {
	return &DashboardHandler{
		logger: logger,
		auth:   authService,
		pages:  pages,
	}
}

// Dashboard обрабатывает GET /dashboard (требует сессию)
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := session.CurrentUser(ctx)
	if !ok {
		http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusFound)
		return
	}

	history, err := h.auth.RecentLogins(ctx, user.ID)
	if err != nil {
		kind := auth.KindOf(err)
		logging.LogError(h.logger, "failed to load login history", err, slog.String("user_id", user.ID))

		status := statusFor(kind)
		title := "Service unavailable"
		if status != http.StatusServiceUnavailable {
			title = "Internal Server Error"
		}
		h.render(w, r, status, "error.html", PageData{
			Title: title,
			User:  user,
			Flash: &Flash{Category: "danger", Message: messageFor(err)},
		})
		return
	}

	h.render(w, r, http.StatusOK, "dashboard.html", PageData{
		Title:   "Dashboard",
		User:    user,
		Flash:   statusFlash(r),
		History: history,
	})
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	if err := h.pages.Render(w, status, page, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
