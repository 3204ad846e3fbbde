package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/logindash/internal/logging"
	"github.com/iudanet/logindash/internal/server/auth"
	"github.com/iudanet/logindash/internal/server/middleware"
	"github.com/iudanet/logindash/internal/server/session"
	"github.com/iudanet/logindash/internal/validation"
)

// Статусы, передаваемые через ?status= после редиректа
const (
	StatusRegistered = "registered"
	StatusLoggedOut  = "logged_out"
	StatusLoggedIn   = "logged_in"
)

var statusFlashes = map[string]Flash{
	StatusRegistered: {Category: "success", Message: "Registration complete. Please log in."},
	StatusLoggedOut:  {Category: "info", Message: "You have been logged out."},
	StatusLoggedIn:   {Category: "success", Message: "Logged in successfully."},
}

// statusFlash возвращает сообщение для ?status= запроса
func statusFlash(r *http.Request) *Flash {
	flash, ok := statusFlashes[r.URL.Query().Get("status")]
	if !ok {
		return nil
	}
	return &flash
}

// AuthHandler обрабатывает регистрацию, вход и выход
type AuthHandler struct {
	logger     *slog.Logger
	auth       *auth.Service
	sessions   *session.Manager
	pages      *Pages
	trustProxy bool
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, authService *auth.Service, sessions *session.Manager, pages *Pages, trustProxy bool) *AuthHandler {
	return &AuthHandler{
		logger:     logger,
		auth:       authService,
		sessions:   sessions,
		pages:      pages,
		trustProxy: trustProxy,
	}
}

// Index обрабатывает GET /
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.CurrentUser(r.Context()); ok {
		http.Redirect(w, r, DefaultAfterLogin, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginPage обрабатывает GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectAuthenticated(w, r) {
		return
	}

	data := PageData{
		Title: "Log in",
		Next:  r.URL.Query().Get("next"),
	}
	data.Flash = statusFlash(r)
	h.render(w, r, http.StatusOK, "login.html", data)
}

// Login обрабатывает POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.redirectAuthenticated(w, r) {
		return
	}

	data := PageData{Title: "Log in"}
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse login form", slog.Any("error", err))
		data.Flash = &Flash{Category: "danger", Message: msgBadForm}
		h.render(w, r, http.StatusBadRequest, "login.html", data)
		return
	}

	req := validation.LoginRequest{
		Username:  strings.TrimSpace(r.PostForm.Get("username")),
		Password:  r.PostForm.Get("password"),
		IPAddress: middleware.ClientIP(r, h.trustProxy),
		UserAgent: r.UserAgent(),
		Remember:  isChecked(r.PostForm.Get("remember")),
	}
	// next может прийти из query (/login?next=...) или из скрытого поля формы
	data.Next = r.Form.Get("next")
	data.Username = req.Username
	data.Remember = req.Remember

	user, err := h.auth.Login(ctx, req)
	if err != nil {
		h.renderError(w, r, "login.html", data, err)
		return
	}

	if err := h.sessions.Establish(w, user, req.Remember); err != nil {
		logging.LogError(h.logger, "failed to establish session", err, slog.String("user_id", user.ID))
		data.Flash = &Flash{Category: "danger", Message: msgInternal}
		h.render(w, r, http.StatusInternalServerError, "login.html", data)
		return
	}

	http.Redirect(w, r, AfterLogin(data.Next), http.StatusFound)
}

// RegisterPage обрабатывает GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectAuthenticated(w, r) {
		return
	}
	h.render(w, r, http.StatusOK, "register.html", PageData{Title: "Register"})
}

// Register обрабатывает POST /register.
// Успешная регистрация не создает сессию.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.redirectAuthenticated(w, r) {
		return
	}

	data := PageData{Title: "Register"}
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse register form", slog.Any("error", err))
		data.Flash = &Flash{Category: "danger", Message: msgBadForm}
		h.render(w, r, http.StatusBadRequest, "register.html", data)
		return
	}

	req := validation.RegisterRequest{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	data.Username = req.Username
	data.Email = req.Email

	if _, err := h.auth.Register(ctx, req); err != nil {
		h.renderError(w, r, "register.html", data, err)
		return
	}

	http.Redirect(w, r, "/login?status="+StatusRegistered, http.StatusFound)
}

// LogoutPage обрабатывает GET /logout: только страница подтверждения, сессия не меняется
func (h *AuthHandler) LogoutPage(w http.ResponseWriter, r *http.Request) {
	user, _ := session.CurrentUser(r.Context())
	h.render(w, r, http.StatusOK, "logout.html", PageData{Title: "Log out", User: user})
}

// LogoutConfirm обрабатывает POST /logout/confirm и завершает сессию
func (h *AuthHandler) LogoutConfirm(w http.ResponseWriter, r *http.Request) {
	if user, ok := session.CurrentUser(r.Context()); ok {
		h.logger.InfoContext(r.Context(), "user logged out",
			slog.String("user_id", user.ID),
			slog.String("username", user.Username))
	}
	h.sessions.Terminate(w)
	http.Redirect(w, r, "/login?status="+StatusLoggedOut, http.StatusFound)
}

// redirectAuthenticated отправляет уже вошедшего пользователя на дашборд
func (h *AuthHandler) redirectAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := session.CurrentUser(r.Context()); ok {
		http.Redirect(w, r, DefaultAfterLogin, http.StatusFound)
		return true
	}
	return false
}

// renderError показывает форму повторно с сообщением и статусом по категории ошибки
func (h *AuthHandler) renderError(w http.ResponseWriter, r *http.Request, page string, data PageData, err error) {
	kind := auth.KindOf(err)
	switch kind {
	case auth.KindResourceUnavailable, auth.KindInternal:
		logging.LogError(h.logger, "request failed", err,
			slog.String("path", r.URL.Path),
			slog.String("kind", kind.String()))
	default:
		h.logger.InfoContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.String("kind", kind.String()))
	}

	data.Flash = &Flash{Category: "danger", Message: messageFor(err)}
	h.render(w, r, statusFor(kind), page, data)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	if err := h.pages.Render(w, status, page, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// isChecked интерпретирует значение checkbox
func isChecked(value string) bool {
	switch strings.ToLower(value) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
