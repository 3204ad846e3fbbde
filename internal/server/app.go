// Package server собирает приложение: хранилище, сервисы, HTTP маршруты
// и жизненный цикл http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/logindash/internal/config"
	"github.com/iudanet/logindash/internal/crypto"
	"github.com/iudanet/logindash/internal/server/auth"
	"github.com/iudanet/logindash/internal/server/handlers"
	"github.com/iudanet/logindash/internal/server/middleware"
	"github.com/iudanet/logindash/internal/server/session"
	"github.com/iudanet/logindash/internal/server/storage"
	"github.com/iudanet/logindash/internal/server/storage/sqldb"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// App контекст приложения: все зависимости, которые раньше были бы глобальными
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sqldb.Storage
	sessions *session.Manager
	auth     *auth.Service
	pages    *handlers.Pages
	version  string
}

// Option настраивает App
type Option func(*appOptions)

type appOptions struct {
	hasher crypto.PasswordHasher
}

// WithPasswordHasher подменяет hasher паролей (тесты используют дешевые параметры)
func WithPasswordHasher(h crypto.PasswordHasher) Option {
	return func(o *appOptions) {
		o.hasher = h
	}
}

// NewApp открывает хранилище и собирает сервисы. PostgreSQL подключается лениво,
// поэтому недоступная БД не мешает запуску.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string, opts ...Option) (*App, error) {
	o := appOptions{hasher: crypto.NewArgon2idHasher()}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := sqldb.New(ctx, sqldb.Options{
		URL:            cfg.Database.URL,
		PoolSize:       cfg.Database.PoolSize,
		PoolRecycle:    cfg.Database.PoolRecycle,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	sessions, err := session.NewManager(session.Config{
		Secret:      []byte(cfg.SecretKey),
		SessionTTL:  cfg.Session.TTL,
		RememberTTL: cfg.Session.RememberTTL,
		Secure:      cfg.Session.CookieSecure,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	pages, err := handlers.NewPages()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("storage configured",
		slog.String("driver", string(store.Target().Dialect)),
		slog.String("target", store.Target().Description))

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
		auth:     auth.NewService(store, o.hasher, logger),
		pages:    pages,
		version:  version,
	}, nil
}

// Auth возвращает сервис аутентификации
func (a *App) Auth() *auth.Service {
	return a.auth
}

// Store возвращает хранилище
func (a *App) Store() *sqldb.Storage {
	return a.store
}

// Close освобождает пул соединений
func (a *App) Close() error {
	return a.store.Close()
}

// InitSchema применяет миграции. Недоступная БД повторяется с экспоненциальной
// задержкой не более attempts раз, остальные ошибки возвращаются сразу.
func (a *App) InitSchema(ctx context.Context, attempts uint64) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		applied, err := a.store.Migrate(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrUnavailable) {
				a.logger.Warn("database not reachable, retrying schema init", slog.Any("error", err))
				return retry.RetryableError(err)
			}
			return err
		}
		a.logger.Info("database schema ready", slog.Int("applied", applied))
		return nil
	})
}

// Handler собирает маршруты и middleware
func (a *App) Handler() http.Handler {
	authHandler := handlers.NewAuthHandler(a.logger, a.auth, a.sessions, a.pages, a.cfg.TrustProxyHeaders)
	dashboardHandler := handlers.NewDashboardHandler(a.logger, a.auth, a.pages)
	healthHandler := handlers.NewHealthHandler(a.logger, a.store, handlers.DatabaseInfo{
		Driver: string(a.store.Target().Dialect),
		Target: a.store.Target().Description,
	}, a.version, a.cfg.Database.ConnectTimeout)

	requireAuth := middleware.RequireAuth(a.logger)

	pages := http.NewServeMux()
	pages.HandleFunc("GET /{$}", authHandler.Index)
	pages.HandleFunc("GET /login", authHandler.LoginPage)
	pages.HandleFunc("POST /login", authHandler.Login)
	pages.HandleFunc("GET /register", authHandler.RegisterPage)
	pages.HandleFunc("POST /register", authHandler.Register)
	pages.Handle("GET /logout", requireAuth(http.HandlerFunc(authHandler.LogoutPage)))
	pages.Handle("POST /logout/confirm", requireAuth(http.HandlerFunc(authHandler.LogoutConfirm)))
	pages.Handle("GET /dashboard", requireAuth(http.HandlerFunc(dashboardHandler.Dashboard)))

	mux := http.NewServeMux()
	// health check не зависит от сессии и не должен ходить в БД за пользователем
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("/", middleware.LoadIdentity(a.logger, a.sessions, a.store)(pages))

	var handler http.Handler = mux
	handler = middleware.Recoverer(a.logger)(handler)
	handler = middleware.RequestLogger(a.logger, "/health")(handler)
	return handler
}

// Run запускает HTTP сервер и останавливает его при отмене ctx
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", slog.String("addr", srv.Addr), slog.String("version", a.version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
