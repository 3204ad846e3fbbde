// Package auth реализует поток аутентификации: регистрацию, вход
// с записью в историю входов и выборку последних входов.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/iudanet/logindash/internal/crypto"
	"github.com/iudanet/logindash/internal/models"
	"github.com/iudanet/logindash/internal/server/storage"
	"github.com/iudanet/logindash/internal/validation"
)

// RecentLoginsLimit количество записей истории на дашборде
const RecentLoginsLimit = 5

// fallbackDummyHash используется, если hasher не смог построить собственный dummy хеш.
// Это не учетные данные: хеш не совпадает ни с одним паролем.
//
//nolint:gosec // G101: fake hash
const fallbackDummyHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service выполняет операции аутентификации
type Service struct {
	store     storage.Store
	hasher    crypto.PasswordHasher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	dummyHash string
}

// Option настраивает Service
type Option func(*Service)

// WithClock задает источник времени для отметок входа
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создает сервис аутентификации
func NewService(store storage.Store, hasher crypto.PasswordHasher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash = s.buildDummyHash()
	return s
}

// Register создает пользователя. Сессия не устанавливается.
func (s *Service) Register(ctx context.Context, req validation.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := ensureAbsent(tx.GetUserByUsername(ctx, req.Username)); err != nil {
			if errors.Is(err, errExists) {
				return ErrDuplicateUsername
			}
			return err
		}
		if err := ensureAbsent(tx.GetUserByEmail(ctx, req.Email)); err != nil {
			if errors.Is(err, errExists) {
				return ErrDuplicateEmail
			}
			return err
		}

		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}

		user = &models.User{
			ID:           s.newID(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			CreatedAt:    s.now().UTC(),
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		// Нарушение уникальности из параллельной регистрации приходит из хранилища
		// и отображается в те же ошибки, что и явная проверка
		switch KindOf(err) {
		case KindDuplicateUsername:
			s.logger.WarnContext(ctx, "username already taken", slog.String("username", req.Username))
			return nil, ErrDuplicateUsername
		case KindDuplicateEmail:
			s.logger.WarnContext(ctx, "email already taken", slog.String("username", req.Username))
			return nil, ErrDuplicateEmail
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "register user").
			With("username", req.Username).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return user, nil
}

// Login проверяет учетные данные и фиксирует успешный вход.
// Неизвестный пользователь и неверный пароль дают одинаковую ошибку
// ErrInvalidCredentials за сопоставимое время.
func (s *Service) Login(ctx context.Context, req validation.LoginRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, lookupErr := s.store.GetUserByUsername(ctx, req.Username)

	var targetHash string
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, storage.ErrUserNotFound):
		targetHash = s.dummyHash
	default:
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	// Проверка выполняется всегда, в том числе против dummy хеша
	valid, verifyErr := s.hasher.Verify(req.Password, targetHash)
	if verifyErr != nil && userExists {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		s.logger.WarnContext(ctx, "login failed", slog.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	loginTime := s.now().UTC()
	entry := models.NewLoginHistory(s.newID(), user.ID, req.IPAddress, req.UserAgent, loginTime)

	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.UpdateLastLogin(ctx, user.ID, loginTime); err != nil {
			return err
		}
		return tx.RecordLogin(ctx, entry)
	})
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "record login").
			With("user_id", user.ID).
			Wrap(err)
	}
	user.LastLogin = &loginTime

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Bool("remember", req.Remember))

	return user, nil
}

// RecentLogins возвращает последние RecentLoginsLimit входов пользователя, новые первыми
func (s *Service) RecentLogins(ctx context.Context, userID string) ([]*models.LoginHistory, error) {
	entries, err := s.store.ListRecentLogins(ctx, userID, RecentLoginsLimit)
	if err != nil {
		return nil, oops.Code("AUTH_HISTORY_FAILED").
			With("operation", "list recent logins").
			With("user_id", userID).
			Wrap(err)
	}
	return entries, nil
}

// buildDummyHash строит хеш с параметрами текущего hasher, чтобы проверка
// для несуществующего пользователя стоила столько же, сколько настоящая.
// Хеш строится при создании сервиса, а не при первом входе.
func (s *Service) buildDummyHash() string {
	hash, err := s.hasher.Hash(uuid.New().String())
	if err != nil {
		s.logger.Warn("failed to build dummy password hash", slog.Any("error", err))
		return fallbackDummyHash
	}
	return hash
}

var errExists = errors.New("record exists")

// ensureAbsent превращает результат поиска в проверку отсутствия записи
func ensureAbsent(_ *models.User, err error) error {
	switch {
	case err == nil:
		return errExists
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		return err
	}
}
