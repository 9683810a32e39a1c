package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dorm-admin/internal/domain"
	"dorm-admin/internal/repository"

	"go.uber.org/zap"
)

// AuthService 管理员账号与当前会话
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (domain.SessionUser, error)
	// Login returns ok=false when the email/password pair does not match.
	Login(ctx context.Context, email, password string) (domain.SessionUser, bool, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (domain.SessionUser, bool, error)
}

type RegisterRequest struct {
	Name     string // 必填
	Email    string // 必填，唯一
	Password string // 必填
}

type authService struct {
	repo   repository.DormRepository
	hasher PasswordHasher
	logger *zap.Logger
	newID  func() string
	mu     sync.Mutex
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(repo repository.DormRepository, hasher PasswordHasher, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
		newID:  newEntityID,
	}
}

// Register stores a new user with a salted hash and logs them in.
// Emails are unique (case-insensitive).
func (s *authService) Register(ctx context.Context, req RegisterRequest) (domain.SessionUser, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if missing := missingFields(
		field{"name", name}, field{"email", email}, field{"password", req.Password},
	); missing != "" {
		return domain.SessionUser{}, fmt.Errorf("%w: %s", ErrMissingRequiredField, missing)
	}

	user, err := s.createUser(ctx, name, email, req.Password)
	if err != nil {
		return domain.SessionUser{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))

	session, ok, err := s.Login(ctx, email, req.Password)
	if err != nil {
		return domain.SessionUser{}, err
	}
	if !ok {
		return domain.SessionUser{}, fmt.Errorf("login after register: %w", ErrInvalidCredentials)
	}
	return session, nil
}

func (s *authService) createUser(ctx context.Context, name, email, password string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return domain.User{}, fmt.Errorf("%w: %s", ErrDuplicateUser, email)
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{ID: s.newID(), Name: name, Email: email, PasswordHash: hash}
	if err := s.repo.SaveUsers(ctx, append(users, user)); err != nil {
		s.logger.Error("failed to save users", zap.Error(err))
		return domain.User{}, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (domain.SessionUser, bool, error) {
	email = strings.TrimSpace(email)
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return domain.SessionUser{}, false, err
	}

	for _, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		match, err := s.hasher.Verify(password, u.PasswordHash)
		if err != nil {
			s.logger.Warn("unreadable password hash", zap.String("user_id", u.ID), zap.Error(err))
			return domain.SessionUser{}, false, nil
		}
		if !match {
			break
		}
		session := u.Session()
		if err := s.repo.SaveSession(ctx, session); err != nil {
			return domain.SessionUser{}, false, err
		}
		s.logger.Info("user logged in", zap.String("user_id", u.ID))
		return session, true, nil
	}

	s.logger.Debug("failed login attempt", zap.String("email", email))
	return domain.SessionUser{}, false, nil
}

func (s *authService) Logout(ctx context.Context) error {
	return s.repo.ClearSession(ctx)
}

func (s *authService) CurrentUser(ctx context.Context) (domain.SessionUser, bool, error) {
	return s.repo.LoadSession(ctx)
}
