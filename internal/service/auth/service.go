// Package auth tracks who is logged in on the client and the banner shown
// when the login state could not be confirmed.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/zhouzirui/faq-assistant/internal/api"
	authModel "github.com/zhouzirui/faq-assistant/internal/model/auth"
)

const (
	BannerNetwork = "Network connection error, please check your connection"
	BannerLogout  = "Logout error occurred, but local login state has been cleared"
	formFallback  = "An error occurred"
)

// API is the subset of the API client used for logging in.
type API interface {
	CurrentUser(ctx context.Context) (*authModel.User, error)
	Login(ctx context.Context, creds authModel.Credentials) (*authModel.User, error)
	Register(ctx context.Context, reg authModel.Registration) (*authModel.User, error)
	Logout(ctx context.Context) error
}

// Service holds the logged-in user.
type Service struct {
	api    API
	logger *slog.Logger

	mu     sync.RWMutex
	user   *authModel.User
	banner string
}

func NewService(client API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: client, logger: logger}
}

// Check asks the backend who is logged in. A 401 is the normal answer for a
// new visitor and is not reported.
func (s *Service) Check(ctx context.Context) (*authModel.User, error) {
	user, err := s.api.CurrentUser(ctx)
	if err == nil && user == nil {
		s.logger.Info("user not authenticated")
		s.set(nil, "")
		return nil, nil
	}
	if err == nil {
		s.set(user, "")
		s.logger.Info("user authenticated", "username", user.Username, "role", user.Role)
		return user, nil
	}

	switch kind := api.KindOf(err); {
	case kind == api.KindUnauthorized:
		s.logger.Info("user not authenticated")
		s.set(nil, "")
		return nil, nil
	case kind == api.KindServer || api.IsNetwork(err):
		s.set(nil, BannerNetwork)
	default:
		s.set(nil, "Authentication error: "+FormError(err))
	}
	s.logger.Warn("authentication check failed", "err", err)
	return nil, err
}

// Login signs in and clears any banner.
func (s *Service) Login(ctx context.Context, creds authModel.Credentials) (*authModel.User, error) {
	user, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.set(user, "")
	return user, nil
}

// Register creates an account; the backend logs it in.
func (s *Service) Register(ctx context.Context, reg authModel.Registration) (*authModel.User, error) {
	user, err := s.api.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.set(user, "")
	return user, nil
}

// Logout forgets the local user even when the backend call fails.
func (s *Service) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		s.logger.Error("logout error", "err", err)
		s.set(nil, BannerLogout)
		return err
	}
	s.set(nil, "")
	return nil
}

// User is the logged-in user, nil when logged out.
func (s *Service) User() *authModel.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Banner is the app-level error text, empty when there is none.
func (s *Service) Banner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.banner
}

// IsAdmin reports whether the admin dashboard may be opened.
func (s *Service) IsAdmin() bool {
	return s.User().IsAdmin()
}

func (s *Service) set(user *authModel.User, banner string) {
	s.mu.Lock()
	s.user = user
	s.banner = banner
	s.mu.Unlock()
}

// FormError is the text shown under the login form: the backend's own
// message when there is one.
func FormError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return formFallback
}
