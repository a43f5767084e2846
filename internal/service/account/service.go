package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/faq-assistant/internal/model/auth"
	"github.com/zhouzirui/faq-assistant/internal/pkg/validation"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("not logged in")
)

const DefaultTokenTTL = 24 * time.Hour

type account struct {
	user auth.User
	hash []byte
}

// Service registers users and issues login tokens that expire after the TTL.
type Service struct {
	mu       sync.RWMutex
	accounts map[string]*account
	tokens   *cache.Cache
	cost     int
}

// NewService creates an empty account store.
func NewService(tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		accounts: make(map[string]*account),
		tokens:   cache.New(tokenTTL, 10*time.Minute),
		cost:     bcrypt.DefaultCost,
	}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register creates a user and logs it in.
func (s *Service) Register(_ context.Context, reg auth.Registration) (auth.User, string, error) {
	if err := validation.Struct(reg); err != nil {
		return auth.User{}, "", err
	}

	username := strings.TrimSpace(reg.Username)
	key := strings.ToLower(username)

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return auth.User{}, "", err
	}

	s.mu.Lock()
	if _, exists := s.accounts[key]; exists {
		s.mu.Unlock()
		return auth.User{}, "", ErrUsernameTaken
	}
	user := auth.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    strings.TrimSpace(reg.Email),
		Role:     reg.Role,
	}
	s.accounts[key] = &account{user: user, hash: hash}
	s.mu.Unlock()

	return user, s.issueToken(user), nil
}

// Login checks the password and returns a fresh token.
func (s *Service) Login(_ context.Context, creds auth.Credentials) (auth.User, string, error) {
	if err := validation.Struct(creds); err != nil {
		return auth.User{}, "", err
	}

	s.mu.RLock()
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(creds.Username))]
	s.mu.RUnlock()
	if !ok {
		return auth.User{}, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)); err != nil {
		return auth.User{}, "", ErrInvalidCredentials
	}

	return acc.user, s.issueToken(acc.user), nil
}

// Logout forgets token. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	if token != "" {
		s.tokens.Delete(token)
	}
}

// UserForToken resolves a login token.
func (s *Service) UserForToken(token string) (auth.User, error) {
	if token == "" {
		return auth.User{}, ErrInvalidToken
	}
	if x, found := s.tokens.Get(token); found {
		return x.(auth.User), nil
	}
	return auth.User{}, ErrInvalidToken
}

func (s *Service) issueToken(user auth.User) string {
	token := uuid.NewString()
	s.tokens.Set(token, user, cache.DefaultExpiration)
	return token
}
