package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authModel "github.com/zhouzirui/faq-assistant/internal/model/auth"
	accountService "github.com/zhouzirui/faq-assistant/internal/service/account"
	"github.com/zhouzirui/faq-assistant/pkg/utils"
)

// CookieName is the login cookie set by /login and /register.
const CookieName = "faq_session"

type ctxKey struct{}

// Handler 登录相关的HTTP处理器
type Handler struct {
	accounts *accountService.Service
	ttl      time.Duration
	secure   bool
}

// New 创建登录处理器
func New(accounts *accountService.Service, ttl time.Duration, secure bool) *Handler {
	return &Handler{accounts: accounts, ttl: ttl, secure: secure}
}

// RegisterRoutes 注册登录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/current-user", h.handleCurrentUser)
}

// Identify attaches the logged-in user, if any, to the request context.
func (h *Handler) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(CookieName); err == nil {
			if user, err := h.accounts.UserForToken(cookie.Value); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without an admin login.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		if !user.IsAdmin() {
			utils.RespondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the user attached by Identify.
func UserFrom(ctx context.Context) (*authModel.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(authModel.User)
	if !ok {
		return nil, false
	}
	return &user, true
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload authModel.Registration
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	user, token, err := h.accounts.Register(r.Context(), payload)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, accountService.ErrUsernameTaken) {
			status = http.StatusConflict
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	h.setCookie(w, token, h.ttl)
	utils.RespondJSON(w, http.StatusCreated, authModel.Response{User: &user, Message: "Registration successful"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload authModel.Credentials
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	user, token, err := h.accounts.Login(r.Context(), payload)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, accountService.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	h.setCookie(w, token, h.ttl)
	utils.RespondJSON(w, http.StatusOK, authModel.Response{User: &user, Message: "Login successful"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		h.accounts.Logout(cookie.Value)
	}
	h.setCookie(w, "", -1)
	utils.RespondJSON(w, http.StatusOK, authModel.Response{Message: "Logged out"})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) setCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}
