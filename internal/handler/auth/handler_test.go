package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	authModel "github.com/zhouzirui/faq-assistant/internal/model/auth"
	accountService "github.com/zhouzirui/faq-assistant/internal/service/account"
)

func setupRouter() *chi.Mux {
	accounts := accountService.NewService(time.Hour).WithHashCost(bcrypt.MinCost)
	handler := New(accounts, time.Hour, false)

	r := chi.NewRouter()
	r.Use(handler.Identify)
	handler.RegisterRoutes(r)
	r.With(RequireAdmin).Get("/admin-only", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func send(r http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("expected %s cookie", CookieName)
	return nil
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	r := setupRouter()

	reg := authModel.Registration{Username: "alice", Email: "alice@example.com", Password: "secret1", Role: authModel.RoleEmployee}
	resp := send(r, http.MethodPost, "/register", reg, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	login := send(r, http.MethodPost, "/login", authModel.Credentials{Username: "alice", Password: "secret1"}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", login.Code)
	}
	cookie := sessionCookie(t, login)
	if !cookie.HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}

	me := send(r, http.MethodGet, "/current-user", nil, cookie)
	if me.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", me.Code)
	}
	var user authModel.User
	if err := json.NewDecoder(me.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Username != "alice" || user.Role != authModel.RoleEmployee {
		t.Fatalf("unexpected user: %+v", user)
	}

	if got := send(r, http.MethodGet, "/admin-only", nil, cookie).Code; got != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", got)
	}

	logout := send(r, http.MethodPost, "/logout", nil, cookie)
	if logout.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", logout.Code)
	}
	if got := send(r, http.MethodGet, "/current-user", nil, cookie).Code; got != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", got)
	}
}

func TestCurrentUserAnonymous(t *testing.T) {
	r := setupRouter()
	if got := send(r, http.MethodGet, "/current-user", nil, nil).Code; got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
	if got := send(r, http.MethodGet, "/admin-only", nil, nil).Code; got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupRouter()
	reg := authModel.Registration{Username: "bob", Email: "bob@example.com", Password: "secret1", Role: authModel.RoleAdmin}
	if got := send(r, http.MethodPost, "/register", reg, nil).Code; got != http.StatusCreated {
		t.Fatalf("expected 201, got %d", got)
	}

	if got := send(r, http.MethodPost, "/login", authModel.Credentials{Username: "bob", Password: "nope"}, nil).Code; got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestRegisterDuplicateAndInvalid(t *testing.T) {
	r := setupRouter()
	reg := authModel.Registration{Username: "carol", Email: "carol@example.com", Password: "secret1", Role: authModel.RoleEmployee}
	send(r, http.MethodPost, "/register", reg, nil)

	if got := send(r, http.MethodPost, "/register", reg, nil).Code; got != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got)
	}

	reg.Username = "dave"
	reg.Email = "not-an-email"
	if got := send(r, http.MethodPost, "/register", reg, nil).Code; got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}
