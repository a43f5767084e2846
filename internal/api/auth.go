package api

import (
	"context"
	"net/http"

	"github.com/samber/oops"

	"github.com/zhouzirui/faq-assistant/internal/model/auth"
	"github.com/zhouzirui/faq-assistant/internal/pkg/validation"
)

// Register creates an account. The backend logs the new user in.
func (c *Client) Register(ctx context.Context, reg auth.Registration) (*auth.User, error) {
	const op = "register"
	if err := validation.Struct(reg); err != nil {
		return nil, validationError(op, err)
	}

	var resp auth.Response
	if err := c.do(ctx, op, http.MethodPost, "/register", reg, &resp); err != nil {
		return nil, err
	}
	return userFrom(op, resp)
}

// Login authenticates and stores the session cookie in the jar.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (*auth.User, error) {
	const op = "login"
	if err := validation.Struct(creds); err != nil {
		return nil, validationError(op, err)
	}

	var resp auth.Response
	if err := c.do(ctx, op, http.MethodPost, "/login", creds, &resp); err != nil {
		return nil, err
	}
	return userFrom(op, resp)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout", struct{}{}, nil)
}

// CurrentUser returns the logged-in user. A 401 means nobody is logged in.
func (c *Client) CurrentUser(ctx context.Context) (*auth.User, error) {
	var user auth.User
	if err := c.do(ctx, "current user", http.MethodGet, "/current-user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func userFrom(op string, resp auth.Response) (*auth.User, error) {
	if resp.User == nil {
		msg := resp.Error
		if msg == "" {
			msg = "Unexpected response from server"
		}
		return nil, &Error{Op: op, Kind: KindRejected, Message: msg, Err: oops.In("api").Errorf("response carried no user")}
	}
	return resp.User, nil
}
