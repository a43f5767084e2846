package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/faq-assistant/internal/api"
	authModel "github.com/zhouzirui/faq-assistant/internal/model/auth"
)

type fakeAPI struct {
	current   *authModel.User
	currErr   error
	loginErr  error
	logoutErr error
}

func (f *fakeAPI) CurrentUser(context.Context) (*authModel.User, error) {
	return f.current, f.currErr
}

func (f *fakeAPI) Login(_ context.Context, creds authModel.Credentials) (*authModel.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authModel.User{Username: creds.Username, Role: authModel.RoleAdmin}, nil
}

func (f *fakeAPI) Register(_ context.Context, reg authModel.Registration) (*authModel.User, error) {
	return &authModel.User{Username: reg.Username, Email: reg.Email, Role: reg.Role}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	return f.logoutErr
}

func TestCheckLoggedIn(t *testing.T) {
	svc := NewService(&fakeAPI{current: &authModel.User{Username: "alice", Role: authModel.RoleEmployee}}, nil)

	user, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, svc.IsAdmin())
	assert.Empty(t, svc.Banner())
}

func TestCheckWithoutUserIsAnonymous(t *testing.T) {
	svc := NewService(&fakeAPI{}, nil)

	user, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Nil(t, svc.User())
	assert.Empty(t, svc.Banner())
}

func TestCheckBanners(t *testing.T) {
	cases := map[string]struct {
		err     error
		banner  string
		wantErr bool
	}{
		"unauthorized is silent": {&api.Error{Kind: api.KindUnauthorized, Status: 401}, "", false},
		"network":                {&api.Error{Kind: api.KindNetwork}, BannerNetwork, true},
		"timeout":                {&api.Error{Kind: api.KindTimeout}, BannerNetwork, true},
		"server":                 {&api.Error{Kind: api.KindServer, Status: 502}, BannerNetwork, true},
		"client":                 {&api.Error{Kind: api.KindClient, Status: 403, Message: "forbidden"}, "Authentication error: forbidden", true},
		"foreign":                {errors.New("boom"), "Authentication error: An error occurred", true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeAPI{currErr: tc.err}, nil)
			user, err := svc.Check(context.Background())
			assert.Nil(t, user)
			assert.Equal(t, tc.wantErr, err != nil)
			assert.Equal(t, tc.banner, svc.Banner())
			assert.Nil(t, svc.User())
		})
	}
}

func TestLoginClearsBanner(t *testing.T) {
	fake := &fakeAPI{currErr: &api.Error{Kind: api.KindNetwork}}
	svc := NewService(fake, nil)
	_, _ = svc.Check(context.Background())
	require.Equal(t, BannerNetwork, svc.Banner())

	user, err := svc.Login(context.Background(), authModel.Credentials{Username: "root", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "root", user.Username)
	assert.True(t, svc.IsAdmin())
	assert.Empty(t, svc.Banner())
}

func TestLoginFailureKeepsState(t *testing.T) {
	fake := &fakeAPI{loginErr: &api.Error{Kind: api.KindUnauthorized, Status: 401, Message: "invalid username or password"}}
	svc := NewService(fake, nil)

	_, err := svc.Login(context.Background(), authModel.Credentials{Username: "root", Password: "bad"})
	require.Error(t, err)
	assert.Equal(t, "invalid username or password", FormError(err))
	assert.Nil(t, svc.User())
}

func TestRegister(t *testing.T) {
	svc := NewService(&fakeAPI{}, nil)
	user, err := svc.Register(context.Background(), authModel.Registration{
		Username: "bob", Email: "bob@example.com", Password: "secret1", Role: authModel.RoleEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", svc.User().Username)
	assert.Equal(t, authModel.RoleEmployee, user.Role)
}

func TestLogoutClearsUserEvenOnFailure(t *testing.T) {
	fake := &fakeAPI{}
	svc := NewService(fake, nil)
	_, err := svc.Login(context.Background(), authModel.Credentials{Username: "root", Password: "pw"})
	require.NoError(t, err)

	fake.logoutErr = &api.Error{Kind: api.KindNetwork}
	require.Error(t, svc.Logout(context.Background()))
	assert.Nil(t, svc.User())
	assert.Equal(t, BannerLogout, svc.Banner())

	fake.logoutErr = nil
	require.NoError(t, svc.Logout(context.Background()))
	assert.Empty(t, svc.Banner())
}
