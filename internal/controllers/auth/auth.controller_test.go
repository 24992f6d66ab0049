package authController

import (
	"context"
	"errors"
	"testing"
	"time"
	"washfamily/config"
	. "washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"
	"washfamily/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWashAPI struct {
	mock.Mock
}

func (m *mockWashAPI) Register(ctx context.Context, payload services.RegisterPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *mockWashAPI) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

type memorySessions struct {
	sessions map[string]*Session
}

func (m *memorySessions) Create(_ context.Context, session *Session) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessions) GetByID(_ context.Context, id string) (*Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	return session, nil
}

func (m *memorySessions) Save(_ context.Context, session *Session) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *memorySessions) SaveTokens(ctx context.Context, session *Session) error {
	return m.Save(ctx, session)
}

func (m *memorySessions) ClearTokens(ctx context.Context, session *Session) error {
	return m.Delete(ctx, session.ID)
}

func newController() (*AuthController, *mockWashAPI, *memorySessions) {
	api := &mockWashAPI{}
	sessions := &memorySessions{sessions: map[string]*Session{}}
	return &AuthController{
		washAPI:  api,
		sessions: sessions,
		tokens:   services.NewSessionTokenService(config.Config{SessionSecret: "0123456789abcdef0123456789abcdef"}),
		now:      time.Now,
		log:      logger.New("authController"),
	}, api, sessions
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:    " Marie@Example.COM ",
		Password: "Secret1!",
		Username: "marie",
		Name:     "Marie",
		Lastname: "Curie",
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
	}{
		{"weak password", func(r *RegisterRequest) { r.Password = "secret12" }},
		{"short password", func(r *RegisterRequest) { r.Password = "Se1!" }},
		{"short username", func(r *RegisterRequest) { r.Username = "ma" }},
		{"short name", func(r *RegisterRequest) { r.Name = "M" }},
		{"bad email", func(r *RegisterRequest) { r.Email = "marie" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, api, _ := newController()
			req := validRegistration()
			tt.mutate(&req)

			err := controller.Register(context.Background(), req)
			assert.ErrorIs(t, err, types.ErrValidation)
			api.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_LowercasesEmail(t *testing.T) {
	controller, api, _ := newController()
	ctx := context.Background()

	api.On("Register", ctx, mock.MatchedBy(func(p services.RegisterPayload) bool {
		return p.Email == "marie@example.com" && p.Username == "marie"
	})).Return(nil)

	require.NoError(t, controller.Register(ctx, validRegistration()))
	api.AssertExpectations(t)
}

func TestLogin_CreatesSessionAndToken(t *testing.T) {
	controller, api, sessions := newController()
	ctx := context.Background()
	user := &User{ID: "u-1", Email: "marie@example.com", ProfileCompleted: true}

	api.On("Login", ctx, "marie@example.com", "Secret1!").Return(&services.LoginResult{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         user,
	}, nil)

	response, err := controller.Login(ctx, LoginRequest{Email: "MARIE@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, WasherAccessVerifyIdentity, response.WasherAccess)
	require.Len(t, sessions.sessions, 1)

	session, err := controller.Authenticate(ctx, response.Token)
	require.NoError(t, err)
	assert.Equal(t, "access-1", session.AccessToken)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	assert.Equal(t, "u-1", session.UserID())
}

func TestLogin_UpstreamRejection(t *testing.T) {
	controller, api, sessions := newController()
	ctx := context.Background()
	rejected := &services.APIError{Kind: services.ErrRejected, StatusCode: 400, Message: "Invalid credentials"}

	api.On("Login", ctx, "marie@example.com", "nope").Return(nil, rejected)

	_, err := controller.Login(ctx, LoginRequest{Email: "marie@example.com", Password: "nope"})
	assert.ErrorIs(t, err, services.ErrRejected)
	assert.Empty(t, sessions.sessions)
}

func TestAuthenticate(t *testing.T) {
	controller, _, sessions := newController()
	ctx := context.Background()

	sessions.sessions["live"] = &Session{ID: "live", AccessToken: "a"}
	sessions.sessions["drained"] = &Session{ID: "drained"}

	live, err := controller.tokens.Issue("live", time.Now())
	require.NoError(t, err)
	drained, err := controller.tokens.Issue("drained", time.Now())
	require.NoError(t, err)
	gone, err := controller.tokens.Issue("gone", time.Now())
	require.NoError(t, err)

	session, err := controller.Authenticate(ctx, live)
	require.NoError(t, err)
	assert.Equal(t, "live", session.ID)

	for name, token := range map[string]string{"drained": drained, "gone": gone, "garbage": "x.y.z"} {
		t.Run(name, func(t *testing.T) {
			_, err := controller.Authenticate(ctx, token)
			assert.True(t, errors.Is(err, ErrNotAuthenticated))
		})
	}
}

func TestLogout(t *testing.T) {
	controller, _, sessions := newController()
	sessions.sessions["s-1"] = &Session{ID: "s-1", AccessToken: "a"}

	require.NoError(t, controller.Logout(context.Background(), &Session{ID: "s-1"}))
	assert.Empty(t, sessions.sessions)
	assert.ErrorIs(t, controller.Logout(context.Background(), nil), ErrNotAuthenticated)
}
