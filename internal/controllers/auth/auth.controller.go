package authController

import (
	"context"
	"errors"
	"time"
	. "washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"
	"washfamily/internal/types"
	"washfamily/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type washAPI interface {
	Register(ctx context.Context, payload services.RegisterPayload) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type sessionTokens interface {
	Issue(sessionID string, issuedAt time.Time) (string, error)
	Parse(token string) (string, error)
	TTL() time.Duration
}

// AuthController signs users in against upstream and keeps their upstream
// tokens in a gateway session. Clients only ever hold the session token.
type AuthController struct {
	washAPI  washAPI
	sessions repositories.SessionRepository
	tokens   sessionTokens
	now      func() time.Time
	log      logger.Logger
}

type AuthControllerInterface interface {
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, session *Session) error
	Authenticate(ctx context.Context, token string) (*Session, error)
}

func New(services services.Service, repos repositories.Repository) AuthControllerInterface {
	return &AuthController{
		washAPI:  services.WashAPI,
		sessions: repos.Session,
		tokens:   services.SessionToken,
		now:      time.Now,
		log:      logger.New("authController"),
	}
}

type RegisterRequest struct {
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required,min=8,strongpassword"`
	Username     string `json:"username"     validate:"required,min=3"`
	Name         string `json:"name"         validate:"required,min=2"`
	Lastname     string `json:"lastname"     validate:"required,min=2"`
	CaptchaToken string `json:"captchaToken"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         *User        `json:"user"`
	WasherAccess WasherAccess `json:"washerAccess"`
}

func (c *AuthController) Register(ctx context.Context, req RegisterRequest) error {
	log := c.log.TraceFromContext(ctx).Function("Register")

	req.Email = utils.NormalizeEmail(req.Email)
	if err := types.Validate(req); err != nil {
		return err
	}

	if err := c.washAPI.Register(ctx, services.RegisterPayload{
		Email:        req.Email,
		Password:     req.Password,
		Username:     utils.CleanUTF8(req.Username),
		Name:         utils.CleanUTF8(req.Name),
		Lastname:     utils.CleanUTF8(req.Lastname),
		CaptchaToken: req.CaptchaToken,
	}); err != nil {
		return log.Err("registration failed", err, "email", req.Email)
	}

	log.Info("User registered", "email", req.Email)
	return nil
}

func (c *AuthController) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("Login")

	req.Email = utils.NormalizeEmail(req.Email)
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	result, err := c.washAPI.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
		CreatedAt:    now,
		LastSeenAt:   now,
	}

	if err := c.sessions.Create(ctx, session); err != nil {
		return nil, log.Err("failed to create session", err, "email", req.Email)
	}

	token, err := c.tokens.Issue(session.ID, now)
	if err != nil {
		if delErr := c.sessions.Delete(ctx, session.ID); delErr != nil {
			log.Warn("failed to discard session", "sessionID", session.ID, "error", delErr)
		}
		return nil, log.Err("failed to issue session token", err)
	}

	response := &LoginResponse{
		Token:        token,
		ExpiresAt:    now.Add(c.tokens.TTL()),
		User:         result.User,
		WasherAccess: WasherAccessCompleteProfile,
	}
	if result.User != nil {
		response.WasherAccess = result.User.WasherAccess()
	}

	log.Info("User logged in", "userID", session.UserID(), "sessionID", session.ID)
	return response, nil
}

func (c *AuthController) Logout(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrNotAuthenticated
	}

	if err := c.sessions.Delete(ctx, session.ID); err != nil {
		return c.log.TraceFromContext(ctx).Function("Logout").
			Err("failed to delete session", err, "sessionID", session.ID)
	}
	return nil
}

// Authenticate resolves a session token to its live session. Sessions whose
// upstream tokens were dropped count as signed out.
func (c *AuthController) Authenticate(ctx context.Context, token string) (*Session, error) {
	sessionID, err := c.tokens.Parse(token)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	session, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	if !session.HasTokens() {
		return nil, ErrNotAuthenticated
	}

	return session, nil
}
