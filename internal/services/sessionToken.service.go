package services

import (
	"errors"
	"fmt"
	"time"
	"washfamily/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenIssuer = "washfamily-gateway"

var ErrInvalidSessionToken = errors.New("invalid session token")

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionTokenService signs the bearer tokens handed to gateway clients. The
// token only names a server-side session; upstream credentials never leave
// the gateway.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	log    logger.Logger
}

func NewSessionTokenService(cfg config.Config) *SessionTokenService {
	return &SessionTokenService{
		secret: []byte(cfg.SessionSecret),
		ttl:    cfg.SessionTTL(),
		log:    logger.New("SessionTokenService"),
	}
}

func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionTokenService) Issue(sessionID string, issuedAt time.Time) (string, error) {
	log := s.log.Function("Issue")

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign session token", err, "sessionID", sessionID)
	}

	return token, nil
}

// Parse validates token and returns the session id it names.
func (s *SessionTokenService) Parse(token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}

	if !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalidSessionToken
	}

	return claims.SessionID, nil
}
