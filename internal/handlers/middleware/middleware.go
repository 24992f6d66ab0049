package middleware

import (
	"context"
	"washfamily/config"
	"washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

type Middleware struct {
	Config config.Config
	auth   authenticator
	log    logger.Logger
}

func New(config config.Config, auth authenticator) Middleware {
	return Middleware{
		Config: config,
		auth:   auth,
		log:    logger.New("middleware"),
	}
}
