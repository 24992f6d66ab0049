package repositories

import (
	"context"
	"errors"
	"time"
	"washfamily/internal/database"
	. "washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const SESSION_CACHE_HASH = "session:%s"

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	SaveTokens(ctx context.Context, session *Session) error
	ClearTokens(ctx context.Context, session *Session) error
}

type sessionRepository struct {
	cache valkey.Client
	ttl   time.Duration
	log   logger.Logger
}

func NewSessionRepository(cache valkey.Client, ttl time.Duration) SessionRepository {
	return &sessionRepository{
		cache: cache,
		ttl:   ttl,
		log:   logger.New("sessionRepository"),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *Session) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.LastSeenAt = now

	if err := r.write(ctx, session); err != nil {
		return log.Err("failed to create session", err, "sessionID", session.ID)
	}

	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByID")

	var session Session
	found, err := database.NewCacheBuilder(r.cache, id).
		WithHashPattern(SESSION_CACHE_HASH).
		WithContext(ctx).
		Get(&session)
	if err != nil {
		return nil, log.Err("failed to read session", err, "sessionID", id)
	}

	if !found {
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// Save refreshes LastSeenAt and extends the session's lifetime.
func (r *sessionRepository) Save(ctx context.Context, session *Session) error {
	log := r.log.TraceFromContext(ctx).Function("Save")

	session.LastSeenAt = time.Now().UTC()
	if err := r.write(ctx, session); err != nil {
		return log.Err("failed to save session", err, "sessionID", session.ID)
	}

	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	log := r.log.TraceFromContext(ctx).Function("Delete")

	if err := database.NewCacheBuilder(r.cache, id).
		WithHashPattern(SESSION_CACHE_HASH).
		WithContext(ctx).
		Delete(); err != nil {
		return log.Err("failed to delete session", err, "sessionID", id)
	}

	return nil
}

func (r *sessionRepository) SaveTokens(ctx context.Context, session *Session) error {
	return r.Save(ctx, session)
}

// ClearTokens ends the session; a session without upstream tokens is useless.
func (r *sessionRepository) ClearTokens(ctx context.Context, session *Session) error {
	return r.Delete(ctx, session.ID)
}

func (r *sessionRepository) write(ctx context.Context, session *Session) error {
	return database.NewCacheBuilder(r.cache, session.ID).
		WithHashPattern(SESSION_CACHE_HASH).
		WithStruct(session).
		WithTTL(r.ttl).
		WithContext(ctx).
		Set()
}
