package repositories

import (
	"context"
	"time"
	"washfamily/internal/database"
	. "washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

const (
	AVAILABILITY_DRAFT_HASH     = "availability_draft:%s"
	AVAILABILITY_DRAFT_REGISTRY = "availability_drafts"
	AVAILABILITY_DRAFT_EXPIRY   = 7 * 24 * time.Hour
)

type AvailabilityDraftRepository interface {
	Get(ctx context.Context, sessionID string) (*AvailabilityDraft, error)
	Save(ctx context.Context, draft *AvailabilityDraft) error
	Delete(ctx context.Context, sessionID string) error
	ListSessionIDs(ctx context.Context) ([]string, error)
}

type availabilityDraftRepository struct {
	cache valkey.Client
	log   logger.Logger
}

func NewAvailabilityDraftRepository(cache valkey.Client) AvailabilityDraftRepository {
	return &availabilityDraftRepository{
		cache: cache,
		log:   logger.New("availabilityDraftRepository"),
	}
}

// Get returns the session's draft, or an empty one when nothing is pending.
func (r *availabilityDraftRepository) Get(ctx context.Context, sessionID string) (*AvailabilityDraft, error) {
	log := r.log.TraceFromContext(ctx).Function("Get")

	draft := &AvailabilityDraft{SessionID: sessionID}
	if _, err := database.NewCacheBuilder(r.cache, sessionID).
		WithHashPattern(AVAILABILITY_DRAFT_HASH).
		WithContext(ctx).
		Get(draft); err != nil {
		return nil, log.Err("failed to read availability draft", err, "sessionID", sessionID)
	}

	return draft, nil
}

// Save stores draft, or deletes it once nothing is pending.
func (r *availabilityDraftRepository) Save(ctx context.Context, draft *AvailabilityDraft) error {
	log := r.log.TraceFromContext(ctx).Function("Save")

	if draft.IsEmpty() {
		return r.Delete(ctx, draft.SessionID)
	}

	draft.UpdatedAt = time.Now().UTC()
	if err := database.NewCacheBuilder(r.cache, draft.SessionID).
		WithHashPattern(AVAILABILITY_DRAFT_HASH).
		WithStruct(draft).
		WithTTL(AVAILABILITY_DRAFT_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		return log.Err("failed to save availability draft", err, "sessionID", draft.SessionID)
	}

	if err := database.NewCacheBuilder(r.cache, AVAILABILITY_DRAFT_REGISTRY).
		WithMember(draft.SessionID).
		WithContext(ctx).
		SetSadd(); err != nil {
		log.Warn("failed to register availability draft", "sessionID", draft.SessionID, "error", err)
	}

	return nil
}

func (r *availabilityDraftRepository) Delete(ctx context.Context, sessionID string) error {
	log := r.log.TraceFromContext(ctx).Function("Delete")

	if err := database.NewCacheBuilder(r.cache, sessionID).
		WithHashPattern(AVAILABILITY_DRAFT_HASH).
		WithContext(ctx).
		Delete(); err != nil {
		return log.Err("failed to delete availability draft", err, "sessionID", sessionID)
	}

	if err := database.NewCacheBuilder(r.cache, AVAILABILITY_DRAFT_REGISTRY).
		WithMember(sessionID).
		WithContext(ctx).
		RemoveSetMember(); err != nil {
		log.Warn("failed to unregister availability draft", "sessionID", sessionID, "error", err)
	}

	return nil
}

func (r *availabilityDraftRepository) ListSessionIDs(ctx context.Context) ([]string, error) {
	ids, err := database.NewCacheBuilder(r.cache, AVAILABILITY_DRAFT_REGISTRY).
		WithContext(ctx).
		GetSetMembers()
	if err != nil {
		return nil, r.log.TraceFromContext(ctx).Function("ListSessionIDs").
			Err("failed to list availability drafts", err)
	}
	return ids, nil
}
