package repositories

import (
	"washfamily/config"
	"washfamily/internal/database"
)

type Repository struct {
	Session           SessionRepository
	AvailabilityDraft AvailabilityDraftRepository
	OrderCache        OrderCacheRepository
	UpstreamRequest   UpstreamRequestRepository
}

func New(db database.DB, config config.Config) Repository {
	return Repository{
		Session:           NewSessionRepository(db.Cache.Session, config.SessionTTL()),
		AvailabilityDraft: NewAvailabilityDraftRepository(db.Cache.User),
		OrderCache:        NewOrderCacheRepository(db.Cache.ClientAPI),
		UpstreamRequest:   NewUpstreamRequestRepository(db),
	}
}
