package repositories

import (
	"context"
	"time"
	"washfamily/internal/database"
	. "washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

const defaultJournalPageSize = 50

type UpstreamRequestRepository interface {
	Create(ctx context.Context, request *UpstreamRequest) error
	ListByOrder(ctx context.Context, orderID string, limit int) ([]UpstreamRequest, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type upstreamRequestRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUpstreamRequestRepository(db database.DB) UpstreamRequestRepository {
	return &upstreamRequestRepository{
		db:  db,
		log: logger.New("upstreamRequestRepository"),
	}
}

func (r *upstreamRequestRepository) Create(ctx context.Context, request *UpstreamRequest) error {
	if err := r.db.SQLWithContext(ctx).Create(request).Error; err != nil {
		return r.log.TraceFromContext(ctx).Function("Create").
			Err("failed to journal upstream request", err, "operation", request.Operation)
	}
	return nil
}

func (r *upstreamRequestRepository) ListByOrder(
	ctx context.Context,
	orderID string,
	limit int,
) ([]UpstreamRequest, error) {
	if limit <= 0 {
		limit = defaultJournalPageSize
	}

	var requests []UpstreamRequest
	if err := r.db.SQLWithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, r.log.TraceFromContext(ctx).Function("ListByOrder").
			Err("failed to list journal entries", err, "orderID", orderID)
	}

	return requests, nil
}

// DeleteOlderThan hard-deletes journal rows created before cutoff.
func (r *upstreamRequestRepository) DeleteOlderThan(
	ctx context.Context,
	tx *gorm.DB,
	cutoff time.Time,
) (int64, error) {
	result := tx.WithContext(ctx).
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&UpstreamRequest{})
	if result.Error != nil {
		return 0, r.log.TraceFromContext(ctx).Function("DeleteOlderThan").
			Err("failed to prune journal", result.Error, "cutoff", cutoff)
	}

	return result.RowsAffected, nil
}
