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
	CLIENT_ORDERS_CACHE_HASH   = "client_orders:%s"
	CLIENT_ORDERS_CACHE_EXPIRY = 2 * time.Minute
)

// OrderCacheRepository keeps a short-lived copy of a client's order list,
// keyed by the client's user id so that a transition made by the washer
// drops it too. Upstream stays authoritative.
type OrderCacheRepository interface {
	GetClientOrders(ctx context.Context, userID string) ([]WashOrder, bool)
	SetClientOrders(ctx context.Context, userID string, orders []WashOrder)
	Invalidate(ctx context.Context, userID string) error
}

type orderCacheRepository struct {
	cache valkey.Client
	log   logger.Logger
}

func NewOrderCacheRepository(cache valkey.Client) OrderCacheRepository {
	return &orderCacheRepository{
		cache: cache,
		log:   logger.New("orderCacheRepository"),
	}
}

func (r *orderCacheRepository) GetClientOrders(ctx context.Context, userID string) ([]WashOrder, bool) {
	var orders []WashOrder
	found, err := database.NewCacheBuilder(r.cache, userID).
		WithHashPattern(CLIENT_ORDERS_CACHE_HASH).
		WithContext(ctx).
		Get(&orders)
	if err != nil {
		r.log.TraceFromContext(ctx).Function("GetClientOrders").
			Warn("failed to read cached orders", "userID", userID, "error", err)
		return nil, false
	}
	return orders, found
}

func (r *orderCacheRepository) SetClientOrders(ctx context.Context, userID string, orders []WashOrder) {
	if err := database.NewCacheBuilder(r.cache, userID).
		WithHashPattern(CLIENT_ORDERS_CACHE_HASH).
		WithStruct(orders).
		WithTTL(CLIENT_ORDERS_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		r.log.TraceFromContext(ctx).Function("SetClientOrders").
			Warn("failed to cache orders", "userID", userID, "error", err)
	}
}

func (r *orderCacheRepository) Invalidate(ctx context.Context, userID string) error {
	if err := database.NewCacheBuilder(r.cache, userID).
		WithHashPattern(CLIENT_ORDERS_CACHE_HASH).
		WithContext(ctx).
		Delete(); err != nil {
		return r.log.TraceFromContext(ctx).Function("Invalidate").
			Err("failed to invalidate cached orders", err, "userID", userID)
	}
	return nil
}
