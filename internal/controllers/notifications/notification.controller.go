package notificationController

import (
	"context"
	. "washfamily/internal/models"
	"washfamily/internal/services"
	"washfamily/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type washAPI interface {
	Notifications(
		ctx context.Context,
		session *Session,
		role OrderRole,
		page, limit int,
	) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, session *Session, notificationID string) error
}

type NotificationController struct {
	washAPI washAPI
	log     logger.Logger
}

type NotificationControllerInterface interface {
	List(ctx context.Context, session *Session, role OrderRole, page, limit int) (*NotificationPage, error)
	MarkRead(ctx context.Context, session *Session, notificationID string) error
}

func New(services services.Service) NotificationControllerInterface {
	return &NotificationController{
		washAPI: services.WashAPI,
		log:     logger.New("notificationController"),
	}
}

// List returns one page of the role's notifications. Upstream reports no
// total, so a full page is taken to mean more may follow.
func (nc *NotificationController) List(
	ctx context.Context,
	session *Session,
	role OrderRole,
	page, limit int,
) (*NotificationPage, error) {
	if !role.IsValid() {
		return nil, types.NewValidationError("type", "type must be client or washer")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	notifications, err := nc.washAPI.Notifications(ctx, session, role, page, limit)
	if err != nil {
		return nil, err
	}

	for i := range notifications {
		notifications[i].Target, _ = notifications[i].NavigationTarget()
	}

	return &NotificationPage{
		Notifications: notifications,
		Page:          page,
		Limit:         limit,
		HasMore:       len(notifications) == limit,
	}, nil
}

func (nc *NotificationController) MarkRead(
	ctx context.Context,
	session *Session,
	notificationID string,
) error {
	if notificationID == "" {
		return types.NewValidationError("id", "id is required")
	}

	if err := nc.washAPI.MarkNotificationRead(ctx, session, notificationID); err != nil {
		return nc.log.TraceFromContext(ctx).Function("MarkRead").
			Err("failed to mark notification read", err, "notificationID", notificationID)
	}
	return nil
}
