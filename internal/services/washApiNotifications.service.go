package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"washfamily/internal/models"
)

func (s *WashAPIService) Notifications(
	ctx context.Context,
	session *models.Session,
	role models.OrderRole,
	page, limit int,
) ([]models.Notification, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          "/notifications/type=" + string(role),
		query:         query,
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	notifications := []models.Notification{}
	if err := decodeEnveloped(raw, &notifications, "notifications", "data"); err != nil {
		return nil, &APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected notification list", Cause: err}
	}
	return notifications, nil
}

func (s *WashAPIService) MarkNotificationRead(
	ctx context.Context,
	session *models.Session,
	notificationID string,
) error {
	return s.do(ctx, session, apiRequest{
		method:        http.MethodPatch,
		path:          "/notifications/" + url.PathEscape(notificationID) + "/read",
		authenticated: true,
	}, nil)
}
