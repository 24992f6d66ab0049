package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"washfamily/internal/models"

	"github.com/shopspring/decimal"
)

type CreateOrderPayload struct {
	WasherEmail             string             `json:"washerEmail"`
	StartDate               string             `json:"startDate"`
	DateEnd                 string             `json:"dateEnd"`
	WashingType             models.WashingType `json:"washingType"`
	WashingRecommendation   string             `json:"washingRecommendation,omitempty"`
	DryingType              models.DryingType  `json:"dryingType"`
	DryingRecommendation    string             `json:"dryingRecommendation,omitempty"`
	Ironing                 bool               `json:"ironing"`
	AddressPickup           string             `json:"addressPickup"`
	AddressPickupLinenClean string             `json:"addressPickupLinenClean,omitempty"`
	Price                   *decimal.Decimal   `json:"price,omitempty"`
	DeplacementClient       *bool              `json:"deplacementClient,omitempty"`
}

type transitionEndpoint struct {
	method string
	path   string
}

// transitionEndpoints maps each role's actions onto the upstream route that
// performs them. %s is the order id.
var transitionEndpoints = map[models.OrderRole]map[models.OrderAction]transitionEndpoint{
	models.RoleClient: {
		models.ActionPay:            {http.MethodPatch, "/washorders/pay/%s"},
		models.ActionInitiatePickup: {http.MethodPatch, "/washorders/pickup/initiate/%s"},
		models.ActionConfirmArrival: {http.MethodPatch, "/washorders/pickup/awaiting/%s"},
		models.ActionConfirmReceipt: {http.MethodPatch, "/washorders/pickup/confirm/%s"},
		models.ActionCancel:         {http.MethodPatch, "/washorders/cancel/%s"},
	},
	models.RoleWasher: {
		models.ActionAccept:         {http.MethodPatch, "/washer/orders/%s/accept"},
		models.ActionRefuse:         {http.MethodPut, "/washer/orders/%s/refuse"},
		models.ActionInitiatePickup: {http.MethodPatch, "/washer/orders/%s/pickup/initiate"},
		models.ActionConfirmArrival: {http.MethodPatch, "/washer/orders/%s/pickup/awaiting"},
		models.ActionConfirmReceipt: {http.MethodPatch, "/washer/orders/%s/pickup/confirm"},
	},
}

// TransitionEndpoint returns the upstream method and path for role performing
// action on orderID.
func TransitionEndpoint(
	role models.OrderRole,
	action models.OrderAction,
	orderID string,
) (string, string, bool) {
	endpoint, ok := transitionEndpoints[role][action]
	if !ok {
		return "", "", false
	}
	return endpoint.method, fmt.Sprintf(endpoint.path, url.PathEscape(orderID)), true
}

func (s *WashAPIService) CreateOrder(
	ctx context.Context,
	session *models.Session,
	payload CreateOrderPayload,
) (*models.WashOrder, error) {
	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodPost,
		path:          "/washorders/createwashOrder",
		body:          payload,
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	return decodeOrder(raw)
}

func (s *WashAPIService) ClientOrders(
	ctx context.Context,
	session *models.Session,
) ([]models.WashOrder, error) {
	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          "/washorders/clientOrders",
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	orders := []models.WashOrder{}
	if err := decodeEnveloped(raw, &orders, "orders", "washOrders"); err != nil {
		return nil, &APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected order list", Cause: err}
	}
	return orders, nil
}

func (s *WashAPIService) WasherNewOrders(
	ctx context.Context,
	session *models.Session,
	page, limit int,
) (*models.OrderPage, error) {
	return s.orderPage(ctx, session, "/washer/newOrders", page, limit)
}

func (s *WashAPIService) WasherMissions(
	ctx context.Context,
	session *models.Session,
	page, limit int,
) (*models.OrderPage, error) {
	return s.orderPage(ctx, session, "/washer/missions", page, limit)
}

func (s *WashAPIService) orderPage(
	ctx context.Context,
	session *models.Session,
	path string,
	page, limit int,
) (*models.OrderPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var result models.OrderPage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          path,
		query:         query,
		authenticated: true,
	}, &result); err != nil {
		return nil, err
	}

	if result.Orders == nil {
		result.Orders = []models.WashOrder{}
	}
	if result.Meta.Page == 0 {
		result.Meta.Page = page
	}
	return &result, nil
}

// Order fetches one order through the detail route of role.
func (s *WashAPIService) Order(
	ctx context.Context,
	session *models.Session,
	role models.OrderRole,
	orderID string,
) (*models.WashOrder, error) {
	path := "/washorders/detail/" + url.PathEscape(orderID)
	if role == models.RoleWasher {
		path = "/washer/washOrderforWasher/" + url.PathEscape(orderID)
	}

	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          path,
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	return decodeOrder(raw)
}

// Transition asks upstream to apply action on behalf of role. reason is only
// sent for cancellations.
func (s *WashAPIService) Transition(
	ctx context.Context,
	session *models.Session,
	role models.OrderRole,
	action models.OrderAction,
	orderID string,
	reason string,
) error {
	method, path, ok := TransitionEndpoint(role, action, orderID)
	if !ok {
		return &APIError{
			Kind:    ErrRejected,
			Message: fmt.Sprintf("%s cannot %s an order", role, action),
		}
	}

	req := apiRequest{method: method, path: path, authenticated: true}
	if action == models.ActionCancel {
		req.body = map[string]string{"reason": reason}
	}

	return s.do(ctx, session, req, nil)
}

func (s *WashAPIService) NearbyWashersForOrder(
	ctx context.Context,
	session *models.Session,
	orderID string,
	maxDistanceKm int,
) ([]models.WasherSummary, error) {
	query := url.Values{}
	query.Set("orderId", orderID)
	query.Set("maxDistance", strconv.Itoa(maxDistanceKm))

	return s.washerList(ctx, session, "/washorders/nearby-washers-for-order", query)
}

func (s *WashAPIService) SendToOtherWashers(
	ctx context.Context,
	session *models.Session,
	orderID string,
	washerIDs []string,
) error {
	return s.do(ctx, session, apiRequest{
		method: http.MethodPost,
		path:   "/washorders/sendToOtherWashers",
		body: map[string]any{
			"orderId":   orderID,
			"washerIds": washerIDs,
		},
		authenticated: true,
	}, nil)
}

func decodeOrder(raw json.RawMessage) (*models.WashOrder, error) {
	var order models.WashOrder
	if err := decodeEnveloped(raw, &order, "washOrder", "order", "data"); err != nil {
		return nil, &APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected order payload", Cause: err}
	}

	if order.ID == "" {
		return nil, &APIError{Kind: ErrNotFound, StatusCode: http.StatusOK, Message: "order not found"}
	}
	return &order, nil
}
