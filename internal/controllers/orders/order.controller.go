package orderController

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"washfamily/internal/events"
	. "washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"
	"washfamily/internal/types"
	"washfamily/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
)

const (
	MinOrderDuration     = 4 * time.Hour
	DefaultPageLimit     = 10
	MaxPageLimit         = 50
	DefaultMaxDistanceKm = 10
	historyLimit         = 50
)

var (
	ErrOrderTooShort    = errors.New("an order must last at least four hours")
	ErrActionNotAllowed = errors.New("action not allowed for this order")
)

type washAPI interface {
	CreateOrder(ctx context.Context, session *Session, payload services.CreateOrderPayload) (*WashOrder, error)
	ClientOrders(ctx context.Context, session *Session) ([]WashOrder, error)
	WasherNewOrders(ctx context.Context, session *Session, page, limit int) (*OrderPage, error)
	WasherMissions(ctx context.Context, session *Session, page, limit int) (*OrderPage, error)
	Order(ctx context.Context, session *Session, role OrderRole, orderID string) (*WashOrder, error)
	Transition(
		ctx context.Context,
		session *Session,
		role OrderRole,
		action OrderAction,
		orderID string,
		reason string,
	) error
	SearchWashers(ctx context.Context, session *Session, search services.WasherSearch) ([]WasherSummary, error)
	NearbyWashersForOrder(
		ctx context.Context,
		session *Session,
		orderID string,
		maxDistanceKm int,
	) ([]WasherSummary, error)
	SendToOtherWashers(ctx context.Context, session *Session, orderID string, washerIDs []string) error
}

type eventPublisher interface {
	PublishOrderCreated(sessionID, userID, orderID string) error
	PublishOrderTransition(sessionID, userID, orderID, clientID string, role, action, status string) error
}

type OrderController struct {
	washAPI washAPI
	journal repositories.UpstreamRequestRepository
	cache   repositories.OrderCacheRepository
	events  eventPublisher
	now     func() time.Time
	log     logger.Logger
}

type OrderControllerInterface interface {
	Create(ctx context.Context, session *Session, req CreateOrderRequest) (*OrderView, error)
	Get(ctx context.Context, session *Session, role OrderRole, orderID string) (*OrderView, error)
	ListForClient(ctx context.Context, session *Session) ([]OrderView, error)
	ListNewForWasher(ctx context.Context, session *Session, page, limit int) (*OrderListView, error)
	ListMissionsForWasher(ctx context.Context, session *Session, page, limit int) (*OrderListView, error)
	PerformAction(
		ctx context.Context,
		session *Session,
		role OrderRole,
		orderID string,
		req ActionRequest,
	) (*OrderView, error)
	Cancel(ctx context.Context, session *Session, orderID, reason string) (*OrderView, error)
	SearchWashers(ctx context.Context, session *Session, req SearchWashersRequest) ([]WasherSummary, error)
	NearbyWashersForOrder(
		ctx context.Context,
		session *Session,
		orderID string,
		maxDistanceKm int,
	) ([]WasherSummary, error)
	SendToOtherWashers(ctx context.Context, session *Session, orderID string, req SendToWashersRequest) error
	History(ctx context.Context, session *Session, orderID string) ([]UpstreamRequest, error)
	HandleOrderEvent(event events.Event) error
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
) OrderControllerInterface {
	return &OrderController{
		washAPI: services.WashAPI,
		journal: repos.UpstreamRequest,
		cache:   repos.OrderCache,
		events:  eventBus,
		now:     time.Now,
		log:     logger.New("orderController"),
	}
}

// OrderView is an order as returned to clients: the upstream record plus the
// fields the gateway derives for the viewer. IsLate shadows the upstream
// isLate flag, which is never trusted.
type OrderView struct {
	*WashOrder
	IsLate         bool                 `json:"isLate"`
	DisplayStatus  string               `json:"displayStatus"`
	FormattedPrice string               `json:"formattedPrice"`
	Affordances    services.Affordances `json:"affordances"`
	Reconciled     bool                 `json:"reconciled"`
}

type OrderListView struct {
	Orders     []OrderView `json:"orders"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
	HasMore    bool        `json:"hasMore"`
}

type CreateOrderRequest struct {
	WasherEmail             string           `json:"washerEmail"             validate:"required,email"`
	WasherAddress           string           `json:"washerAddress"`
	StartDate               time.Time        `json:"startDate"               validate:"required"`
	DateEnd                 time.Time        `json:"dateEnd"                 validate:"required"`
	WashingType             WashingType      `json:"washingType"             validate:"required,oneof=soie blanc cachemire synthetique mixte coton"`
	WashingRecommendation   string           `json:"washingRecommendation"   validate:"max=500"`
	DryingType              DryingType       `json:"dryingType"              validate:"required,oneof=air machine mixte"`
	DryingRecommendation    string           `json:"dryingRecommendation"    validate:"max=500"`
	Ironing                 bool             `json:"ironing"`
	DeplacementClient       bool             `json:"deplacementClient"`
	AddressPickup           string           `json:"addressPickup"           validate:"max=255"`
	AddressPickupLinenClean string           `json:"addressPickupLinenClean" validate:"max=255"`
	Price                   *decimal.Decimal `json:"price"`
}

func (r *CreateOrderRequest) Validate() error {
	if err := types.Validate(r); err != nil {
		return err
	}

	if !r.DateEnd.After(r.StartDate) {
		return types.NewValidationError("dateEnd", "dateEnd must be after startDate")
	}

	if r.DateEnd.Sub(r.StartDate) < MinOrderDuration {
		return types.Invalid("dateEnd", ErrOrderTooShort)
	}

	if utils.IsBlank(r.pickupAddress()) {
		return types.NewValidationError("addressPickup", "addressPickup is required")
	}

	if r.Price != nil && !r.Price.IsPositive() {
		return types.NewValidationError("price", "price must be positive")
	}

	return nil
}

// pickupAddress falls back to the washer's address when the client brings
// the laundry over.
func (r *CreateOrderRequest) pickupAddress() string {
	if utils.IsBlank(r.AddressPickup) && r.DeplacementClient {
		return r.WasherAddress
	}
	return r.AddressPickup
}

func (r *CreateOrderRequest) payload() services.CreateOrderPayload {
	deplacementClient := r.DeplacementClient
	return services.CreateOrderPayload{
		WasherEmail:             utils.NormalizeEmail(r.WasherEmail),
		StartDate:               r.StartDate.UTC().Format(time.RFC3339),
		DateEnd:                 r.DateEnd.UTC().Format(time.RFC3339),
		WashingType:             r.WashingType,
		WashingRecommendation:   utils.CleanUTF8(r.WashingRecommendation),
		DryingType:              r.DryingType,
		DryingRecommendation:    utils.CleanUTF8(r.DryingRecommendation),
		Ironing:                 r.Ironing,
		AddressPickup:           r.pickupAddress(),
		AddressPickupLinenClean: r.AddressPickupLinenClean,
		Price:                   r.Price,
		DeplacementClient:       &deplacementClient,
	}
}

type ActionRequest struct {
	Action OrderAction `json:"action" validate:"required"`
	Reason string      `json:"reason" validate:"required_if=Action cancel,max=500"`
}

func (r *ActionRequest) Validate() error {
	if err := types.Validate(r); err != nil {
		return err
	}
	if !r.Action.IsValid() {
		return types.NewValidationError("action", fmt.Sprintf("unknown action %q", r.Action))
	}
	return nil
}

type SearchWashersRequest struct {
	Latitude  float64 `json:"latitude"  validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Date      string  `json:"date"      validate:"omitempty,datetime=2006-01-02"`
	StartTime string  `json:"startTime" validate:"omitempty,clock"`
}

type SendToWashersRequest struct {
	WasherIDs []string `json:"washerIds" validate:"required,min=1,dive,required"`
}

func (oc *OrderController) Create(
	ctx context.Context,
	session *Session,
	req CreateOrderRequest,
) (*OrderView, error) {
	log := oc.log.TraceFromContext(ctx).Function("Create")

	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := oc.washAPI.CreateOrder(ctx, session, req.payload())
	if err != nil {
		return nil, log.Err("failed to create order", err, "washerEmail", req.WasherEmail)
	}

	oc.invalidate(ctx, session.UserID())
	if err := oc.events.PublishOrderCreated(session.ID, session.UserID(), order.ID); err != nil {
		log.Warn("failed to publish order creation", "orderID", order.ID, "error", err)
	}

	log.Info("Order created", "orderID", order.ID, "userID", session.UserID())

	view := oc.view(order, RoleClient)
	return &view, nil
}

func (oc *OrderController) Get(
	ctx context.Context,
	session *Session,
	role OrderRole,
	orderID string,
) (*OrderView, error) {
	if !role.IsValid() {
		return nil, types.NewValidationError("role", "role must be client or washer")
	}

	order, err := oc.washAPI.Order(ctx, session, role, orderID)
	if err != nil {
		return nil, err
	}

	view := oc.view(order, role)
	return &view, nil
}

func (oc *OrderController) ListForClient(ctx context.Context, session *Session) ([]OrderView, error) {
	orders, ok := oc.cache.GetClientOrders(ctx, session.UserID())
	if !ok {
		var err error
		orders, err = oc.washAPI.ClientOrders(ctx, session)
		if err != nil {
			return nil, err
		}
		oc.cache.SetClientOrders(ctx, session.UserID(), orders)
	}

	return oc.views(orders, RoleClient), nil
}

func (oc *OrderController) ListNewForWasher(
	ctx context.Context,
	session *Session,
	page, limit int,
) (*OrderListView, error) {
	page, limit = normalizePage(page, limit)

	result, err := oc.washAPI.WasherNewOrders(ctx, session, page, limit)
	if err != nil {
		return nil, err
	}
	return oc.listView(result), nil
}

func (oc *OrderController) ListMissionsForWasher(
	ctx context.Context,
	session *Session,
	page, limit int,
) (*OrderListView, error) {
	page, limit = normalizePage(page, limit)

	result, err := oc.washAPI.WasherMissions(ctx, session, page, limit)
	if err != nil {
		return nil, err
	}
	return oc.listView(result), nil
}

// PerformAction applies action to an order on behalf of role. The action
// must be one the current status affords; the returned order carries the
// optimistic status until a re-fetch confirms it.
func (oc *OrderController) PerformAction(
	ctx context.Context,
	session *Session,
	role OrderRole,
	orderID string,
	req ActionRequest,
) (*OrderView, error) {
	log := oc.log.TraceFromContext(ctx).Function("PerformAction")

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, types.NewValidationError("role", "role must be client or washer")
	}

	order, err := oc.washAPI.Order(ctx, session, role, orderID)
	if err != nil {
		return nil, err
	}

	affordances := services.ResolveAffordances(order, role, oc.now())
	if !affordances.Allows(req.Action) {
		view := oc.view(order, role)
		return &view, fmt.Errorf(
			"%w: %s cannot %s an order that is %s",
			ErrActionNotAllowed, role, req.Action, order.Status,
		)
	}

	method, path, _ := services.TransitionEndpoint(role, req.Action, orderID)
	entry := services.NewJournalEntry(
		session,
		"order."+string(req.Action),
		role,
		method,
		path,
		map[string]string{"fromStatus": string(order.Status), "reason": req.Reason},
	)
	entry.OrderID = &orderID

	started := time.Now()
	err = oc.washAPI.Transition(ctx, session, role, req.Action, orderID, utils.CleanUTF8(req.Reason))
	services.CompleteJournalEntry(entry, started, err)
	oc.record(ctx, entry)

	if err != nil {
		view := oc.view(order, role)
		return &view, log.Err(
			"order transition failed",
			err,
			"orderID", orderID,
			"action", req.Action,
			"retryable", services.IsRetryable(err),
		)
	}

	status, _ := services.NextStatus(req.Action)
	optimistic := *order
	optimistic.Status = status

	clientID := order.UserID
	if role == RoleClient {
		clientID = session.UserID()
	}
	oc.invalidate(ctx, clientID)

	if err := oc.events.PublishOrderTransition(
		session.ID,
		session.UserID(),
		orderID,
		clientID,
		string(role),
		string(req.Action),
		string(status),
	); err != nil {
		log.Warn("failed to publish order transition", "orderID", orderID, "error", err)
	}

	fresh, err := oc.washAPI.Order(ctx, session, role, orderID)
	if err != nil {
		log.Warn("could not reconcile order after transition", "orderID", orderID, "error", err)
		view := oc.view(&optimistic, role)
		view.Reconciled = false
		return &view, nil
	}

	log.Info("Order transitioned", "orderID", orderID, "action", req.Action, "status", fresh.Status)

	view := oc.view(fresh, role)
	return &view, nil
}

func (oc *OrderController) Cancel(
	ctx context.Context,
	session *Session,
	orderID, reason string,
) (*OrderView, error) {
	return oc.PerformAction(ctx, session, RoleClient, orderID, ActionRequest{
		Action: ActionCancel,
		Reason: reason,
	})
}

func (oc *OrderController) SearchWashers(
	ctx context.Context,
	session *Session,
	req SearchWashersRequest,
) ([]WasherSummary, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	return oc.washAPI.SearchWashers(ctx, session, services.WasherSearch{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Date:      req.Date,
		StartTime: req.StartTime,
	})
}

func (oc *OrderController) NearbyWashersForOrder(
	ctx context.Context,
	session *Session,
	orderID string,
	maxDistanceKm int,
) ([]WasherSummary, error) {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	return oc.washAPI.NearbyWashersForOrder(ctx, session, orderID, maxDistanceKm)
}

func (oc *OrderController) SendToOtherWashers(
	ctx context.Context,
	session *Session,
	orderID string,
	req SendToWashersRequest,
) error {
	log := oc.log.TraceFromContext(ctx).Function("SendToOtherWashers")

	if err := types.Validate(req); err != nil {
		return err
	}

	entry := services.NewJournalEntry(
		session,
		"order.sendToOtherWashers",
		RoleClient,
		http.MethodPost,
		"/washorders/sendToOtherWashers",
		req,
	)
	entry.OrderID = &orderID

	started := time.Now()
	err := oc.washAPI.SendToOtherWashers(ctx, session, orderID, req.WasherIDs)
	services.CompleteJournalEntry(entry, started, err)
	oc.record(ctx, entry)

	if err != nil {
		return log.Err("failed to forward order to other washers", err, "orderID", orderID)
	}
	return nil
}

// History lists the journaled calls the session's user made on an order.
func (oc *OrderController) History(
	ctx context.Context,
	session *Session,
	orderID string,
) ([]UpstreamRequest, error) {
	entries, err := oc.journal.ListByOrder(ctx, orderID, historyLimit)
	if err != nil {
		return nil, err
	}

	userID := session.UserID()
	own := make([]UpstreamRequest, 0, len(entries))
	for _, entry := range entries {
		if entry.UserID == userID {
			own = append(own, entry)
		}
	}
	return own, nil
}

// HandleOrderEvent drops the cached order list of the client an order event
// is about. Events from other gateway instances land here.
func (oc *OrderController) HandleOrderEvent(event events.Event) error {
	clientID := event.ClientID()
	if clientID == "" {
		return nil
	}
	return oc.cache.Invalidate(context.Background(), clientID)
}

func (oc *OrderController) invalidate(ctx context.Context, clientID string) {
	if clientID == "" {
		return
	}
	if err := oc.cache.Invalidate(ctx, clientID); err != nil {
		oc.log.TraceFromContext(ctx).Function("invalidate").
			Warn("failed to drop cached client orders", "clientID", clientID, "error", err)
	}
}

func (oc *OrderController) record(ctx context.Context, entry *UpstreamRequest) {
	if err := oc.journal.Create(ctx, entry); err != nil {
		oc.log.TraceFromContext(ctx).Function("record").
			Warn("failed to journal upstream call", "operation", entry.Operation, "error", err)
	}
}

func (oc *OrderController) view(order *WashOrder, role OrderRole) OrderView {
	now := oc.now()
	return OrderView{
		WashOrder:      order,
		IsLate:         order.IsLate(now),
		DisplayStatus:  order.DisplayStatus(),
		FormattedPrice: order.FormattedPrice(),
		Affordances:    services.ResolveAffordances(order, role, now),
		Reconciled:     true,
	}
}

func (oc *OrderController) views(orders []WashOrder, role OrderRole) []OrderView {
	views := make([]OrderView, len(orders))
	for i := range orders {
		views[i] = oc.view(&orders[i], role)
	}
	return views
}

func (oc *OrderController) listView(page *OrderPage) *OrderListView {
	return &OrderListView{
		Orders:     oc.views(page.Orders, RoleWasher),
		Page:       page.Meta.Page,
		TotalPages: page.Meta.TotalPages,
		HasMore:    page.Meta.HasMore(),
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
