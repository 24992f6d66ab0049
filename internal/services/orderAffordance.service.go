package services

import (
	"fmt"
	"math"
	"slices"
	"time"
	"washfamily/internal/models"
)

const (
	// PickupWindow is how long before dateStart a client travelling to the
	// washer may start the pickup.
	PickupWindow = time.Hour

	CancelFeesWarning = "fees may apply"
)

// PickupCountdown tells a client how long until initiatePickup unlocks.
type PickupCountdown struct {
	AvailableAt time.Time `json:"availableAt"`
	Hours       int       `json:"hours"`
	Message     string    `json:"message"`
}

// Affordances describes what role may do with an order right now. Waiting is
// set when the other party holds the next forward action.
type Affordances struct {
	Role          models.OrderRole     `json:"role"`
	Actions       []models.OrderAction `json:"actions"`
	Waiting       bool                 `json:"waiting"`
	Countdown     *PickupCountdown     `json:"countdown,omitempty"`
	CancelWarning string               `json:"cancelWarning,omitempty"`
}

func (a Affordances) Allows(action models.OrderAction) bool {
	return slices.Contains(a.Actions, action)
}

// HasForwardAction reports whether role can advance the lifecycle.
func (a Affordances) HasForwardAction() bool {
	for _, action := range a.Actions {
		if action.IsForward() {
			return true
		}
	}
	return false
}

// ResolveAffordances is the single table mapping an order's status, its
// deplacementClient flag and the viewer's role to the allowed actions.
func ResolveAffordances(
	order *models.WashOrder,
	role models.OrderRole,
	now time.Time,
) Affordances {
	result := Affordances{Role: role, Actions: []models.OrderAction{}}
	if order == nil || !role.IsValid() {
		return result
	}

	clientTravels := order.DeplacementClient
	client := role == models.RoleClient

	switch order.Status {
	case models.OrderStatusPending:
		if client {
			result.Waiting = true
		} else {
			result.Actions = append(result.Actions, models.ActionAccept, models.ActionRefuse)
		}

	case models.OrderStatusAccepted:
		if client {
			result.Actions = append(result.Actions, models.ActionPay)
		} else {
			result.Waiting = true
		}

	case models.OrderStatusPaid:
		switch {
		case client && clientTravels:
			if countdown := pickupCountdown(order.DateStart, now); countdown != nil {
				result.Countdown = countdown
			} else {
				result.Actions = append(result.Actions, models.ActionInitiatePickup)
			}
		case client:
			result.Waiting = true
			result.Actions = append(result.Actions, models.ActionCancel)
			result.CancelWarning = CancelFeesWarning
		case clientTravels:
			result.Waiting = true
		default:
			result.Actions = append(result.Actions, models.ActionInitiatePickup)
		}

	case models.OrderStatusPickupInProgress:
		result.grantTo(client == clientTravels, models.ActionConfirmArrival)

	case models.OrderStatusAwaitingPickupConfirm:
		result.grantTo(client != clientTravels, models.ActionConfirmReceipt)
	}

	return result
}

func (a *Affordances) grantTo(holder bool, action models.OrderAction) {
	if holder {
		a.Actions = append(a.Actions, action)
		return
	}
	a.Waiting = true
}

// pickupCountdown returns nil once the pickup window is open, including when
// dateStart has already passed.
func pickupCountdown(dateStart, now time.Time) *PickupCountdown {
	remaining := dateStart.Sub(now)
	if remaining <= PickupWindow {
		return nil
	}

	hours := int(math.Ceil(remaining.Hours()))
	return &PickupCountdown{
		AvailableAt: dateStart.Add(-PickupWindow),
		Hours:       hours,
		Message:     fmt.Sprintf("available in %d hours", hours),
	}
}

var optimisticStatuses = map[models.OrderAction]models.OrderStatus{
	models.ActionAccept:         models.OrderStatusAccepted,
	models.ActionRefuse:         models.OrderStatusRefusedByWasher,
	models.ActionPay:            models.OrderStatusPaid,
	models.ActionInitiatePickup: models.OrderStatusPickupInProgress,
	models.ActionConfirmArrival: models.OrderStatusAwaitingPickupConfirm,
	models.ActionConfirmReceipt: models.OrderStatusPickedUp,
	models.ActionCancel:         models.OrderStatusCanceledByClient,
}

// NextStatus is the status assumed after upstream accepted action, until the
// order is re-fetched.
func NextStatus(action models.OrderAction) (models.OrderStatus, bool) {
	status, ok := optimisticStatuses[action]
	return status, ok
}
