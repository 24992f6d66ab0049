package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending               OrderStatus = "pending"
	OrderStatusAccepted              OrderStatus = "accepted"
	OrderStatusRefusedByWasher       OrderStatus = "refused_by_washer"
	OrderStatusPaid                  OrderStatus = "paid"
	OrderStatusPickupInProgress      OrderStatus = "pickup_in_progress"
	OrderStatusAwaitingPickupConfirm OrderStatus = "awaiting_pickup_confirm"
	OrderStatusPickedUp              OrderStatus = "picked_up"
	OrderStatusReceiptAndTreatment   OrderStatus = "receipt_and_treatment"
	OrderStatusCompleted             OrderStatus = "completed"
	OrderStatusCanceled              OrderStatus = "canceled"
	OrderStatusCanceledByClient      OrderStatus = "canceled_by_client"
	OrderStatusCanceledByWasher      OrderStatus = "canceled_by_washer"
	OrderStatusCanceledByAdmin       OrderStatus = "canceled_by_admin"
	OrderStatusCanceledBySystem      OrderStatus = "canceled_by_system"

	// OrderStatusCanceledByClientMisspelled is still emitted by some upstream
	// code paths. It is recognised as a client cancellation but kept distinct
	// so it stays visible in logs and journals.
	OrderStatusCanceledByClientMisspelled OrderStatus = "cancedled_by_client"
)

var knownOrderStatuses = map[OrderStatus]string{
	OrderStatusPending:                    "En attente",
	OrderStatusAccepted:                   "Acceptée",
	OrderStatusRefusedByWasher:            "Refusée par le washer",
	OrderStatusPaid:                       "Payée",
	OrderStatusPickupInProgress:           "Récupération en cours",
	OrderStatusAwaitingPickupConfirm:      "En attente de confirmation",
	OrderStatusPickedUp:                   "Linge récupéré",
	OrderStatusReceiptAndTreatment:        "En traitement",
	OrderStatusCompleted:                  "Terminée",
	OrderStatusCanceled:                   "Annulée",
	OrderStatusCanceledByClient:           "Annulée par le client",
	OrderStatusCanceledByClientMisspelled: "Annulée par le client",
	OrderStatusCanceledByWasher:           "Annulée par le washer",
	OrderStatusCanceledByAdmin:            "Annulée par l'administrateur",
	OrderStatusCanceledBySystem:           "Annulée automatiquement",
}

func (s OrderStatus) IsValid() bool {
	_, ok := knownOrderStatuses[s]
	return ok
}

func (s OrderStatus) IsMisspelled() bool {
	return s == OrderStatusCanceledByClientMisspelled
}

func (s OrderStatus) IsCanceled() bool {
	switch s {
	case OrderStatusCanceled,
		OrderStatusCanceledByClient,
		OrderStatusCanceledByClientMisspelled,
		OrderStatusCanceledByWasher,
		OrderStatusCanceledByAdmin,
		OrderStatusCanceledBySystem:
		return true
	}
	return false
}

// IsTerminal reports whether no party can move the order forward anymore.
func (s OrderStatus) IsTerminal() bool {
	return s.IsCanceled() || s == OrderStatusCompleted || s == OrderStatusRefusedByWasher
}

func (s OrderStatus) Label() string {
	if label, ok := knownOrderStatuses[s]; ok {
		return label
	}
	return string(s)
}

type OrderRole string

const (
	RoleClient OrderRole = "client"
	RoleWasher OrderRole = "washer"
)

func (r OrderRole) IsValid() bool {
	return r == RoleClient || r == RoleWasher
}

type OrderAction string

const (
	ActionAccept         OrderAction = "accept"
	ActionRefuse         OrderAction = "refuse"
	ActionPay            OrderAction = "pay"
	ActionInitiatePickup OrderAction = "initiatePickup"
	ActionConfirmArrival OrderAction = "confirmArrival"
	ActionConfirmReceipt OrderAction = "confirmReceipt"
	ActionCancel         OrderAction = "cancel"
)

func (a OrderAction) IsValid() bool {
	switch a {
	case ActionAccept, ActionRefuse, ActionPay, ActionInitiatePickup,
		ActionConfirmArrival, ActionConfirmReceipt, ActionCancel:
		return true
	}
	return false
}

// IsForward is true for every action that advances the lifecycle, which is
// all of them except cancel.
func (a OrderAction) IsForward() bool {
	return a.IsValid() && a != ActionCancel
}

type WashingType string

const (
	WashingSoie        WashingType = "soie"
	WashingBlanc       WashingType = "blanc"
	WashingCachemire   WashingType = "cachemire"
	WashingSynthetique WashingType = "synthetique"
	WashingMixte       WashingType = "mixte"
	WashingCoton       WashingType = "coton"
)

type DryingType string

const (
	DryingAir     DryingType = "air"
	DryingMachine DryingType = "machine"
	DryingMixte   DryingType = "mixte"
)

// Counterpart is the denormalized snapshot of the other party on an order.
type Counterpart struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
}

func (c *Counterpart) FullName() string {
	if c == nil {
		return ""
	}
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}

type WashOrder struct {
	ID                    string          `json:"id"`
	OrderNumber           string          `json:"orderNumber,omitempty"`
	UserID                string          `json:"userId"`
	WasherID              string          `json:"washerId"`
	Status                OrderStatus     `json:"status"`
	Price                 decimal.Decimal `json:"price"`
	WashingType           WashingType     `json:"washingType,omitempty"`
	WashingRecommendation string          `json:"washingRecommendation,omitempty"`
	DryingType            DryingType      `json:"dryingType,omitempty"`
	DryingRecommendation  string          `json:"dryingRecommendation,omitempty"`
	Ironing               bool            `json:"ironing"`
	DeplacementClient     bool            `json:"deplacementClient"`
	AddressPickup         string          `json:"addressPickup,omitempty"`
	Recommendation        string          `json:"recommendation,omitempty"`
	DateStart             time.Time       `json:"dateStart"`
	DateEnd               time.Time       `json:"dateEnd"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
	Late                  *bool           `json:"isLate,omitempty"`
	User                  *Counterpart    `json:"User,omitempty"`
	Washer                *Counterpart    `json:"Washer,omitempty"`
}

// IsLate is true when the end date has passed and the order is not completed.
// The upstream isLate field is never consulted.
func (o *WashOrder) IsLate(now time.Time) bool {
	return o.DateEnd.Before(now) && o.Status != OrderStatusCompleted
}

func (o *WashOrder) DisplayStatus() string {
	return o.Status.Label()
}

func (o *WashOrder) FormattedPrice() string {
	return o.Price.StringFixed(2) + " €"
}

func (o *WashOrder) IsUpcoming() bool {
	return o.Status == OrderStatusAccepted || o.Status == OrderStatusPaid
}

// Counterparty returns the snapshot of the party opposite to role.
func (o *WashOrder) Counterparty(role OrderRole) *Counterpart {
	if role == RoleWasher {
		return o.User
	}
	return o.Washer
}

type PageMeta struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total,omitempty"`
}

func (m PageMeta) HasMore() bool {
	return m.Page < m.TotalPages
}

type OrderPage struct {
	Orders []WashOrder `json:"orders"`
	Meta   PageMeta    `json:"meta"`
}
