package models

import (
	"gorm.io/datatypes"
)

type UpstreamOutcome string

const (
	UpstreamOutcomeSucceeded UpstreamOutcome = "succeeded"
	UpstreamOutcomeFailed    UpstreamOutcome = "failed"
	UpstreamOutcomeRejected  UpstreamOutcome = "rejected"
)

// UpstreamRequest journals a state-changing call forwarded to the WashFamily API.
type UpstreamRequest struct {
	BaseUUIDModel
	SessionID    string          `gorm:"type:text;index"                       json:"sessionId"`
	UserID       string          `gorm:"type:text;index:idx_upstream_user"     json:"userId"`
	OrderID      *string         `gorm:"type:text;index:idx_upstream_order"    json:"orderId,omitempty"`
	Operation    string          `gorm:"type:text;not null"                    json:"operation"`
	Role         string          `gorm:"type:text"                             json:"role,omitempty"`
	Method       string          `gorm:"type:text;not null"                    json:"method"`
	Path         string          `gorm:"type:text;not null"                    json:"path"`
	StatusCode   int             `gorm:"type:int"                              json:"statusCode"`
	Outcome      UpstreamOutcome `gorm:"type:text;not null;default:'succeeded'" json:"outcome"`
	ErrorMessage *string         `gorm:"type:text"                             json:"errorMessage,omitempty"`
	Payload      datatypes.JSON  `gorm:"type:jsonb"                            json:"payload,omitempty"`
	DurationMs   int64           `gorm:"type:bigint"                           json:"durationMs"`
}

func (UpstreamRequest) TableName() string {
	return "upstream_requests"
}

func (r *UpstreamRequest) MarkFailed(outcome UpstreamOutcome, statusCode int, err error) {
	r.Outcome = outcome
	r.StatusCode = statusCode
	if err != nil {
		msg := err.Error()
		r.ErrorMessage = &msg
	}
}
