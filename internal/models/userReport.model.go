package models

import "time"

type ReportReason string

const (
	ReportReasonHarassment            ReportReason = "harassment"
	ReportReasonScam                  ReportReason = "scam"
	ReportReasonInappropriateBehavior ReportReason = "inappropriate_behavior"
	ReportReasonSpam                  ReportReason = "spam"
	ReportReasonViolationOfTerms      ReportReason = "violation_of_terms"
	ReportReasonOther                 ReportReason = "other"
)

func (r ReportReason) IsValid() bool {
	switch r {
	case ReportReasonHarassment, ReportReasonScam, ReportReasonInappropriateBehavior,
		ReportReasonSpam, ReportReasonViolationOfTerms, ReportReasonOther:
		return true
	}
	return false
}

func (r ReportReason) RequiresDescription() bool {
	return r == ReportReasonOther
}

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusReviewed  ReportStatus = "reviewed"
	ReportStatusDismissed ReportStatus = "dismissed"
	ReportStatusResolved  ReportStatus = "resolved"
)

type UserReport struct {
	ID             string       `json:"id"`
	ReporterID     string       `json:"reporterId"`
	ReportedUserID string       `json:"reportedUserId"`
	Reason         ReportReason `json:"reason"`
	Description    string       `json:"description,omitempty"`
	Attachments    []string     `json:"attachments,omitempty"`
	Status         ReportStatus `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
	ReviewedAt     *time.Time   `json:"reviewedAt,omitempty"`
}

func (r *UserReport) IsPending() bool {
	return r.Status == "" || r.Status == ReportStatusPending
}

// Attachment is an uploaded file forwarded as one multipart part.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}
