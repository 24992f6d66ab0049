package services

import (
	"encoding/json"
	"net/http"
	"time"
	"washfamily/internal/models"

	"gorm.io/datatypes"
)

// NewJournalEntry starts the journal row for a state-changing call made on
// behalf of session.
func NewJournalEntry(
	session *models.Session,
	operation string,
	role models.OrderRole,
	method, path string,
	payload any,
) *models.UpstreamRequest {
	entry := &models.UpstreamRequest{
		SessionID: session.ID,
		UserID:    session.UserID(),
		Operation: operation,
		Role:      string(role),
		Method:    method,
		Path:      path,
		Outcome:   models.UpstreamOutcomeSucceeded,
	}

	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			entry.Payload = datatypes.JSON(data)
		}
	}

	return entry
}

// CompleteJournalEntry records how long the call took and how it ended.
// Retryable failures are journaled as failed, everything else upstream
// refused as rejected.
func CompleteJournalEntry(entry *models.UpstreamRequest, started time.Time, err error) {
	entry.DurationMs = time.Since(started).Milliseconds()

	if err == nil {
		entry.Outcome = models.UpstreamOutcomeSucceeded
		entry.StatusCode = http.StatusOK
		return
	}

	outcome := models.UpstreamOutcomeRejected
	if IsRetryable(err) {
		outcome = models.UpstreamOutcomeFailed
	}
	entry.MarkFailed(outcome, UpstreamStatus(err), err)
}
