package services

import (
	"context"
	"encoding/json"
	"net/http"
	"washfamily/internal/models"
)

type ReportSubmission struct {
	ReportedUserID string
	Reason         models.ReportReason
	Description    string
	Attachments    []models.Attachment
}

type BlockPayload struct {
	BlockedUserID string `json:"blockedUserId"`
	Reason        string `json:"reason,omitempty"`
	AsWasher      bool   `json:"asWasher"`
}

func (s *WashAPIService) SubmitReport(
	ctx context.Context,
	session *models.Session,
	submission ReportSubmission,
) (*models.UserReport, error) {
	fields := []formField{
		{name: "reportedUserId", value: submission.ReportedUserID},
		{name: "reason", value: string(submission.Reason)},
	}
	if submission.Description != "" {
		fields = append(fields, formField{name: "description", value: submission.Description})
	}

	files := make([]formFile, len(submission.Attachments))
	for i, attachment := range submission.Attachments {
		files[i] = formFile{field: "attachments", file: attachment}
	}

	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodPost,
		path:          "/users/reports",
		fields:        fields,
		files:         files,
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	report := &models.UserReport{
		ReportedUserID: submission.ReportedUserID,
		Reason:         submission.Reason,
		Description:    submission.Description,
		Status:         models.ReportStatusPending,
	}
	if err := decodeEnveloped(raw, report, "report", "data"); err != nil {
		s.log.Function("SubmitReport").Warn("could not decode report response", "error", err)
	}

	return report, nil
}

func (s *WashAPIService) BlockUser(
	ctx context.Context,
	session *models.Session,
	payload BlockPayload,
) error {
	return s.do(ctx, session, apiRequest{
		method:        http.MethodPost,
		path:          "/users/block",
		body:          payload,
		authenticated: true,
	}, nil)
}
