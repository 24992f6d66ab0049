package reportController

import (
	"context"
	"errors"
	"fmt"
	"strings"
	. "washfamily/internal/models"
	"washfamily/internal/services"
	"washfamily/internal/types"
	"washfamily/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	MaxAttachments     = 5
	MaxAttachmentBytes = 10 << 20
	defaultContentType = "image/jpeg"
)

var (
	ErrTooManyAttachments = fmt.Errorf("at most %d attachments are allowed", MaxAttachments)
	ErrCannotBlockSelf    = errors.New("you cannot block yourself")
)

type washAPI interface {
	SubmitReport(ctx context.Context, session *Session, submission services.ReportSubmission) (*UserReport, error)
	BlockUser(ctx context.Context, session *Session, payload services.BlockPayload) error
}

type ReportController struct {
	washAPI washAPI
	log     logger.Logger
}

type ReportControllerInterface interface {
	Report(ctx context.Context, session *Session, req ReportRequest) (*UserReport, error)
	Block(ctx context.Context, session *Session, req BlockRequest) error
}

func New(services services.Service) ReportControllerInterface {
	return &ReportController{
		washAPI: services.WashAPI,
		log:     logger.New("reportController"),
	}
}

type ReportRequest struct {
	ReportedUserID string       `json:"reportedUserId" validate:"required"`
	Reason         ReportReason `json:"reason"         validate:"required,oneof=harassment scam inappropriate_behavior spam violation_of_terms other"`
	Description    string       `json:"description"    validate:"max=2000"`
	Attachments    []Attachment `json:"-"`
}

func (r *ReportRequest) Validate() error {
	if err := types.Validate(r); err != nil {
		return err
	}

	if r.Reason.RequiresDescription() && utils.IsBlank(r.Description) {
		return types.NewValidationError("description", "description is required when the reason is other")
	}

	if len(r.Attachments) > MaxAttachments {
		return types.Invalid("attachments", ErrTooManyAttachments)
	}

	for i, attachment := range r.Attachments {
		if len(attachment.Data) == 0 {
			return types.NewValidationError("attachments", fmt.Sprintf("attachment %d is empty", i+1))
		}
		if len(attachment.Data) > MaxAttachmentBytes {
			return types.NewValidationError("attachments", fmt.Sprintf("attachment %d is too large", i+1))
		}
		if attachment.ContentType != "" && !strings.HasPrefix(attachment.ContentType, "image/") {
			return types.NewValidationError("attachments", fmt.Sprintf("attachment %d must be an image", i+1))
		}
	}

	return nil
}

// attachments names unnamed uploads photo_<n>.jpg and assumes JPEG when no
// content type was sent.
func (r *ReportRequest) attachments() []Attachment {
	named := make([]Attachment, len(r.Attachments))
	for i, attachment := range r.Attachments {
		if attachment.Filename == "" {
			attachment.Filename = fmt.Sprintf("photo_%d.jpg", i+1)
		}
		if attachment.ContentType == "" {
			attachment.ContentType = defaultContentType
		}
		named[i] = attachment
	}
	return named
}

type BlockRequest struct {
	BlockedUserID string `json:"blockedUserId" validate:"required"`
	Reason        string `json:"reason"        validate:"max=500"`
	AsWasher      bool   `json:"asWasher"`
}

func (rc *ReportController) Report(
	ctx context.Context,
	session *Session,
	req ReportRequest,
) (*UserReport, error) {
	log := rc.log.TraceFromContext(ctx).Function("Report")

	if err := req.Validate(); err != nil {
		return nil, err
	}

	report, err := rc.washAPI.SubmitReport(ctx, session, services.ReportSubmission{
		ReportedUserID: req.ReportedUserID,
		Reason:         req.Reason,
		Description:    utils.CleanUTF8(strings.TrimSpace(req.Description)),
		Attachments:    req.attachments(),
	})
	if err != nil {
		return nil, log.Err("failed to submit report", err, "reportedUserID", req.ReportedUserID)
	}

	if report.ReporterID == "" {
		report.ReporterID = session.UserID()
	}

	log.Info(
		"User reported",
		"reporterID", session.UserID(),
		"reportedUserID", req.ReportedUserID,
		"reason", req.Reason,
		"attachments", len(req.Attachments),
	)

	return report, nil
}

func (rc *ReportController) Block(ctx context.Context, session *Session, req BlockRequest) error {
	log := rc.log.TraceFromContext(ctx).Function("Block")

	if err := types.Validate(req); err != nil {
		return err
	}
	if req.BlockedUserID == session.UserID() {
		return types.Invalid("blockedUserId", ErrCannotBlockSelf)
	}

	if err := rc.washAPI.BlockUser(ctx, session, services.BlockPayload{
		BlockedUserID: req.BlockedUserID,
		Reason:        utils.CleanUTF8(req.Reason),
		AsWasher:      req.AsWasher,
	}); err != nil {
		return log.Err("failed to block user", err, "blockedUserID", req.BlockedUserID)
	}

	log.Info("User blocked", "userID", session.UserID(), "blockedUserID", req.BlockedUserID)
	return nil
}
