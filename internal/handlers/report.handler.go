package handlers

import (
	"strings"
	"washfamily/internal/app"
	reportController "washfamily/internal/controllers/reports"
	"washfamily/internal/handlers/middleware"
	"washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	Handler
	reportController reportController.ReportControllerInterface
}

func NewReportHandler(app app.App, router fiber.Router) *ReportHandler {
	log := logger.New("handlers").File("report_handler")
	return &ReportHandler{
		reportController: app.Controllers.Report,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReportHandler) Register() {
	h.router.Post("/reports", h.middleware.RequireAuth(), h.submitReport)
	h.router.Post("/blocks", h.middleware.RequireAuth(), h.blockUser)
}

// submitReport accepts either JSON or a multipart form whose "attachments"
// parts are forwarded as evidence.
func (h *ReportHandler) submitReport(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("submitReport")

	var req reportController.ReportRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return invalidBody(c, log, err)
		}

		req.ReportedUserID = formValue(form.Value, "reportedUserId")
		req.Reason = models.ReportReason(formValue(form.Value, "reason"))
		req.Description = formValue(form.Value, "description")

		for _, header := range form.File["attachments"] {
			attachment, err := readAttachment(header)
			if err != nil {
				return invalidBody(c, log, err)
			}
			req.Attachments = append(req.Attachments, attachment)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	report, err := h.reportController.Report(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"report": report})
}

func (h *ReportHandler) blockUser(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("blockUser")

	var req reportController.BlockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	if err := h.reportController.Block(c.UserContext(), middleware.GetSession(c), req); err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"message": "User blocked"})
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
