package handlers

import (
	"washfamily/internal/app"
	notificationController "washfamily/internal/controllers/notifications"
	"washfamily/internal/handlers/middleware"
	"washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	Handler
	notificationController notificationController.NotificationControllerInterface
}

func NewNotificationHandler(app app.App, router fiber.Router) *NotificationHandler {
	log := logger.New("handlers").File("notification_handler")
	return &NotificationHandler{
		notificationController: app.Controllers.Notification,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *NotificationHandler) Register() {
	notifications := h.router.Group("/notifications", h.middleware.RequireAuth())
	notifications.Get("", h.listNotifications)
	notifications.Patch("/:id/read", h.markRead)
}

func (h *NotificationHandler) listNotifications(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listNotifications")

	page, err := h.notificationController.List(
		c.UserContext(),
		middleware.GetSession(c),
		models.OrderRole(c.Query("role", string(models.RoleClient))),
		c.QueryInt("page", 1),
		c.QueryInt("limit", notificationController.DefaultLimit),
	)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(page)
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("markRead")

	if err := h.notificationController.MarkRead(c.UserContext(), middleware.GetSession(c), c.Params("id")); err != nil {
		return respondError(c, log, err, nil)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
