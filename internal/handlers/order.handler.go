package handlers

import (
	"washfamily/internal/app"
	orderController "washfamily/internal/controllers/orders"
	"washfamily/internal/handlers/middleware"
	"washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Handler
	orderController orderController.OrderControllerInterface
}

func NewOrderHandler(app app.App, router fiber.Router) *OrderHandler {
	log := logger.New("handlers").File("order_handler")
	return &OrderHandler{
		orderController: app.Controllers.Order,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *OrderHandler) Register() {
	orders := h.router.Group("/orders", h.middleware.RequireAuth())
	orders.Post("", h.createOrder)
	orders.Get("", h.listClientOrders)
	orders.Get("/washers/search", h.searchWashers)
	orders.Get("/:id", h.getOrder(models.RoleClient))
	orders.Post("/:id/actions", h.performAction(models.RoleClient))
	orders.Post("/:id/cancel", h.cancelOrder)
	orders.Get("/:id/history", h.orderHistory)
	orders.Get("/:id/washers/nearby", h.nearbyWashersForOrder)
	orders.Post("/:id/washers", h.sendToOtherWashers)

	missions := h.router.Group("/washer/orders", h.middleware.RequireAuth(), h.middleware.RequireWasher())
	missions.Get("/new", h.listNewOrders)
	missions.Get("/missions", h.listMissions)
	missions.Get("/:id", h.getOrder(models.RoleWasher))
	missions.Post("/:id/actions", h.performAction(models.RoleWasher))
	missions.Get("/:id/history", h.orderHistory)
}

func (h *OrderHandler) createOrder(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createOrder")

	var req orderController.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	order, err := h.orderController.Create(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) listClientOrders(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listClientOrders")

	orders, err := h.orderController.ListForClient(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) listNewOrders(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listNewOrders")

	orders, err := h.orderController.ListNewForWasher(
		c.UserContext(),
		middleware.GetSession(c),
		c.QueryInt("page", 1),
		c.QueryInt("limit", orderController.DefaultPageLimit),
	)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(orders)
}

func (h *OrderHandler) listMissions(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listMissions")

	orders, err := h.orderController.ListMissionsForWasher(
		c.UserContext(),
		middleware.GetSession(c),
		c.QueryInt("page", 1),
		c.QueryInt("limit", orderController.DefaultPageLimit),
	)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(orders)
}

func (h *OrderHandler) getOrder(role models.OrderRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := h.log.TraceFromContext(c.UserContext()).Function("getOrder")

		order, err := h.orderController.Get(c.UserContext(), middleware.GetSession(c), role, c.Params("id"))
		if err != nil {
			return respondError(c, log, err, nil)
		}

		return c.JSON(fiber.Map{"order": order})
	}
}

// performAction answers with the order even when the transition fails, so
// the client can keep rendering what it had.
func (h *OrderHandler) performAction(role models.OrderRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := h.log.TraceFromContext(c.UserContext()).Function("performAction")

		var req orderController.ActionRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, log, err)
		}

		order, err := h.orderController.PerformAction(
			c.UserContext(),
			middleware.GetSession(c),
			role,
			c.Params("id"),
			req,
		)
		return h.orderResult(c, log, order, err)
	}
}

func (h *OrderHandler) cancelOrder(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("cancelOrder")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	order, err := h.orderController.Cancel(c.UserContext(), middleware.GetSession(c), c.Params("id"), req.Reason)
	return h.orderResult(c, log, order, err)
}

func (h *OrderHandler) orderResult(
	c *fiber.Ctx,
	log logger.Logger,
	order *orderController.OrderView,
	err error,
) error {
	if err != nil {
		var extra fiber.Map
		if order != nil {
			extra = fiber.Map{"order": order}
		}
		return respondError(c, log, err, extra)
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) orderHistory(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("orderHistory")

	entries, err := h.orderController.History(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"history": entries})
}

func (h *OrderHandler) searchWashers(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("searchWashers")

	req := orderController.SearchWashersRequest{
		Latitude:  c.QueryFloat("latitude"),
		Longitude: c.QueryFloat("longitude"),
		Date:      c.Query("date"),
		StartTime: c.Query("startTime"),
	}

	washers, err := h.orderController.SearchWashers(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"washers": washers})
}

func (h *OrderHandler) nearbyWashersForOrder(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("nearbyWashersForOrder")

	washers, err := h.orderController.NearbyWashersForOrder(
		c.UserContext(),
		middleware.GetSession(c),
		c.Params("id"),
		c.QueryInt("maxDistance"),
	)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"washers": washers})
}

func (h *OrderHandler) sendToOtherWashers(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("sendToOtherWashers")

	var req orderController.SendToWashersRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	if err := h.orderController.SendToOtherWashers(
		c.UserContext(),
		middleware.GetSession(c),
		c.Params("id"),
		req,
	); err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"message": "Order sent to the selected washers"})
}
