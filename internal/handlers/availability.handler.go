package handlers

import (
	"washfamily/internal/app"
	availabilityController "washfamily/internal/controllers/availability"
	"washfamily/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AvailabilityHandler struct {
	Handler
	availabilityController availabilityController.AvailabilityControllerInterface
}

func NewAvailabilityHandler(app app.App, router fiber.Router) *AvailabilityHandler {
	log := logger.New("handlers").File("availability_handler")
	return &AvailabilityHandler{
		availabilityController: app.Controllers.Availability,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AvailabilityHandler) Register() {
	availability := h.router.Group(
		"/availability",
		h.middleware.RequireAuth(),
		h.middleware.RequireWasher(),
	)

	availability.Get("/week", h.getWeek)
	availability.Post("/slots", h.addSlot)
	availability.Delete("/slots", h.removeSlot)
	availability.Post("/save", h.save)
	availability.Delete("/draft", h.discard)
	availability.Post("/block", h.blockDay)
	availability.Post("/unblock", h.unblockDay)
	availability.Post("/cleanup", h.cleanupExpired)

	availability.Get("/defaults", h.getDefaultSlots)
	availability.Post("/defaults", h.addDefaultSlot)
	availability.Put("/defaults", h.replaceDefaultSlots)
	availability.Delete("/defaults/:id", h.deleteDefaultSlot)
}

func (h *AvailabilityHandler) getWeek(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getWeek")

	week, err := h.availabilityController.Week(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(week)
}

func (h *AvailabilityHandler) addSlot(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("addSlot")

	var req availabilityController.SlotRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	week, err := h.availabilityController.AddSlot(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(week)
}

func (h *AvailabilityHandler) removeSlot(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("removeSlot")

	var req availabilityController.SlotRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	week, err := h.availabilityController.RemoveSlot(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(week)
}

// save reports partial success in the body. Slots upstream refused stay
// pending in the returned week.
func (h *AvailabilityHandler) save(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("save")

	result, err := h.availabilityController.Save(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(result)
}

func (h *AvailabilityHandler) discard(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("discard")

	week, err := h.availabilityController.Discard(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(week)
}

func (h *AvailabilityHandler) blockDay(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("blockDay")

	var req availabilityController.DateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	week, err := h.availabilityController.BlockDay(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(week)
}

func (h *AvailabilityHandler) unblockDay(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("unblockDay")

	var req availabilityController.DateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	week, err := h.availabilityController.UnblockDay(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(week)
}

func (h *AvailabilityHandler) cleanupExpired(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("cleanupExpired")

	if err := h.availabilityController.CleanupExpired(c.UserContext(), middleware.GetSession(c)); err != nil {
		return respondError(c, log, err, nil)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AvailabilityHandler) getDefaultSlots(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getDefaultSlots")

	slots, err := h.availabilityController.DefaultSlots(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"defaultSlots": slots})
}

func (h *AvailabilityHandler) addDefaultSlot(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("addDefaultSlot")

	var req availabilityController.DefaultSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	slots, err := h.availabilityController.AddDefaultSlot(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"defaultSlots": slots})
}

func (h *AvailabilityHandler) replaceDefaultSlots(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("replaceDefaultSlots")

	var req struct {
		DefaultSlots []availabilityController.DefaultSlotRequest `json:"defaultSlots"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	slots, err := h.availabilityController.ReplaceDefaultSlots(
		c.UserContext(),
		middleware.GetSession(c),
		req.DefaultSlots,
	)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"defaultSlots": slots})
}

func (h *AvailabilityHandler) deleteDefaultSlot(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteDefaultSlot")

	slots, err := h.availabilityController.DeleteDefaultSlot(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"defaultSlots": slots})
}
