package handlers

import (
	"washfamily/internal/app"
	userController "washfamily/internal/controllers/users"
	"washfamily/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	userController userController.UserControllerInterface
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	log := logger.New("handlers").File("user_handler")
	return &UserHandler{
		userController: app.Controllers.User,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users", h.middleware.RequireAuth())
	users.Get("/me", h.getProfile)
	users.Put("/me", h.updateProfile)
	users.Put("/me/complete", h.completeProfile)
	users.Post("/me/photo", h.uploadPhoto)
	users.Post("/me/location", h.postLocation)
	users.Get("/washers/nearby", h.nearbyWashers)

	washer := h.router.Group("/washer", h.middleware.RequireAuth())
	washer.Get("/status", h.getWasherStatus)
	washer.Patch("/status", h.setWasherStatus)
}

func (h *UserHandler) getProfile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getProfile")

	profile, err := h.userController.Profile(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(profile)
}

func (h *UserHandler) updateProfile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateProfile")

	var req userController.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	profile, err := h.userController.UpdateProfile(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(profile)
}

func (h *UserHandler) completeProfile(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("completeProfile")

	var req userController.CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	profile, err := h.userController.CompleteProfile(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(profile)
}

func (h *UserHandler) uploadPhoto(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("uploadPhoto")

	header, err := c.FormFile("profilePicture")
	if err != nil {
		return invalidBody(c, log, err)
	}

	photo, err := readAttachment(header)
	if err != nil {
		return invalidBody(c, log, err)
	}

	profile, err := h.userController.UploadPhoto(c.UserContext(), middleware.GetSession(c), photo)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(profile)
}

func (h *UserHandler) postLocation(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("postLocation")

	var req userController.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	location, err := h.userController.PostLocation(c.UserContext(), middleware.GetSession(c), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(location)
}

func (h *UserHandler) nearbyWashers(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("nearbyWashers")

	washers, err := h.userController.NearbyWashers(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"washers": washers})
}

func (h *UserHandler) getWasherStatus(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getWasherStatus")

	status, err := h.userController.WasherStatus(c.UserContext(), middleware.GetSession(c))
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(status)
}

func (h *UserHandler) setWasherStatus(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("setWasherStatus")

	var req userController.OnlineStatus
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	status, err := h.userController.SetOnline(c.UserContext(), middleware.GetSession(c), req.IsOnline)
	if err != nil {
		extra := fiber.Map{}
		if status != nil {
			extra["isOnline"] = status.IsOnline
		}
		return respondError(c, log, err, extra)
	}

	return c.JSON(status)
}
