package handlers

import (
	"washfamily/internal/app"
	authController "washfamily/internal/controllers/auth"
	"washfamily/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	authController authController.AuthControllerInterface
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	log := logger.New("handlers").File("auth_handler")
	return &AuthHandler{
		authController: app.Controllers.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")

	auth.Post("/register", h.register)
	auth.Post("/login", h.login)
	auth.Post("/logout", h.middleware.RequireAuth(), h.logout)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("register")

	var req authController.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	if err := h.authController.Register(c.UserContext(), req); err != nil {
		return respondError(c, log, err, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created, you can now sign in",
	})
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("login")

	var req authController.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, log, err)
	}

	response, err := h.authController.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("logout")

	if err := h.authController.Logout(c.UserContext(), middleware.GetSession(c)); err != nil {
		return respondError(c, log, err, nil)
	}

	return c.JSON(fiber.Map{"message": "Logout successful"})
}
