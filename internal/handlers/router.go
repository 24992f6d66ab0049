package handlers

import (
	"washfamily/internal/app"
	"washfamily/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewAuthHandler(*app, api).Register()
	NewUserHandler(*app, api).Register()
	NewOrderHandler(*app, api).Register()
	NewAvailabilityHandler(*app, api).Register()
	NewNotificationHandler(*app, api).Register()
	NewReportHandler(*app, api).Register()

	return nil
}
