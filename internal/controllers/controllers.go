package controllers

import (
	"washfamily/internal/events"
	"washfamily/internal/repositories"
	"washfamily/internal/services"

	authController "washfamily/internal/controllers/auth"
	availabilityController "washfamily/internal/controllers/availability"
	notificationController "washfamily/internal/controllers/notifications"
	orderController "washfamily/internal/controllers/orders"
	reportController "washfamily/internal/controllers/reports"
	userController "washfamily/internal/controllers/users"
)

type Controllers struct {
	Auth         authController.AuthControllerInterface
	User         userController.UserControllerInterface
	Order        orderController.OrderControllerInterface
	Availability availabilityController.AvailabilityControllerInterface
	Notification notificationController.NotificationControllerInterface
	Report       reportController.ReportControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
) Controllers {
	orders := orderController.New(repos, services, eventBus)
	eventBus.Subscribe(events.ORDERS_CHANNEL, orders.HandleOrderEvent)

	return Controllers{
		Auth:         authController.New(services, repos),
		User:         userController.New(repos, services),
		Order:        orders,
		Availability: availabilityController.New(repos, services, eventBus),
		Notification: notificationController.New(services),
		Report:       reportController.New(services),
	}
}
