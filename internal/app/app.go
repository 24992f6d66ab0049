package app

import (
	"context"
	"washfamily/config"
	"washfamily/internal/controllers"
	"washfamily/internal/database"
	"washfamily/internal/events"
	"washfamily/internal/handlers/middleware"
	"washfamily/internal/jobs"
	"washfamily/internal/repositories"
	"washfamily/internal/services"
	"washfamily/internal/telemetry"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	EventBus    *events.EventBus
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers

	shutdownTelemetry telemetry.ShutdownFunc
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	shutdownTelemetry := telemetry.Setup(context.Background(), config)

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events)

	repos := repositories.New(db, config)
	services, err := services.New(db, config, repos)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	controllers := controllers.New(services, repos, eventBus)
	middleware := middleware.New(config, controllers.Auth)

	if err := jobs.RegisterAllJobs(services.Scheduler, config, services, repos); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}
	if err := services.Scheduler.Start(context.Background()); err != nil {
		return &App{}, log.Err("failed to start scheduler", err)
	}

	app := &App{
		Database:          db,
		Middleware:        middleware,
		EventBus:          eventBus,
		Config:            config,
		Services:          services,
		Repos:             repos,
		Controllers:       controllers,
		shutdownTelemetry: shutdownTelemetry,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.Services.WashAPI,
		a.Services.Geocode,
		a.Services.SessionToken,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Repos.Session,
		a.Repos.AvailabilityDraft,
		a.Repos.OrderCache,
		a.Repos.UpstreamRequest,
		a.Controllers.Auth,
		a.Controllers.User,
		a.Controllers.Order,
		a.Controllers.Availability,
		a.Controllers.Notification,
		a.Controllers.Report,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.shutdownTelemetry != nil {
		if closeErr := a.shutdownTelemetry(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
