package services

import (
	"washfamily/config"
	"washfamily/internal/database"
	"washfamily/internal/repositories"
)

type Service struct {
	WashAPI      *WashAPIService
	Geocode      *GeocodeService
	SessionToken *SessionTokenService
	Transaction  *TransactionService
	Scheduler    *SchedulerService
}

func New(db database.DB, config config.Config, repos repositories.Repository) (Service, error) {
	washAPIService, err := NewWashAPIService(config, repos.Session)
	if err != nil {
		return Service{}, err
	}

	return Service{
		WashAPI:      washAPIService,
		Geocode:      NewGeocodeService(config, db.Cache.ClientAPI),
		SessionToken: NewSessionTokenService(config),
		Transaction:  NewTransactionService(db),
		Scheduler:    NewSchedulerService(),
	}, nil
}
