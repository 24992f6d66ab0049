package jobs

import (
	"time"
	"washfamily/config"
	"washfamily/internal/repositories"
	"washfamily/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	Daily  = services.Daily
	Hourly = services.Hourly
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
	repos repositories.Repository,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	journalCleanupJob := NewJournalCleanupJob(
		services.Transaction,
		repos.UpstreamRequest,
		config.JournalRetention(),
		Daily,
	)
	if err := schedulerService.AddJob(journalCleanupJob); err != nil {
		return log.Err("failed to register journal cleanup job", err)
	}

	draftSweepJob := NewDraftSweepJob(repos.AvailabilityDraft, time.Now, Hourly)
	if err := schedulerService.AddJob(draftSweepJob); err != nil {
		return log.Err("failed to register draft sweep job", err)
	}

	log.Info("Jobs registered", "count", 2)
	return nil
}
