package jobs

import (
	"context"
	"time"
	"washfamily/internal/repositories"
	"washfamily/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

type transactor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

// JournalCleanupJob prunes upstream request journal rows past retention.
type JournalCleanupJob struct {
	transaction transactor
	journal     repositories.UpstreamRequestRepository
	retention   time.Duration
	schedule    services.Schedule
	now         func() time.Time
	log         logger.Logger
}

func NewJournalCleanupJob(
	transaction transactor,
	journal repositories.UpstreamRequestRepository,
	retention time.Duration,
	schedule services.Schedule,
) *JournalCleanupJob {
	return &JournalCleanupJob{
		transaction: transaction,
		journal:     journal,
		retention:   retention,
		schedule:    schedule,
		now:         time.Now,
		log:         logger.New("journalCleanupJob"),
	}
}

func (j *JournalCleanupJob) Name() string {
	return "JournalCleanup"
}

func (j *JournalCleanupJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *JournalCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")
	cutoff := j.now().UTC().Add(-j.retention)

	var deleted int64
	err := j.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		deleted, err = j.journal.DeleteOlderThan(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		return log.Err("journal cleanup failed", err, "cutoff", cutoff)
	}

	log.Info("Journal pruned", "deleted", deleted, "cutoff", cutoff)
	return nil
}
