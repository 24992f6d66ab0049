package jobs

import (
	"context"
	"time"
	"washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/jinzhu/now"
)

// DraftSweepJob drops pending availability edits for dates that have passed
// and forgets drafts left with nothing pending.
type DraftSweepJob struct {
	drafts   repositories.AvailabilityDraftRepository
	clock    func() time.Time
	schedule services.Schedule
	log      logger.Logger
}

func NewDraftSweepJob(
	drafts repositories.AvailabilityDraftRepository,
	clock func() time.Time,
	schedule services.Schedule,
) *DraftSweepJob {
	return &DraftSweepJob{
		drafts:   drafts,
		clock:    clock,
		schedule: schedule,
		log:      logger.New("draftSweepJob"),
	}
}

func (j *DraftSweepJob) Name() string {
	return "AvailabilityDraftSweep"
}

func (j *DraftSweepJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *DraftSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	sessionIDs, err := j.drafts.ListSessionIDs(ctx)
	if err != nil {
		return log.Err("failed to list drafts", err)
	}

	today := now.With(j.clock()).BeginningOfDay().Format(models.DateLayout)
	removed, trimmed := 0, 0

	for _, sessionID := range sessionIDs {
		draft, err := j.drafts.Get(ctx, sessionID)
		if err != nil {
			log.Warn("skipping unreadable draft", "sessionID", sessionID, "error", err)
			continue
		}

		before := len(draft.PendingCreates) + len(draft.PendingDeletes)
		draft.DropBefore(today)

		switch {
		case draft.IsEmpty():
			if err := j.drafts.Delete(ctx, sessionID); err != nil {
				log.Warn("failed to delete stale draft", "sessionID", sessionID, "error", err)
				continue
			}
			removed++
		case len(draft.PendingCreates)+len(draft.PendingDeletes) < before:
			if err := j.drafts.Save(ctx, draft); err != nil {
				log.Warn("failed to save trimmed draft", "sessionID", sessionID, "error", err)
				continue
			}
			trimmed++
		}
	}

	log.Info("Draft sweep finished", "drafts", len(sessionIDs), "removed", removed, "trimmed", trimmed)
	return nil
}
