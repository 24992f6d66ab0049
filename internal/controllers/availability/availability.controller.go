package availabilityController

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"washfamily/internal/events"
	. "washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"
	"washfamily/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

const bulkSlotsPath = "/washer/availability/"

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrDateInPast   = errors.New("date is in the past")
)

type washAPI interface {
	ExplicitSlots(ctx context.Context, session *Session) ([]WeeklySlot, error)
	DefaultSlots(ctx context.Context, session *Session) ([]DefaultSlot, error)
	CreateSlots(ctx context.Context, session *Session, slots []WeeklySlot) (*services.BulkResult, error)
	DeleteSlots(ctx context.Context, session *Session, slots []WeeklySlot) (*services.BulkResult, error)
	BlockDay(ctx context.Context, session *Session, date string) error
	UnblockDay(ctx context.Context, session *Session, date string) error
	CleanupExpiredSlots(ctx context.Context, session *Session) error
	CreateDefaultSlots(ctx context.Context, session *Session, slots []DefaultSlot) error
	ReplaceDefaultSlots(ctx context.Context, session *Session, slots []DefaultSlot) error
	DeleteDefaultSlot(ctx context.Context, session *Session, slotID string) error
}

type eventPublisher interface {
	PublishAvailabilitySaved(sessionID, userID string, created, deleted int) error
}

type AvailabilityController struct {
	washAPI washAPI
	drafts  repositories.AvailabilityDraftRepository
	journal repositories.UpstreamRequestRepository
	events  eventPublisher
	now     func() time.Time
	log     logger.Logger
}

type AvailabilityControllerInterface interface {
	Week(ctx context.Context, session *Session) (*WeekView, error)
	AddSlot(ctx context.Context, session *Session, req SlotRequest) (*WeekView, error)
	RemoveSlot(ctx context.Context, session *Session, req SlotRequest) (*WeekView, error)
	Save(ctx context.Context, session *Session) (*SaveResult, error)
	Discard(ctx context.Context, session *Session) (*WeekView, error)
	BlockDay(ctx context.Context, session *Session, req DateRequest) (*WeekView, error)
	UnblockDay(ctx context.Context, session *Session, req DateRequest) (*WeekView, error)
	DefaultSlots(ctx context.Context, session *Session) ([]DefaultSlot, error)
	AddDefaultSlot(ctx context.Context, session *Session, req DefaultSlotRequest) ([]DefaultSlot, error)
	ReplaceDefaultSlots(ctx context.Context, session *Session, reqs []DefaultSlotRequest) ([]DefaultSlot, error)
	DeleteDefaultSlot(ctx context.Context, session *Session, slotID string) ([]DefaultSlot, error)
	CleanupExpired(ctx context.Context, session *Session) error
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
) AvailabilityControllerInterface {
	return &AvailabilityController{
		washAPI: services.WashAPI,
		drafts:  repos.AvailabilityDraft,
		journal: repos.UpstreamRequest,
		events:  eventBus,
		now:     time.Now,
		log:     logger.New("availabilityController"),
	}
}

// WeekView is the merged seven day availability with the unsaved edits
// already applied.
type WeekView struct {
	Days           []DayAvailability `json:"days"`
	PendingCreates []WeeklySlot      `json:"pendingCreates"`
	PendingDeletes []WeeklySlot      `json:"pendingDeletes"`
	HasDefault     bool              `json:"hasDefault"`
	Dirty          bool              `json:"dirty"`
}

type SaveResult struct {
	Week    *WeekView              `json:"week"`
	Created int                    `json:"created"`
	Deleted int                    `json:"deleted"`
	Failed  []services.SlotFailure `json:"failed"`
}

type SlotRequest struct {
	Date      string `json:"date"      validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime"   validate:"required,clock"`
}

func (r SlotRequest) slot() WeeklySlot {
	return WeeklySlot{Date: r.Date, StartTime: r.StartTime, EndTime: r.EndTime}
}

type DateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type DefaultSlotRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime"   validate:"required,clock"`
}

func (r DefaultSlotRequest) slot() DefaultSlot {
	return DefaultSlot{DayOfWeek: r.DayOfWeek, StartTime: r.StartTime, EndTime: r.EndTime}
}

type weekState struct {
	defaults []DefaultSlot
	explicit []WeeklySlot
	draft    *AvailabilityDraft
}

func (ac *AvailabilityController) load(ctx context.Context, session *Session) (*weekState, error) {
	defaults, err := ac.washAPI.DefaultSlots(ctx, session)
	if err != nil {
		return nil, err
	}

	explicit, err := ac.washAPI.ExplicitSlots(ctx, session)
	if err != nil {
		return nil, err
	}

	draft, err := ac.drafts.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &weekState{defaults: defaults, explicit: explicit, draft: draft}, nil
}

func (ac *AvailabilityController) view(state *weekState) *WeekView {
	creates := state.draft.PendingCreates
	if creates == nil {
		creates = []WeeklySlot{}
	}
	deletes := state.draft.PendingDeletes
	if deletes == nil {
		deletes = []WeeklySlot{}
	}

	return &WeekView{
		Days:           services.MergeWeek(ac.now(), state.defaults, state.explicit, state.draft),
		PendingCreates: creates,
		PendingDeletes: deletes,
		HasDefault:     services.HasDefault(state.defaults),
		Dirty:          !state.draft.IsEmpty(),
	}
}

func (ac *AvailabilityController) Week(ctx context.Context, session *Session) (*WeekView, error) {
	state, err := ac.load(ctx, session)
	if err != nil {
		return nil, err
	}
	return ac.view(state), nil
}

// AddSlot validates a new slot against the day as it would look after the
// pending edits and buffers it in the draft. Nothing is sent upstream.
func (ac *AvailabilityController) AddSlot(
	ctx context.Context,
	session *Session,
	req SlotRequest,
) (*WeekView, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	if !services.InWindow(ac.now(), req.Date) {
		return nil, types.Invalid("date", services.ErrDateOutOfWindow)
	}

	state, err := ac.load(ctx, session)
	if err != nil {
		return nil, err
	}

	days := services.MergeWeek(ac.now(), state.defaults, state.explicit, state.draft)
	day, _ := services.FindDay(days, req.Date)
	if err := services.ValidateSlot(day.Slots, req.StartTime, req.EndTime); err != nil {
		return nil, types.Invalid("startTime", err)
	}

	slot := req.slot()
	if !state.draft.DropDelete(slot.Key()) {
		state.draft.PendingCreates = append(state.draft.PendingCreates, slot)
	}

	if err := ac.drafts.Save(ctx, state.draft); err != nil {
		return nil, err
	}

	return ac.view(state), nil
}

// RemoveSlot buffers the removal of a saved slot, or forgets a slot that was
// only pending. Slots coming from the weekly template are refused.
func (ac *AvailabilityController) RemoveSlot(
	ctx context.Context,
	session *Session,
	req SlotRequest,
) (*WeekView, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	state, err := ac.load(ctx, session)
	if err != nil {
		return nil, err
	}

	key := req.slot().Key()
	days := services.MergeWeek(ac.now(), state.defaults, state.explicit, state.draft)
	day, ok := services.FindDay(days, req.Date)
	if !ok {
		return nil, types.Invalid("date", services.ErrDateOutOfWindow)
	}

	var target *WeeklySlot
	for i := range day.Slots {
		if day.Slots[i].Key() == key {
			target = &day.Slots[i]
			break
		}
	}
	if target == nil {
		return nil, ErrSlotNotFound
	}
	if target.IsDefault {
		return nil, services.ErrDefaultSlotLocked
	}

	if !state.draft.DropCreate(key) {
		state.draft.PendingDeletes = append(state.draft.PendingDeletes, *target)
	}

	if err := ac.drafts.Save(ctx, state.draft); err != nil {
		return nil, err
	}

	return ac.view(state), nil
}

// Save flushes the draft as one bulk create followed by one bulk delete.
// Slots upstream refused stay pending; a failed call leaves everything not
// yet applied in the draft.
func (ac *AvailabilityController) Save(ctx context.Context, session *Session) (*SaveResult, error) {
	log := ac.log.TraceFromContext(ctx).Function("Save")

	draft, err := ac.drafts.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{Failed: []services.SlotFailure{}}
	if draft.IsEmpty() {
		week, err := ac.Week(ctx, session)
		if err != nil {
			return nil, err
		}
		result.Week = week
		return result, nil
	}

	creates := draft.PendingCreates
	created, err := ac.flush(ctx, session, "availability.create", http.MethodPost, creates, ac.washAPI.CreateSlots)
	if err != nil {
		return nil, log.Err("failed to create availability slots", err, "count", len(creates))
	}
	draft.PendingCreates = keepFailed(creates, created)
	result.Created = len(creates) - len(draft.PendingCreates)
	result.Failed = append(result.Failed, created.Failed...)

	deletes := draft.PendingDeletes
	deleted, err := ac.flush(ctx, session, "availability.delete", http.MethodDelete, deletes, ac.washAPI.DeleteSlots)
	if err != nil {
		if saveErr := ac.drafts.Save(ctx, draft); saveErr != nil {
			log.Er("failed to keep pending deletes", saveErr, "sessionID", session.ID)
		}
		return nil, log.Err("failed to delete availability slots", err, "count", len(deletes))
	}
	draft.PendingDeletes = keepFailed(deletes, deleted)
	result.Deleted = len(deletes) - len(draft.PendingDeletes)
	result.Failed = append(result.Failed, deleted.Failed...)

	if err := ac.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}

	if err := ac.events.PublishAvailabilitySaved(session.ID, session.UserID(), result.Created, result.Deleted); err != nil {
		log.Warn("failed to publish availability save", "sessionID", session.ID, "error", err)
	}

	log.Info(
		"Availability saved",
		"userID", session.UserID(),
		"created", result.Created,
		"deleted", result.Deleted,
		"failed", len(result.Failed),
	)

	week, err := ac.Week(ctx, session)
	if err != nil {
		return nil, err
	}
	result.Week = week
	return result, nil
}

type bulkCall func(ctx context.Context, session *Session, slots []WeeklySlot) (*services.BulkResult, error)

func (ac *AvailabilityController) flush(
	ctx context.Context,
	session *Session,
	operation, method string,
	slots []WeeklySlot,
	call bulkCall,
) (*services.BulkResult, error) {
	if len(slots) == 0 {
		return &services.BulkResult{}, nil
	}

	entry := services.NewJournalEntry(session, operation, RoleWasher, method, bulkSlotsPath, map[string]any{"slots": slots})
	started := time.Now()
	result, err := call(ctx, session, slots)
	services.CompleteJournalEntry(entry, started, err)
	if err == nil && len(result.Failed) > 0 {
		entry.MarkFailed(
			UpstreamOutcomeRejected,
			http.StatusOK,
			fmt.Errorf("%d of %d slots refused", len(result.Failed), len(slots)),
		)
	}
	ac.record(ctx, entry)

	return result, err
}

func keepFailed(slots []WeeklySlot, result *services.BulkResult) []WeeklySlot {
	failed := result.FailedKeys()
	kept := []WeeklySlot{}
	for _, slot := range slots {
		if failed[slot.Key()] {
			kept = append(kept, slot)
		}
	}
	return kept
}

func (ac *AvailabilityController) Discard(ctx context.Context, session *Session) (*WeekView, error) {
	if err := ac.drafts.Delete(ctx, session.ID); err != nil {
		return nil, err
	}
	return ac.Week(ctx, session)
}

func (ac *AvailabilityController) BlockDay(
	ctx context.Context,
	session *Session,
	req DateRequest,
) (*WeekView, error) {
	return ac.toggleDay(ctx, session, req, "block", ac.washAPI.BlockDay)
}

func (ac *AvailabilityController) UnblockDay(
	ctx context.Context,
	session *Session,
	req DateRequest,
) (*WeekView, error) {
	return ac.toggleDay(ctx, session, req, "unblock", ac.washAPI.UnblockDay)
}

func (ac *AvailabilityController) toggleDay(
	ctx context.Context,
	session *Session,
	req DateRequest,
	operation string,
	call func(ctx context.Context, session *Session, date string) error,
) (*WeekView, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	today := ac.now().Format(DateLayout)
	if req.Date < today {
		return nil, types.Invalid("date", ErrDateInPast)
	}

	entry := services.NewJournalEntry(
		session,
		"availability."+operation,
		RoleWasher,
		http.MethodPost,
		bulkSlotsPath+operation,
		req,
	)
	started := time.Now()
	err := call(ctx, session, req.Date)
	services.CompleteJournalEntry(entry, started, err)
	ac.record(ctx, entry)
	if err != nil {
		return nil, ac.log.TraceFromContext(ctx).Function("toggleDay").
			Err("failed to change day availability", err, "operation", operation, "date", req.Date)
	}

	return ac.Week(ctx, session)
}

func (ac *AvailabilityController) DefaultSlots(ctx context.Context, session *Session) ([]DefaultSlot, error) {
	return ac.washAPI.DefaultSlots(ctx, session)
}

// AddDefaultSlot validates a template slot against the others of its
// weekday before sending it upstream.
func (ac *AvailabilityController) AddDefaultSlot(
	ctx context.Context,
	session *Session,
	req DefaultSlotRequest,
) ([]DefaultSlot, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	existing, err := ac.washAPI.DefaultSlots(ctx, session)
	if err != nil {
		return nil, err
	}

	candidate := req.slot()
	if err := services.ValidateDefaultSlot(existing, candidate); err != nil {
		return nil, types.Invalid("startTime", err)
	}

	if err := ac.washAPI.CreateDefaultSlots(ctx, session, []DefaultSlot{candidate}); err != nil {
		return nil, err
	}

	return ac.washAPI.DefaultSlots(ctx, session)
}

func (ac *AvailabilityController) ReplaceDefaultSlots(
	ctx context.Context,
	session *Session,
	reqs []DefaultSlotRequest,
) ([]DefaultSlot, error) {
	accepted := make([]DefaultSlot, 0, len(reqs))
	for _, req := range reqs {
		if err := types.Validate(req); err != nil {
			return nil, err
		}

		candidate := req.slot()
		if err := services.ValidateDefaultSlot(accepted, candidate); err != nil {
			return nil, types.Invalid("startTime", err)
		}
		accepted = append(accepted, candidate)
	}

	if err := ac.washAPI.ReplaceDefaultSlots(ctx, session, accepted); err != nil {
		return nil, err
	}

	return ac.washAPI.DefaultSlots(ctx, session)
}

func (ac *AvailabilityController) DeleteDefaultSlot(
	ctx context.Context,
	session *Session,
	slotID string,
) ([]DefaultSlot, error) {
	if slotID == "" {
		return nil, types.NewValidationError("id", "id is required")
	}

	if err := ac.washAPI.DeleteDefaultSlot(ctx, session, slotID); err != nil {
		return nil, err
	}

	return ac.washAPI.DefaultSlots(ctx, session)
}

func (ac *AvailabilityController) CleanupExpired(ctx context.Context, session *Session) error {
	return ac.washAPI.CleanupExpiredSlots(ctx, session)
}

func (ac *AvailabilityController) record(ctx context.Context, entry *UpstreamRequest) {
	if err := ac.journal.Create(ctx, entry); err != nil {
		ac.log.TraceFromContext(ctx).Function("record").
			Warn("failed to journal upstream call", "operation", entry.Operation, "error", err)
	}
}
