package availabilityController

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
	. "washfamily/internal/models"
	"washfamily/internal/services"
	"washfamily/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockWashAPI struct {
	mock.Mock
}

func (m *mockWashAPI) ExplicitSlots(ctx context.Context, session *Session) ([]WeeklySlot, error) {
	args := m.Called(ctx, session)
	slots, _ := args.Get(0).([]WeeklySlot)
	return slots, args.Error(1)
}

func (m *mockWashAPI) DefaultSlots(ctx context.Context, session *Session) ([]DefaultSlot, error) {
	args := m.Called(ctx, session)
	slots, _ := args.Get(0).([]DefaultSlot)
	return slots, args.Error(1)
}

func (m *mockWashAPI) CreateSlots(
	ctx context.Context,
	session *Session,
	slots []WeeklySlot,
) (*services.BulkResult, error) {
	args := m.Called(ctx, session, slots)
	result, _ := args.Get(0).(*services.BulkResult)
	return result, args.Error(1)
}

func (m *mockWashAPI) DeleteSlots(
	ctx context.Context,
	session *Session,
	slots []WeeklySlot,
) (*services.BulkResult, error) {
	args := m.Called(ctx, session, slots)
	result, _ := args.Get(0).(*services.BulkResult)
	return result, args.Error(1)
}

func (m *mockWashAPI) BlockDay(ctx context.Context, session *Session, date string) error {
	return m.Called(ctx, session, date).Error(0)
}

func (m *mockWashAPI) UnblockDay(ctx context.Context, session *Session, date string) error {
	return m.Called(ctx, session, date).Error(0)
}

func (m *mockWashAPI) CleanupExpiredSlots(ctx context.Context, session *Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockWashAPI) CreateDefaultSlots(ctx context.Context, session *Session, slots []DefaultSlot) error {
	return m.Called(ctx, session, slots).Error(0)
}

func (m *mockWashAPI) ReplaceDefaultSlots(ctx context.Context, session *Session, slots []DefaultSlot) error {
	return m.Called(ctx, session, slots).Error(0)
}

func (m *mockWashAPI) DeleteDefaultSlot(ctx context.Context, session *Session, slotID string) error {
	return m.Called(ctx, session, slotID).Error(0)
}

type fakeDrafts struct {
	stored map[string]AvailabilityDraft
	saves  int
}

func (f *fakeDrafts) Get(_ context.Context, sessionID string) (*AvailabilityDraft, error) {
	draft, ok := f.stored[sessionID]
	if !ok {
		return &AvailabilityDraft{SessionID: sessionID}, nil
	}
	draft.PendingCreates = append([]WeeklySlot(nil), draft.PendingCreates...)
	draft.PendingDeletes = append([]WeeklySlot(nil), draft.PendingDeletes...)
	return &draft, nil
}

func (f *fakeDrafts) Save(_ context.Context, draft *AvailabilityDraft) error {
	f.saves++
	if draft.IsEmpty() {
		delete(f.stored, draft.SessionID)
		return nil
	}
	f.stored[draft.SessionID] = *draft
	return nil
}

func (f *fakeDrafts) Delete(_ context.Context, sessionID string) error {
	delete(f.stored, sessionID)
	return nil
}

func (f *fakeDrafts) ListSessionIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.stored))
	for id := range f.stored {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeJournal struct {
	entries []UpstreamRequest
}

func (f *fakeJournal) Create(_ context.Context, request *UpstreamRequest) error {
	f.entries = append(f.entries, *request)
	return nil
}

func (f *fakeJournal) ListByOrder(context.Context, string, int) ([]UpstreamRequest, error) {
	return nil, nil
}

func (f *fakeJournal) DeleteOlderThan(context.Context, *gorm.DB, time.Time) (int64, error) {
	return 0, nil
}

type fakeEvents struct {
	created, deleted int
	calls            int
}

func (f *fakeEvents) PublishAvailabilitySaved(_, _ string, created, deleted int) error {
	f.calls++
	f.created, f.deleted = created, deleted
	return nil
}

// Wednesday; the editable week runs from the 10th to the 16th.
var testNow = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

var mondayMorning = DefaultSlot{ID: "def-1", DayOfWeek: int(time.Monday), StartTime: "08:00", EndTime: "12:00"}

type fixture struct {
	api        *mockWashAPI
	drafts     *fakeDrafts
	journal    *fakeJournal
	events     *fakeEvents
	controller *AvailabilityController
	session    *Session
	ctx        context.Context
}

func newFixture(defaults []DefaultSlot, explicit []WeeklySlot) *fixture {
	f := &fixture{
		api:     &mockWashAPI{},
		drafts:  &fakeDrafts{stored: map[string]AvailabilityDraft{}},
		journal: &fakeJournal{},
		events:  &fakeEvents{},
		session: &Session{ID: "session-1", AccessToken: "access", User: &User{ID: "washer-1"}},
		ctx:     context.Background(),
	}
	f.controller = &AvailabilityController{
		washAPI: f.api,
		drafts:  f.drafts,
		journal: f.journal,
		events:  f.events,
		now:     func() time.Time { return testNow },
		log:     logger.New("availabilityController"),
	}

	f.api.On("DefaultSlots", mock.Anything, f.session).Return(defaults, nil)
	f.api.On("ExplicitSlots", mock.Anything, f.session).Return(explicit, nil)
	return f
}

func (f *fixture) withDraft(creates, deletes []WeeklySlot) {
	f.drafts.stored[f.session.ID] = AvailabilityDraft{
		SessionID:      f.session.ID,
		PendingCreates: creates,
		PendingDeletes: deletes,
	}
}

func dayOf(t *testing.T, view *WeekView, date string) DayAvailability {
	t.Helper()
	day, ok := services.FindDay(view.Days, date)
	require.True(t, ok, "date %s missing", date)
	return day
}

func TestAddSlot_RejectsInvalidSlotsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name    string
		req     SlotRequest
		wantErr error
	}{
		{"fifty nine minutes", SlotRequest{Date: "2024-01-11", StartTime: "09:00", EndTime: "09:59"}, services.ErrSlotTooShort},
		{"overlaps default", SlotRequest{Date: "2024-01-15", StartTime: "11:00", EndTime: "13:00"}, services.ErrSlotOverlap},
		{"overlaps pending create", SlotRequest{Date: "2024-01-12", StartTime: "14:30", EndTime: "16:00"}, services.ErrSlotOverlap},
		{"outside the week", SlotRequest{Date: "2024-01-17", StartTime: "09:00", EndTime: "10:00"}, services.ErrDateOutOfWindow},
		{"malformed time", SlotRequest{Date: "2024-01-11", StartTime: "9h", EndTime: "10:00"}, types.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]DefaultSlot{mondayMorning}, nil)
			f.withDraft([]WeeklySlot{{Date: "2024-01-12", StartTime: "14:00", EndTime: "15:00"}}, nil)

			_, err := f.controller.AddSlot(f.ctx, f.session, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, types.ErrValidation)
			assert.Zero(t, f.drafts.saves)
		})
	}
}

func TestAddSlot_TouchingSlotIsBuffered(t *testing.T) {
	f := newFixture([]DefaultSlot{mondayMorning}, nil)

	view, err := f.controller.AddSlot(f.ctx, f.session, SlotRequest{Date: "2024-01-15", StartTime: "12:00", EndTime: "13:00"})
	require.NoError(t, err)

	assert.True(t, view.Dirty)
	require.Len(t, view.PendingCreates, 1)
	monday := dayOf(t, view, "2024-01-15")
	require.Len(t, monday.Slots, 2)
	assert.Equal(t, "08:00", monday.Slots[0].StartTime)
	assert.Equal(t, "12:00", monday.Slots[1].StartTime)

	f.api.AssertNotCalled(t, "CreateSlots", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.journal.entries)
}

func TestAddSlot_ReaddingPendingDeleteRestoresIt(t *testing.T) {
	saved := WeeklySlot{ID: "w-1", Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"}
	f := newFixture(nil, []WeeklySlot{saved})
	f.withDraft(nil, []WeeklySlot{saved})

	view, err := f.controller.AddSlot(f.ctx, f.session, SlotRequest{Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	assert.False(t, view.Dirty)
	assert.Empty(t, view.PendingCreates)
	assert.Len(t, dayOf(t, view, "2024-01-11").Slots, 1)
	assert.NotContains(t, f.drafts.stored, f.session.ID)
}

func TestRemoveSlot(t *testing.T) {
	saved := WeeklySlot{ID: "w-1", Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"}
	pending := WeeklySlot{Date: "2024-01-11", StartTime: "14:00", EndTime: "15:00"}

	t.Run("default slot is locked", func(t *testing.T) {
		f := newFixture([]DefaultSlot{mondayMorning}, nil)

		_, err := f.controller.RemoveSlot(f.ctx, f.session, SlotRequest{Date: "2024-01-15", StartTime: "08:00", EndTime: "12:00"})
		assert.ErrorIs(t, err, services.ErrDefaultSlotLocked)
		assert.Zero(t, f.drafts.saves)
	})

	t.Run("pending create is dropped", func(t *testing.T) {
		f := newFixture(nil, []WeeklySlot{saved})
		f.withDraft([]WeeklySlot{pending}, nil)

		view, err := f.controller.RemoveSlot(f.ctx, f.session, SlotRequest{Date: "2024-01-11", StartTime: "14:00", EndTime: "15:00"})
		require.NoError(t, err)
		assert.False(t, view.Dirty)
		assert.Empty(t, view.PendingDeletes)
		assert.Len(t, dayOf(t, view, "2024-01-11").Slots, 1)
	})

	t.Run("saved slot becomes a pending delete", func(t *testing.T) {
		f := newFixture(nil, []WeeklySlot{saved})

		view, err := f.controller.RemoveSlot(f.ctx, f.session, SlotRequest{Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"})
		require.NoError(t, err)
		require.Len(t, view.PendingDeletes, 1)
		assert.Equal(t, "w-1", view.PendingDeletes[0].ID)
		assert.Empty(t, dayOf(t, view, "2024-01-11").Slots)
	})

	t.Run("unknown slot", func(t *testing.T) {
		f := newFixture(nil, []WeeklySlot{saved})

		_, err := f.controller.RemoveSlot(f.ctx, f.session, SlotRequest{Date: "2024-01-11", StartTime: "11:00", EndTime: "12:00"})
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestSave_KeepsRefusedSlotsPending(t *testing.T) {
	saved := WeeklySlot{ID: "w-1", Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"}
	accepted := WeeklySlot{Date: "2024-01-12", StartTime: "09:00", EndTime: "10:00"}
	refused := WeeklySlot{Date: "2024-01-12", StartTime: "11:00", EndTime: "12:00"}

	f := newFixture(nil, []WeeklySlot{saved})
	f.withDraft([]WeeklySlot{accepted, refused}, []WeeklySlot{saved})

	f.api.On("CreateSlots", f.ctx, f.session, []WeeklySlot{accepted, refused}).
		Return(&services.BulkResult{Failed: []services.SlotFailure{{Slot: refused, Reason: "conflict"}}}, nil)
	f.api.On("DeleteSlots", f.ctx, f.session, []WeeklySlot{saved}).Return(&services.BulkResult{}, nil)

	result, err := f.controller.Save(f.ctx, f.session)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Deleted)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, refused, result.Failed[0].Slot)

	stored := f.drafts.stored[f.session.ID]
	assert.Equal(t, []WeeklySlot{refused}, stored.PendingCreates)
	assert.Empty(t, stored.PendingDeletes)

	require.Len(t, f.journal.entries, 2)
	assert.Equal(t, "availability.create", f.journal.entries[0].Operation)
	assert.Equal(t, UpstreamOutcomeRejected, f.journal.entries[0].Outcome)
	assert.Equal(t, "availability.delete", f.journal.entries[1].Operation)
	assert.Equal(t, UpstreamOutcomeSucceeded, f.journal.entries[1].Outcome)

	assert.Equal(t, 1, f.events.calls)
	assert.Equal(t, 1, f.events.created)
}

func TestSave_FailedCreateLeavesDraftIntact(t *testing.T) {
	pending := WeeklySlot{Date: "2024-01-12", StartTime: "09:00", EndTime: "10:00"}
	doomed := WeeklySlot{ID: "w-1", Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"}

	f := newFixture(nil, []WeeklySlot{doomed})
	f.withDraft([]WeeklySlot{pending}, []WeeklySlot{doomed})

	f.api.On("CreateSlots", f.ctx, f.session, []WeeklySlot{pending}).
		Return(nil, &services.APIError{Kind: services.ErrUpstreamUnavailable, StatusCode: http.StatusBadGateway})

	_, err := f.controller.Save(f.ctx, f.session)
	require.Error(t, err)
	assert.True(t, services.IsRetryable(err))

	stored := f.drafts.stored[f.session.ID]
	assert.Equal(t, []WeeklySlot{pending}, stored.PendingCreates)
	assert.Equal(t, []WeeklySlot{doomed}, stored.PendingDeletes)
	f.api.AssertNotCalled(t, "DeleteSlots", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, f.events.calls)
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, UpstreamOutcomeFailed, f.journal.entries[0].Outcome)
}

func TestSave_FailedDeleteKeepsOnlyDeletes(t *testing.T) {
	pending := WeeklySlot{Date: "2024-01-12", StartTime: "09:00", EndTime: "10:00"}
	doomed := WeeklySlot{ID: "w-1", Date: "2024-01-11", StartTime: "09:00", EndTime: "10:00"}

	f := newFixture(nil, []WeeklySlot{doomed})
	f.withDraft([]WeeklySlot{pending}, []WeeklySlot{doomed})

	f.api.On("CreateSlots", f.ctx, f.session, []WeeklySlot{pending}).Return(&services.BulkResult{}, nil)
	f.api.On("DeleteSlots", f.ctx, f.session, []WeeklySlot{doomed}).
		Return(nil, &services.APIError{Kind: services.ErrUpstreamUnavailable})

	_, err := f.controller.Save(f.ctx, f.session)
	require.Error(t, err)

	stored := f.drafts.stored[f.session.ID]
	assert.Empty(t, stored.PendingCreates)
	assert.Equal(t, []WeeklySlot{doomed}, stored.PendingDeletes)
}

func TestSave_EmptyDraftJustReloads(t *testing.T) {
	f := newFixture([]DefaultSlot{mondayMorning}, nil)

	result, err := f.controller.Save(f.ctx, f.session)
	require.NoError(t, err)
	assert.True(t, result.Week.HasDefault)
	assert.Empty(t, result.Failed)
	f.api.AssertNotCalled(t, "CreateSlots", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, f.events.calls)
}

func TestBlockDay(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.controller.BlockDay(f.ctx, f.session, DateRequest{Date: "2024-01-09"})
	assert.ErrorIs(t, err, ErrDateInPast)

	f.api.On("BlockDay", f.ctx, f.session, "2024-01-15").Return(nil)
	_, err = f.controller.BlockDay(f.ctx, f.session, DateRequest{Date: "2024-01-15"})
	require.NoError(t, err)

	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, "availability.block", f.journal.entries[0].Operation)
	assert.Equal(t, "/washer/availability/block", f.journal.entries[0].Path)

	f.api.On("UnblockDay", f.ctx, f.session, "2024-01-15").Return(errors.New("boom"))
	_, err = f.controller.UnblockDay(f.ctx, f.session, DateRequest{Date: "2024-01-15"})
	assert.Error(t, err)
}

func TestAddDefaultSlot_ValidatesAgainstSameWeekday(t *testing.T) {
	f := newFixture([]DefaultSlot{mondayMorning}, nil)

	_, err := f.controller.AddDefaultSlot(f.ctx, f.session, DefaultSlotRequest{DayOfWeek: int(time.Monday), StartTime: "11:00", EndTime: "13:00"})
	assert.ErrorIs(t, err, services.ErrSlotOverlap)

	sunday := DefaultSlot{DayOfWeek: int(time.Sunday), StartTime: "08:00", EndTime: "12:00"}
	f.api.On("CreateDefaultSlots", f.ctx, f.session, []DefaultSlot{sunday}).Return(nil)

	_, err = f.controller.AddDefaultSlot(f.ctx, f.session, DefaultSlotRequest{DayOfWeek: int(time.Sunday), StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)
	f.api.AssertCalled(t, "CreateDefaultSlots", f.ctx, f.session, []DefaultSlot{sunday})
}

func TestReplaceDefaultSlots_RejectsOverlapWithinRequest(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.controller.ReplaceDefaultSlots(f.ctx, f.session, []DefaultSlotRequest{
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
	})
	assert.ErrorIs(t, err, services.ErrSlotOverlap)
	f.api.AssertNotCalled(t, "ReplaceDefaultSlots", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.controller.ReplaceDefaultSlots(f.ctx, f.session, []DefaultSlotRequest{{DayOfWeek: 9, StartTime: "08:00", EndTime: "10:00"}})
	assert.ErrorIs(t, err, types.ErrValidation)
}
