package jobs

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
	"washfamily/internal/database"
	"washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestJournalCleanupJob_DeletesRowsPastRetention(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	db := database.DB{SQL: gormDB}
	fixedNow := time.Date(2024, 3, 31, 3, 0, 0, 0, time.UTC)
	cutoff := fixedNow.Add(-30 * 24 * time.Hour)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "upstream_requests" WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))
	sqlMock.ExpectCommit()

	job := NewJournalCleanupJob(
		services.NewTransactionService(db),
		repositories.NewUpstreamRequestRepository(db),
		30*24*time.Hour,
		Daily,
	)
	job.now = func() time.Time { return fixedNow }

	assert.Equal(t, "JournalCleanup", job.Name())
	assert.Equal(t, Daily, job.Schedule())
	require.NoError(t, job.Execute(context.Background()))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

type mockDraftRepository struct {
	mock.Mock
}

func (m *mockDraftRepository) Get(ctx context.Context, sessionID string) (*models.AvailabilityDraft, error) {
	args := m.Called(ctx, sessionID)
	if draft, ok := args.Get(0).(*models.AvailabilityDraft); ok {
		return draft, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDraftRepository) Save(ctx context.Context, draft *models.AvailabilityDraft) error {
	return m.Called(ctx, draft).Error(0)
}

func (m *mockDraftRepository) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockDraftRepository) ListSessionIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func TestDraftSweepJob_Execute(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) }

	stale := &models.AvailabilityDraft{
		SessionID:      "stale",
		PendingCreates: []models.WeeklySlot{{Date: "2024-01-08", StartTime: "08:00", EndTime: "09:00"}},
	}
	mixed := &models.AvailabilityDraft{
		SessionID:      "mixed",
		PendingCreates: []models.WeeklySlot{{Date: "2024-01-09", StartTime: "08:00", EndTime: "09:00"}},
		PendingDeletes: []models.WeeklySlot{{Date: "2024-01-12", StartTime: "10:00", EndTime: "11:00"}},
	}
	current := &models.AvailabilityDraft{
		SessionID:      "current",
		PendingCreates: []models.WeeklySlot{{Date: "2024-01-10", StartTime: "18:00", EndTime: "19:00"}},
	}

	drafts := &mockDraftRepository{}
	drafts.On("ListSessionIDs", ctx).Return([]string{"stale", "mixed", "current", "broken"}, nil)
	drafts.On("Get", ctx, "stale").Return(stale, nil)
	drafts.On("Get", ctx, "mixed").Return(mixed, nil)
	drafts.On("Get", ctx, "current").Return(current, nil)
	drafts.On("Get", ctx, "broken").Return(nil, errors.New("corrupt"))
	drafts.On("Delete", ctx, "stale").Return(nil)
	drafts.On("Save", ctx, mock.MatchedBy(func(d *models.AvailabilityDraft) bool {
		return d.SessionID == "mixed" && len(d.PendingCreates) == 0 && len(d.PendingDeletes) == 1
	})).Return(nil)

	job := NewDraftSweepJob(drafts, clock, Hourly)

	require.NoError(t, job.Execute(ctx))
	drafts.AssertExpectations(t)
	drafts.AssertNotCalled(t, "Save", ctx, current)
}

func TestDraftSweepJob_ListFailure(t *testing.T) {
	drafts := &mockDraftRepository{}
	drafts.On("ListSessionIDs", mock.Anything).Return(nil, errors.New("valkey down"))

	job := NewDraftSweepJob(drafts, time.Now, Hourly)

	assert.Error(t, job.Execute(context.Background()))
}
