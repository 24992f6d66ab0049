package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"washfamily/config"
	"washfamily/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStore struct {
	mu      sync.Mutex
	saved   []string
	cleared []string
}

func (f *fakeTokenStore) SaveTokens(_ context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, session.AccessToken)
	return nil
}

func (f *fakeTokenStore) ClearTokens(_ context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, session.ID)
	return nil
}

func newTestWashAPI(t *testing.T, handler http.Handler) (*WashAPIService, *fakeTokenStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := &fakeTokenStore{}
	service, err := NewWashAPIService(config.Config{
		WashAPIURL:            server.URL,
		WashAPITimeoutSeconds: 5,
	}, store)
	require.NoError(t, err)

	return service, store
}

func testSession() *models.Session {
	return &models.Session{ID: "session-1", AccessToken: "access-1", RefreshToken: "refresh-1"}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewWashAPIService_RequiresURL(t *testing.T) {
	_, err := NewWashAPIService(config.Config{}, &fakeTokenStore{})
	assert.Error(t, err)
}

func TestWashAPIService_RefreshesOnceAndRetries(t *testing.T) {
	var profileCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "user-1", "email": "a@b.fr"}})
	})
	mux.HandleFunc("POST /users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		assert.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "access-2", "refreshToken": "refresh-2"})
	})

	service, store := newTestWashAPI(t, mux)
	session := testSession()

	user, err := service.Profile(context.Background(), session)

	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, int32(2), profileCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "access-2", session.AccessToken)
	assert.Equal(t, "refresh-2", session.RefreshToken)
	assert.Equal(t, []string{"access-2"}, store.saved)
	assert.Empty(t, store.cleared)
}

func TestWashAPIService_RejectedRefreshEndsSession(t *testing.T) {
	var profileCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh expired"})
	})

	service, store := newTestWashAPI(t, mux)
	session := testSession()

	_, err := service.Profile(context.Background(), session)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, int32(1), profileCalls.Load())
	assert.False(t, session.HasTokens())
	assert.Equal(t, []string{"session-1"}, store.cleared)
}

func TestWashAPIService_SecondUnauthorizedEndsSession(t *testing.T) {
	var profileCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "access-2"})
	})

	service, store := newTestWashAPI(t, mux)
	session := testSession()

	_, err := service.Profile(context.Background(), session)

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(2), profileCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Len(t, store.cleared, 1)
}

func TestWashAPIService_RefreshOutageKeepsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	service, store := newTestWashAPI(t, mux)
	session := testSession()

	_, err := service.Profile(context.Background(), session)

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.True(t, IsRetryable(err))
	assert.True(t, session.HasTokens())
	assert.Empty(t, store.cleared)
}

func TestWashAPIService_MissingTokenNeverCallsUpstream(t *testing.T) {
	var calls atomic.Int32
	service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := service.Profile(context.Background(), &models.Session{ID: "session-1"})

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, calls.Load())
}

func TestWashAPIService_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    error
		wantMessage string
		retryable   bool
	}{
		{
			name:        "not found",
			status:      http.StatusNotFound,
			body:        `{"message":"Commande introuvable"}`,
			wantKind:    ErrNotFound,
			wantMessage: "Commande introuvable",
		},
		{
			name:        "validation list",
			status:      http.StatusBadRequest,
			body:        `{"message":["email must be an email","password too short"]}`,
			wantKind:    ErrRejected,
			wantMessage: "email must be an email, password too short",
		},
		{
			name:        "conflict falls back to error field",
			status:      http.StatusConflict,
			body:        `{"error":"Order cannot be canceled"}`,
			wantKind:    ErrRejected,
			wantMessage: "Order cannot be canceled",
		},
		{
			name:        "default message",
			status:      http.StatusForbidden,
			body:        `not json`,
			wantKind:    ErrRejected,
			wantMessage: "request rejected",
		},
		{
			name:      "server error",
			status:    http.StatusServiceUnavailable,
			wantKind:  ErrUpstreamUnavailable,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := service.Order(context.Background(), testSession(), models.RoleClient, "order-1")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.status, UpstreamStatus(err))
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, err.Error())
			}
		})
	}
}

func TestWashAPIService_UnreachableUpstreamIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	service, err := NewWashAPIService(config.Config{WashAPIURL: url}, &fakeTokenStore{})
	require.NoError(t, err)

	_, err = service.ClientOrders(context.Background(), testSession())

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.True(t, IsRetryable(err))
}

func TestWashAPIService_Transition(t *testing.T) {
	type received struct {
		method string
		path   string
		body   map[string]string
	}
	var got received

	service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = received{method: r.Method, path: r.URL.Path}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("washer accept", func(t *testing.T) {
		err := service.Transition(context.Background(), testSession(), models.RoleWasher, models.ActionAccept, "order-1", "")
		require.NoError(t, err)
		assert.Equal(t, http.MethodPatch, got.method)
		assert.Equal(t, "/washer/orders/order-1/accept", got.path)
		assert.Nil(t, got.body)
	})

	t.Run("washer refuse uses PUT", func(t *testing.T) {
		err := service.Transition(context.Background(), testSession(), models.RoleWasher, models.ActionRefuse, "order-1", "")
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, got.method)
	})

	t.Run("client cancel sends reason", func(t *testing.T) {
		err := service.Transition(context.Background(), testSession(), models.RoleClient, models.ActionCancel, "order-1", "plans changed")
		require.NoError(t, err)
		assert.Equal(t, "/washorders/cancel/order-1", got.path)
		assert.Equal(t, "plans changed", got.body["reason"])
	})

	t.Run("client cannot accept", func(t *testing.T) {
		got = received{}
		err := service.Transition(context.Background(), testSession(), models.RoleClient, models.ActionAccept, "order-1", "")
		assert.ErrorIs(t, err, ErrRejected)
		assert.Empty(t, got.path)
	})
}

func TestTransitionEndpoint_EscapesOrderID(t *testing.T) {
	method, path, ok := TransitionEndpoint(models.RoleClient, models.ActionConfirmReceipt, "a/b")

	require.True(t, ok)
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/washorders/pickup/confirm/a%2Fb", path)
}

func TestWashAPIService_SubmitReportMultipart(t *testing.T) {
	service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/reports", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "user-2", r.FormValue("reportedUserId"))
		assert.Equal(t, "other", r.FormValue("reason"))
		assert.Equal(t, "rude on pickup", r.FormValue("description"))

		files := r.MultipartForm.File["attachments"]
		require.Len(t, files, 2)
		assert.Equal(t, "photo_0.jpg", files[0].Filename)
		assert.Equal(t, "image/jpeg", files[0].Header.Get("Content-Type"))

		writeJSON(w, http.StatusCreated, map[string]any{"report": map[string]any{"id": "report-1", "status": "pending"}})
	}))

	report, err := service.SubmitReport(context.Background(), testSession(), ReportSubmission{
		ReportedUserID: "user-2",
		Reason:         models.ReportReasonOther,
		Description:    "rude on pickup",
		Attachments: []models.Attachment{
			{Filename: "photo_0.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
			{Filename: "photo_1.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "report-1", report.ID)
	assert.True(t, report.IsPending())
}

func TestWashAPIService_WasherNewOrdersPage(t *testing.T) {
	service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/washer/newOrders", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"orders":[{"id":"order-1","status":"pending","price":"12.5"}],"meta":{"page":2,"totalPages":3}}`)
	}))

	page, err := service.WasherNewOrders(context.Background(), testSession(), 2, 5)

	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, models.OrderStatusPending, page.Orders[0].Status)
	assert.True(t, page.Meta.HasMore())
}

func TestWashAPIService_CreateSlotsReportsFailures(t *testing.T) {
	service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Slots []slotPayload `json:"slots"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Slots, 2)

		writeJSON(w, http.StatusCreated, map[string]any{
			"failed": []map[string]any{{
				"slot":   body.Slots[1],
				"reason": "overlap",
			}},
		})
	}))

	slots := []models.WeeklySlot{
		{Date: "2024-01-08", StartTime: "08:00", EndTime: "09:00"},
		{Date: "2024-01-08", StartTime: "10:00", EndTime: "11:00"},
	}
	result, err := service.CreateSlots(context.Background(), testSession(), slots)

	require.NoError(t, err)
	failed := result.FailedKeys()
	assert.False(t, failed[slots[0].Key()])
	assert.True(t, failed[slots[1].Key()])
}

func TestWashAPIService_CreateSlotsAcceptsCreatedList(t *testing.T) {
	service, _ := newTestWashAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, []map[string]any{
			{"id": "a1", "date": "2024-01-08", "startTime": "08:00", "endTime": "09:00"},
		})
	}))

	slots := []models.WeeklySlot{{Date: "2024-01-08", StartTime: "08:00", EndTime: "09:00"}}
	result, err := service.CreateSlots(context.Background(), testSession(), slots)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Failed)
}

func TestDecodeBulkResult(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		failed int
	}{
		{"empty body", ``, 0},
		{"null", `null`, 0},
		{"created list", `[{"id":"a1","date":"2024-01-08"}]`, 0},
		{"message only", `{"message":"Disponibilités créées"}`, 0},
		{"failed list", `{"failed":[{"slot":{"date":"2024-01-08","startTime":"08:00","endTime":"09:00"},"reason":"overlap"}]}`, 1},
		{"failed under data", `{"data":{"failed":[{"reason":"overlap"}]}}`, 1},
		{"malformed failed", `{"failed":"nope"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decodeBulkResult(json.RawMessage(tt.body))
			require.NotNil(t, result)
			assert.Len(t, result.Failed, tt.failed)
		})
	}
}

func TestDecodeEnveloped(t *testing.T) {
	var bare []models.WeeklySlot
	require.NoError(t, decodeEnveloped([]byte(`[{"date":"2024-01-08"}]`), &bare, "slots"))
	assert.Len(t, bare, 1)

	var wrapped []models.WeeklySlot
	require.NoError(t, decodeEnveloped([]byte(`{"slots":[{"date":"2024-01-08"},{"date":"2024-01-09"}]}`), &wrapped, "data", "slots"))
	assert.Len(t, wrapped, 2)

	var empty []models.WeeklySlot
	require.NoError(t, decodeEnveloped([]byte(`null`), &empty, "slots"))
	assert.Nil(t, empty)
}
