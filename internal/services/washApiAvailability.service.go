package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"washfamily/internal/models"
)

type slotPayload struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type defaultSlotPayload struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type SlotFailure struct {
	Slot   models.WeeklySlot `json:"slot"`
	Reason string            `json:"reason"`
}

// BulkResult reports which slots of a bulk call upstream refused. A bulk
// response without a failed list means every slot was applied.
type BulkResult struct {
	Failed []SlotFailure `json:"failed,omitempty"`
}

func (r *BulkResult) FailedKeys() map[models.SlotKey]bool {
	keys := make(map[models.SlotKey]bool, len(r.Failed))
	for _, failure := range r.Failed {
		keys[failure.Slot.Key()] = true
	}
	return keys
}

func toSlotPayloads(slots []models.WeeklySlot) []slotPayload {
	payloads := make([]slotPayload, len(slots))
	for i, slot := range slots {
		payloads[i] = slotPayload{Date: slot.Date, StartTime: slot.StartTime, EndTime: slot.EndTime}
	}
	return payloads
}

func (s *WashAPIService) ExplicitSlots(
	ctx context.Context,
	session *models.Session,
) ([]models.WeeklySlot, error) {
	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          "/washer/availability/",
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	slots := []models.WeeklySlot{}
	if err := decodeEnveloped(raw, &slots, "availabilities", "slots", "data"); err != nil {
		return nil, &APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected availability payload", Cause: err}
	}
	return slots, nil
}

func (s *WashAPIService) DefaultSlots(
	ctx context.Context,
	session *models.Session,
) ([]models.DefaultSlot, error) {
	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          "/availability/default/",
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	slots := []models.DefaultSlot{}
	if err := decodeEnveloped(raw, &slots, "defaultAvailabilities", "slots", "data"); err != nil {
		return nil, &APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected default availability payload", Cause: err}
	}
	return slots, nil
}

func (s *WashAPIService) CreateSlots(
	ctx context.Context,
	session *models.Session,
	slots []models.WeeklySlot,
) (*BulkResult, error) {
	return s.bulkSlots(ctx, session, http.MethodPost, slots)
}

func (s *WashAPIService) DeleteSlots(
	ctx context.Context,
	session *models.Session,
	slots []models.WeeklySlot,
) (*BulkResult, error) {
	return s.bulkSlots(ctx, session, http.MethodDelete, slots)
}

func (s *WashAPIService) bulkSlots(
	ctx context.Context,
	session *models.Session,
	method string,
	slots []models.WeeklySlot,
) (*BulkResult, error) {
	if len(slots) == 0 {
		return &BulkResult{}, nil
	}

	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        method,
		path:          "/washer/availability/",
		body:          map[string]any{"slots": toSlotPayloads(slots)},
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}
	return decodeBulkResult(raw), nil
}

// decodeBulkResult reads refusals out of a 2xx bulk response. Only an object
// carrying a failed list, bare or under data, names refused slots; any other
// body means everything was applied.
func decodeBulkResult(raw json.RawMessage) *BulkResult {
	result := &BulkResult{}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return result
	}

	if failed, ok := wrapper["failed"]; ok {
		if err := json.Unmarshal(failed, &result.Failed); err != nil {
			result.Failed = nil
		}
		return result
	}

	if data, ok := wrapper["data"]; ok {
		return decodeBulkResult(data)
	}
	return result
}

func (s *WashAPIService) BlockDay(ctx context.Context, session *models.Session, date string) error {
	return s.do(ctx, session, apiRequest{
		method:        http.MethodPost,
		path:          "/washer/availability/block",
		body:          map[string]string{"date": date},
		authenticated: true,
	}, nil)
}

func (s *WashAPIService) UnblockDay(ctx context.Context, session *models.Session, date string) error {
	return s.do(ctx, session, apiRequest{
		method:        http.MethodPost,
		path:          "/washer/availability/unblock",
		body:          map[string]string{"date": date},
		authenticated: true,
	}, nil)
}

// CleanupExpiredSlots removes explicit slots whose date has passed.
func (s *WashAPIService) CleanupExpiredSlots(ctx context.Context, session *models.Session) error {
	return s.do(ctx, session, apiRequest{
		method:        http.MethodDelete,
		path:          "/availability",
		authenticated: true,
	}, nil)
}

func (s *WashAPIService) CreateDefaultSlots(
	ctx context.Context,
	session *models.Session,
	slots []models.DefaultSlot,
) error {
	return s.writeDefaultSlots(ctx, session, http.MethodPost, slots)
}

func (s *WashAPIService) ReplaceDefaultSlots(
	ctx context.Context,
	session *models.Session,
	slots []models.DefaultSlot,
) error {
	return s.writeDefaultSlots(ctx, session, http.MethodPut, slots)
}

func (s *WashAPIService) writeDefaultSlots(
	ctx context.Context,
	session *models.Session,
	method string,
	slots []models.DefaultSlot,
) error {
	payloads := make([]defaultSlotPayload, len(slots))
	for i, slot := range slots {
		payloads[i] = defaultSlotPayload{
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}
	}

	return s.do(ctx, session, apiRequest{
		method:        method,
		path:          "/availability/default",
		body:          map[string]any{"slots": payloads},
		authenticated: true,
	}, nil)
}

func (s *WashAPIService) DeleteDefaultSlot(
	ctx context.Context,
	session *models.Session,
	slotID string,
) error {
	return s.do(ctx, session, apiRequest{
		method:        http.MethodDelete,
		path:          "/availability/default/" + url.PathEscape(slotID),
		authenticated: true,
	}, nil)
}
