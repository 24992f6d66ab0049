package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"washfamily/internal/models"
)

type RegisterPayload struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Lastname     string `json:"lastname"`
	CaptchaToken string `json:"capchaToken,omitempty"`
}

type LoginResult struct {
	AccessToken  string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

type ProfileCompletion struct {
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	Sexe        string `json:"sexe"`
	BornDate    string `json:"bornDate"`
}

type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	Name        *string `json:"name,omitempty"`
	Lastname    *string `json:"lastname,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Zip         *string `json:"zip,omitempty"`
	Country     *string `json:"country,omitempty"`
}

type WasherSearch struct {
	Latitude  float64
	Longitude float64
	Date      string
	StartTime string
}

func (s *WashAPIService) Register(ctx context.Context, payload RegisterPayload) error {
	return s.do(ctx, nil, apiRequest{
		method: http.MethodPost,
		path:   "/users/register",
		body:   payload,
	}, nil)
}

func (s *WashAPIService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := s.log.TraceFromContext(ctx).Function("Login")

	var result LoginResult
	err := s.do(ctx, nil, apiRequest{
		method: http.MethodPost,
		path:   "/users/login",
		body:   map[string]string{"email": email, "password": password},
	}, &result)
	if err != nil {
		return nil, err
	}

	if result.AccessToken == "" {
		return nil, log.Err(
			"login response carried no token",
			&APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected login response"},
		)
	}

	return &result, nil
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

func (s *WashAPIService) Profile(ctx context.Context, session *models.Session) (*models.User, error) {
	var envelope userEnvelope
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          "/users/profile",
		authenticated: true,
	}, &envelope); err != nil {
		return nil, err
	}

	if envelope.User == nil {
		return nil, &APIError{Kind: ErrNotFound, StatusCode: http.StatusOK, Message: "profile not found"}
	}

	return envelope.User, nil
}

func (s *WashAPIService) UpdateProfile(
	ctx context.Context,
	session *models.Session,
	update ProfileUpdate,
) (*models.User, error) {
	return s.writeProfile(ctx, session, http.MethodPut, "/users/profile", update)
}

func (s *WashAPIService) CompleteProfile(
	ctx context.Context,
	session *models.Session,
	completion ProfileCompletion,
) (*models.User, error) {
	return s.writeProfile(ctx, session, http.MethodPut, "/users/profile/complete", completion)
}

// writeProfile sends a profile mutation and returns the resulting user,
// re-reading the profile when upstream does not echo it back.
func (s *WashAPIService) writeProfile(
	ctx context.Context,
	session *models.Session,
	method, path string,
	body any,
) (*models.User, error) {
	var envelope userEnvelope
	if err := s.do(ctx, session, apiRequest{
		method:        method,
		path:          path,
		body:          body,
		authenticated: true,
	}, &envelope); err != nil {
		return nil, err
	}

	if envelope.User != nil {
		return envelope.User, nil
	}

	return s.Profile(ctx, session)
}

func (s *WashAPIService) UploadProfilePhoto(
	ctx context.Context,
	session *models.Session,
	photo models.Attachment,
) (string, error) {
	var response struct {
		ProfilePictureURL string `json:"profilePictureUrl"`
	}

	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodPost,
		path:          "/users/profile/photo",
		files:         []formFile{{field: "profilePicture", file: photo}},
		authenticated: true,
	}, &response); err != nil {
		return "", err
	}

	return response.ProfilePictureURL, nil
}

type onlineStatus struct {
	IsOnline bool `json:"isOnline"`
}

func (s *WashAPIService) WasherStatus(ctx context.Context, session *models.Session) (bool, error) {
	var status onlineStatus
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          "/washer/status",
		authenticated: true,
	}, &status); err != nil {
		return false, err
	}
	return status.IsOnline, nil
}

func (s *WashAPIService) SetWasherStatus(
	ctx context.Context,
	session *models.Session,
	online bool,
) (bool, error) {
	status := onlineStatus{IsOnline: online}
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodPatch,
		path:          "/washer/status",
		body:          onlineStatus{IsOnline: online},
		authenticated: true,
	}, &status); err != nil {
		return false, err
	}
	return status.IsOnline, nil
}

func (s *WashAPIService) UpdateLocation(
	ctx context.Context,
	session *models.Session,
	latitude, longitude float64,
) error {
	return s.do(ctx, session, apiRequest{
		method: http.MethodPost,
		path:   "/users/location",
		body: map[string]float64{
			"latitude":  latitude,
			"longitude": longitude,
		},
		authenticated: true,
	}, nil)
}

func (s *WashAPIService) NearbyWashers(
	ctx context.Context,
	session *models.Session,
) ([]models.WasherSummary, error) {
	return s.washerList(ctx, session, "/users/washers/nearby", nil)
}

func (s *WashAPIService) SearchWashers(
	ctx context.Context,
	session *models.Session,
	search WasherSearch,
) ([]models.WasherSummary, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(search.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(search.Longitude, 'f', -1, 64))
	if search.Date != "" {
		query.Set("date", search.Date)
	}
	if search.StartTime != "" {
		query.Set("startTime", search.StartTime)
	}

	return s.washerList(ctx, session, "/users/washeurs/search", query)
}

func (s *WashAPIService) washerList(
	ctx context.Context,
	session *models.Session,
	path string,
	query url.Values,
) ([]models.WasherSummary, error) {
	var raw json.RawMessage
	if err := s.do(ctx, session, apiRequest{
		method:        http.MethodGet,
		path:          path,
		query:         query,
		authenticated: true,
	}, &raw); err != nil {
		return nil, err
	}

	washers := []models.WasherSummary{}
	if err := decodeEnveloped(raw, &washers, "washers", "washeurs", "data"); err != nil {
		return nil, &APIError{Kind: ErrUpstreamUnavailable, StatusCode: http.StatusOK, Message: "unexpected washer list", Cause: err}
	}
	return washers, nil
}
