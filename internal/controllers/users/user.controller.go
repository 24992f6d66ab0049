package userController

import (
	"context"
	"errors"
	"strings"
	"time"
	. "washfamily/internal/models"
	"washfamily/internal/repositories"
	"washfamily/internal/services"
	"washfamily/internal/types"
	"washfamily/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
)

const MaxPhotoBytes = 5 << 20

var (
	ErrWasherAccessDenied = errors.New("washer mode is not available for this account")
	ErrInvalidPhoto       = errors.New("photo must be a non-empty image of at most 5MB")
)

type washAPI interface {
	Profile(ctx context.Context, session *Session) (*User, error)
	UpdateProfile(ctx context.Context, session *Session, update services.ProfileUpdate) (*User, error)
	CompleteProfile(ctx context.Context, session *Session, completion services.ProfileCompletion) (*User, error)
	UploadProfilePhoto(ctx context.Context, session *Session, photo Attachment) (string, error)
	WasherStatus(ctx context.Context, session *Session) (bool, error)
	SetWasherStatus(ctx context.Context, session *Session, online bool) (bool, error)
	UpdateLocation(ctx context.Context, session *Session, latitude, longitude float64) error
	NearbyWashers(ctx context.Context, session *Session) ([]WasherSummary, error)
}

type geocoder interface {
	Enabled() bool
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

type UserController struct {
	washAPI  washAPI
	geocode  geocoder
	sessions repositories.SessionRepository
	now      func() time.Time
	log      logger.Logger
}

type UserControllerInterface interface {
	Profile(ctx context.Context, session *Session) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, session *Session, req UpdateProfileRequest) (*ProfileResponse, error)
	CompleteProfile(ctx context.Context, session *Session, req CompleteProfileRequest) (*ProfileResponse, error)
	UploadPhoto(ctx context.Context, session *Session, photo Attachment) (*ProfileResponse, error)
	WasherStatus(ctx context.Context, session *Session) (*OnlineStatus, error)
	SetOnline(ctx context.Context, session *Session, online bool) (*OnlineStatus, error)
	PostLocation(ctx context.Context, session *Session, req LocationRequest) (*LocationResponse, error)
	NearbyWashers(ctx context.Context, session *Session) ([]WasherSummary, error)
}

func New(repos repositories.Repository, services services.Service) UserControllerInterface {
	return &UserController{
		washAPI:  services.WashAPI,
		geocode:  services.Geocode,
		sessions: repos.Session,
		now:      time.Now,
		log:      logger.New("userController"),
	}
}

type ProfileResponse struct {
	User         *User        `json:"user"`
	WasherAccess WasherAccess `json:"washerAccess"`
}

type OnlineStatus struct {
	IsOnline bool `json:"isOnline"`
}

type UpdateProfileRequest struct {
	Username    *string `json:"username"    validate:"omitempty,min=3"`
	Name        *string `json:"name"        validate:"omitempty,min=2"`
	Lastname    *string `json:"lastname"    validate:"omitempty,min=2"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
	Address     *string `json:"address"     validate:"omitempty,max=255"`
	City        *string `json:"city"        validate:"omitempty,max=100"`
	Zip         *string `json:"zip"         validate:"omitempty,max=20"`
	Country     *string `json:"country"     validate:"omitempty,max=100"`
}

type CompleteProfileRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Address     string `json:"address"     validate:"required,max=255"`
	Country     string `json:"country"     validate:"required,max=100"`
	City        string `json:"city"        validate:"required,max=100"`
	Zip         string `json:"zip"         validate:"required,max=20"`
	Sexe        Sexe   `json:"sexe"        validate:"required,oneof=male femelle autre"`
	BornDate    string `json:"bornDate"    validate:"required,datetime=2006-01-02"`
}

func (r *CompleteProfileRequest) Validate(now time.Time) error {
	if err := types.Validate(r); err != nil {
		return err
	}

	born, _ := time.Parse(DateLayout, r.BornDate)
	if !born.Before(now) {
		return types.NewValidationError("bornDate", "bornDate must be in the past")
	}
	return nil
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude"  validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

func (uc *UserController) Profile(ctx context.Context, session *Session) (*ProfileResponse, error) {
	user, err := uc.washAPI.Profile(ctx, session)
	if err != nil {
		return nil, err
	}
	return uc.remember(ctx, session, user), nil
}

func (uc *UserController) UpdateProfile(
	ctx context.Context,
	session *Session,
	req UpdateProfileRequest,
) (*ProfileResponse, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	user, err := uc.washAPI.UpdateProfile(ctx, session, services.ProfileUpdate{
		Username:    req.Username,
		Name:        req.Name,
		Lastname:    req.Lastname,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		Zip:         req.Zip,
		Country:     req.Country,
	})
	if err != nil {
		return nil, uc.log.TraceFromContext(ctx).Function("UpdateProfile").
			Err("failed to update profile", err, "userID", session.UserID())
	}

	return uc.remember(ctx, session, user), nil
}

func (uc *UserController) CompleteProfile(
	ctx context.Context,
	session *Session,
	req CompleteProfileRequest,
) (*ProfileResponse, error) {
	log := uc.log.TraceFromContext(ctx).Function("CompleteProfile")

	if err := req.Validate(uc.now()); err != nil {
		return nil, err
	}

	user, err := uc.washAPI.CompleteProfile(ctx, session, services.ProfileCompletion{
		PhoneNumber: req.PhoneNumber,
		Address:     utils.CleanUTF8(req.Address),
		Country:     req.Country,
		City:        req.City,
		Zip:         req.Zip,
		Sexe:        string(req.Sexe),
		BornDate:    req.BornDate,
	})
	if err != nil {
		return nil, log.Err("failed to complete profile", err, "userID", session.UserID())
	}

	log.Info("Profile completed", "userID", user.ID, "washerAccess", user.WasherAccess())
	return uc.remember(ctx, session, user), nil
}

func (uc *UserController) UploadPhoto(
	ctx context.Context,
	session *Session,
	photo Attachment,
) (*ProfileResponse, error) {
	if len(photo.Data) == 0 || len(photo.Data) > MaxPhotoBytes ||
		(photo.ContentType != "" && !strings.HasPrefix(photo.ContentType, "image/")) {
		return nil, types.Invalid("profilePicture", ErrInvalidPhoto)
	}
	if photo.Filename == "" {
		photo.Filename = "profile.jpg"
	}
	if photo.ContentType == "" {
		photo.ContentType = "image/jpeg"
	}

	url, err := uc.washAPI.UploadProfilePhoto(ctx, session, photo)
	if err != nil {
		return nil, uc.log.TraceFromContext(ctx).Function("UploadPhoto").
			Err("failed to upload profile photo", err, "userID", session.UserID())
	}

	user := &User{}
	if session.User != nil {
		copied := *session.User
		user = &copied
	}
	user.ProfilePicture = url

	return uc.remember(ctx, session, user), nil
}

func (uc *UserController) WasherStatus(ctx context.Context, session *Session) (*OnlineStatus, error) {
	online, err := uc.washAPI.WasherStatus(ctx, session)
	if err != nil {
		return nil, err
	}
	return &OnlineStatus{IsOnline: online}, nil
}

// SetOnline flips the washer's availability on the session right away and
// puts it back if upstream refuses the change.
func (uc *UserController) SetOnline(
	ctx context.Context,
	session *Session,
	online bool,
) (*OnlineStatus, error) {
	log := uc.log.TraceFromContext(ctx).Function("SetOnline")

	if session.User == nil || !session.User.CanActAsWasher() {
		return nil, ErrWasherAccessDenied
	}

	previous := session.User.IsOnline
	session.User.IsOnline = online

	confirmed, err := uc.washAPI.SetWasherStatus(ctx, session, online)
	if err != nil {
		session.User.IsOnline = previous
		return &OnlineStatus{IsOnline: previous}, log.Err(
			"failed to change washer status", err, "userID", session.UserID(), "online", online,
		)
	}

	session.User.IsOnline = confirmed
	uc.save(ctx, session)

	return &OnlineStatus{IsOnline: confirmed}, nil
}

// PostLocation reports the device position upstream and, when geocoding is
// configured, names the address it resolves to.
func (uc *UserController) PostLocation(
	ctx context.Context,
	session *Session,
	req LocationRequest,
) (*LocationResponse, error) {
	log := uc.log.TraceFromContext(ctx).Function("PostLocation")

	if err := types.Validate(req); err != nil {
		return nil, err
	}

	if err := uc.washAPI.UpdateLocation(ctx, session, req.Latitude, req.Longitude); err != nil {
		return nil, log.Err("failed to update location", err, "userID", session.UserID())
	}

	response := &LocationResponse{Latitude: req.Latitude, Longitude: req.Longitude}
	if uc.geocode.Enabled() {
		address, err := uc.geocode.Reverse(ctx, req.Latitude, req.Longitude)
		if err != nil {
			log.Warn("reverse geocoding failed", "userID", session.UserID(), "error", err)
		}
		response.Address = address
	}

	if session.User != nil {
		lat, lng := req.Latitude, req.Longitude
		session.User.Latitude = &lat
		session.User.Longitude = &lng
		uc.save(ctx, session)
	}

	return response, nil
}

func (uc *UserController) NearbyWashers(ctx context.Context, session *Session) ([]WasherSummary, error) {
	return uc.washAPI.NearbyWashers(ctx, session)
}

// remember stores the freshest user projection on the session.
func (uc *UserController) remember(ctx context.Context, session *Session, user *User) *ProfileResponse {
	session.User = user
	uc.save(ctx, session)

	return &ProfileResponse{User: user, WasherAccess: user.WasherAccess()}
}

func (uc *UserController) save(ctx context.Context, session *Session) {
	if err := uc.sessions.Save(ctx, session); err != nil {
		uc.log.TraceFromContext(ctx).Function("save").
			Warn("failed to persist session", "sessionID", session.ID, "error", err)
	}
}
