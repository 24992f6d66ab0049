package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"washfamily/config"
	"washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	refreshTokenPath = "/users/refresh-token"
	maxErrorBodySize = 64 * 1024
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSessionExpired      = errors.New("session expired")
	ErrNotFound            = errors.New("not found")
	ErrRejected            = errors.New("request rejected")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// APIError is returned for every failed upstream call. Kind is one of the
// sentinel errors above and is matched with errors.Is.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *APIError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// IsRetryable reports whether the caller may simply try again later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// UpstreamStatus returns the upstream HTTP status carried by err, or 0.
func UpstreamStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// TokenStore persists rotated tokens for a session and forgets them when the
// session can no longer be refreshed.
type TokenStore interface {
	SaveTokens(ctx context.Context, session *models.Session) error
	ClearTokens(ctx context.Context, session *models.Session) error
}

type WashAPIService struct {
	baseURL      *url.URL
	httpClient   *http.Client
	tokens       TokenStore
	refreshGroup singleflight.Group
	log          logger.Logger
}

func NewWashAPIService(cfg config.Config, tokens TokenStore) (*WashAPIService, error) {
	log := logger.New("WashAPIService").Function("NewWashAPIService")

	if cfg.WashAPIURL == "" {
		return nil, log.ErrMsg("WashFamily API URL is required")
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.WashAPIURL, "/"))
	if err != nil {
		return nil, log.Err("failed to parse WashFamily API URL", err, "url", cfg.WashAPIURL)
	}

	if tokens == nil {
		return nil, log.ErrMsg("token store is required")
	}

	service := &WashAPIService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   cfg.WashAPITimeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		log:    logger.New("WashAPIService"),
	}

	log.Info("WashFamily API client initialized", "baseURL", baseURL.String())
	return service, nil
}

type formFile struct {
	field string
	file  models.Attachment
}

type formField struct {
	name  string
	value string
}

type apiRequest struct {
	method        string
	path          string
	query         url.Values
	body          any
	fields        []formField
	files         []formFile
	authenticated bool
}

func (r apiRequest) isMultipart() bool {
	return len(r.files) > 0 || len(r.fields) > 0
}

func (r apiRequest) encode() ([]byte, string, error) {
	if r.isMultipart() {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		for _, field := range r.fields {
			if err := writer.WriteField(field.name, field.value); err != nil {
				return nil, "", err
			}
		}

		for _, f := range r.files {
			header := make(textproto.MIMEHeader)
			header.Set(
				"Content-Disposition",
				fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.file.Filename),
			)
			header.Set("Content-Type", f.file.ContentType)

			part, err := writer.CreatePart(header)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(f.file.Data); err != nil {
				return nil, "", err
			}
		}

		if err := writer.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), writer.FormDataContentType(), nil
	}

	if r.body == nil {
		return nil, "", nil
	}

	payload, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", err
	}
	return payload, "application/json", nil
}

// do sends req for session and decodes a successful JSON response into out.
// An authenticated request answered with 401 triggers exactly one refresh
// of the access token followed by exactly one retry.
func (s *WashAPIService) do(
	ctx context.Context,
	session *models.Session,
	req apiRequest,
	out any,
) error {
	log := s.log.TraceFromContext(ctx).Function("do")

	payload, contentType, err := req.encode()
	if err != nil {
		return log.Err("failed to encode request body", err, "path", req.path)
	}

	if req.authenticated && !session.HasTokens() {
		return &APIError{Kind: ErrSessionExpired, StatusCode: http.StatusUnauthorized, Message: "session expired"}
	}

	resp, err := s.send(ctx, session, req, payload, contentType)
	if err != nil {
		return err
	}

	if req.authenticated && resp.StatusCode == http.StatusUnauthorized {
		s.closeBody(resp, log)

		log.Info("access token rejected, refreshing", "path", req.path, "sessionID", session.ID)
		if err := s.refresh(ctx, session); err != nil {
			return err
		}

		resp, err = s.send(ctx, session, req, payload, contentType)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			s.closeBody(resp, log)
			s.expire(ctx, session)
			return &APIError{Kind: ErrSessionExpired, StatusCode: http.StatusUnauthorized, Message: "session expired"}
		}
	}

	defer s.closeBody(resp, log)
	return s.decode(resp, out)
}

func (s *WashAPIService) send(
	ctx context.Context,
	session *models.Session,
	req apiRequest,
	payload []byte,
	contentType string,
) (*http.Response, error) {
	log := s.log.TraceFromContext(ctx).Function("send")

	target := s.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return nil, log.Err("failed to create upstream request", err, "path", req.path)
	}

	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.authenticated {
		httpReq.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("upstream request failed", "method", req.method, "path", req.path, "error", err)
		return nil, &APIError{
			Kind:    ErrUpstreamUnavailable,
			Message: "WashFamily service is unreachable, please try again",
			Cause:   err,
		}
	}

	return resp, nil
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// refresh rotates the session's access token. Concurrent callers on the same
// session share a single upstream exchange.
func (s *WashAPIService) refresh(ctx context.Context, session *models.Session) error {
	log := s.log.TraceFromContext(ctx).Function("refresh")

	result, err, _ := s.refreshGroup.Do(session.ID, func() (any, error) {
		return s.exchangeRefreshToken(ctx, session.RefreshToken)
	})
	if err != nil {
		if IsRetryable(err) {
			return err
		}
		log.Info("refresh token rejected, ending session", "sessionID", session.ID, "error", err)
		s.expire(ctx, session)
		return &APIError{Kind: ErrSessionExpired, StatusCode: http.StatusUnauthorized, Message: "session expired", Cause: err}
	}

	tokens := result.(refreshResponse)
	session.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		session.RefreshToken = tokens.RefreshToken
	}

	if err := s.tokens.SaveTokens(ctx, session); err != nil {
		log.Warn("failed to persist rotated tokens", "sessionID", session.ID, "error", err)
	}

	return nil
}

func (s *WashAPIService) exchangeRefreshToken(
	ctx context.Context,
	refreshToken string,
) (refreshResponse, error) {
	if refreshToken == "" {
		return refreshResponse{}, &APIError{Kind: ErrUnauthorized, Message: "no refresh token"}
	}

	holder := &models.Session{AccessToken: refreshToken}
	req := apiRequest{method: http.MethodPost, path: refreshTokenPath, authenticated: true}

	resp, err := s.send(ctx, holder, req, nil, "")
	if err != nil {
		return refreshResponse{}, err
	}
	defer s.closeBody(resp, s.log.Function("exchangeRefreshToken"))

	var tokens refreshResponse
	if err := s.decode(resp, &tokens); err != nil {
		return refreshResponse{}, err
	}

	if tokens.AccessToken == "" {
		return refreshResponse{}, &APIError{Kind: ErrUnauthorized, Message: "refresh response carried no access token"}
	}

	return tokens, nil
}

func (s *WashAPIService) expire(ctx context.Context, session *models.Session) {
	session.ClearTokens()
	if err := s.tokens.ClearTokens(ctx, session); err != nil {
		s.log.Function("expire").Warn("failed to clear session tokens", "sessionID", session.ID, "error", err)
	}
}

type upstreamErrorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func (s *WashAPIService) decode(resp *http.Response, out any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &APIError{Kind: ErrUpstreamUnavailable, StatusCode: resp.StatusCode, Message: "failed to read upstream response", Cause: err}
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{Kind: ErrUpstreamUnavailable, StatusCode: resp.StatusCode, Message: "unexpected upstream response", Cause: err}
		}
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return newAPIError(resp.StatusCode, upstreamMessage(data))
}

func newAPIError(statusCode int, message string) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Message: message}

	switch {
	case statusCode == http.StatusUnauthorized:
		apiErr.Kind = ErrUnauthorized
	case statusCode == http.StatusNotFound:
		apiErr.Kind = ErrNotFound
	case statusCode >= 500:
		apiErr.Kind = ErrUpstreamUnavailable
	default:
		apiErr.Kind = ErrRejected
	}

	if apiErr.Message == "" {
		switch apiErr.Kind {
		case ErrUnauthorized:
			apiErr.Message = "invalid credentials"
		case ErrNotFound:
			apiErr.Message = "resource not found"
		case ErrUpstreamUnavailable:
			apiErr.Message = "WashFamily service is unavailable, please try again"
		default:
			apiErr.Message = "request rejected"
		}
	}

	return apiErr
}

// upstreamMessage extracts a human message from an error body. The message
// field is either a string or a list of validation strings.
func upstreamMessage(data []byte) string {
	var body upstreamErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if len(body.Message) > 0 {
		var single string
		if err := json.Unmarshal(body.Message, &single); err == nil && single != "" {
			return single
		}

		var many []string
		if err := json.Unmarshal(body.Message, &many); err == nil && len(many) > 0 {
			return strings.Join(many, ", ")
		}
	}

	return body.Error
}

func (s *WashAPIService) closeBody(resp *http.Response, log logger.Logger) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		log.Info("failed to close response body", "error", err)
	}
}

// decodeEnveloped decodes responses that are either a bare value or wrapped under
// one of the given keys.
func decodeEnveloped(raw json.RawMessage, out any, keys ...string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '{' && len(keys) > 0 {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err == nil {
			for _, key := range keys {
				if inner, ok := wrapper[key]; ok {
					return json.Unmarshal(inner, out)
				}
			}
		}
	}

	return json.Unmarshal(trimmed, out)
}
