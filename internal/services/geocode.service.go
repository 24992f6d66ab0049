package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"washfamily/config"
	"washfamily/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	geocodeCacheTTL   = 24 * time.Hour
	geocodeHash       = "geocode:%s"
)

var (
	ErrGeocodingDisabled = errors.New("geocoding is not configured")
	ErrAddressNotFound   = errors.New("no address found for these coordinates")
)

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type GeocodeService struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	cache      valkey.Client
	log        logger.Logger
}

func NewGeocodeService(cfg config.Config, cache valkey.Client) *GeocodeService {
	endpoint := cfg.GeocodeURL
	if endpoint == "" {
		endpoint = defaultGeocodeURL
	}

	return &GeocodeService{
		endpoint: endpoint,
		apiKey:   cfg.GoogleMapsAPIKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache: cache,
		log:   logger.New("GeocodeService"),
	}
}

func (s *GeocodeService) Enabled() bool {
	return s != nil && s.apiKey != ""
}

// Reverse returns the formatted address for a coordinate pair.
func (s *GeocodeService) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	if !s.Enabled() {
		return "", ErrGeocodingDisabled
	}

	log := s.log.TraceFromContext(ctx).Function("Reverse")
	latlng := strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)

	if s.cache != nil {
		var address string
		found, err := database.NewCacheBuilder(s.cache, latlng).
			WithHashPattern(geocodeHash).
			WithContext(ctx).
			Get(&address)
		if err != nil {
			log.Warn("failed to read geocode cache", "latlng", latlng, "error", err)
		}
		if found {
			return address, nil
		}
	}

	address, err := s.lookup(ctx, latlng)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := database.NewCacheBuilder(s.cache, latlng).
			WithHashPattern(geocodeHash).
			WithStruct(address).
			WithTTL(geocodeCacheTTL).
			WithContext(ctx).
			Set(); err != nil {
			log.Warn("failed to cache geocode result", "latlng", latlng, "error", err)
		}
	}

	return address, nil
}

func (s *GeocodeService) lookup(ctx context.Context, latlng string) (string, error) {
	log := s.log.TraceFromContext(ctx).Function("lookup")

	query := url.Values{}
	query.Set("latlng", latlng)
	query.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", log.Err("failed to create geocode request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Kind: ErrUpstreamUnavailable, Message: "geocoding service is unreachable", Cause: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Info("failed to close geocode response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Kind:       ErrUpstreamUnavailable,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("geocoding service answered %d", resp.StatusCode),
		}
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", log.Err("failed to decode geocode response", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		log.Info("no geocode result", "status", body.Status, "message", body.ErrorMessage)
		return "", fmt.Errorf("%w (%s)", ErrAddressNotFound, body.Status)
	}

	return body.Results[0].FormattedAddress, nil
}
