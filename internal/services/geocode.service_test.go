package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"washfamily/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeService_DisabledWithoutKey(t *testing.T) {
	service := NewGeocodeService(config.Config{}, nil)

	assert.False(t, service.Enabled())
	_, err := service.Reverse(context.Background(), 48.85, 2.35)
	assert.ErrorIs(t, err, ErrGeocodingDisabled)
}

func TestGeocodeService_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "48.856600,2.352200", r.URL.Query().Get("latlng"))
		assert.Equal(t, "maps-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"1 Rue de Rivoli, 75001 Paris"},{"formatted_address":"Paris"}]}`))
	}))
	defer server.Close()

	service := NewGeocodeService(config.Config{GoogleMapsAPIKey: "maps-key", GeocodeURL: server.URL}, nil)

	address, err := service.Reverse(context.Background(), 48.8566, 2.3522)

	require.NoError(t, err)
	assert.Equal(t, "1 Rue de Rivoli, 75001 Paris", address)
}

func TestGeocodeService_NoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	service := NewGeocodeService(config.Config{GoogleMapsAPIKey: "maps-key", GeocodeURL: server.URL}, nil)

	_, err := service.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestGeocodeService_ProviderOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewGeocodeService(config.Config{GoogleMapsAPIKey: "maps-key", GeocodeURL: server.URL}, nil)

	_, err := service.Reverse(context.Background(), 1, 1)
	assert.True(t, IsRetryable(err))
}
