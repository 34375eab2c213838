package forestwatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/provider"
)

var amazon = domain.Location{Lat: -3.4653, Lng: -62.2159, RadiusKm: 50}

func failureReason(t *testing.T, err error) provider.Reason {
	t.Helper()
	var f *provider.Failure
	require.True(t, errors.As(err, &f), "expected *provider.Failure, got %T", err)
	return f.Reason
}

func TestAlerts_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/alerts", r.URL.Path)
		require.Equal(t, "gfw-key", r.Header.Get("x-api-key"))
		require.Equal(t, "-3.4653", r.URL.Query().Get("lat"))
		require.Equal(t, "-62.2159", r.URL.Query().Get("lng"))
		require.Equal(t, "50", r.URL.Query().Get("radius_km"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"latitude":-3.5,"longitude":-62.1,"confidence":95,"area_ha":12.5,"alert_date":"2026-10-01","region":"Amazonas"},
			{"latitude":-3.6,"longitude":-62.3,"confidence":60,"area_ha":3,"alert_date":"2026-10-02"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "gfw-key", BaseURL: srv.URL + "/"})
	alerts, err := c.Alerts(context.Background(), amazon)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, Alert{Latitude: -3.5, Longitude: -62.1, Confidence: 95, AreaHa: 12.5, AlertDate: "2026-10-01", Region: "Amazonas"}, alerts[0])
}

func TestAlerts_Unavailable(t *testing.T) {
	_, err := NewClient(ClientConfig{}).Alerts(context.Background(), amazon)
	require.Equal(t, provider.ReasonUnavailable, failureReason(t, err))
}

func TestAlerts_RejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":"failed","message":"invalid key"}`))
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{APIKey: "bad", BaseURL: srv.URL}).Alerts(context.Background(), amazon)
	require.Equal(t, provider.ReasonRejected, failureReason(t, err))
	require.Contains(t, err.Error(), "invalid key")
}

func TestAlerts_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL}).Alerts(context.Background(), amazon)
	require.Equal(t, provider.ReasonRejected, failureReason(t, err))
	require.Contains(t, err.Error(), "no alerts")
}

func TestAlerts_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL}).Alerts(ctx, amazon)
	require.Equal(t, provider.ReasonTransportError, failureReason(t, err))
}
