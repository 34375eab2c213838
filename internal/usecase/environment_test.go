package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/integrations/forestwatch"
	"climate-dashboard/internal/integrations/openweather"
	"climate-dashboard/internal/provider"
)

type fakeForest struct {
	available bool
	alerts    []forestwatch.Alert
	err       error
	delay     time.Duration
	calls     atomic.Int32
	lastLoc   domain.Location
}

func (f *fakeForest) Available() bool { return f.available }

func (f *fakeForest) Alerts(ctx context.Context, loc domain.Location) ([]forestwatch.Alert, error) {
	f.calls.Add(1)
	f.lastLoc = loc
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, provider.Transport(forestwatch.Name, ctx.Err())
		}
	}
	return f.alerts, f.err
}

type fakeWeather struct {
	available  bool
	weather    openweather.Weather
	weatherErr error
	air        openweather.AirQuality
	airErr     error
	delay      time.Duration
	calls      atomic.Int32
	panicOnAir bool
}

func (f *fakeWeather) Available() bool { return f.available }

func (f *fakeWeather) CurrentWeather(_ context.Context, _, _ float64) (openweather.Weather, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return f.weather, f.weatherErr
}

func (f *fakeWeather) AirPollution(_ context.Context, _, _ float64) (openweather.AirQuality, error) {
	f.calls.Add(1)
	if f.panicOnAir {
		panic("unexpected nil reading")
	}
	time.Sleep(f.delay)
	return f.air, f.airErr
}

func reefWeather(name string, temp float64) openweather.Weather {
	var w openweather.Weather
	w.Name = name
	w.Main.Temp = temp
	return w
}

func newEnvService(t *testing.T, forest ForestAlertSource, weather WeatherSource) *EnvironmentService {
	t.Helper()
	svc, err := NewEnvironmentService(forest, weather, zerolog.Nop(), EnvironmentConfig{})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.FixedZone("x", 3600)) }
	return svc
}

func requireAllPopulated(t *testing.T, d EnvironmentData) {
	t.Helper()
	require.NotEmpty(t, d.Deforestation)
	require.NotEmpty(t, d.CoralReefs)
	require.NotEmpty(t, d.PlasticWaste)
	require.NotEmpty(t, d.Emissions)
}

func TestParseDataType(t *testing.T) {
	all, err := ParseDataType("")
	require.NoError(t, err)
	require.Equal(t, allCapabilities, all)

	all, err = ParseDataType(" ALL ")
	require.NoError(t, err)
	require.Len(t, all, 4)

	one, err := ParseDataType("coral")
	require.NoError(t, err)
	require.Equal(t, []Capability{CapabilityCoral}, one)

	_, err = ParseDataType("volcanoes")
	var ucErr *Error
	require.True(t, errors.As(err, &ucErr))
	require.Equal(t, ErrorInvalidInput, ucErr.Code)
}

func TestValidateLocation(t *testing.T) {
	require.NoError(t, ValidateLocation(DefaultLocation))
	require.NoError(t, ValidateLocation(domain.Location{Lat: 90, Lng: -180, RadiusKm: 500}))
	for _, loc := range []domain.Location{
		{Lat: 91, Lng: 0, RadiusKm: 1},
		{Lat: 0, Lng: 181, RadiusKm: 1},
		{Lat: 0, Lng: 0, RadiusKm: 0},
		{Lat: 0, Lng: 0, RadiusKm: 501},
	} {
		require.Error(t, ValidateLocation(loc), "loc=%+v", loc)
	}
}

func TestAssemble_NoProvidersConfiguredServesExactFallbacks(t *testing.T) {
	forest := &fakeForest{available: false}
	weather := &fakeWeather{available: false}
	svc := newEnvService(t, forest, weather)

	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "all"})
	require.NoError(t, err)
	require.Zero(t, forest.calls.Load())
	require.Zero(t, weather.calls.Load())

	require.Equal(t, DeforestationFallback(), out.Data.Deforestation)
	require.Equal(t, CoralFallback(), out.Data.CoralReefs)
	require.Equal(t, PlasticFallback(), out.Data.PlasticWaste)
	require.Equal(t, EmissionsFallback(), out.Data.Emissions)
	for _, c := range allCapabilities {
		require.Equal(t, provider.SourceFallback, out.Sources[c])
	}
	require.Equal(t, time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC), out.Timestamp)
}

func TestAssemble_DeforestationFallbackHasThreeFixedRecords(t *testing.T) {
	svc := newEnvService(t, nil, nil)
	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "deforestation"})
	require.NoError(t, err)
	require.Len(t, out.Data.Deforestation, 3)
	for i, a := range out.Data.Deforestation {
		require.Equal(t, i+1, a.ID)
	}
	require.Equal(t, domain.SeverityCritical, out.Data.Deforestation[0].Severity)
}

func TestAssemble_SingleCapabilityLeavesOthersEmpty(t *testing.T) {
	svc := newEnvService(t, nil, nil)
	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "plastic"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Data.PlasticWaste)
	require.NotNil(t, out.Data.Deforestation)
	require.Empty(t, out.Data.Deforestation)
	require.Empty(t, out.Data.CoralReefs)
	require.Empty(t, out.Data.Emissions)
	require.Equal(t, map[Capability]string{CapabilityPlastic: provider.SourceFallback}, out.Sources)
}

func TestAssemble_LiveProvidersAreNormalized(t *testing.T) {
	forest := &fakeForest{available: true, alerts: []forestwatch.Alert{
		{Latitude: -3.5, Longitude: -62.1, Confidence: 95, AreaHa: 10, AlertDate: "2026-10-01", Region: "Amazonas"},
		{Latitude: -3.6, Longitude: -62.2, Confidence: 80, AreaHa: 5, AlertDate: "2026-10-02"},
		{Latitude: -3.7, Longitude: -62.3, Confidence: 50, AreaHa: 1, AlertDate: "2026-10-03"},
	}}
	weather := &fakeWeather{
		available: true,
		weather:   reefWeather("Lizard Island", 30.2),
		air:       openweather.AirQuality{AQI: 4, CO: 300, NO2: 20, PM25: 35},
	}
	svc := newEnvService(t, forest, weather)
	loc := domain.Location{Lat: -14.6, Lng: 145.4, RadiusKm: 25}

	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "all", Location: &loc})
	require.NoError(t, err)
	requireAllPopulated(t, out.Data)
	require.Equal(t, loc, forest.lastLoc)

	d := out.Data.Deforestation
	require.Len(t, d, 3)
	require.Equal(t, []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium},
		[]domain.Severity{d[0].Severity, d[1].Severity, d[2].Severity})
	require.Equal(t, "Amazonas", d[0].Location)
	require.Equal(t, "-3.6000, -62.2000", d[1].Location)

	reef := out.Data.CoralReefs[0]
	require.Equal(t, "Lizard Island", reef.Name)
	require.Equal(t, domain.SeverityCritical, reef.Severity)
	require.Equal(t, "severe bleaching", reef.BleachingStatus)
	require.Equal(t, loc.Lat, reef.Lat)

	em := out.Data.Emissions[0]
	require.Equal(t, domain.SeverityHigh, em.Severity)
	require.Equal(t, 4, em.AQI)

	require.Equal(t, forestwatch.Name, out.Sources[CapabilityDeforestation])
	require.Equal(t, openweather.Name, out.Sources[CapabilityCoral])
	require.Equal(t, openweather.Name, out.Sources[CapabilityEmissions])
	require.Equal(t, provider.SourceFallback, out.Sources[CapabilityPlastic])
}

func TestAssemble_FailureIsIsolatedPerCapability(t *testing.T) {
	forest := &fakeForest{available: true, err: provider.Rejected(forestwatch.Name, 503, "down")}
	weather := &fakeWeather{
		available:  true,
		weather:    reefWeather("", 27),
		airErr:     provider.Transport(openweather.Name, context.DeadlineExceeded),
	}
	svc := newEnvService(t, forest, weather)

	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "all"})
	require.NoError(t, err)
	requireAllPopulated(t, out.Data)

	require.Equal(t, DeforestationFallback(), out.Data.Deforestation)
	require.Equal(t, EmissionsFallback(), out.Data.Emissions)
	require.Equal(t, openweather.Name, out.Sources[CapabilityCoral])
	require.Equal(t, "Reef near -3.47, -62.22", out.Data.CoralReefs[0].Name)
	require.Equal(t, domain.SeverityLow, out.Data.CoralReefs[0].Severity)
}

func TestAssemble_MalformedProviderPayloadFallsBack(t *testing.T) {
	forest := &fakeForest{available: true, alerts: []forestwatch.Alert{{Latitude: 0, Longitude: 0, Confidence: 140}}}
	weather := &fakeWeather{available: true, weather: reefWeather("Oven", 80)}
	svc := newEnvService(t, forest, weather)

	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "all"})
	require.NoError(t, err)
	require.Equal(t, DeforestationFallback(), out.Data.Deforestation)
	require.Equal(t, CoralFallback(), out.Data.CoralReefs)
	require.Equal(t, provider.SourceFallback, out.Sources[CapabilityCoral])
}

func TestAssemble_CustomThresholds(t *testing.T) {
	forest := &fakeForest{available: true, alerts: []forestwatch.Alert{{Latitude: 1, Longitude: 1, Confidence: 60}}}
	svc, err := NewEnvironmentService(forest, nil, zerolog.Nop(), EnvironmentConfig{
		Thresholds: SeverityThresholds{CriticalAbove: 50, HighAbove: 30},
	})
	require.NoError(t, err)

	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "deforestation"})
	require.NoError(t, err)
	require.Equal(t, domain.SeverityCritical, out.Data.Deforestation[0].Severity)
}

func TestAssemble_InvalidInput(t *testing.T) {
	svc := newEnvService(t, nil, nil)

	_, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "volcanoes"})
	var ucErr *Error
	require.True(t, errors.As(err, &ucErr))
	require.Equal(t, ErrorInvalidInput, ucErr.Code)

	_, err = svc.Assemble(context.Background(), EnvironmentInput{Type: "all", Location: &domain.Location{Lat: 100, RadiusKm: 10}})
	require.True(t, errors.As(err, &ucErr))
	require.Equal(t, "invalid_lat", ucErr.Reason)
}

func TestAssemble_PanicBecomesInternalError(t *testing.T) {
	weather := &fakeWeather{available: true, weather: reefWeather("x", 25), panicOnAir: true}
	svc := newEnvService(t, nil, weather)

	_, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "all"})
	var ucErr *Error
	require.True(t, errors.As(err, &ucErr))
	require.Equal(t, ErrorInternal, ucErr.Code)
	require.Contains(t, err.Error(), "emissions")
}

func TestAssemble_ResolvesCapabilitiesConcurrently(t *testing.T) {
	const delay = 150 * time.Millisecond
	forest := &fakeForest{available: true, delay: delay, alerts: []forestwatch.Alert{{Latitude: 1, Longitude: 1, Confidence: 95}}}
	weather := &fakeWeather{
		available: true,
		delay:     delay,
		weather:   reefWeather("reef", 29.5),
		air:       openweather.AirQuality{AQI: 2},
	}
	svc := newEnvService(t, forest, weather)

	start := time.Now()
	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "all"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	requireAllPopulated(t, out.Data)
	// Three providers each take delay; sequential resolution would need 3x.
	require.Less(t, elapsed, 2*delay)
}

func TestAssemble_SlowProviderIsBoundedByTimeout(t *testing.T) {
	forest := &fakeForest{available: true, delay: 5 * time.Second}
	svc, err := NewEnvironmentService(forest, nil, zerolog.Nop(), EnvironmentConfig{ProviderTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	out, err := svc.Assemble(context.Background(), EnvironmentInput{Type: "deforestation"})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, DeforestationFallback(), out.Data.Deforestation)
}

func TestFallbackData_ReturnsFreshCopies(t *testing.T) {
	a := DeforestationFallback()
	a[0].Severity = domain.SeverityLow
	require.Equal(t, domain.SeverityCritical, DeforestationFallback()[0].Severity)
}
