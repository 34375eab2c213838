package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/fallback"
	"climate-dashboard/internal/integrations/forestwatch"
	"climate-dashboard/internal/integrations/openweather"
	"climate-dashboard/internal/provider"
)

// Capability is one independently resolvable slice of environmental data.
type Capability string

const (
	CapabilityDeforestation Capability = "deforestation"
	CapabilityCoral         Capability = "coral"
	CapabilityPlastic       Capability = "plastic"
	CapabilityEmissions     Capability = "emissions"

	// TypeAll requests every capability.
	TypeAll = "all"
)

var allCapabilities = []Capability{
	CapabilityDeforestation,
	CapabilityCoral,
	CapabilityPlastic,
	CapabilityEmissions,
}

const maxRadiusKm = 500

// DefaultLocation is the Amazon basin, used when a request names no coordinate.
var DefaultLocation = domain.Location{Lat: -3.4653, Lng: -62.2159, RadiusKm: 50}

// ParseDataType resolves the type query parameter. An empty value means all.
func ParseDataType(raw string) ([]Capability, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" || t == TypeAll {
		out := make([]Capability, len(allCapabilities))
		copy(out, allCapabilities)
		return out, nil
	}
	for _, c := range allCapabilities {
		if Capability(t) == c {
			return []Capability{c}, nil
		}
	}
	return nil, newError(ErrorInvalidInput, "unknown_type", fmt.Errorf("type %q", raw))
}

// ForestAlertSource is satisfied by *forestwatch.Client.
type ForestAlertSource interface {
	Available() bool
	Alerts(ctx context.Context, loc domain.Location) ([]forestwatch.Alert, error)
}

// WeatherSource is satisfied by *openweather.Client.
type WeatherSource interface {
	Available() bool
	CurrentWeather(ctx context.Context, lat, lng float64) (openweather.Weather, error)
	AirPollution(ctx context.Context, lat, lng float64) (openweather.AirQuality, error)
}

type EnvironmentConfig struct {
	Thresholds      SeverityThresholds
	ProviderTimeout time.Duration
}

type EnvironmentInput struct {
	Type     string
	Location *domain.Location
}

// EnvironmentData always carries all four lists; capabilities that were not
// requested are empty.
type EnvironmentData struct {
	Deforestation []domain.DeforestationAlert `json:"deforestation"`
	CoralReefs    []domain.CoralReef          `json:"coralReefs"`
	PlasticWaste  []domain.PlasticHotspot     `json:"plasticWaste"`
	Emissions     []domain.EmissionSource     `json:"emissions"`
}

type EnvironmentOutput struct {
	Data      EnvironmentData
	Sources   map[Capability]string
	Timestamp time.Time
}

// EnvironmentService assembles environmental data from independent capabilities.
type EnvironmentService struct {
	deforestation *fallback.Chain[domain.Location, []domain.DeforestationAlert]
	coral         *fallback.Chain[domain.Location, []domain.CoralReef]
	plastic       *fallback.Chain[domain.Location, []domain.PlasticHotspot]
	emissions     *fallback.Chain[domain.Location, []domain.EmissionSource]
	log           zerolog.Logger
	now           func() time.Time
}

// NewEnvironmentService wires one fallback chain per capability. forest and
// weather may be nil, in which case the capabilities they serve always use
// reference data.
func NewEnvironmentService(forest ForestAlertSource, weather WeatherSource, log zerolog.Logger, cfg EnvironmentConfig) (*EnvironmentService, error) {
	thresholds := cfg.Thresholds
	if !thresholds.valid() {
		thresholds = DefaultSeverityThresholds()
	}
	opts := []fallback.Option{fallback.WithTimeout(cfg.ProviderTimeout), fallback.WithLogger(log)}

	var forestDescriptors []fallback.Descriptor[domain.Location, []domain.DeforestationAlert]
	if forest != nil {
		forestDescriptors = append(forestDescriptors, fallback.Descriptor[domain.Location, []domain.DeforestationAlert]{
			Name:      forestwatch.Name,
			Available: forest.Available,
			Invoke: func(ctx context.Context, loc domain.Location) ([]domain.DeforestationAlert, error) {
				alerts, err := forest.Alerts(ctx, loc)
				if err != nil {
					return nil, err
				}
				return normalizeForestAlerts(alerts, thresholds)
			},
		})
	}

	var coralDescriptors []fallback.Descriptor[domain.Location, []domain.CoralReef]
	var emissionDescriptors []fallback.Descriptor[domain.Location, []domain.EmissionSource]
	if weather != nil {
		coralDescriptors = append(coralDescriptors, fallback.Descriptor[domain.Location, []domain.CoralReef]{
			Name:      openweather.Name,
			Available: weather.Available,
			Invoke: func(ctx context.Context, loc domain.Location) ([]domain.CoralReef, error) {
				w, err := weather.CurrentWeather(ctx, loc.Lat, loc.Lng)
				if err != nil {
					return nil, err
				}
				return normalizeReefWeather(w, loc)
			},
		})
		emissionDescriptors = append(emissionDescriptors, fallback.Descriptor[domain.Location, []domain.EmissionSource]{
			Name:      openweather.Name,
			Available: weather.Available,
			Invoke: func(ctx context.Context, loc domain.Location) ([]domain.EmissionSource, error) {
				aq, err := weather.AirPollution(ctx, loc.Lat, loc.Lng)
				if err != nil {
					return nil, err
				}
				return normalizeAirQuality(aq, loc), nil
			},
		})
	}

	deforestation, err := fallback.NewChain(string(CapabilityDeforestation), forestDescriptors,
		func(domain.Location) []domain.DeforestationAlert { return DeforestationFallback() }, opts...)
	if err != nil {
		return nil, err
	}
	coral, err := fallback.NewChain(string(CapabilityCoral), coralDescriptors,
		func(domain.Location) []domain.CoralReef { return CoralFallback() }, opts...)
	if err != nil {
		return nil, err
	}
	// No external plastic-waste feed exists; the chain always serves reference data.
	plastic, err := fallback.NewChain[domain.Location, []domain.PlasticHotspot](string(CapabilityPlastic), nil,
		func(domain.Location) []domain.PlasticHotspot { return PlasticFallback() }, opts...)
	if err != nil {
		return nil, err
	}
	emissions, err := fallback.NewChain(string(CapabilityEmissions), emissionDescriptors,
		func(domain.Location) []domain.EmissionSource { return EmissionsFallback() }, opts...)
	if err != nil {
		return nil, err
	}

	return &EnvironmentService{
		deforestation: deforestation,
		coral:         coral,
		plastic:       plastic,
		emissions:     emissions,
		log:           log,
		now:           time.Now,
	}, nil
}

// Assemble resolves the requested capabilities concurrently and merges them.
// Provider failures never produce an error; only a defect inside assembly does.
func (s *EnvironmentService) Assemble(ctx context.Context, in EnvironmentInput) (EnvironmentOutput, error) {
	caps, err := ParseDataType(in.Type)
	if err != nil {
		return EnvironmentOutput{}, err
	}
	loc := DefaultLocation
	if in.Location != nil {
		loc = *in.Location
	}
	if err := ValidateLocation(loc); err != nil {
		return EnvironmentOutput{}, err
	}

	out := EnvironmentOutput{
		Data: EnvironmentData{
			Deforestation: []domain.DeforestationAlert{},
			CoralReefs:    []domain.CoralReef{},
			PlasticWaste:  []domain.PlasticHotspot{},
			Emissions:     []domain.EmissionSource{},
		},
		Sources: make(map[Capability]string, len(caps)),
	}

	var mu sync.Mutex
	setSource := func(c Capability, source string) {
		mu.Lock()
		out.Sources[c] = source
		mu.Unlock()
	}

	// Each goroutine writes only its own Data field; g.Wait orders those writes
	// before the read below. A plain Group is used so one capability never
	// cancels the others.
	var g errgroup.Group
	for _, c := range caps {
		c := c
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("capability %s panicked: %v", c, r)
				}
			}()
			switch c {
			case CapabilityDeforestation:
				res := s.deforestation.Resolve(ctx, loc)
				out.Data.Deforestation = res.Payload
				setSource(c, res.Source)
			case CapabilityCoral:
				res := s.coral.Resolve(ctx, loc)
				out.Data.CoralReefs = res.Payload
				setSource(c, res.Source)
			case CapabilityPlastic:
				res := s.plastic.Resolve(ctx, loc)
				out.Data.PlasticWaste = res.Payload
				setSource(c, res.Source)
			case CapabilityEmissions:
				res := s.emissions.Resolve(ctx, loc)
				out.Data.Emissions = res.Payload
				setSource(c, res.Source)
			default:
				return fmt.Errorf("capability %q has no resolver", c)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("environmental data assembly failed")
		return EnvironmentOutput{}, newError(ErrorInternal, "assembly_defect", err)
	}

	out.Timestamp = s.now().UTC()
	return out, nil
}

// ValidateLocation checks coordinate and radius bounds.
func ValidateLocation(loc domain.Location) error {
	switch {
	case math.IsNaN(loc.Lat) || loc.Lat < -90 || loc.Lat > 90:
		return newError(ErrorInvalidInput, "invalid_lat", nil)
	case math.IsNaN(loc.Lng) || loc.Lng < -180 || loc.Lng > 180:
		return newError(ErrorInvalidInput, "invalid_lng", nil)
	case math.IsNaN(loc.RadiusKm) || loc.RadiusKm <= 0 || loc.RadiusKm > maxRadiusKm:
		return newError(ErrorInvalidInput, "invalid_radius", nil)
	}
	return nil
}

func normalizeForestAlerts(alerts []forestwatch.Alert, thresholds SeverityThresholds) ([]domain.DeforestationAlert, error) {
	out := make([]domain.DeforestationAlert, 0, len(alerts))
	for i, a := range alerts {
		if a.Confidence < 0 || a.Confidence > 100 {
			return nil, provider.Malformed(forestwatch.Name, fmt.Errorf("alert %d: confidence %v out of range", i, a.Confidence))
		}
		if a.Latitude < -90 || a.Latitude > 90 || a.Longitude < -180 || a.Longitude > 180 {
			return nil, provider.Malformed(forestwatch.Name, fmt.Errorf("alert %d: coordinates out of range", i))
		}
		location := strings.TrimSpace(a.Region)
		if location == "" {
			location = fmt.Sprintf("%.4f, %.4f", a.Latitude, a.Longitude)
		}
		out = append(out, domain.DeforestationAlert{
			ID:         i + 1,
			Lat:        a.Latitude,
			Lng:        a.Longitude,
			Severity:   thresholds.Classify(a.Confidence),
			Confidence: a.Confidence,
			AreaHa:     a.AreaHa,
			Date:       a.AlertDate,
			Location:   location,
		})
	}
	if len(out) == 0 {
		return nil, provider.Malformed(forestwatch.Name, errors.New("no alerts"))
	}
	return out, nil
}

// normalizeReefWeather treats the air temperature reported at the requested
// coordinate as a stand-in for sea surface temperature. Inland coordinates
// therefore yield a reading for the nearest named place, not a reef.
func normalizeReefWeather(w openweather.Weather, loc domain.Location) ([]domain.CoralReef, error) {
	temp := w.Main.Temp
	if temp < -5 || temp > 45 {
		return nil, provider.Malformed(openweather.Name, fmt.Errorf("temperature %v out of range", temp))
	}
	name := strings.TrimSpace(w.Name)
	if name == "" {
		name = fmt.Sprintf("Reef near %.2f, %.2f", loc.Lat, loc.Lng)
	}
	severity := classifySeaTemperature(temp)
	return []domain.CoralReef{{
		ID:              1,
		Name:            name,
		Lat:             loc.Lat,
		Lng:             loc.Lng,
		Severity:        severity,
		TemperatureC:    temp,
		BleachingStatus: bleachingStatus(severity),
	}}, nil
}

func normalizeAirQuality(aq openweather.AirQuality, loc domain.Location) []domain.EmissionSource {
	return []domain.EmissionSource{{
		ID:       1,
		Name:     fmt.Sprintf("Air quality at %.2f, %.2f", loc.Lat, loc.Lng),
		Lat:      loc.Lat,
		Lng:      loc.Lng,
		Severity: classifyAQI(aq.AQI),
		AQI:      aq.AQI,
		CO:       aq.CO,
		NO2:      aq.NO2,
		PM25:     aq.PM25,
		Sector:   "ambient",
	}}
}
