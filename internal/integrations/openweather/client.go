package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"climate-dashboard/internal/provider"
)

// Name identifies this provider in fallback results and logs.
const Name = "openweather"

const (
	defaultBaseURL   = "https://api.openweathermap.org"
	weatherPath      = "/data/2.5/weather"
	airPollutionPath = "/data/2.5/air_pollution"
	maxErrorBody     = 4096
)

// Weather is the subset of the current-weather payload the dashboard uses.
type Weather struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
}

// AirQuality is the first entry of the air-pollution payload.
type AirQuality struct {
	AQI  int
	CO   float64
	NO2  float64
	PM25 float64
	At   time.Time
}

type airPollutionResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			PM25 float64 `json:"pm2_5"`
		} `json:"components"`
	} `json:"list"`
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client reads current weather and air quality by coordinate.
type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0),
		apiKey: strings.TrimSpace(cfg.APIKey),
	}
}

func (c *Client) Available() bool {
	return c.apiKey != ""
}

// CurrentWeather returns metric weather at lat/lng.
func (c *Client) CurrentWeather(ctx context.Context, lat, lng float64) (Weather, error) {
	raw, err := c.get(ctx, weatherPath, lat, lng)
	if err != nil {
		return Weather{}, err
	}
	var out Weather
	if err := json.Unmarshal(raw, &out); err != nil {
		return Weather{}, provider.Malformed(Name, fmt.Errorf("decode weather: %w", err))
	}
	return out, nil
}

// AirPollution returns the latest air quality reading at lat/lng.
func (c *Client) AirPollution(ctx context.Context, lat, lng float64) (AirQuality, error) {
	raw, err := c.get(ctx, airPollutionPath, lat, lng)
	if err != nil {
		return AirQuality{}, err
	}
	var out airPollutionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return AirQuality{}, provider.Malformed(Name, fmt.Errorf("decode air pollution: %w", err))
	}
	if len(out.List) == 0 {
		return AirQuality{}, provider.Malformed(Name, errors.New("no air pollution readings"))
	}
	first := out.List[0]
	if first.Main.AQI < 1 || first.Main.AQI > 5 {
		return AirQuality{}, provider.Malformed(Name, fmt.Errorf("aqi %d out of range", first.Main.AQI))
	}
	return AirQuality{
		AQI:  first.Main.AQI,
		CO:   first.Components.CO,
		NO2:  first.Components.NO2,
		PM25: first.Components.PM25,
		At:   time.Unix(first.Dt, 0).UTC(),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, lat, lng float64) ([]byte, error) {
	if !c.Available() {
		return nil, provider.Unavailable(Name)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":   strconv.FormatFloat(lng, 'f', -1, 64),
			"units": "metric",
			"appid": c.apiKey,
		}).
		Get(path)
	if err != nil {
		return nil, provider.Transport(Name, err)
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, provider.Rejected(Name, resp.StatusCode(), body)
	}
	return resp.Body(), nil
}
