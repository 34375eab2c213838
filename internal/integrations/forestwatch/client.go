package forestwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/provider"
)

// Name identifies this provider in fallback results and logs.
const Name = "global-forest-watch"

const (
	defaultBaseURL = "https://data-api.globalforestwatch.org"
	alertsPath     = "/v1/alerts"
	maxErrorBody   = 4096
)

// Alert is one tree-cover-loss alert as returned by the alerts endpoint.
type Alert struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"`
	AreaHa     float64 `json:"area_ha"`
	AlertDate  string  `json:"alert_date"`
	Region     string  `json:"region"`
}

type alertsResponse struct {
	Data []Alert `json:"data"`
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client queries geo-bounded forest loss alerts.
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
			SetHeader("Accept", "application/json").
			SetTimeout(timeout).
			SetRetryCount(0),
		apiKey: strings.TrimSpace(cfg.APIKey),
	}
}

func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Alerts returns the alerts within loc's radius. An empty result is reported
// as a rejection so the caller can substitute reference data.
func (c *Client) Alerts(ctx context.Context, loc domain.Location) ([]Alert, error) {
	if !c.Available() {
		return nil, provider.Unavailable(Name)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetQueryParams(map[string]string{
			"lat":       formatFloat(loc.Lat),
			"lng":       formatFloat(loc.Lng),
			"radius_km": formatFloat(loc.RadiusKm),
		}).
		Get(alertsPath)
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

	var out alertsResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, provider.Malformed(Name, fmt.Errorf("decode alerts: %w", err))
	}
	if len(out.Data) == 0 {
		return nil, provider.Malformed(Name, errors.New("no alerts in area"))
	}
	return out.Data, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
