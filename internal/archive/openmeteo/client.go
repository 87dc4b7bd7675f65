// Package openmeteo implements archive.Provider on top of the Open-Meteo
// historical weather API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/provider/resilience"
)

const (
	// ProviderName identifies this archive provider.
	ProviderName = "open-meteo-archive"

	// DefaultBaseURL is the Open-Meteo archive host.
	DefaultBaseURL = "https://archive-api.open-meteo.com"

	// DefaultTimezone is the timezone daily aggregates are computed in.
	DefaultTimezone = "Europe/London"

	archivePath  = "/v1/archive"
	dailyMetrics = "rain_sum,windspeed_10m_max"

	maxErrorBody = 4 << 10
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the archive host (optional, defaults to Open-Meteo).
	BaseURL string

	// Timezone for daily aggregation (optional, defaults to Europe/London).
	Timezone string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is an Open-Meteo archive API client.
type Client struct {
	baseURL    string
	timezone   string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// Ensure Client implements archive.Provider.
var _ archive.Provider = (*Client)(nil)

// NewClient creates a new Open-Meteo archive client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timezone := cfg.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		timezone:   timezone,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// RequestURL builds the archive URL for a query.
func (c *Client) RequestURL(q archive.Query) string {
	params := url.Values{}
	params.Set("latitude", formatCoordinate(q.Latitude))
	params.Set("longitude", formatCoordinate(q.Longitude))
	params.Set("start_date", q.StartDate)
	params.Set("end_date", q.EndDate)
	params.Set("daily", dailyMetrics)
	params.Set("timezone", c.timezone)
	return c.baseURL + archivePath + "?" + params.Encode()
}

// FetchDaily fetches daily rain sum and max wind speed.
func (c *Client) FetchDaily(ctx context.Context, q archive.Query) (*archive.WeatherSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(q), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", archive.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", archive.ErrUpstream, upstreamReason(resp))
	}

	var body archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", archive.ErrInvalidResponse, err)
	}
	if body.Error {
		return nil, fmt.Errorf("%w: %s", archive.ErrUpstream, body.Reason)
	}

	series, err := toSeries(&body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("days", series.Len()).
		Str("start_date", q.StartDate).
		Str("end_date", q.EndDate).
		Msg("fetched archive series")

	return series, nil
}

// archiveResponse is the subset of the archive payload we read.
type archiveResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     struct {
		Time         []string   `json:"time"`
		RainSum      []*float64 `json:"rain_sum"`
		WindspeedMax []*float64 `json:"windspeed_10m_max"`
	} `json:"daily"`

	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func toSeries(body *archiveResponse) (*archive.WeatherSeries, error) {
	n := len(body.Daily.Time)
	if len(body.Daily.RainSum) != n || len(body.Daily.WindspeedMax) != n {
		return nil, fmt.Errorf("%w: misaligned daily arrays (time=%d rain_sum=%d windspeed_10m_max=%d)",
			archive.ErrInvalidResponse, n, len(body.Daily.RainSum), len(body.Daily.WindspeedMax))
	}

	series := &archive.WeatherSeries{
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
		Timezone:  body.Timezone,
		Dates:     make([]time.Time, n),
		Rainfall:  make([]float64, n),
		WindSpeed: make([]float64, n),
		FetchedAt: time.Now().UTC(),
	}

	for i, raw := range body.Daily.Time {
		day, err := time.Parse(archive.DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %w", archive.ErrInvalidResponse, raw, err)
		}
		series.Dates[i] = day
		series.Rainfall[i] = valueOrNaN(body.Daily.RainSum[i])
		series.WindSpeed[i] = valueOrNaN(body.Daily.WindspeedMax[i])
	}

	return series, nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// formatCoordinate writes the shortest decimal form; NaN becomes "NaN".
func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func upstreamReason(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Reason != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Reason)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
