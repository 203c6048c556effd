// Package qweather implements the weather.Provider interface against the
// QWeather API.
package qweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/provider/resilience"
	"github.com/tripatlas/tripatlas/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "qweather"

	// DefaultBaseURL is the public QWeather dev API host.
	DefaultBaseURL = "https://devapi.qweather.com"

	// DefaultGeoURL is the public QWeather geo API host used for city lookup.
	DefaultGeoURL = "https://geoapi.qweather.com"
)

// ClientConfig holds configuration for the QWeather client.
type ClientConfig struct {
	// APIKey is the QWeather API key (required unless JWT is set).
	APIKey string

	// JWT is an optional bearer token; some accounts authenticate with a
	// JWT instead of (or in addition to) the key parameter.
	JWT string

	// BaseURL overrides the API host. Accounts with a dedicated host must
	// set it; the geo lookup then uses the same host.
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a QWeather API client.
type Client struct {
	apiKey     string
	jwt        string
	baseURL    string
	geoURL     string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new QWeather client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	geoURL := DefaultGeoURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	} else {
		// Dedicated hosts serve both weather and geo endpoints.
		geoURL = baseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		jwt:        cfg.JWT,
		baseURL:    baseURL,
		geoURL:     geoURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// LookupCity resolves a city name to a QWeather location.
func (c *Client) LookupCity(ctx context.Context, name string) (weather.City, error) {
	if c.apiKey == "" && c.jwt == "" {
		return weather.City{}, weather.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("location", name)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var resp cityLookupResponse
	if err := c.getJSON(ctx, c.geoURL+"/geo/v2/city/lookup", params, &resp); err != nil {
		return weather.City{}, err
	}

	if resp.Code != "200" || len(resp.Location) == 0 {
		return weather.City{}, fmt.Errorf("%w: %q (code %s)", weather.ErrCityNotFound, name, resp.Code)
	}

	return weather.City{ID: resp.Location[0].ID, Name: resp.Location[0].Name}, nil
}

// DailyForecast fetches a daily forecast. QWeather exposes fixed forecast
// tiers, so the smallest tier covering the requested day count is selected
// and the result truncated.
func (c *Client) DailyForecast(ctx context.Context, locationID string, days int) ([]weather.DailyForecast, error) {
	if c.apiKey == "" && c.jwt == "" {
		return nil, weather.ErrMissingAPIKey
	}

	tier := forecastTier(days)

	params := url.Values{}
	params.Set("location", locationID)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, c.baseURL+"/v7/weather/"+tier, params, &resp); err != nil {
		return nil, err
	}

	if resp.Code != "200" || len(resp.Daily) == 0 {
		return nil, fmt.Errorf("%w: forecast query returned code %s", weather.ErrProviderUnavailable, resp.Code)
	}

	daily := make([]weather.DailyForecast, 0, len(resp.Daily))
	for _, d := range resp.Daily {
		if len(daily) == days {
			break
		}

		tempMin, _ := strconv.Atoi(d.TempMin)
		tempMax, _ := strconv.Atoi(d.TempMax)
		precip, _ := strconv.ParseFloat(d.Precip, 64)
		humidity, _ := strconv.Atoi(d.Humidity)

		daily = append(daily, weather.DailyForecast{
			Date:         d.FxDate,
			TempMinC:     tempMin,
			TempMaxC:     tempMax,
			TextDay:      d.TextDay,
			TextNight:    d.TextNight,
			PrecipMM:     precip,
			WindScaleDay: d.WindScaleDay,
			Humidity:     humidity,
			TravelAdvice: weather.TravelAdvice(tempMax, precip),
		})
	}

	return daily, nil
}

// forecastTier picks the smallest forecast tier that covers the requested
// number of days.
func forecastTier(days int) string {
	switch {
	case days <= 3:
		return "3d"
	case days <= 7:
		return "7d"
	case days <= 10:
		return "10d"
	case days <= 15:
		return "15d"
	default:
		return "30d"
	}
}

// getJSON executes a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// QWeather API response structures.

type cityLookupResponse struct {
	Code     string `json:"code"`
	Location []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"location"`
}

type forecastResponse struct {
	Code  string `json:"code"`
	Daily []struct {
		FxDate       string `json:"fxDate"`
		TempMin      string `json:"tempMin"`
		TempMax      string `json:"tempMax"`
		TextDay      string `json:"textDay"`
		TextNight    string `json:"textNight"`
		Precip       string `json:"precip"`
		WindScaleDay string `json:"windScaleDay"`
		Humidity     string `json:"humidity"`
	} `json:"daily"`
}
