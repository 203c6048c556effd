// Package amap implements the geo.Provider interface against the AMap
// (Gaode) web-services API.
package amap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
)

const (
	// ProviderName identifies this geo provider.
	ProviderName = "amap"

	// DefaultBaseURL is the AMap web-services API base URL.
	DefaultBaseURL = "https://restapi.amap.com/v3"
)

// ClientConfig holds configuration for the AMap client.
type ClientConfig struct {
	// APIKey is the AMap web-services key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the public API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an AMap web-services API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new AMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Geocode resolves an address to a coordinate. When the geocoding endpoint
// has no result it falls back to the place-search endpoint, which matches
// landmark names the geocoder does not know.
func (c *Client) Geocode(ctx context.Context, address, city string) (geo.Coordinate, error) {
	if c.apiKey == "" {
		return geo.Coordinate{}, geo.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("address", address)
	params.Set("output", "json")
	if city != "" {
		params.Set("city", city)
	}

	var resp geocodeResponse
	if err := c.getJSON(ctx, "/geocode/geo", params, &resp); err != nil {
		return geo.Coordinate{}, err
	}

	if resp.Status == "1" && len(resp.Geocodes) > 0 && resp.Geocodes[0].Location != "" {
		return parseLocation(resp.Geocodes[0].Location)
	}

	c.logger.Debug().
		Str("address", address).
		Str("city", city).
		Msg("geocode had no result, trying place search")

	place, err := c.searchPlace(ctx, address, city)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return parseLocation(place.Location)
}

// DrivingDistance returns the driving distance and duration between two
// coordinates using the distance-matrix endpoint.
func (c *Client) DrivingDistance(ctx context.Context, origin, dest geo.Coordinate) (geo.DriveEstimate, error) {
	if c.apiKey == "" {
		return geo.DriveEstimate{}, geo.ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("origins", fmt.Sprintf("%f,%f", origin.Lng, origin.Lat))
	params.Set("destination", fmt.Sprintf("%f,%f", dest.Lng, dest.Lat))
	params.Set("type", "1") // driving
	params.Set("output", "json")

	var resp distanceResponse
	if err := c.getJSON(ctx, "/distance", params, &resp); err != nil {
		return geo.DriveEstimate{}, err
	}

	if resp.Status != "1" || len(resp.Results) == 0 {
		return geo.DriveEstimate{}, fmt.Errorf("%w: distance query returned status %s", geo.ErrNotFound, resp.Status)
	}

	// The API returns numeric fields as strings.
	distance, err := strconv.ParseFloat(resp.Results[0].Distance, 64)
	if err != nil {
		return geo.DriveEstimate{}, fmt.Errorf("parsing distance: %w", err)
	}
	duration, err := strconv.ParseFloat(resp.Results[0].Duration, 64)
	if err != nil {
		return geo.DriveEstimate{}, fmt.Errorf("parsing duration: %w", err)
	}

	return geo.DriveEstimate{
		DistanceMeters:  int(distance),
		DurationSeconds: int(duration),
	}, nil
}

// POIOpenHours fetches the raw business-hours text for the best place match.
// AMap spreads hours across several POI fields depending on data vintage, so
// each known field is probed in order.
func (c *Client) POIOpenHours(ctx context.Context, keyword, city string) (string, error) {
	if c.apiKey == "" {
		return "", geo.ErrMissingAPIKey
	}

	place, err := c.searchPlace(ctx, keyword, city)
	if err != nil {
		return "", err
	}

	for _, value := range []string{place.BusinessHours, place.OpenTime, place.OpenTimeWeek} {
		if v := strings.TrimSpace(value); v != "" {
			return v, nil
		}
	}
	if v := strings.TrimSpace(place.BizExt.OpenTime); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("%w: no hours data for %q", geo.ErrNotFound, keyword)
}

// searchPlace returns the first POI matching the keyword.
func (c *Client) searchPlace(ctx context.Context, keyword, city string) (*poi, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("keywords", keyword)
	params.Set("offset", "1")
	params.Set("page", "1")
	params.Set("output", "json")
	if city != "" {
		params.Set("city", city)
	}

	var resp placeResponse
	if err := c.getJSON(ctx, "/place/text", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "1" || len(resp.POIs) == 0 {
		return nil, fmt.Errorf("%w: no place matches %q", geo.ErrNotFound, keyword)
	}

	return &resp.POIs[0], nil
}

// getJSON executes a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
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

// parseLocation parses AMap's "lng,lat" location string.
func parseLocation(location string) (geo.Coordinate, error) {
	lngStr, latStr, ok := strings.Cut(location, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("malformed location %q", location)
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parsing longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parsing latitude: %w", err)
	}

	return geo.Coordinate{Lng: lng, Lat: lat}, nil
}

// AMap API response structures.

type geocodeResponse struct {
	Status   string `json:"status"`
	Geocodes []struct {
		Location string `json:"location"`
	} `json:"geocodes"`
}

type placeResponse struct {
	Status string `json:"status"`
	POIs   []poi  `json:"pois"`
}

type poi struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	BusinessHours string `json:"business_hours"`
	OpenTime      string `json:"opentime"`
	OpenTimeWeek  string `json:"opentime_week"`
	BizExt        struct {
		OpenTime string `json:"open_time"`
	} `json:"biz_ext"`
}

type distanceResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Distance string `json:"distance"`
		Duration string `json:"duration"`
	} `json:"results"`
}
