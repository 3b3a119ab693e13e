package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// Lookup resolves free-text queries into concrete locations. Implementations
// are best-effort: a failed lookup yields an empty result list, never an
// error the caller must handle; the user simply sees no suggestions.
type Lookup interface {
	Search(ctx context.Context, query string) []event.Location
}

// DefaultNominatimBaseURL is the public Nominatim instance.
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// defaultSearchLimit caps the number of suggestions per query.
const defaultSearchLimit = 5

// nominatimResult is one entry of a Nominatim /search JSON response.
// Coordinates arrive as strings.
type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// NominatimClient implements Lookup against a Nominatim-compatible geocoding
// service.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewNominatimClient creates a lookup client. baseURL falls back to the
// public Nominatim instance; httpClient falls back to a 10-second-timeout
// client.
func NewNominatimClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NominatimClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  "joinme-backend/1.0",
		logger:     logger,
	}
}

// Search resolves the query into location suggestions, each carrying a coarse
// geohash. Any transport, status, or decode failure degrades to an empty
// list.
func (c *NominatimClient) Search(ctx context.Context, query string) []event.Location {
	if query == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":      []string{query},
		"format": []string{"json"},
		"limit":  []string{strconv.Itoa(defaultSearchLimit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("location lookup request build failed", "error", err)
		return nil
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("location lookup failed", "query", query, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("location lookup returned non-OK status", "query", query, "status", resp.StatusCode)
		return nil
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.logger.Warn("location lookup decode failed", "query", query, "error", err)
		return nil
	}

	locations := make([]event.Location, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil || r.DisplayName == "" {
			continue
		}
		locations = append(locations, event.Location{
			Name:    r.DisplayName,
			Lat:     lat,
			Lng:     lng,
			Geohash: Encode(lat, lng, DefaultPrecision),
		})
	}
	return locations
}
