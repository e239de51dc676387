// Package geocode resolves GPS coordinates to postal addresses through a
// Nominatim-compatible reverse geocoding service. Field staff capture
// coordinates on catch; the resolved address is stored alongside them.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

// Client calls the reverse endpoint of a Nominatim-compatible server.
// endpoint is the full reverse URL, e.g. https://nominatim.openstreetmap.org/reverse.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse resolves lat/lng to a display address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", apperr.External("geocoder", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.External("geocoder", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.External("geocoder", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.External("geocoder", fmt.Errorf("decode response: %w", err))
	}
	if body.Error != "" {
		return "", apperr.External("geocoder", fmt.Errorf("%s", body.Error))
	}
	if body.DisplayName == "" {
		return "", apperr.External("geocoder", fmt.Errorf("no address for %f,%f", lat, lng))
	}
	return body.DisplayName, nil
}
