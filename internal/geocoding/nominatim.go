package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/minemap/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL is the reverse geocoding endpoint of the public Nominatim instance.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/reverse"

// nominatimUserAgent identifies the service as the Nominatim usage policy requires.
const nominatimUserAgent = "Minemap-Field-Service/1.0 (https://github.com/UnknownOlympus/minemap)"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
type NominatimProvider struct {
	client    HTTPClient    // HTTP client for making requests
	baseURL   string        // Base URL for the Nominatim API
	log       *slog.Logger  // Logger for logging operations
	limiter   *rate.Limiter // Fair use limiter, one request per second on the public instance
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResponse represents the JSON response from the Nominatim reverse endpoint.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road     string `json:"road"`
		Village  string `json:"village"`
		Town     string `json:"town"`
		City     string `json:"city"`
		District string `json:"district"`
		State    string `json:"state"`
		Country  string `json:"country"`
	} `json:"address"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimNoPlace       = errors.New("nominatim API found no place at coordinates")
)

// NewNominatimProvider creates a new Nominatim provider against the public endpoint.
func NewNominatimProvider(rateLimit int, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		rate.NewLimiter(rate.Limit(rateLimit), 1),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client and limiter.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		log:       log,
		limiter:   limiter,
		userAgent: nominatimUserAgent,
	}
}

// ReverseGeocode returns a short place label for coords, preferring
// "settlement, region, country" over Nominatim's long display name.
func (np *NominatimProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", coords.Latitude, "lon", coords.Longitude)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("format", "json")
	query.Set("zoom", "14")
	query.Set("addressdetails", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", "uk,en")

	resp, err := np.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute reverse geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result nominatimResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNominatimNoPlace, result.Error)
	}

	label := result.label()
	if label == "" {
		return "", ErrNominatimEmptyResponse
	}

	return label, nil
}

func (r nominatimResponse) label() string {
	settlement := firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village, r.Address.District)
	parts := make([]string, 0, 3)
	for _, p := range []string{settlement, r.Address.State, r.Address.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(r.DisplayName)
	}

	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
