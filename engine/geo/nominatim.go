package geo

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/fieldops/dispatch/pkg/logger"
)

// LookupClient is the external geocoding collaborator. It is treated as
// untrusted and unreliable; the Geocoder wraps every call in its fallback
// chain.
type LookupClient interface {
	// Lookup resolves a free-form query. found=false means the service
	// answered but knows no such place; err covers transport failures.
	Lookup(ctx context.Context, query string) (coord Coordinate, found bool, err error)
}

// NominatimConfig configures the OpenStreetMap Nominatim client.
type NominatimConfig struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// NominatimClient implements LookupClient against the Nominatim /search API.
type NominatimClient struct {
	client *resty.Client
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NewNominatimClient builds the HTTP client. Nominatim is rate-limited, so
// the client identifies itself with a User-Agent and keeps one transient
// retry per call; everything beyond that is the Geocoder's business.
func NewNominatimClient(cfg *NominatimConfig) *NominatimClient {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
	return &NominatimClient{client: client}
}

func (n *NominatimClient) Lookup(ctx context.Context, query string) (Coordinate, bool, error) {
	var places []nominatimPlace
	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := n.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":      query,
				"format": "json",
				"limit":  "1",
			}).
			SetResult(&places).
			Get("/search")
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("nominatim: status %d", resp.StatusCode()))
		}
		if resp.IsError() {
			return fmt.Errorf("nominatim: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return Unresolved, false, err
	}
	if len(places) == 0 {
		return Unresolved, false, nil
	}
	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		logger.FromContext(ctx).Warn("nominatim returned unparsable coordinates",
			"lat", places[0].Lat, "lon", places[0].Lon)
		return Unresolved, false, fmt.Errorf("nominatim: malformed coordinates")
	}
	return Coordinate{Lat: lat, Lon: lon}, true, nil
}
