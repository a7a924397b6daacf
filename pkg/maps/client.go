package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/geo"
)

const (
	defaultBaseURL             = "https://maps.googleapis.com"
	distanceMatrixPath         = "/maps/api/distancematrix/json"
	responseBodyReadLimit int64 = 1024
	// maxDestinations is the per-request element cap for a single origin.
	maxDestinations = 25
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Distance Matrix API used to rank delivery partners by road distance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Route is the driving distance to one destination. OK is false when Google could not route it.
type Route struct {
	DistanceMeters  int
	DurationSeconds int
	OK              bool
}

// DrivingDistances returns one Route per destination, in destination order.
func (c *Client) DrivingDistances(ctx context.Context, origin geo.Point, destinations []geo.Point) ([]Route, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	if len(destinations) == 0 {
		return []Route{}, nil
	}
	if len(destinations) > maxDestinations {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d destinations per request", maxDestinations)
	}

	dests := make([]string, 0, len(destinations))
	for _, d := range destinations {
		dests = append(dests, formatPoint(d))
	}
	query := url.Values{}
	query.Set("origins", formatPoint(origin))
	query.Set("destinations", strings.Join(dests, "|"))
	query.Set("mode", "driving")
	query.Set("units", "metric")
	query.Set("key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+distanceMatrixPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build distance matrix request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute distance matrix request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "distance matrix request failed")
	}

	var apiResp struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Rows         []struct {
			Elements []struct {
				Status   string `json:"status"`
				Distance struct {
					Value int `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value int `json:"value"`
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode distance matrix response")
	}
	if apiResp.Status != "OK" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%s: %s", apiResp.Status, apiResp.ErrorMessage), "distance matrix rejected request")
	}
	if len(apiResp.Rows) != 1 || len(apiResp.Rows[0].Elements) != len(destinations) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "distance matrix returned an unexpected shape")
	}

	routes := make([]Route, 0, len(destinations))
	for _, el := range apiResp.Rows[0].Elements {
		routes = append(routes, Route{
			DistanceMeters:  el.Distance.Value,
			DurationSeconds: el.Duration.Value,
			OK:              el.Status == "OK",
		})
	}
	return routes, nil
}

func formatPoint(p geo.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}
