// Package catalog looks up movie metadata by external catalog identifier.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when upstream cannot find the requested movie.
var ErrNotFound = errors.New("catalog: not found")

// Result contains the data used to enrich a movie record.
type Result struct {
	ExternalID string
	Title      string
	Year       *int
	PosterURL  *string
}

// Client defines the contract for querying the upstream catalog API.
type Client interface {
	Fetch(ctx context.Context, externalID string) (*Result, error)
}

// HTTPClient implements Client for OMDb-compatible APIs.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed catalog client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse catalog url: %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger.Named("catalog"),
	}, nil
}

// Fetch retrieves title, year and poster for an external id such as "tt0133093".
func (c *HTTPClient) Fetch(ctx context.Context, externalID string) (*Result, error) {
	endpoint := *c.baseURL
	if endpoint.Path == "" {
		endpoint.Path = "/"
	}
	q := endpoint.Query()
	q.Set("i", externalID)
	q.Set("apikey", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode catalog response: %w", err)
		}
		if !strings.EqualFold(payload.Response, "true") {
			return nil, ErrNotFound
		}
		return convertToResult(externalID, payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn("unexpected upstream status",
			zap.Int("status", resp.StatusCode),
			zap.String("external_id", externalID))
		return nil, fmt.Errorf("catalog: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster"`
	IMDbID   string `json:"imdbID"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// notAvailable is the upstream placeholder for missing fields.
const notAvailable = "N/A"

func convertToResult(externalID string, payload apiResponse) *Result {
	result := &Result{
		ExternalID: externalID,
		Title:      strings.TrimSpace(payload.Title),
	}
	if payload.IMDbID != "" {
		result.ExternalID = payload.IMDbID
	}
	if year, ok := parseYear(payload.Year); ok {
		result.Year = &year
	}
	if poster := strings.TrimSpace(payload.Poster); poster != "" && poster != notAvailable {
		if u, err := url.Parse(poster); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			result.PosterURL = &poster
		}
	}
	return result
}

// parseYear accepts "1999" as well as series ranges like "2010–2012".
func parseYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
