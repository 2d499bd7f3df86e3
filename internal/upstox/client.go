// Package upstox is a minimal client for the Upstox market-data REST API:
// market holidays and historical candles, bearer-token authenticated. Calls
// are best-effort request-response with an explicit timeout; the package does
// no retrying.
package upstox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.upstox.com"

// DefaultTimeout bounds every outbound call.
const DefaultTimeout = 15 * time.Second

// APIError reports a non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Client calls the Upstox market-data endpoints.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client with the given bearer token. Empty baseURL and
// zero timeout fall back to the defaults.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Holidays fetches the exchange holiday list as ISO "2006-01-02" strings.
func (c *Client) Holidays(ctx context.Context) ([]string, error) {
	var resp holidaysResponse
	if err := c.getJSON(ctx, "/v2/market/holidays", &resp); err != nil {
		return nil, fmt.Errorf("fetching holidays: %w", err)
	}
	dates := make([]string, 0, len(resp.Data))
	for _, h := range resp.Data {
		if h.Date != "" {
			dates = append(dates, h.Date)
		}
	}
	return dates, nil
}

// SpotClose fetches the daily candle for instrumentKey on date ("2006-01-02")
// and returns its close price.
func (c *Client) SpotClose(ctx context.Context, instrumentKey, date string) (float64, error) {
	candles, err := c.candles(ctx, instrumentKey, "days", date)
	if err != nil {
		return 0, fmt.Errorf("fetching spot candle: %w", err)
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("no daily candle for %s on %s", instrumentKey, date)
	}
	return candles[0].Close, nil
}

// MinuteCandles fetches one-minute candles for instrumentKey on date,
// timestamp-ascending. An empty slice means the API had no data for that day.
func (c *Client) MinuteCandles(ctx context.Context, instrumentKey, date string) ([]Candle, error) {
	candles, err := c.candles(ctx, instrumentKey, "minutes", date)
	if err != nil {
		return nil, fmt.Errorf("fetching minute candles: %w", err)
	}
	// The API serves candles newest-first.
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}

func (c *Client) candles(ctx context.Context, instrumentKey, unit, date string) ([]Candle, error) {
	path := fmt.Sprintf("/v3/historical-candle/%s/%s/1/%s/%s",
		url.PathEscape(instrumentKey), unit, date, date)
	var resp candlesResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Candles, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
