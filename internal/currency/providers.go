package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FrankfurterClient fetches live rates from a Frankfurter-style API:
// GET {base}/latest?from=X&to=Y → {"rates": {"Y": factor}}.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFrankfurterClient creates the primary rate provider.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	return &FrankfurterClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchRate returns the live conversion factor for a currency pair.
func (c *FrankfurterClient) FetchRate(ctx context.Context, from, to string) (float64, error) {
	u, err := url.Parse(c.baseURL + "/latest")
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("from", from)
	q.Set("to", to)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}
	factor, ok := body.Rates[to]
	if !ok {
		return 0, fmt.Errorf("rate response missing currency %s", to)
	}
	return factor, nil
}

// ExchangeHostClient fetches live rates from a converter-style API:
// GET {base}/convert?from=X&to=Y → {"result": factor}.
type ExchangeHostClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewExchangeHostClient creates the secondary rate provider.
func NewExchangeHostClient(baseURL string, timeout time.Duration) *ExchangeHostClient {
	return &ExchangeHostClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchRate returns the live conversion factor for a currency pair.
func (c *ExchangeHostClient) FetchRate(ctx context.Context, from, to string) (float64, error) {
	u, err := url.Parse(c.baseURL + "/convert")
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("from", from)
	q.Set("to", to)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body struct {
		Result *float64 `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if body.Result == nil {
		return 0, fmt.Errorf("rate response carried no result")
	}
	return *body.Result, nil
}
