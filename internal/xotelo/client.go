// Package xotelo provides a client for the Xotelo rate, heatmap, and hotel
// list endpoints. Rate fetches never fail: any transport, decoding, or shape
// problem degrades to an error payload, which normalization turns into a
// sentinel record.
package xotelo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ldelia/ratewatch/internal/models"
)

const isoDate = "2006-01-02"

// Client provides access to the Xotelo API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Xotelo client.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Rates fetches the per-distributor quotes for one property and stay window.
// The returned payload carries Error instead of Result on any failure.
func (c *Client) Rates(ctx context.Context, propertyKey string, checkIn, checkOut time.Time, occupancy models.Occupancy, currency string) models.RawRatePayload {
	q := url.Values{}
	q.Set("hotel_key", propertyKey)
	q.Set("chk_in", checkIn.Format(isoDate))
	q.Set("chk_out", checkOut.Format(isoDate))
	if occupancy.Adults > 0 {
		q.Set("adults", strconv.Itoa(occupancy.Adults))
	}
	if occupancy.Rooms > 0 {
		q.Set("rooms", strconv.Itoa(occupancy.Rooms))
	}
	if len(occupancy.ChildrenAges) > 0 {
		ages := make([]string, len(occupancy.ChildrenAges))
		for i, age := range occupancy.ChildrenAges {
			ages[i] = strconv.Itoa(age)
		}
		q.Set("age_of_children", strings.Join(ages, ","))
	}
	if currency != "" {
		q.Set("currency", currency)
	}

	var payload models.RawRatePayload
	if err := c.getJSON(ctx, "/api/rates", q, &payload); err != nil {
		msg := err.Error()
		return models.RawRatePayload{Error: &msg}
	}
	return payload
}

type heatmapResponse struct {
	Error  *string `json:"error"`
	Result *struct {
		Heatmap struct {
			CheapPriceDays   []string `json:"cheap_price_days"`
			AveragePriceDays []string `json:"average_price_days"`
			HighPriceDays    []string `json:"high_price_days"`
		} `json:"heatmap"`
	} `json:"result"`
}

// Heatmap fetches the tagged price-level date sets for one property.
func (c *Client) Heatmap(ctx context.Context, propertyKey string, checkOut time.Time) (models.DaySets, error) {
	q := url.Values{}
	q.Set("hotel_key", propertyKey)
	q.Set("chk_out", checkOut.Format(isoDate))

	var body heatmapResponse
	if err := c.getJSON(ctx, "/api/heatmap", q, &body); err != nil {
		return models.DaySets{}, err
	}
	if body.Error != nil {
		return models.DaySets{}, fmt.Errorf("heatmap request failed: %s", *body.Error)
	}
	if body.Result == nil {
		return models.DaySets{}, fmt.Errorf("heatmap response carried no result")
	}
	return models.DaySets{
		PropertyID: propertyKey,
		Cheap:      body.Result.Heatmap.CheapPriceDays,
		Average:    body.Result.Heatmap.AveragePriceDays,
		High:       body.Result.Heatmap.HighPriceDays,
	}, nil
}

type listResponse struct {
	Error  *string `json:"error"`
	Result *struct {
		List []struct {
			Key           string `json:"key"`
			Name          string `json:"name"`
			ReviewSummary struct {
				Rating float64 `json:"rating"`
				Count  int     `json:"count"`
			} `json:"review_summary"`
			PriceRanges struct {
				Minimum float64 `json:"minimum"`
				Maximum float64 `json:"maximum"`
			} `json:"price_ranges"`
			Geo struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"geo"`
			HighlightedAmenities []string `json:"highlighted_amenities"`
		} `json:"list"`
	} `json:"result"`
}

// List fetches the hotel directory for a location, for competitor discovery.
func (c *Client) List(ctx context.Context, locationKey string, limit, offset int, sort string) ([]models.Property, error) {
	q := url.Values{}
	q.Set("location_key", locationKey)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if sort != "" {
		q.Set("sort", sort)
	}

	var body listResponse
	if err := c.getJSON(ctx, "/api/list", q, &body); err != nil {
		return nil, err
	}
	if body.Error != nil {
		return nil, fmt.Errorf("list request failed: %s", *body.Error)
	}
	if body.Result == nil {
		return nil, fmt.Errorf("list response carried no result")
	}

	properties := make([]models.Property, 0, len(body.Result.List))
	for _, item := range body.Result.List {
		properties = append(properties, models.Property{
			Key:         item.Key,
			Name:        item.Name,
			Rating:      item.ReviewSummary.Rating,
			ReviewCount: item.ReviewSummary.Count,
			PriceMin:    item.PriceRanges.Minimum,
			PriceMax:    item.PriceRanges.Maximum,
			Lat:         item.Geo.Lat,
			Lon:         item.Geo.Lon,
			Amenities:   item.HighlightedAmenities,
		})
	}
	return properties, nil
}

// getJSON performs a GET with linear-backoff retry on transport and server
// errors, decoding the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	u.RawQuery = query.Encode()

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !sleepCtx(ctx, c.retryDelayBase*time.Duration(i+1)) {
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			if !sleepCtx(ctx, c.retryDelayBase*time.Duration(i+1)) {
				return ctx.Err()
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
