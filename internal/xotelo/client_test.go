package xotelo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ldelia/ratewatch/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, 1, time.Millisecond)
}

func stayWindow() (time.Time, time.Time) {
	checkIn := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	return checkIn, checkIn.AddDate(0, 0, 3)
}

func TestRates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rates" {
			t.Errorf("path = %s, want /api/rates", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("hotel_key") != "g652004-d1799967" {
			t.Errorf("hotel_key = %s", q.Get("hotel_key"))
		}
		if q.Get("chk_in") != "2025-07-10" || q.Get("chk_out") != "2025-07-13" {
			t.Errorf("stay window = %s..%s", q.Get("chk_in"), q.Get("chk_out"))
		}
		if q.Get("adults") != "2" || q.Get("rooms") != "1" {
			t.Errorf("occupancy = adults %s rooms %s", q.Get("adults"), q.Get("rooms"))
		}
		w.Write([]byte(`{
			"error": null,
			"timestamp": 1720569600,
			"result": {
				"chk_in": "2025-07-10",
				"chk_out": "2025-07-13",
				"rates": [
					{"name": "Booking.com", "code": "BKG", "rate": 120.5},
					{"name": "Expedia", "code": "EXP", "rate": 118.0, "tax": 12.0}
				]
			}
		}`))
	})

	checkIn, checkOut := stayWindow()
	payload := c.Rates(context.Background(), "g652004-d1799967", checkIn, checkOut, models.Occupancy{Adults: 2, Rooms: 1}, "USD")

	if payload.Error != nil {
		t.Fatalf("payload error: %s", *payload.Error)
	}
	if payload.Result == nil || len(payload.Result.Rates) != 2 {
		t.Fatalf("payload result = %+v, want 2 rates", payload.Result)
	}
	first := payload.Result.Rates[0]
	if first.Name != "Booking.com" || first.Rate == nil || *first.Rate != 120.5 {
		t.Errorf("first rate = %+v", first)
	}
	second := payload.Result.Rates[1]
	if second.Tax == nil || *second.Tax != 12.0 {
		t.Errorf("second rate tax = %+v", second.Tax)
	}
}

func TestRates_TransportFailureDegradesToErrorPayload(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, 1, time.Millisecond)
	checkIn, checkOut := stayWindow()

	payload := c.Rates(context.Background(), "g1-d1", checkIn, checkOut, models.Occupancy{}, "")
	if payload.Error == nil {
		t.Fatal("transport failure did not set the payload error")
	}
	if payload.Result != nil {
		t.Error("failed fetch carries a result")
	}
}

func TestRates_MalformedBodyDegradesToErrorPayload(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})
	checkIn, checkOut := stayWindow()

	payload := c.Rates(context.Background(), "g1-d1", checkIn, checkOut, models.Occupancy{}, "")
	if payload.Error == nil {
		t.Fatal("malformed body did not set the payload error")
	}
}

func TestHeatmap(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/heatmap" {
			t.Errorf("path = %s, want /api/heatmap", r.URL.Path)
		}
		w.Write([]byte(`{
			"error": null,
			"result": {
				"heatmap": {
					"cheap_price_days": ["2025-07-01", "2025-07-02"],
					"average_price_days": ["2025-07-03"],
					"high_price_days": ["2025-07-10"]
				}
			}
		}`))
	})

	_, checkOut := stayWindow()
	sets, err := c.Heatmap(context.Background(), "g1-d1", checkOut)
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	if sets.PropertyID != "g1-d1" {
		t.Errorf("property = %s", sets.PropertyID)
	}
	if len(sets.Cheap) != 2 || len(sets.Average) != 1 || len(sets.High) != 1 {
		t.Errorf("sets = %+v", sets)
	}
}

func TestHeatmap_UpstreamError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "invalid key", "result": null}`))
	})
	_, checkOut := stayWindow()
	if _, err := c.Heatmap(context.Background(), "bad", checkOut); err == nil {
		t.Error("expected error for upstream failure")
	}
}

func TestList(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/list" {
			t.Errorf("path = %s, want /api/list", r.URL.Path)
		}
		if got := r.URL.Query().Get("location_key"); got != "g652004" {
			t.Errorf("location_key = %s", got)
		}
		w.Write([]byte(`{
			"error": null,
			"result": {
				"list": [{
					"key": "g652004-d1799967",
					"name": "VOI Alimini",
					"review_summary": {"rating": 4.3, "count": 1250},
					"price_ranges": {"minimum": 85, "maximum": 240},
					"geo": {"lat": 40.2, "lon": 18.4},
					"highlighted_amenities": ["Pool", "Beach"]
				}]
			}
		}`))
	})

	properties, err := c.List(context.Background(), "g652004", 30, 0, "best_value")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(properties) != 1 {
		t.Fatalf("got %d properties, want 1", len(properties))
	}
	p := properties[0]
	if p.Key != "g652004-d1799967" || p.Name != "VOI Alimini" {
		t.Errorf("property = %+v", p)
	}
	if p.Rating != 4.3 || p.ReviewCount != 1250 {
		t.Errorf("review summary = %f/%d", p.Rating, p.ReviewCount)
	}
	if p.PriceMin != 85 || p.PriceMax != 240 {
		t.Errorf("price range = %f..%f", p.PriceMin, p.PriceMax)
	}
	if len(p.Amenities) != 2 {
		t.Errorf("amenities = %v", p.Amenities)
	}
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"error": null, "result": {"list": []}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 5*time.Second, 3, time.Millisecond)
	if _, err := c.List(context.Background(), "g1", 10, 0, ""); err != nil {
		t.Fatalf("List after retry: %v", err)
	}
	if hits != 2 {
		t.Errorf("server hit %d times, want 2", hits)
	}
}
