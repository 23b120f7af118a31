package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sentinelFeed = `{
	"status": "ok",
	"data": {
		"aqi": "-",
		"city": {"name": "Anand Vihar, Delhi"},
		"time": {"iso": "2025-03-10T14:00:00+05:30"},
		"iaqi": {
			"pm25": {"v": "-"},
			"pm10": {"v": null},
			"no2": {"v": "NA"},
			"so2": {"v": 12.5},
			"o3": {"v": "8.1"},
			"co": {"v": ""}
		}
	}
}`

func TestWAQIFetchNormalizesSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/delhi/anand-vihar/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "demo" {
			t.Errorf("expected token query parameter, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(sentinelFeed))
	}))
	defer srv.Close()

	p := NewWAQIProvider(srv.Client(), srv.URL, "demo")
	reading, err := p.Fetch(context.Background(), "delhi/anand-vihar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reading.CityLabel != "Anand Vihar, Delhi" {
		t.Fatalf("expected city label from feed, got %q", reading.CityLabel)
	}
	if reading.Timestamp != "2025-03-10T14:00:00+05:30" {
		t.Fatalf("expected feed timestamp, got %q", reading.Timestamp)
	}
	if reading.AQI != 0 || reading.PM25 != 0 || reading.PM10 != 0 || reading.NO2 != 0 || reading.CO != 0 {
		t.Fatalf("expected sentinel values normalized to zero, got %+v", reading)
	}
	if reading.SO2 != 12.5 {
		t.Fatalf("expected so2 12.5, got %v", reading.SO2)
	}
	if reading.O3 != 8.1 {
		t.Fatalf("expected o3 8.1 from numeric string, got %v", reading.O3)
	}
}

func TestWAQIFetchFeedStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","data":null}`))
	}))
	defer srv.Close()

	p := NewWAQIProvider(srv.Client(), srv.URL, "demo")
	if _, err := p.Fetch(context.Background(), "delhi/ito"); err == nil {
		t.Fatalf("expected error for non-ok feed status")
	}
}

func TestWAQIFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewWAQIProvider(srv.Client(), srv.URL, "demo")
	if _, err := p.Fetch(context.Background(), "delhi/ito"); err == nil {
		t.Fatalf("expected error for upstream 500")
	}
}

func TestWAQIFetchRequiresToken(t *testing.T) {
	p := NewWAQIProvider(http.DefaultClient, "http://example.invalid", "")
	if _, err := p.Fetch(context.Background(), "delhi/ito"); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestNormalizeValue(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`12.5`, 12.5},
		{`"8.1"`, 8.1},
		{`0`, 0},
		{`null`, 0},
		{`"-"`, 0},
		{`""`, 0},
		{`"NA"`, 0},
		{`"N/A"`, 0},
		{`"abc"`, 0},
		{`true`, 0},
	}

	for _, tc := range cases {
		if got := normalizeValue(json.RawMessage(tc.raw)); got != tc.want {
			t.Fatalf("normalizeValue(%s): expected %v, got %v", tc.raw, tc.want, got)
		}
	}
}
