package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"greenpulse/internal/airquality"
)

var errFeedStatus = errors.New("feed status not ok")

// WAQIProvider implements airquality.StationFetcher against the World Air
// Quality Index feed API.
type WAQIProvider struct {
	name    string
	token   string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWAQIProvider(client *http.Client, baseURL, token string) *WAQIProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "waqi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &WAQIProvider{
		name:    "waqi",
		token:   token,
		baseURL: baseURL,
		client:  client,
		circuit: cb,
	}
}

func (p *WAQIProvider) Name() string {
	return p.name
}

func (p *WAQIProvider) Fetch(ctx context.Context, station string) (airquality.StationReading, error) {
	if p.token == "" {
		return airquality.StationReading{}, fmt.Errorf("waqi token is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		// Station paths go into the URL path as-is; only the token is a
		// query parameter.
		u := fmt.Sprintf("%s/feed/%s/?token=%s", p.baseURL, station, url.QueryEscape(p.token))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithBreaker(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return airquality.StationReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
		Data   struct {
			AQI  json.RawMessage `json:"aqi"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			Time struct {
				ISO string `json:"iso"`
			} `json:"time"`
			IAQI map[string]struct {
				V json.RawMessage `json:"v"`
			} `json:"iaqi"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.StationReading{}, err
	}

	if payload.Status != "ok" {
		return airquality.StationReading{}, fmt.Errorf("%w: %q for %s", errFeedStatus, payload.Status, station)
	}

	pollutant := func(key string) float64 {
		entry, ok := payload.Data.IAQI[key]
		if !ok {
			return 0
		}
		return normalizeValue(entry.V)
	}

	return airquality.StationReading{
		Station:   station,
		CityLabel: payload.Data.City.Name,
		Timestamp: payload.Data.Time.ISO,
		AQI:       normalizeValue(payload.Data.AQI),
		PM25:      pollutant("pm25"),
		PM10:      pollutant("pm10"),
		NO2:       pollutant("no2"),
		SO2:       pollutant("so2"),
		O3:        pollutant("o3"),
		CO:        pollutant("co"),
	}, nil
}

// normalizeValue coerces a raw feed value to a float64. The feed reports
// missing sensors as null, "-", "", "NA" or "N/A"; all of those, and
// anything else non-numeric, normalize to 0.
func normalizeValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	switch s {
	case "", "-", "NA", "N/A":
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
