package airquality

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// Service runs one collection cycle over a set of cities.
type Service struct {
	fetcher StationFetcher
}

// NewService creates a new Service.
func NewService(fetcher StationFetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Collect fetches every station of the given cities concurrently, derives
// zone records from the successful readings, and assembles the cycle
// snapshot. Failed stations are logged and skipped; partial results still
// produce a snapshot. When nothing succeeds the snapshot is explicitly
// empty so consumers never see stale data.
func (s *Service) Collect(ctx context.Context, cities []CityConfig, at time.Time) Snapshot {
	type slot struct {
		city    CityConfig
		index   int // 1-based station index within the city
		station string
	}

	var slots []slot
	for _, c := range cities {
		for i, st := range c.Stations {
			slots = append(slots, slot{city: c, index: i + 1, station: st})
		}
	}

	// Each goroutine writes only its own slot, which keeps readings in
	// catalog order without a lock.
	readings := make([]*StationReading, len(slots))

	var wg sync.WaitGroup
	for i, sl := range slots {
		i, sl := i, sl
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := s.fetcher.Fetch(ctx, sl.station)
			if err != nil {
				log.Printf("%s fetch failed for %s: %v", s.fetcher.Name(), sl.station, err)
				return
			}
			readings[i] = &r
		}()
	}
	wg.Wait()

	zones := make([]ZoneRecord, 0, len(slots))
	for i, sl := range slots {
		r := readings[i]
		if r == nil {
			continue
		}
		zones = append(zones, buildZone(sl.city, sl.index, *r, at))
	}

	return BuildSnapshot(zones, at)
}

func buildZone(city CityConfig, index int, r StationReading, at time.Time) ZoneRecord {
	name := r.CityLabel
	if name == "" {
		name = r.Station
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}

	ts := r.Timestamp
	if ts == "" {
		ts = at.UTC().Format(time.RFC3339)
	}

	return ZoneRecord{
		ZoneID:     ZoneID(city.Name, index),
		ZoneName:   name,
		City:       city.Name,
		Timestamp:  ts,
		AQI:        r.AQI,
		PM25:       r.PM25,
		PM10:       r.PM10,
		NO2:        r.NO2,
		SO2:        r.SO2,
		O3:         r.O3,
		CO:         r.CO,
		CO2KgHr:    EstimateCO2(r.AQI, at),
		DataSource: SourceLive,
	}
}
