package airquality

import (
	"time"

	"greenpulse/internal/common"
)

// BuildSnapshot groups zone records by city and assembles the cycle
// snapshot. Totals are rounded to 2 decimals, means to 1. An empty input
// yields the explicit empty snapshot (zero totals, empty readings and
// cities) rather than nil fields.
func BuildSnapshot(zones []ZoneRecord, at time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:  at.UTC(),
		Readings:   make([]ZoneRecord, 0, len(zones)),
		Cities:     make(map[string]CityAggregate),
		DataSource: SourceLive,
	}

	type accum struct {
		co2, aqi, pm25 float64
		count          int
	}
	perCity := make(map[string]*accum)

	var totalCO2, sumAQI float64
	for _, z := range zones {
		snap.Readings = append(snap.Readings, z)
		totalCO2 += z.CO2KgHr
		sumAQI += z.AQI

		a := perCity[z.City]
		if a == nil {
			a = &accum{}
			perCity[z.City] = a
		}
		a.co2 += z.CO2KgHr
		a.aqi += z.AQI
		a.pm25 += z.PM25
		a.count++
	}

	for city, a := range perCity {
		n := float64(a.count)
		agg := CityAggregate{
			TotalCO2: common.Round(a.co2, 2),
			AvgAQI:   common.Round(a.aqi/n, 1),
			AvgPM25:  common.Round(a.pm25/n, 1),
			Count:    a.count,
			Color:    "#7fff00",
			Emoji:    "🌿",
		}
		if cfg, ok := CityByName(city); ok {
			agg.Color = cfg.Color
			agg.Emoji = cfg.Emoji
		}
		snap.Cities[city] = agg
	}

	if len(zones) > 0 {
		snap.TotalCO2 = common.Round(totalCO2, 2)
		snap.AvgAQI = common.Round(sumAQI/float64(len(zones)), 1)
	}

	return snap
}
