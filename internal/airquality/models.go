package airquality

import (
	"strconv"
	"strings"
	"time"
)

// SourceLive marks records produced from the live WAQI feed.
const SourceLive = "live"

// StationReading is a single normalized result from the upstream feed.
// Sensor values the feed reports as missing are normalized to zero.
type StationReading struct {
	Station   string // feed path, e.g. "delhi/anand-vihar"
	CityLabel string // display name reported by the feed, may be empty
	Timestamp string // feed-local ISO time, empty when the feed omits it

	AQI  float64
	PM25 float64
	PM10 float64
	NO2  float64
	SO2  float64
	O3   float64
	CO   float64
}

// ZoneRecord is the per-station view published to subscribers.
type ZoneRecord struct {
	ZoneID     string  `json:"zone_id"`
	ZoneName   string  `json:"zone_name"`
	City       string  `json:"city"`
	Timestamp  string  `json:"timestamp"`
	AQI        float64 `json:"aqi"`
	PM25       float64 `json:"pm25"`
	PM10       float64 `json:"pm10"`
	NO2        float64 `json:"no2"`
	SO2        float64 `json:"so2"`
	O3         float64 `json:"o3"`
	CO         float64 `json:"co"`
	CO2KgHr    float64 `json:"co2_kg_hr"`
	DataSource string  `json:"data_source"`
}

// CityAggregate summarizes one city's zones within a snapshot.
type CityAggregate struct {
	TotalCO2 float64 `json:"total_co2"`
	AvgAQI   float64 `json:"avg_aqi"`
	AvgPM25  float64 `json:"avg_pm25"`
	Count    int     `json:"count"`
	Color    string  `json:"color"`
	Emoji    string  `json:"emoji"`
}

// Snapshot is the full per-cycle view: every zone record plus per-city and
// combined aggregates. Readings and Cities are never nil, so an empty cycle
// serializes as "readings": [] and "cities": {} rather than null.
type Snapshot struct {
	Timestamp  time.Time                `json:"timestamp"`
	Readings   []ZoneRecord             `json:"readings"`
	TotalCO2   float64                  `json:"total_co2"`
	AvgAQI     float64                  `json:"avg_aqi"`
	Cities     map[string]CityAggregate `json:"cities"`
	DataSource string                   `json:"data_source"`
}

// CityConfig describes one catalog city: its display name, the WAQI station
// paths polled for it, and the presentation metadata clients render with.
type CityConfig struct {
	Name     string   `json:"name"`
	Stations []string `json:"stations"`
	Color    string   `json:"color"`
	Emoji    string   `json:"emoji"`
}

var catalog = []CityConfig{
	{
		Name:     "Delhi",
		Stations: []string{"delhi/anand-vihar", "delhi/punjabi-bagh", "delhi/ito", "delhi/dwarka-sector-8"},
		Color:    "#7fff00",
		Emoji:    "🏛",
	},
	{
		Name:     "Mumbai",
		Stations: []string{"mumbai/bandra-kurla", "mumbai/chembur", "mumbai/worli", "mumbai/navi-mumbai"},
		Color:    "#38bdf8",
		Emoji:    "🌊",
	},
	{
		Name:     "Kolkata",
		Stations: []string{"kolkata/rabindra-bharati", "kolkata/victoria", "kolkata/ballygunge", "kolkata/jadavpur"},
		Color:    "#f5a623",
		Emoji:    "⚓",
	},
	{
		Name:     "Chennai",
		Stations: []string{"chennai/alandur", "chennai/manali", "chennai/velachery", "chennai/kodungaiyur"},
		Color:    "#c084fc",
		Emoji:    "🌴",
	},
	{
		Name:     "Prayagraj",
		Stations: []string{"allahabad/nh-27,-prayagraj", "allahabad/civil-lines-prayagraj"},
		Color:    "#ff6b6b",
		Emoji:    "🕉",
	},
}

// Catalog returns the fixed city catalog in display order.
func Catalog() []CityConfig {
	out := make([]CityConfig, len(catalog))
	copy(out, catalog)
	return out
}

// CityByName looks up a catalog entry by its display name.
func CityByName(name string) (CityConfig, bool) {
	for _, c := range catalog {
		if c.Name == name {
			return c, true
		}
	}
	return CityConfig{}, false
}

// ZoneID builds the stable zone identifier for a city's n-th station
// (1-based): the first two letters of the city uppercased plus the index,
// e.g. "DE1" for Delhi's first station.
func ZoneID(city string, index int) string {
	prefix := city
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return strings.ToUpper(prefix) + strconv.Itoa(index)
}
