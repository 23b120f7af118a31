package airquality

import "context"

// StationFetcher abstracts the upstream air-quality feed for a single
// station path.
type StationFetcher interface {
	Name() string
	Fetch(ctx context.Context, station string) (StationReading, error)
}
