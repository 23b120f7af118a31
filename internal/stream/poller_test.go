package stream

import (
	"context"
	"reflect"
	"testing"
	"time"

	"greenpulse/internal/airquality"
	"greenpulse/internal/store"
)

type cycleFetcher struct{}

func (cycleFetcher) Name() string { return "cycle" }

func (cycleFetcher) Fetch(_ context.Context, station string) (airquality.StationReading, error) {
	return airquality.StationReading{Station: station, AQI: 100}, nil
}

func newTestPoller(initial []string) (*Poller, *store.LatestStore) {
	st := store.NewLatestStore()
	hub := NewHub(st)
	svc := airquality.NewService(cycleFetcher{})
	return NewPoller(svc, hub, time.Minute, initial), st
}

func TestPollerDefaultsToFullCatalog(t *testing.T) {
	p, _ := newTestPoller(nil)

	got := p.ActiveCities()
	want := make([]string, 0, len(airquality.Catalog()))
	for _, c := range airquality.Catalog() {
		want = append(want, c.Name)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected full catalog %v, got %v", want, got)
	}
}

func TestSelectCitiesDropsUnknownNames(t *testing.T) {
	p, _ := newTestPoller(nil)

	got := p.SelectCities([]string{"Delhi", "Atlantis", "Mumbai"})
	want := []string{"Delhi", "Mumbai"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !reflect.DeepEqual(p.ActiveCities(), want) {
		t.Fatalf("expected active set %v, got %v", want, p.ActiveCities())
	}
}

func TestSelectCitiesDeduplicatesKeepingFirst(t *testing.T) {
	p, _ := newTestPoller(nil)

	got := p.SelectCities([]string{"Mumbai", "Delhi", "Mumbai"})
	want := []string{"Mumbai", "Delhi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// An empty selection is valid and polls nothing.
func TestSelectCitiesEmpty(t *testing.T) {
	p, _ := newTestPoller(nil)

	got := p.SelectCities(nil)
	if len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", got)
	}
	if len(p.ActiveCities()) != 0 {
		t.Fatalf("expected empty active set, got %v", p.ActiveCities())
	}
}

func TestRunCyclePublishesSnapshot(t *testing.T) {
	p, st := newTestPoller([]string{"Delhi"})

	p.runCycle()

	snap, err := st.Current()
	if err != nil {
		t.Fatalf("expected published snapshot, got %v", err)
	}
	if len(snap.Readings) != 4 {
		t.Fatalf("expected 4 Delhi zones, got %d", len(snap.Readings))
	}
	if _, ok := snap.Cities["Delhi"]; !ok {
		t.Fatalf("expected Delhi aggregate, got %v", snap.Cities)
	}
}
