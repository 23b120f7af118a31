package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"greenpulse/internal/airquality"
)

// Poller drives the poll cycle: every interval it collects the active
// cities and publishes the resulting snapshot through the hub. It also owns
// the mutable active-city selection.
type Poller struct {
	scheduler *gocron.Scheduler
	service   *airquality.Service
	hub       *Hub
	interval  time.Duration

	mu     sync.RWMutex
	active []airquality.CityConfig
}

// NewPoller creates a Poller. A nil initial selection means the full
// catalog; otherwise unknown names are silently dropped.
func NewPoller(service *airquality.Service, hub *Hub, interval time.Duration, initial []string) *Poller {
	p := &Poller{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		hub:       hub,
		interval:  interval,
	}
	if initial == nil {
		p.active = airquality.Catalog()
	} else {
		p.active = filterCatalog(initial)
	}
	return p
}

// Start schedules the periodic cycle and starts the underlying scheduler.
// The first cycle runs immediately; a slow cycle is never overlapped by the
// next one.
func (p *Poller) Start() error {
	_, err := p.scheduler.Every(p.interval).SingletonMode().StartImmediately().Do(p.runCycle)
	if err != nil {
		return err
	}
	p.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future cycles.
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

func (p *Poller) runCycle() {
	cities := p.activeConfigs()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	snap := p.service.Collect(ctx, cities, started)
	p.hub.Publish(snap)

	log.Printf("poller: cycle done in %s: %d zones, %d cities, %d subscribers",
		time.Since(started).Round(time.Millisecond), len(snap.Readings), len(snap.Cities), p.hub.Count())
}

// SelectCities replaces the active set. Unknown names are silently dropped,
// duplicates keep their first occurrence, request order is preserved. The
// returned names are the effective selection. It applies from the next
// cycle; an in-flight cycle keeps the set it started with.
func (p *Poller) SelectCities(names []string) []string {
	cfgs := filterCatalog(names)

	p.mu.Lock()
	p.active = cfgs
	p.mu.Unlock()

	effective := make([]string, len(cfgs))
	for i, c := range cfgs {
		effective[i] = c.Name
	}
	log.Printf("poller: active cities now %v", effective)
	return effective
}

// ActiveCities returns the names of the current active set.
func (p *Poller) ActiveCities() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.active))
	for i, c := range p.active {
		names[i] = c.Name
	}
	return names
}

func (p *Poller) activeConfigs() []airquality.CityConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]airquality.CityConfig, len(p.active))
	copy(out, p.active)
	return out
}

func filterCatalog(names []string) []airquality.CityConfig {
	seen := make(map[string]bool, len(names))
	cfgs := make([]airquality.CityConfig, 0, len(names))
	for _, name := range names {
		cfg, ok := airquality.CityByName(name)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		cfgs = append(cfgs, cfg)
	}
	return cfgs
}
