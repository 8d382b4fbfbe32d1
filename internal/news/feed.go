// Package news turns an economic calendar into the hazard signals the
// pipeline consumes: an upcoming high-impact event and a still-active
// post-release shock.
package news

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"edgecast/models"
)

const (
	// How far ahead scheduled events are considered relevant.
	lookahead = 24 * time.Hour

	// How long a released event keeps distorting price, by impact.
	shockWindowHigh   = 2 * time.Hour
	shockWindowMedium = 45 * time.Minute
)

// Hazard is the news context attached to one market state build.
type Hazard struct {
	Shock    *models.NewsShock
	Upcoming *models.NewsEvent
}

// Feed evaluates a calendar against a clock. Events are sorted once at
// construction, so repeated Hazard calls are cheap.
type Feed struct {
	provider models.NewsProvider
	logger   zerolog.Logger

	events []models.NewsEvent
}

// NewFeed wraps a calendar provider.
func NewFeed(provider models.NewsProvider) *Feed {
	return &Feed{
		provider: provider,
		logger:   log.With().Str("component", "news_feed").Logger(),
	}
}

// NewStaticFeed builds a feed over an already-known event list, used by
// backtests and tests.
func NewStaticFeed(events []models.NewsEvent) *Feed {
	f := &Feed{logger: log.With().Str("component", "news_feed").Logger()}
	f.replace(events)
	return f
}

// Refresh pulls the calendar for a currency and replaces the cached
// events.
func (f *Feed) Refresh(ctx context.Context, currency string) error {
	events, err := f.provider.FetchEvents(ctx, currency)
	if err != nil {
		return err
	}
	f.replace(events)
	f.logger.Debug().Int("events", len(events)).Str("currency", currency).Msg("calendar refreshed")
	return nil
}

func (f *Feed) replace(events []models.NewsEvent) {
	sorted := make([]models.NewsEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	f.events = sorted
}

// Events returns the cached calendar, oldest first.
func (f *Feed) Events() []models.NewsEvent {
	return f.events
}

// Hazard reads the calendar at a given instant. The upcoming event is
// the nearest future medium-or-high impact release inside the lookahead
// window; the shock is the most recent release still inside its decay
// window.
func (f *Feed) Hazard(now time.Time) Hazard {
	var h Hazard
	for i := range f.events {
		ev := &f.events[i]
		if ev.Impact == models.ImpactLow {
			continue
		}
		if ev.Time.After(now) {
			if h.Upcoming == nil && ev.Time.Sub(now) <= lookahead {
				h.Upcoming = ev
			}
			continue
		}
		if age := now.Sub(ev.Time); age <= shockWindow(ev.Impact) {
			h.Shock = &models.NewsShock{
				Severity: ev.Impact,
				Bias:     ev.DirectionalBias,
				At:       ev.Time,
				Title:    ev.Title,
			}
		}
	}
	return h
}

func shockWindow(impact models.NewsImpact) time.Duration {
	if impact == models.ImpactHigh {
		return shockWindowHigh
	}
	return shockWindowMedium
}
