package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgecast/models"
)

var clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestHazardUpcomingPicksNearestSignificant(t *testing.T) {
	feed := NewStaticFeed([]models.NewsEvent{
		{Time: clock.Add(6 * time.Hour), Impact: models.ImpactHigh, Title: "FOMC"},
		{Time: clock.Add(2 * time.Hour), Impact: models.ImpactLow, Title: "minor print"},
		{Time: clock.Add(3 * time.Hour), Impact: models.ImpactMedium, Title: "CPI revision"},
	})

	h := feed.Hazard(clock)
	require.NotNil(t, h.Upcoming)
	assert.Equal(t, "CPI revision", h.Upcoming.Title)
	assert.Nil(t, h.Shock)
}

func TestHazardIgnoresEventsBeyondLookahead(t *testing.T) {
	feed := NewStaticFeed([]models.NewsEvent{
		{Time: clock.Add(48 * time.Hour), Impact: models.ImpactHigh, Title: "NFP"},
	})
	assert.Nil(t, feed.Hazard(clock).Upcoming)
}

func TestHazardShockInsideDecayWindow(t *testing.T) {
	feed := NewStaticFeed([]models.NewsEvent{
		{
			Time:            clock.Add(-time.Hour),
			Impact:          models.ImpactHigh,
			DirectionalBias: models.Bullish,
			Title:           "rate decision",
		},
	})

	h := feed.Hazard(clock)
	require.NotNil(t, h.Shock)
	assert.Equal(t, models.ImpactHigh, h.Shock.Severity)
	assert.Equal(t, models.Bullish, h.Shock.Bias)
}

func TestHazardShockExpires(t *testing.T) {
	feed := NewStaticFeed([]models.NewsEvent{
		{Time: clock.Add(-3 * time.Hour), Impact: models.ImpactHigh, Title: "stale"},
		{Time: clock.Add(-time.Hour), Impact: models.ImpactMedium, Title: "also stale"},
	})
	assert.Nil(t, feed.Hazard(clock).Shock)
}

func TestStaticFeedSortsEvents(t *testing.T) {
	feed := NewStaticFeed([]models.NewsEvent{
		{Time: clock.Add(2 * time.Hour), Impact: models.ImpactHigh},
		{Time: clock.Add(time.Hour), Impact: models.ImpactHigh},
	})
	events := feed.Events()
	require.Len(t, events, 2)
	assert.True(t, events[0].Time.Before(events[1].Time))
}
