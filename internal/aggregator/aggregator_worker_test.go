package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanPublisher struct {
	published chan *Recommendation
	err       error
}

func newChanPublisher() *chanPublisher {
	return &chanPublisher{published: make(chan *Recommendation, 4)}
}

func (p *chanPublisher) Publish(_ context.Context, rec *Recommendation) error {
	p.published <- rec
	return p.err
}

func waitPublished(t *testing.T, p *chanPublisher) *Recommendation {
	t.Helper()
	select {
	case rec := <-p.published:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a recommendation to be published")
		return nil
	}
}

func TestRefresher_Creation(t *testing.T) {
	agg := newTestAggregator(t, clearWeather(27), hosurRoad(), busyFeeds())
	r := NewRefresher(agg, "home", "office", time.Minute, nil)

	if r.aggregator != agg {
		t.Error("Expected refresher to reference the aggregator")
	}
	if r.logger == nil {
		t.Error("Expected refresher to have a logger")
	}
}

func TestRefresher_PublishesOnEveryTick(t *testing.T) {
	weather := clearWeather(27)
	agg := newTestAggregator(t, weather, hosurRoad(), busyFeeds())
	clock := clockwork.NewFakeClock()
	agg.SetClock(clock)

	pub := newChanPublisher()
	r := NewRefresher(agg, "home", "office", 15*time.Minute, pub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	first := waitPublished(t, pub)
	assert.Equal(t, "home", first.Origin)
	assert.Equal(t, "office", first.Destination)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(15 * time.Minute)

	second := waitPublished(t, pub)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, weather.Calls())

	// the refreshed entry is served from cache
	assert.Same(t, second, agg.GetRecommendation(context.Background(), "home", "office"))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected refresher to stop after cancel")
	}
}

func TestRefresher_SkipsUnsuccessful(t *testing.T) {
	weather := &fakeWeather{currentErr: errDown, forecastEr: errDown}
	agg := newTestAggregator(t, weather, &fakeRoutes{directionsErr: errDown, geocodeErr: errDown}, &fakeScraper{})
	pub := newChanPublisher()

	NewRefresher(agg, "home", "office", time.Minute, pub).refresh(context.Background())

	assert.Empty(t, pub.published)
	assert.Equal(t, 0, agg.GetCacheStats()["cache_size"])
}

func TestRefresher_PublishErrorKeepsCache(t *testing.T) {
	agg := newTestAggregator(t, clearWeather(27), hosurRoad(), busyFeeds())
	pub := newChanPublisher()
	pub.err = errors.New("broker unavailable")

	NewRefresher(agg, "home", "office", time.Minute, pub).refresh(context.Background())

	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, agg.GetCacheStats()["cache_size"])
}

func TestRefresher_NilPublisher(t *testing.T) {
	agg := newTestAggregator(t, clearWeather(27), hosurRoad(), busyFeeds())

	NewRefresher(agg, "home", "office", time.Minute, nil).refresh(context.Background())

	assert.Equal(t, 1, agg.GetCacheStats()["cache_size"])
}
