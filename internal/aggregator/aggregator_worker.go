package aggregator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Publisher forwards a fresh recommendation to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec *Recommendation) error
}

// Refresher re-runs the workflow for one origin/destination pair on a fixed
// interval, keeps the cache warm and publishes each result.
type Refresher struct {
	aggregator  *Aggregator
	origin      string
	destination string
	interval    time.Duration
	publisher   Publisher
	logger      *zap.Logger
}

func NewRefresher(aggregator *Aggregator, origin, destination string, interval time.Duration, publisher Publisher) *Refresher {
	return &Refresher{
		aggregator:  aggregator,
		origin:      origin,
		destination: destination,
		interval:    interval,
		publisher:   publisher,
		logger: aggregator.logger.With(
			zap.String("component", "refresher"),
			zap.String("cache_key", CacheKey(origin, destination))),
	}
}

// Start refreshes once immediately, then on every tick until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	ticker := r.aggregator.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Refresher started", zap.Duration("interval", r.interval))

	r.refresh(ctx)

	for {
		select {
		case <-ticker.Chan():
			r.refresh(ctx)
		case <-ctx.Done():
			r.logger.Info("Context cancelled, refresher stopping")
			return
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	tracer := r.aggregator.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "aggregator.refresh")
	defer span.End()

	rec := r.aggregator.Recommend(ctx, r.origin, r.destination)

	span.SetAttributes(
		attribute.Bool("successful", rec.Successful),
		attribute.Int("confidence", rec.Confidence),
	)

	if !rec.Successful {
		r.logger.Warn("Refresh produced an unsuccessful recommendation",
			zap.Int("steps_succeeded", rec.SucceededSteps()))
		return
	}

	r.aggregator.setCache(CacheKey(r.origin, r.destination), rec)

	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, rec); err != nil {
		span.RecordError(err)
		r.logger.Error("Failed to publish recommendation", zap.Error(err))
		return
	}

	r.logger.Debug("Recommendation refreshed and published", zap.Int("confidence", rec.Confidence))
}
