package publisher

import (
	"context"
	"time"

	"github.com/fjod/furstore/internal/ledger"
	"github.com/rs/zerolog"
)

// EventSource is the part of the ledger the poller drains.
type EventSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*ledger.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type OutboxPoller struct {
	source    EventSource
	publisher Publisher
	tick      time.Duration
	batch     int
	log       zerolog.Logger
}

func NewOutboxPoller(source EventSource, pub Publisher, tick time.Duration, log zerolog.Logger) *OutboxPoller {
	if tick <= 0 {
		tick = time.Second
	}
	return &OutboxPoller{
		source:    source,
		publisher: pub,
		tick:      tick,
		batch:     100,
		log:       log.With().Str("component", "outbox_poller").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processUnpublishedEvents returns how many events were published and marked.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.source.GetUnprocessedEvents(ctx, p.batch)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}

	done := 0
	for _, event := range events {
		if err := p.publisher.Publish(ctx, event); err != nil {
			// Stop here so later events for the same order are not sent ahead of this one.
			p.log.Error().Err(err).Int64("event_id", event.ID).Str("event_type", event.EventType).Msg("failed to publish event")
			return done
		}
		if err := p.source.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error().Err(err).Int64("event_id", event.ID).Msg("failed to mark event as processed")
			return done
		}
		done++
	}
	if done > 0 {
		p.log.Debug().Int("count", done).Msg("published outbox events")
	}
	return done
}
