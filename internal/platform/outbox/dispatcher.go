package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Publisher pushes a serialized event to the message bus.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// PendingSource supplies pending outbox rows and acknowledges sent ones.
type PendingSource interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

// Dispatcher drains pending outbox rows and publishes them. A publish failure
// is fatal to the attempt; the row stays pending and is retried next drain.
type Dispatcher struct {
	store     PendingSource
	publisher Publisher
	logger    *slog.Logger
	batchSize int
}

func NewDispatcher(store PendingSource, publisher Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, publisher: publisher, logger: logger, batchSize: 100}
}

// Drain publishes one batch of pending rows in insertion order and returns
// how many were dispatched.
func (d *Dispatcher) Drain(ctx context.Context) (int, error) {
	records, err := d.store.FetchPending(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, record := range records {
		if err := d.publisher.Publish(ctx, record.Topic, record.Key, record.Payload); err != nil {
			return sent, err
		}
		if err := d.store.MarkSent(ctx, record.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Run drains on the given interval until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := d.Drain(ctx)
			if err != nil {
				if d.logger != nil {
					d.logger.Warn("outbox drain failed", slog.String("error", err.Error()))
				}
				continue
			}
			if sent > 0 && d.logger != nil {
				d.logger.Info("outbox drained", slog.Int("events", sent))
			}
		}
	}
}
