package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobboard/domain"
)

// EventWriter persists a batch of events.
type EventWriter interface {
	WriteEvents(ctx context.Context, events []domain.Event) error
}

// EventSink batches events from a channel into an EventWriter.
type EventSink struct {
	Writer     EventWriter
	BatchSize  int
	FlushEvery time.Duration
	Log        *zap.SugaredLogger
}

// Run consumes events until ctx is done or the channel closes, flushing
// whenever a batch fills or FlushEvery elapses. Failed batches are logged
// and dropped.
func (s *EventSink) Run(ctx context.Context, events <-chan domain.Event) {
	size := s.BatchSize
	if size <= 0 {
		size = 100
	}
	every := s.FlushEvery
	if every <= 0 {
		every = 5 * time.Second
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	batch := make([]domain.Event, 0, size)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := s.Writer.WriteEvents(ctx, batch); err != nil {
			s.Log.Errorw("Event batch write failed", "count", len(batch), "error", err)
		} else {
			s.Log.Debugw("Event batch written", "count", len(batch))
		}
		batch = make([]domain.Event, 0, size)
	}

	for {
		select {
		case <-ctx.Done():
			// Parent context is gone; give the final write its own deadline.
			final, cancel := context.WithTimeout(context.Background(), every)
			flush(final)
			cancel()
			return
		case e, ok := <-events:
			if !ok {
				flush(ctx)
				return
			}
			batch = append(batch, e)
			if len(batch) >= size {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
