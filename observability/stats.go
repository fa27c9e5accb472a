package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats aggregates delivery counters across the registry and dispatch loops.
// All fields are atomics; a zero Stats is ready to use.
type Stats struct {
	Connects         atomic.Uint64
	Disconnects      atomic.Uint64
	Delivered        atomic.Uint64
	DeliveryFailures atomic.Uint64
	EventsHandled    atomic.Uint64
	HandlerErrors    atomic.Uint64
}

// Snapshot is the JSON view served on the debug endpoint.
type Snapshot struct {
	Connects         uint64 `json:"connects"`
	Disconnects      uint64 `json:"disconnects"`
	Delivered        uint64 `json:"delivered"`
	DeliveryFailures uint64 `json:"delivery_failures"`
	EventsHandled    uint64 `json:"events_handled"`
	HandlerErrors    uint64 `json:"handler_errors"`
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Connects:         s.Connects.Load(),
		Disconnects:      s.Disconnects.Load(),
		Delivered:        s.Delivered.Load(),
		DeliveryFailures: s.DeliveryFailures.Load(),
		EventsHandled:    s.EventsHandled.Load(),
		HandlerErrors:    s.HandlerErrors.Load(),
	}
}

// Report logs the counters every interval until the context is done.
// Run it in its own goroutine.
func (s *Stats) Report(ctx context.Context, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.Snapshot()
			log.Info("delivery stats",
				"connects", snap.Connects,
				"disconnects", snap.Disconnects,
				"delivered", snap.Delivered,
				"delivery_failures", snap.DeliveryFailures,
				"events_handled", snap.EventsHandled,
				"handler_errors", snap.HandlerErrors,
			)
		}
	}
}
