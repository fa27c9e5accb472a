package runtime

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/observability"
)

// Registry is the presence map: identity -> live delivery sink. It holds no
// durable data; a restart starts from empty. One mutex guards the map so
// presence reads and connection churn never race. At most one sink is
// addressable per identity; a reconnect replaces the previous entry.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]contract.EventSink
	stats *observability.Stats
	log   *slog.Logger
}

func NewRegistry(stats *observability.Stats, log *slog.Logger) *Registry {
	return &Registry{
		sinks: make(map[string]contract.EventSink),
		stats: stats,
		log:   log,
	}
}

// Connect registers the sink for an identity, replacing any prior connection.
func (r *Registry) Connect(identity string, sink contract.EventSink) {
	identity = chat.NormalizeIdentity(identity)
	r.mu.Lock()
	r.sinks[identity] = sink
	online := len(r.sinks)
	r.mu.Unlock()
	r.stats.Connects.Add(1)
	r.log.Info("user connected", "user", identity, "online", online)
}

// Disconnect drops the identity's entry. Idempotent; disconnecting an absent
// identity is a no-op.
func (r *Registry) Disconnect(identity string) {
	identity = chat.NormalizeIdentity(identity)
	r.mu.Lock()
	_, present := r.sinks[identity]
	delete(r.sinks, identity)
	online := len(r.sinks)
	r.mu.Unlock()
	if present {
		r.stats.Disconnects.Add(1)
		r.log.Info("user disconnected", "user", identity, "online", online)
	}
}

// Release drops the identity's entry only if it still points at sink. A stale
// dispatch loop tearing down after a reconnect must not evict the fresh
// connection's entry; only the loop that still owns the entry removes it.
func (r *Registry) Release(identity string, sink contract.EventSink) bool {
	identity = chat.NormalizeIdentity(identity)
	r.mu.Lock()
	current, present := r.sinks[identity]
	if !present || current != sink {
		r.mu.Unlock()
		return false
	}
	delete(r.sinks, identity)
	online := len(r.sinks)
	r.mu.Unlock()
	r.stats.Disconnects.Add(1)
	r.log.Info("user disconnected", "user", identity, "online", online)
	return true
}

func (r *Registry) IsOnline(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sinks[chat.NormalizeIdentity(identity)]
	return ok
}

// OnlineSnapshot returns a sorted point-in-time copy of the online set, safe
// to iterate without holding the registry lock.
func (r *Registry) OnlineSnapshot() []string {
	r.mu.RLock()
	online := make([]string, 0, len(r.sinks))
	for identity := range r.sinks {
		online = append(online, identity)
	}
	r.mu.RUnlock()
	sort.Strings(online)
	return online
}

// Send delivers payload to the identity if it is online. An offline recipient
// is not an error; the live event is simply missed. A transport failure
// disconnects the recipient immediately — a failed send means a dead
// connection, there is no retry.
func (r *Registry) Send(identity string, payload any) error {
	identity = chat.NormalizeIdentity(identity)
	r.mu.RLock()
	sink, ok := r.sinks[identity]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := sink.Deliver(payload); err != nil {
		r.stats.DeliveryFailures.Add(1)
		r.log.Error("delivery failed, dropping connection", "user", identity, "error", err)
		r.Release(identity, sink)
		return fmt.Errorf("deliver to %s: %w", identity, err)
	}
	r.stats.Delivered.Add(1)
	return nil
}

// Broadcast delivers payload to every online identity, best effort. Delivery
// happens on a snapshot so concurrent disconnects cannot invalidate the
// iteration; identities whose send fails are disconnected without aborting
// the rest.
func (r *Registry) Broadcast(payload any) {
	r.mu.RLock()
	recipients := make(map[string]contract.EventSink, len(r.sinks))
	for identity, sink := range r.sinks {
		recipients[identity] = sink
	}
	r.mu.RUnlock()

	var failed []string
	for identity, sink := range recipients {
		if err := sink.Deliver(payload); err != nil {
			r.stats.DeliveryFailures.Add(1)
			r.log.Error("broadcast delivery failed", "user", identity, "error", err)
			failed = append(failed, identity)
			continue
		}
		r.stats.Delivered.Add(1)
	}
	for _, identity := range failed {
		r.Release(identity, recipients[identity])
	}
}
