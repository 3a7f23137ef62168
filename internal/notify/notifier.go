// Package notify delivers fire-and-forget event notifications to external
// observers. Delivery is best-effort and never blocks or fails the
// acquisition pipeline.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventKind identifies a notification event.
type EventKind string

const (
	EventDownloaded         EventKind = "subtitle_downloaded"
	EventUpgraded           EventKind = "subtitle_upgraded"
	EventStillMissing       EventKind = "subtitle_still_missing"
	EventBlacklisted        EventKind = "subtitle_blacklisted"
	EventSearchDeferred     EventKind = "search_deferred"
	EventProvidersThrottled EventKind = "providers_throttled"
)

// Notifier is the outbound notification contract.
type Notifier interface {
	Notify(ctx context.Context, kind EventKind, payload any) error
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(context.Context, EventKind, any) error { return nil }

// Dispatcher fans notifications out to the configured notifiers from a
// separate goroutine per event, logging failures and dropping them.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(logger zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   10 * time.Second,
		logger:    logger.With().Str("component", "notify").Logger(),
	}
}

// Notify delivers the event asynchronously and returns immediately.
func (d *Dispatcher) Notify(_ context.Context, kind EventKind, payload any) error {
	for _, n := range d.notifiers {
		go func(n Notifier) {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := n.Notify(ctx, kind, payload); err != nil {
				d.logger.Warn().Err(err).Str("event", string(kind)).Msg("Notification delivery failed")
			}
		}(n)
	}
	return nil
}
