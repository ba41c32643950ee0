package events

import (
	"encoding/json"
	"strings"

	"coworking/internal/metrics"

	"github.com/rs/zerolog"
)

// AttachAudit writes every event to the audit log.
func AttachAudit(bus *EventBus, logger *zerolog.Logger) {
	bus.SubscribeAll(func(e *Event) error {
		logger.Info().
			Str("component", "audit").
			Str("event", e.Type).
			RawJSON("payload", e.Payload).
			Time("at", e.CreatedAt).
			Msg("domain event")
		return nil
	})
	bus.OnError(func(e *Event, err error) {
		logger.Error().Err(err).Str("event", e.Type).Msg("event handler failed")
	})
}

// AttachMetrics counts lifecycle transitions and completed refund volume.
func AttachMetrics(bus *EventBus) {
	bus.SubscribeAll(func(e *Event) error {
		switch {
		case strings.HasPrefix(e.Type, "booking_"):
			metrics.IncBookingEvent(e.Type)
		case strings.HasPrefix(e.Type, "refund_"):
			metrics.IncRefundEvent(e.Type)
		}
		return nil
	})
	bus.Subscribe(EventRefundCompleted, func(e *Event) error {
		var p RefundEventPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		metrics.AddRefunded(p.Currency, p.Amount)
		return nil
	})
}
