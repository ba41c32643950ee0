package events

import (
	"encoding/json"
	"sync"
	"time"

	"coworking/internal/domain"
)

const (
	EventBookingCreated     = "booking_created"
	EventBookingConfirmed   = "booking_confirmed"
	EventBookingFailed      = "booking_failed"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingRescheduled = "booking_rescheduled"
	EventBookingRefunded    = "booking_refunded"

	EventRefundRequested = "refund_requested"
	EventRefundApproved  = "refund_approved"
	EventRefundRejected  = "refund_rejected"
	EventRefundCompleted = "refund_completed"
	EventRefundFailed    = "refund_failed"
)

// BookingEventPayload is the booking snapshot handed to subscribers.
type BookingEventPayload struct {
	BookingID   int64     `json:"booking_id"`
	Code        string    `json:"code"`
	RoomID      int64     `json:"room_id"`
	CustomerID  int64     `json:"customer_id"`
	Status      string    `json:"status"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	FinalAmount float64   `json:"final_amount"`
	Currency    string    `json:"currency"`
	Reason      string    `json:"reason,omitempty"`
	ChangedByID int64     `json:"changed_by_id,omitempty"`
}

func NewBookingPayload(b *domain.Booking, actorID int64, reason string) BookingEventPayload {
	return BookingEventPayload{
		BookingID:   b.ID,
		Code:        b.Code,
		RoomID:      b.RoomID,
		CustomerID:  b.CustomerID,
		Status:      b.Status.String(),
		Start:       b.StartUTC,
		End:         b.EndUTC,
		FinalAmount: b.FinalAmount,
		Currency:    b.Currency,
		Reason:      reason,
		ChangedByID: actorID,
	}
}

type RefundEventPayload struct {
	RefundID       int64   `json:"refund_id"`
	BookingID      int64   `json:"booking_id"`
	Status         string  `json:"status"`
	ApprovalSource string  `json:"approval_source,omitempty"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	ActorID        int64   `json:"actor_id,omitempty"`
	Detail         string  `json:"detail,omitempty"`
}

func NewRefundPayload(r *domain.RefundRequest, actorID int64, detail string) RefundEventPayload {
	return RefundEventPayload{
		RefundID:       r.ID,
		BookingID:      r.BookingID,
		Status:         r.Status.String(),
		ApprovalSource: string(r.ApprovalSource),
		Amount:         r.RefundAmount,
		Currency:       r.Currency,
		ActorID:        actorID,
		Detail:         detail,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	mu          sync.RWMutex
	onError     func(event *Event, err error)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// OnError installs a callback for handler failures.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Publish notifies subscribers of the event type. Handlers run synchronously.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()})
	return nil
}
