// Package events provides in-process pub/sub used to hand side effects of
// an operation to decoupled consumers: the confirmation screen and metrics
// react to a submitted booking without the orchestration layer knowing
// about either.
package events

import (
	"sync"
	"time"

	"shifa/internal/models"
)

// Event types published by the service layer.
const (
	TypeBookingSubmitted = "booking.submitted"
	TypeCredentialIssued = "auth.credential_issued"
	TypeCheckoutStarted  = "checkout.started"
	TypeLoggedOut        = "auth.logged_out"
)

// BookingSubmitted is the payload for TypeBookingSubmitted; the
// confirmation screen reads the appointment id from here.
type BookingSubmitted struct {
	Appointment models.Appointment
	Patient     models.User
	TokenIssued bool
}

// CheckoutStarted is the payload for TypeCheckoutStarted.
type CheckoutStarted struct {
	RedirectURL   string
	PaymentMethod models.PaymentMethod
	Total         float64
}

// Event is a lightweight in-process event.
type Event struct {
	Type      string
	Payload   any
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously on the
// publisher's goroutine.
type Handler func(event Event)

// Bus is an in-process pub/sub fanout.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	for _, handler := range handlers {
		handler(event)
	}
}
