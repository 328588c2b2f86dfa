// Package realtime provides an in-process publish/subscribe bus that fans
// record changes out to interested views without a request/response cycle.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/pkg/models"
)

// DefaultHistorySize is the number of events the bus retains.
const DefaultHistorySize = 100

// Event is a recorded emission.
type Event struct {
	Type      EventType `json:"type"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives the payload of an emitted event.
type Handler func(Payload)

type subscription struct {
	id uint64
	fn Handler
}

// Bus is a synchronous pub/sub hub with a bounded event history. It is safe
// for concurrent use; handlers run outside the bus lock, so a handler may
// subscribe, unsubscribe or emit.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	subs     map[EventType][]subscription
	history  []Event
	capacity int
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithHistorySize overrides the history capacity. Non-positive values are ignored.
func WithHistorySize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithClock sets the function used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:     make(map[EventType][]subscription),
		capacity: DefaultHistorySize,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for eventType and returns a function that removes
// exactly this registration. Calling the returned function more than once is
// harmless.
//
// Registrations are keyed by the returned unsubscribe function, not by fn:
// Go func values are not comparable, so the bus cannot tell two identical
// callbacks apart. Subscribing the same fn twice yields two registrations
// that each fire once per Emit and are removed independently. Callers that
// want at-most-once delivery keep the first unsubscribe and do not subscribe
// again.
func (b *Bus) Subscribe(eventType EventType, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *Bus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			// Copy so an in-flight Emit iterating the old slice is unaffected.
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[eventType] = next
			return
		}
	}
}

// Emit records the event in history, then invokes every handler currently
// subscribed to eventType in registration order before returning. A handler
// that panics is logged and skipped; the remaining handlers still run.
func (b *Bus) Emit(eventType EventType, payload Payload) {
	b.mu.Lock()
	b.history = append(b.history, Event{Type: eventType, Payload: payload, Timestamp: b.now()})
	if over := len(b.history) - b.capacity; over > 0 {
		n := copy(b.history, b.history[over:])
		clear(b.history[n:])
		b.history = b.history[:n]
	}
	handlers := b.subs[eventType]
	b.mu.Unlock()

	for _, s := range handlers {
		b.invoke(eventType, s.fn, payload)
	}
}

// Publish emits payload on the channel its type belongs to.
func (b *Bus) Publish(payload Payload) {
	b.Emit(payload.payloadType(), payload)
}

func (b *Bus) invoke(eventType EventType, fn Handler, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event_type", string(eventType)).
				Str("panic", fmt.Sprint(r)).
				Msg("realtime handler failed")
		}
	}()
	fn(payload)
}

// History returns a copy of the retained events in chronological order. If
// eventTypes are given only events of those types are returned.
func (b *Bus) History(eventTypes ...EventType) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		out := make([]Event, len(b.history))
		copy(out, b.history)
		return out
	}
	out := []Event{}
	for _, e := range b.history {
		for _, t := range eventTypes {
			if e.Type == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// SubscriberCount returns the number of live registrations for eventType.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[eventType])
}

// ClearAll drops every subscription and empties the history.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[EventType][]subscription)
	b.history = nil
}

// SubscribeToDocuments calls fn with the entity's document list whenever a
// document of the given client or vendor is uploaded or changes status.
func (b *Bus) SubscribeToDocuments(entityID string, entityType models.EntityType, fn func([]models.Document)) (unsubscribe func()) {
	handler := func(p Payload) {
		switch v := p.(type) {
		case DocumentUploadedPayload:
			if v.EntityID == entityID && v.EntityType == entityType {
				fn(documentsOrEmpty(v.Documents))
			}
		case DocumentStatusChangedPayload:
			if v.EntityID == entityID && v.EntityType == entityType {
				fn(documentsOrEmpty(v.Documents))
			}
		}
	}
	unsubUploaded := b.Subscribe(DocumentUploaded, handler)
	unsubStatus := b.Subscribe(DocumentStatusChanged, handler)
	return func() {
		unsubUploaded()
		unsubStatus()
	}
}

// SubscribeToMessages calls fn with the conversation's messages whenever a
// message is sent to conversationID.
func (b *Bus) SubscribeToMessages(conversationID string, fn func([]models.Message)) (unsubscribe func()) {
	return b.Subscribe(MessageSent, func(p Payload) {
		v, ok := p.(MessageSentPayload)
		if !ok || v.ConversationID != conversationID {
			return
		}
		msgs := v.Messages
		if msgs == nil {
			msgs = []models.Message{}
		}
		fn(msgs)
	})
}

// SubscribeToDocumentStatus calls fn with the updated document whenever
// documentID changes status.
func (b *Bus) SubscribeToDocumentStatus(documentID string, fn func(models.Document)) (unsubscribe func()) {
	return b.Subscribe(DocumentStatusChanged, func(p Payload) {
		v, ok := p.(DocumentStatusChangedPayload)
		if !ok || v.DocumentID != documentID {
			return
		}
		fn(v.Document)
	})
}

func documentsOrEmpty(docs []models.Document) []models.Document {
	if docs == nil {
		return []models.Document{}
	}
	return docs
}
