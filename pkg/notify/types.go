// Package notify implements the broadcast bus that decouples order
// lifecycle events from whichever screens or services currently care.
package notify

import "time"

// Event is a notification fanned out to every subscriber. The bus does no
// routing beyond broadcast: a subscriber that only cares about events
// addressed to itself filters by Recipient.
type Event struct {
	Tag       string    `json:"tag"`
	OrderID   int64     `json:"orderId,omitempty"`
	Status    string    `json:"status,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the interface the order state machine publishes through.
type Publisher interface {
	Publish(event Event)
}

// NoOpPublisher is a Publisher that drops events (for in-process usage
// without listeners).
type NoOpPublisher struct{}

// Publish is a no-op.
func (NoOpPublisher) Publish(Event) {}
