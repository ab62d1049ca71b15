package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"
)

const bridgeLogPrefix = "notify:comms_bridge"

// CommsBridge forwards bus events onto a broker subject so clients on
// other connections receive them. It is the only path that reaches a
// connection other than the one a request arrived on.
type CommsBridge struct {
	nc      *comms.Conn
	subject string
	sub     *Subscription
}

// NewCommsBridge subscribes the bridge to the bus. Events published to the
// bus are re-published, JSON-encoded, on the given broker subject.
func NewCommsBridge(nc *comms.Conn, subject string, bus *Bus) *CommsBridge {
	b := &CommsBridge{nc: nc, subject: subject}
	b.sub = bus.Subscribe(b.forward)
	return b
}

func (b *CommsBridge) forward(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode event %s: %v", bridgeLogPrefix, event.Tag, err))
		return
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish %s to %s: %v", bridgeLogPrefix, event.Tag, b.subject, err))
		return
	}
	slog.Debug(fmt.Sprintf("%s - Published %s order=%d", bridgeLogPrefix, event.Tag, event.OrderID))
}

// Close detaches the bridge from the bus.
func (b *CommsBridge) Close() {
	b.sub.Unsubscribe()
}

// Listen subscribes to the broker subject and replays incoming events onto
// the given local bus. Used on the client side so screens subscribe to a
// plain Bus regardless of which process produced the event.
func Listen(nc *comms.Conn, subject string, bus *Bus) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode event: %v", bridgeLogPrefix, err))
			return
		}
		bus.Publish(event)
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", bridgeLogPrefix, subject, err)
	}
	return sub, nil
}
