package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	comms "github.com/nats-io/nats.go"

	"github.com/biteme/order-platform/pkg/protocol"
)

const logPrefix = "transport:transport"

// ErrTransportClosed is returned by Send when the connection is not open.
var ErrTransportClosed = errors.New("transport: connection is not open")

// Handler receives inbound envelopes. The reply argument is the subject the
// sender expects its reply on; it is empty for pushes.
type Handler func(env *protocol.Envelope, reply string)

// Transport wraps one broker connection and frames envelopes over it.
// Writes are serialized by an internal mutex so concurrent senders cannot
// interleave frames.
type Transport struct {
	nc      *comms.Conn
	inbound string

	mu   sync.Mutex // serializes Send
	subs []*comms.Subscription

	closeMu sync.Mutex
	closed  bool
}

// New wraps an existing broker connection. The inbound subject, if
// non-empty, is attached as the reply subject on every Send so the remote
// side knows where this transport listens.
func New(nc *comms.Conn, inbound string) *Transport {
	return &Transport{nc: nc, inbound: inbound}
}

// Inbound returns this transport's private inbound subject ("" for the
// server side).
func (t *Transport) Inbound() string {
	return t.inbound
}

// Subscribe registers a handler for envelopes arriving on the subject.
// Undecodable payloads are logged and dropped.
func (t *Transport) Subscribe(subject string, handler Handler) error {
	sub, err := t.nc.Subscribe(subject, func(msg *comms.Msg) {
		env, err := protocol.Decode(msg.Data)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - dropping undecodable envelope on %s: %v", logPrefix, subject, err))
			return
		}
		handler(env, msg.Reply)
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	return nil
}

// Send serializes the envelope and publishes it to the subject. When the
// transport has an inbound subject it rides along as the reply subject.
// Returns ErrTransportClosed once Close has been called or the underlying
// connection is gone.
func (t *Transport) Send(subject string, env *protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isClosed() {
		return ErrTransportClosed
	}

	if t.inbound != "" {
		err = t.nc.PublishRequest(subject, t.inbound, data)
	} else {
		err = t.nc.Publish(subject, data)
	}
	if err != nil {
		return fmt.Errorf("%s - failed to send %s to %s: %w", logPrefix, env.Tag, subject, err)
	}
	return nil
}

func (t *Transport) isClosed() bool {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.closed || t.nc == nil || t.nc.IsClosed()
}

// Close drops all subscriptions and marks the transport closed. The
// underlying connection is left to its owner.
func (t *Transport) Close() {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Debug(fmt.Sprintf("%s - unsubscribe: %v", logPrefix, err))
		}
	}
}
