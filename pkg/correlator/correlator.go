// Package correlator implements blocking call semantics over asynchronous
// envelope delivery. A caller sends a request and waits until a reply
// carrying the expected normalized key lands in the shared inbox, or a
// bounded retry budget runs out.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/biteme/order-platform/pkg/protocol"
)

const logPrefix = "correlator:correlator"

// ErrNoResponse is returned by Call when the retry budget is exhausted
// without a reply for the expected key. The UI handles it as an outcome,
// not a crash.
var ErrNoResponse = errors.New("correlator: no response from server")

// Defaults for the retry budget. The ~1s total is inherited protocol
// behavior; both are configurable.
const (
	DefaultRetries      = 10
	DefaultPollInterval = 100 * time.Millisecond
)

// SendFunc delivers a request envelope toward the server.
type SendFunc func(env *protocol.Envelope) error

// Correlator matches replies to pending calls through a shared inbox keyed
// by normalized response key. The inbox holds at most one envelope per
// key: a later reply overwrites an unread earlier one, and a read consumes
// the slot. Two in-flight calls sharing a key can therefore lose a reply —
// callers serialize calls per key.
type Correlator struct {
	send     SendFunc
	retries  int
	interval time.Duration

	mu     sync.Mutex
	inbox  map[string]*protocol.Envelope
	signal chan struct{}
}

// Options configures a Correlator. Zero values fall back to defaults.
type Options struct {
	Retries      int
	PollInterval time.Duration
}

// New creates a Correlator that sends through the given function.
func New(send SendFunc, opts Options) *Correlator {
	retries := opts.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Correlator{
		send:     send,
		retries:  retries,
		interval: interval,
		inbox:    make(map[string]*protocol.Envelope),
		signal:   make(chan struct{}),
	}
}

// Deliver stores an inbound envelope under its normalized response key and
// wakes every waiting caller. Called from the transport's receive
// goroutine.
func (c *Correlator) Deliver(env *protocol.Envelope) {
	key := protocol.ResponseKey(env.Tag)

	c.mu.Lock()
	if _, ok := c.inbox[key]; ok {
		slog.Debug(fmt.Sprintf("%s - overwriting unread reply for key %s", logPrefix, key))
	}
	c.inbox[key] = env
	close(c.signal)
	c.signal = make(chan struct{})
	c.mu.Unlock()
}

// take removes and returns the envelope stored under key, if any, together
// with the channel to wait on for the next delivery.
func (c *Correlator) take(key string) (*protocol.Envelope, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	env := c.inbox[key]
	if env != nil {
		delete(c.inbox, key)
	}
	return env, c.signal
}

// Call sends the request and blocks until a reply for the request's
// normalized key arrives, the retry budget (retries × interval) is
// exhausted, or ctx is cancelled. Waiting is signal-driven rather than
// sleep-polling, but the timeout contract is the same: after exactly
// `retries` intervals with no reply, Call returns ErrNoResponse.
func (c *Correlator) Call(ctx context.Context, env *protocol.Envelope) (*protocol.Envelope, error) {
	key := protocol.RequestKey(env.Tag)

	if err := c.send(env); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < c.retries; attempt++ {
		reply, err := c.waitOne(ctx, key)
		if err != nil {
			return nil, err
		}
		if reply != nil {
			return reply, nil
		}
	}

	// Final check so a reply landing at the very end of the last interval
	// is not lost.
	if reply, _ := c.take(key); reply != nil {
		return reply, nil
	}
	slog.Warn(fmt.Sprintf("%s - no reply for key %s after %d attempts", logPrefix, key, c.retries))
	return nil, ErrNoResponse
}

// waitOne checks the inbox and blocks for up to one full interval.
// Delivery signals wake it to re-check the key, but a delivery for an
// unrelated key does not shorten the interval, so the retry budget always
// spans retries × interval of real time.
func (c *Correlator) waitOne(ctx context.Context, key string) (*protocol.Envelope, error) {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		reply, signal := c.take(key)
		if reply != nil {
			return reply, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-signal:
			// re-check the inbox
		}
	}
}
