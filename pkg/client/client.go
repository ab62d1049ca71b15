// Package client is the connection façade client applications use: one
// broker connection, blocking request calls over the correlator, and a
// local notification bus screens subscribe to.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/biteme/order-platform/pkg/correlator"
	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/notify"
	"github.com/biteme/order-platform/pkg/protocol"
	"github.com/biteme/order-platform/pkg/transport"
)

const logPrefix = "client:client"

// Login failures the UI distinguishes.
var (
	ErrAlreadyLoggedIn = errors.New("client: user is already logged in elsewhere")
	ErrNotLoggedIn     = errors.New("client: no user is logged in")
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Name identifies the connection to the broker.
	Name string
	// Version is reported to the server at login.
	Version string
	// HostName is reported to the server at login.
	HostName string
	// Retries and PollInterval bound how long calls wait for a reply.
	Retries      int
	PollInterval time.Duration
	// RequestSubject and EventsSubject override the default subjects.
	RequestSubject string
	EventsSubject  string
}

// Client is one application's connection to the platform.
type Client struct {
	id        string
	version   string
	hostName  string
	transport *transport.Transport
	corr      *correlator.Correlator
	bus       *notify.Bus
	eventsSub *comms.Subscription
	nc        *comms.Conn

	mu   sync.Mutex
	user *model.User
}

// Connect dials the broker and wires the client's private subject: replies
// land in the correlator, pushed notifications land on the local bus.
func Connect(url string, opts Options) (*Client, error) {
	name := opts.Name
	if name == "" {
		name = "biteme-client"
	}
	requestSubject := opts.RequestSubject
	if requestSubject == "" {
		requestSubject = transport.SubjectRequests
	}
	eventsSubject := opts.EventsSubject
	if eventsSubject == "" {
		eventsSubject = transport.SubjectEvents
	}

	nc, err := transport.Connect(url, name)
	if err != nil {
		return nil, err
	}

	c := &Client{
		id:       uuid.NewString(),
		version:  opts.Version,
		hostName: opts.HostName,
		bus:      notify.NewBus(),
		nc:       nc,
	}
	c.transport = transport.New(nc, transport.ClientSubject(c.id))
	c.corr = correlator.New(func(env *protocol.Envelope) error {
		return c.transport.Send(requestSubject, env)
	}, correlator.Options{Retries: opts.Retries, PollInterval: opts.PollInterval})

	if err := c.transport.Subscribe(c.transport.Inbound(), c.receive); err != nil {
		nc.Close()
		return nil, err
	}
	c.eventsSub, err = notify.Listen(nc, eventsSubject, c.bus)
	if err != nil {
		nc.Close()
		return nil, err
	}

	slog.Info(fmt.Sprintf("%s - Connected as %s", logPrefix, c.id))
	return c, nil
}

// receive sorts private-subject traffic: targeted notifications go to the
// bus, everything else is a reply for a pending call.
func (c *Client) receive(env *protocol.Envelope, _ string) {
	switch env.Tag {
	case protocol.TagOrderStatusChanged, protocol.TagOrderAccepted,
		protocol.TagOrderRejected, protocol.TagOrderReady, protocol.TagClientMessage:
		var event notify.Event
		if err := env.Bind(&event); err != nil {
			slog.Error(fmt.Sprintf("%s - dropping malformed %s push: %v", logPrefix, env.Tag, err))
			return
		}
		c.bus.Publish(event)
	default:
		c.corr.Deliver(env)
	}
}

// ID returns this client instance's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Notifications returns the local bus server pushes are replayed onto.
func (c *Client) Notifications() *notify.Bus {
	return c.bus
}

// CurrentUser returns the logged-in user, or nil.
func (c *Client) CurrentUser() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) setUser(u *model.User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

// Close logs nothing out; it only tears the connection down. Callers that
// want a clean logout call Logout first.
func (c *Client) Close() {
	if c.eventsSub != nil {
		if err := c.eventsSub.Unsubscribe(); err != nil {
			slog.Debug(fmt.Sprintf("%s - events unsubscribe: %v", logPrefix, err))
		}
	}
	c.transport.Close()
	c.nc.Close()
	slog.Info(fmt.Sprintf("%s - Connection %s closed", logPrefix, c.id))
}
