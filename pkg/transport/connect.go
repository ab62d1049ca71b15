// Package transport owns the broker connection: dialing, subjects, and
// envelope framing. Each client holds one persistent connection with a
// private inbound subject; the server holds one connection serving the
// shared request subject.
package transport

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const connectLogPrefix = "transport:connect"

// Connect creates a broker connection to the given URL.
func Connect(url, name string) (*comms.Conn, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to broker at %s as %s", connectLogPrefix, url, name))

	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(10*time.Second),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - broker disconnected: %v", connectLogPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - broker reconnected to %s", connectLogPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - broker connection closed", connectLogPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to broker: %w", connectLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to broker at %s", connectLogPrefix, nc.ConnectedUrl()))
	return nc, nil
}
