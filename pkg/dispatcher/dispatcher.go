// Package dispatcher routes incoming COMMS request envelopes to the
// platform services and shapes their replies.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/orders"
	"github.com/biteme/order-platform/pkg/protocol"
	"github.com/biteme/order-platform/pkg/session"
)

const logPrefix = "dispatcher:dispatch"

// Store is the catalog, account, and reporting persistence the dispatcher
// needs beyond what the session registry and order service already wrap.
type Store interface {
	Restaurants(ctx context.Context) ([]model.Restaurant, error)
	MenuItems(ctx context.Context, restaurantID string) ([]model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, update model.MenuItemUpdate) (bool, error)
	CreateUser(ctx context.Context, u *model.User) error
	IncomeReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error)
	OrdersReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error)
	PerformanceReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error)
	QuarterlyReport(ctx context.Context, quarter, year int, branch string) (*model.Report, error)
}

// Meta carries per-message connection facts the transport layer knows and
// the handlers need: where replies and pushes for this client go, and the
// network address for the session record.
type Meta struct {
	ClientSubject string
	NetworkAddr   string
}

// Dispatcher routes request envelopes by tag.
type Dispatcher struct {
	sessions  *session.Registry
	orders    *orders.Service
	store     Store
	minClient *semver.Version
}

// NewDispatcher creates a Dispatcher. minClientVersion is the oldest
// client version the server accepts at LOGIN; empty disables the gate.
func NewDispatcher(sessions *session.Registry, orderSvc *orders.Service, store Store, minClientVersion string) (*Dispatcher, error) {
	d := &Dispatcher{sessions: sessions, orders: orderSvc, store: store}
	if minClientVersion != "" {
		v, err := semver.NewVersion(minClientVersion)
		if err != nil {
			return nil, fmt.Errorf("%s - invalid minimum client version %q: %w", logPrefix, minClientVersion, err)
		}
		d.minClient = v
	}
	return d, nil
}

// Dispatch routes one request envelope and returns the reply envelope, or
// nil when the request is dropped (unknown tag).
func (d *Dispatcher) Dispatch(ctx context.Context, env *protocol.Envelope, meta Meta) *protocol.Envelope {
	slog.Debug(fmt.Sprintf("%s - tag=%s from=%s", logPrefix, env.Tag, meta.NetworkAddr))

	switch env.Tag {
	case protocol.TagLogin:
		return d.handleLogin(ctx, env, meta)
	case protocol.TagLogout:
		return d.handleLogout(ctx, env)
	case protocol.TagNewCustomerRegistration:
		return d.handleRegistration(ctx, env)
	case protocol.TagGetRestaurants:
		return d.handleGetRestaurants(ctx)
	case protocol.TagGetMenuItems:
		return d.handleGetMenuItems(ctx, env)
	case protocol.TagPlaceOrder:
		return d.handlePlaceOrder(ctx, env)
	case protocol.TagGetCustomerOrders:
		return d.handleCustomerOrders(ctx, env)
	case protocol.TagRestaurantOrders:
		return d.handleRestaurantOrders(ctx, env)
	case protocol.TagUpdateOrderStatus:
		return d.handleUpdateOrderStatus(ctx, env)
	case protocol.TagUpdateMenuItem:
		return d.handleUpdateMenuItem(ctx, env)
	case protocol.TagReportManagement:
		return d.handleReportManagement(ctx)
	case protocol.TagIncomeReport, protocol.TagOrdersReport, protocol.TagPerformanceReport:
		return d.handleRangeReport(ctx, env)
	case protocol.TagQuarterlyReport:
		return d.handleQuarterlyReport(ctx, env)
	default:
		// Unknown tags are dropped, not answered; the caller's retry
		// budget handles the silence.
		slog.Warn(fmt.Sprintf("%s - dropping unknown tag %q", logPrefix, env.Tag))
		return nil
	}
}

// reply builds a reply envelope, downgrading payload marshal failures to a
// bare-tag reply rather than dropping the response.
func reply(tag string, payload interface{}) *protocol.Envelope {
	env, err := protocol.NewEnvelope(tag, payload)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to build %s reply: %v", logPrefix, tag, err))
		env, _ = protocol.NewEnvelope(tag, nil)
	}
	return env
}

func replyMessage(tag, format string, args ...interface{}) *protocol.Envelope {
	return reply(tag, model.StatusReply{Message: fmt.Sprintf(format, args...)})
}
