// Package tests contains end-to-end tests for the order platform. They
// start an embedded NATS server and run real clients against the full
// server pipeline, with only the database stubbed out.
package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/biteme/order-platform/pkg/client"
	"github.com/biteme/order-platform/pkg/db"
	"github.com/biteme/order-platform/pkg/dispatcher"
	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/notify"
	"github.com/biteme/order-platform/pkg/orders"
	"github.com/biteme/order-platform/pkg/protocol"
	"github.com/biteme/order-platform/pkg/session"
	"github.com/biteme/order-platform/pkg/transport"
)

const (
	e2eTestPrefix      = "tests:e2e_test"
	e2ePort            = 14240
	e2eRequestSubject  = "biteme.test.requests"
	e2eEventsSubject   = "biteme.test.events"
	e2eAutoAdvance     = 50 * time.Millisecond
	e2eMinClientOK     = "1.0.0"
	e2eClientRetries   = 20
	e2eClientPoll      = 50 * time.Millisecond
	e2eNotifyDeadline  = 2 * time.Second
	e2eCallTimeout     = 5 * time.Second
	e2eShutdownTimeout = 10 * time.Second
)

// memStore is the in-memory stand-in for db.Repository. It implements
// session.Store, orders.Store, and dispatcher.Store.
type memStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	items  map[int64]*model.MenuItem
	orders map[int64]*model.Order
	nextID int64

	restaurants []model.Restaurant
}

func newMemStore() *memStore {
	s := &memStore{
		users:  make(map[string]*model.User),
		items:  make(map[int64]*model.MenuItem),
		orders: make(map[int64]*model.Order),
	}
	s.users["alice"] = &model.User{ID: "alice", Password: "secret", Role: model.RoleCustomer}
	s.users["resto"] = &model.User{ID: "resto", Password: "pw", Role: model.RoleRestaurantManager, Branch: "north"}
	s.restaurants = []model.Restaurant{
		{ID: "pizza-north", Name: "Pizza North", Branch: "north"},
		{ID: "sushi-center", Name: "Sushi Center", Branch: "center"},
	}
	s.items[1] = &model.MenuItem{ID: 1, RestaurantID: "pizza-north", Name: "Margherita", Price: 45, Quantity: 10}
	s.items[2] = &model.MenuItem{ID: 2, RestaurantID: "pizza-north", Name: "Garlic Bread", Price: 18, Quantity: 10}
	return s
}

func (s *memStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *memStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return db.ErrUserExists
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *memStore) SetConnected(_ context.Context, id string, connected bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Connected == connected {
		return false, nil
	}
	u.Connected = connected
	return true, nil
}

func (s *memStore) ClearConnected(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		u.Connected = false
	}
	return nil
}

func (s *memStore) Restaurants(_ context.Context) ([]model.Restaurant, error) {
	return s.restaurants, nil
}

func (s *memStore) MenuItems(_ context.Context, restaurantID string) ([]model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.MenuItem
	for _, it := range s.items {
		if it.RestaurantID == restaurantID {
			list = append(list, *it)
		}
	}
	return list, nil
}

func (s *memStore) GetMenuItem(_ context.Context, itemID int64) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, nil
	}
	clone := *it
	return &clone, nil
}

func (s *memStore) UpdateMenuItem(_ context.Context, update model.MenuItemUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[update.ItemID]
	if !ok || it.RestaurantID != update.RestaurantID {
		return false, nil
	}
	it.Price = update.Price
	it.Quantity = update.Quantity
	return true, nil
}

func (s *memStore) CreateOrder(_ context.Context, order *model.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	clone := *order
	clone.ID = s.nextID
	s.orders[clone.ID] = &clone
	return clone.ID, nil
}

func (s *memStore) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *o
	return &clone, nil
}

func (s *memStore) UpdateOrderStatus(_ context.Context, id int64, from, to model.OrderStatus, arrival *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if arrival != nil {
		o.ActualArrivalTime = arrival
	}
	return true, nil
}

func (s *memStore) OrdersByCustomer(_ context.Context, customerID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (s *memStore) OrdersByRestaurant(_ context.Context, restaurantID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []model.Order
	for _, o := range s.orders {
		if o.RestaurantID == restaurantID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (s *memStore) IncomeReport(_ context.Context, _, _ time.Time, _ string) (*model.Report, error) {
	return &model.Report{Title: "Income report"}, nil
}

func (s *memStore) OrdersReport(_ context.Context, _, _ time.Time, _ string) (*model.Report, error) {
	return &model.Report{Title: "Orders report"}, nil
}

func (s *memStore) PerformanceReport(_ context.Context, _, _ time.Time, _ string) (*model.Report, error) {
	return &model.Report{Title: "Performance report"}, nil
}

func (s *memStore) QuarterlyReport(_ context.Context, _, _ int, _ string) (*model.Report, error) {
	return &model.Report{Title: "Quarterly report"}, nil
}

// testEnv is one running platform: embedded broker plus the full server
// pipeline over a memStore.
type testEnv struct {
	ns    *commsserver.Server
	store *memStore
	bus   *notify.Bus
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   e2ePort,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create broker: %v", e2eTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - broker failed to start", e2eTestPrefix)
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		t.Fatalf("%s - failed to connect server side: %v", e2eTestPrefix, err)
	}
	t.Cleanup(nc.Close)

	store := newMemStore()
	sessions := session.NewRegistry(store)
	if err := sessions.Reconcile(context.Background()); err != nil {
		t.Fatalf("%s - reconcile: %v", e2eTestPrefix, err)
	}

	bus := notify.NewBus()
	bridge := notify.NewCommsBridge(nc, e2eEventsSubject, bus)
	t.Cleanup(bridge.Close)

	serverTransport := transport.New(nc, "")
	t.Cleanup(serverTransport.Close)

	// Forward recipient-addressed events to the recipient's private
	// subject as notification envelopes, same wiring as the server.
	targeted := bus.Subscribe(func(event notify.Event) {
		if event.Recipient == "" {
			return
		}
		sess := sessions.Get(event.Recipient)
		if sess == nil || sess.ClientSubject == "" {
			return
		}
		env, err := protocol.NewEnvelope(event.Tag, event)
		if err != nil {
			return
		}
		_ = serverTransport.Send(sess.ClientSubject, env)
	})
	t.Cleanup(targeted.Unsubscribe)

	machine := orders.NewMachine(store, bus, e2eAutoAdvance)
	t.Cleanup(machine.Close)
	orderSvc := orders.NewService(store, machine)

	disp, err := dispatcher.NewDispatcher(sessions, orderSvc, store, e2eMinClientOK)
	if err != nil {
		t.Fatalf("%s - failed to build dispatcher: %v", e2eTestPrefix, err)
	}

	if err := serverTransport.Subscribe(e2eRequestSubject, func(env *protocol.Envelope, reply string) {
		ctx, cancel := context.WithTimeout(context.Background(), e2eShutdownTimeout)
		defer cancel()
		resp := disp.Dispatch(ctx, env, dispatcher.Meta{ClientSubject: reply, NetworkAddr: reply})
		if resp == nil || reply == "" {
			return
		}
		_ = serverTransport.Send(reply, resp)
	}); err != nil {
		t.Fatalf("%s - failed to subscribe request subject: %v", e2eTestPrefix, err)
	}

	return &testEnv{ns: ns, store: store, bus: bus}
}

func (e *testEnv) dial(t *testing.T, name string) *client.Client {
	t.Helper()
	c, err := client.Connect(e.ns.ClientURL(), client.Options{
		Name:           name,
		Version:        "1.2.0",
		HostName:       name + "-host",
		Retries:        e2eClientRetries,
		PollInterval:   e2eClientPoll,
		RequestSubject: e2eRequestSubject,
		EventsSubject:  e2eEventsSubject,
	})
	if err != nil {
		t.Fatalf("%s - failed to connect client %s: %v", e2eTestPrefix, name, err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestE2E_LoginLogoutLifecycle(t *testing.T) {
	env := setupE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), e2eCallTimeout)
	defer cancel()

	first := env.dial(t, "first")
	res, err := first.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("%s - login: %v", e2eTestPrefix, err)
	}
	if res.UserID != "alice" || res.Role != model.RoleCustomer {
		t.Errorf("%s - login result %+v", e2eTestPrefix, res)
	}
	if u := first.CurrentUser(); u == nil || u.ID != "alice" {
		t.Errorf("%s - current user %+v", e2eTestPrefix, u)
	}

	// The identity is claimed; a second terminal is turned away.
	second := env.dial(t, "second")
	if _, err := second.Login(ctx, "alice", "secret"); !errors.Is(err, client.ErrAlreadyLoggedIn) {
		t.Fatalf("%s - expected ErrAlreadyLoggedIn, got %v", e2eTestPrefix, err)
	}

	if err := first.Logout(ctx); err != nil {
		t.Fatalf("%s - logout: %v", e2eTestPrefix, err)
	}
	if _, err := second.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("%s - relogin after logout: %v", e2eTestPrefix, err)
	}
}

func TestE2E_LoginWrongPassword(t *testing.T) {
	env := setupE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), e2eCallTimeout)
	defer cancel()

	c := env.dial(t, "probe")
	if _, err := c.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatalf("%s - wrong password accepted", e2eTestPrefix)
	}
	if _, err := c.Login(ctx, "ghost", "x"); err == nil {
		t.Fatalf("%s - unknown user accepted", e2eTestPrefix)
	}
}

func TestE2E_CatalogRoundTrip(t *testing.T) {
	env := setupE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), e2eCallTimeout)
	defer cancel()

	c := env.dial(t, "browser")

	restaurants, err := c.Restaurants(ctx)
	if err != nil {
		t.Fatalf("%s - restaurants: %v", e2eTestPrefix, err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("%s - %d restaurants, want 2", e2eTestPrefix, len(restaurants))
	}

	menu, err := c.MenuItems(ctx, "pizza-north")
	if err != nil {
		t.Fatalf("%s - menu items: %v", e2eTestPrefix, err)
	}
	if len(menu) != 2 {
		t.Errorf("%s - %d menu items, want 2", e2eTestPrefix, len(menu))
	}
}

func TestE2E_OrderFlowWithNotifications(t *testing.T) {
	env := setupE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), e2eCallTimeout)
	defer cancel()

	customer := env.dial(t, "customer")
	if _, err := customer.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("%s - customer login: %v", e2eTestPrefix, err)
	}

	pushes := make(chan notify.Event, 16)
	sub := customer.Notifications().Subscribe(func(event notify.Event) {
		pushes <- event
	})
	defer sub.Unsubscribe()

	manager := env.dial(t, "manager")
	if _, err := manager.Login(ctx, "resto", "pw"); err != nil {
		t.Fatalf("%s - manager login: %v", e2eTestPrefix, err)
	}

	placed, err := customer.PlaceOrder(ctx, model.Order{
		CustomerID:   "alice",
		RestaurantID: "pizza-north",
		Items: []model.OrderItem{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("%s - place order: %v", e2eTestPrefix, err)
	}
	if placed.TotalPrice != 2*45+18 {
		t.Errorf("%s - total = %.2f", e2eTestPrefix, placed.TotalPrice)
	}

	updated, err := manager.UpdateOrderStatus(ctx, placed.ID, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("%s - confirm order: %v", e2eTestPrefix, err)
	}
	if updated.Status != model.StatusConfirmed {
		t.Errorf("%s - status = %s", e2eTestPrefix, updated.Status)
	}

	// The customer gets the acceptance pushed, without polling.
	event := waitForEvent(t, pushes, protocol.TagOrderAccepted)
	if event.OrderID != placed.ID || event.Recipient != "alice" {
		t.Errorf("%s - event %+v", e2eTestPrefix, event)
	}

	// The machine advances CONFIRMED orders on its own timer.
	event = waitForEvent(t, pushes, protocol.TagOrderStatusChanged)
	if event.Status != string(model.StatusPreparing) {
		t.Errorf("%s - auto-advance pushed status %s", e2eTestPrefix, event.Status)
	}

	list, err := customer.CustomerOrders(ctx, "alice")
	if err != nil {
		t.Fatalf("%s - customer orders: %v", e2eTestPrefix, err)
	}
	if len(list) != 1 || list[0].ID != placed.ID {
		t.Errorf("%s - customer orders %+v", e2eTestPrefix, list)
	}
}

func TestE2E_BroadcastReachesEveryClient(t *testing.T) {
	env := setupE2E(t)

	a := env.dial(t, "client-a")
	b := env.dial(t, "client-b")

	got := make(chan string, 2)
	subA := a.Notifications().Subscribe(func(event notify.Event) { got <- "a:" + event.Text })
	defer subA.Unsubscribe()
	subB := b.Notifications().Subscribe(func(event notify.Event) { got <- "b:" + event.Text })
	defer subB.Unsubscribe()

	env.bus.Publish(notify.Event{
		Tag:       protocol.TagClientMessage,
		Text:      "kitchen closes early today",
		Timestamp: time.Now().UTC(),
	})

	seen := map[string]bool{}
	deadline := time.After(e2eNotifyDeadline)
	for len(seen) < 2 {
		select {
		case s := <-got:
			seen[s] = true
		case <-deadline:
			t.Fatalf("%s - broadcast reached %d of 2 clients", e2eTestPrefix, len(seen))
		}
	}
}

func TestE2E_ReportsOverTheWire(t *testing.T) {
	env := setupE2E(t)
	ctx, cancel := context.WithTimeout(context.Background(), e2eCallTimeout)
	defer cancel()

	c := env.dial(t, "ceo")

	kinds, err := c.AvailableReports(ctx)
	if err != nil {
		t.Fatalf("%s - available reports: %v", e2eTestPrefix, err)
	}
	if len(kinds) != 4 {
		t.Errorf("%s - report kinds %v", e2eTestPrefix, kinds)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	report, err := c.IncomeReport(ctx, start, end, "")
	if err != nil {
		t.Fatalf("%s - income report: %v", e2eTestPrefix, err)
	}
	if report.Title != "Income report" {
		t.Errorf("%s - report title %q", e2eTestPrefix, report.Title)
	}
}

func waitForEvent(t *testing.T, ch <-chan notify.Event, tag string) notify.Event {
	t.Helper()
	deadline := time.After(e2eNotifyDeadline)
	for {
		select {
		case event := <-ch:
			if event.Tag == tag {
				return event
			}
		case <-deadline:
			t.Fatalf("%s - timed out waiting for %s", e2eTestPrefix, tag)
			return notify.Event{}
		}
	}
}
