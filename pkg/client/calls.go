package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/protocol"
)

const reportDateLayout = "2006-01-02"

// LoginResult is the server's answer to a successful login.
type LoginResult struct {
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
}

// call sends one request envelope and waits for its reply.
func (c *Client) call(ctx context.Context, tag string, payload interface{}) (*protocol.Envelope, error) {
	env, err := protocol.NewEnvelope(tag, payload)
	if err != nil {
		return nil, err
	}
	return c.corr.Call(ctx, env)
}

// replyError extracts the server's message from a failure reply.
func replyError(env *protocol.Envelope) error {
	var status model.StatusReply
	if err := env.Bind(&status); err == nil && status.Message != "" {
		return errors.New("client: " + status.Message)
	}
	return fmt.Errorf("client: request failed with %s", env.Tag)
}

// Login authenticates and claims the identity's single session slot.
func (c *Client) Login(ctx context.Context, userID, password string) (*LoginResult, error) {
	reply, err := c.call(ctx, protocol.TagLogin, model.Credentials{
		UserID:        userID,
		Password:      password,
		ClientVersion: c.version,
		HostName:      c.hostName,
	})
	if err != nil {
		return nil, err
	}

	switch reply.Tag {
	case protocol.TagLoginSuccess:
		var result LoginResult
		if err := reply.Bind(&result); err != nil {
			return nil, fmt.Errorf("client: malformed login reply: %w", err)
		}
		c.setUser(&model.User{ID: result.UserID, Role: result.Role})
		return &result, nil
	case protocol.TagUserAlreadyLoggedIn:
		return nil, ErrAlreadyLoggedIn
	default:
		return nil, replyError(reply)
	}
}

// Logout releases the current identity's session slot.
func (c *Client) Logout(ctx context.Context) error {
	user := c.CurrentUser()
	if user == nil {
		return ErrNotLoggedIn
	}

	reply, err := c.call(ctx, protocol.TagLogout, model.Identity{ID: user.ID})
	if err != nil {
		return err
	}
	if reply.Tag != protocol.TagLogoutSuccess {
		return replyError(reply)
	}
	c.setUser(nil)
	return nil
}

// Register creates a new customer account.
func (c *Client) Register(ctx context.Context, user model.User) error {
	reply, err := c.call(ctx, protocol.TagNewCustomerRegistration, user)
	if err != nil {
		return err
	}
	if reply.Tag != protocol.TagNewCustomerRegistrationSuccess {
		return replyError(reply)
	}
	return nil
}

// Restaurants lists all restaurants.
func (c *Client) Restaurants(ctx context.Context) ([]model.Restaurant, error) {
	reply, err := c.call(ctx, protocol.TagGetRestaurants, nil)
	if err != nil {
		return nil, err
	}
	var list []model.Restaurant
	if err := reply.Bind(&list); err != nil {
		return nil, fmt.Errorf("client: malformed restaurants reply: %w", err)
	}
	return list, nil
}

// MenuItems lists a restaurant's menu.
func (c *Client) MenuItems(ctx context.Context, restaurantID string) ([]model.MenuItem, error) {
	reply, err := c.call(ctx, protocol.TagGetMenuItems, model.Identity{ID: restaurantID})
	if err != nil {
		return nil, err
	}
	var list []model.MenuItem
	if err := reply.Bind(&list); err != nil {
		return nil, fmt.Errorf("client: malformed menu reply: %w", err)
	}
	return list, nil
}

// PlaceOrder submits a new order and returns it as stored, with the
// server-computed total and id.
func (c *Client) PlaceOrder(ctx context.Context, order model.Order) (*model.Order, error) {
	reply, err := c.call(ctx, protocol.TagPlaceOrder, order)
	if err != nil {
		return nil, err
	}
	if reply.Tag != protocol.TagOrderPlacedSuccessfully {
		return nil, replyError(reply)
	}
	var placed model.Order
	if err := reply.Bind(&placed); err != nil {
		return nil, fmt.Errorf("client: malformed order reply: %w", err)
	}
	return &placed, nil
}

// CustomerOrders lists a customer's orders, newest first.
func (c *Client) CustomerOrders(ctx context.Context, customerID string) ([]model.Order, error) {
	return c.orderList(ctx, protocol.TagGetCustomerOrders, customerID)
}

// RestaurantOrders lists a restaurant's orders, newest first.
func (c *Client) RestaurantOrders(ctx context.Context, restaurantID string) ([]model.Order, error) {
	return c.orderList(ctx, protocol.TagRestaurantOrders, restaurantID)
}

func (c *Client) orderList(ctx context.Context, tag, id string) ([]model.Order, error) {
	reply, err := c.call(ctx, tag, model.Identity{ID: id})
	if err != nil {
		return nil, err
	}
	var list []model.Order
	if err := reply.Bind(&list); err != nil {
		return nil, fmt.Errorf("client: malformed orders reply: %w", err)
	}
	return list, nil
}

// UpdateOrderStatus asks the server to move an order to a new status and
// returns the updated order.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	reply, err := c.call(ctx, protocol.TagUpdateOrderStatus, model.OrderStatusUpdate{
		OrderID: orderID,
		Status:  string(status),
	})
	if err != nil {
		return nil, err
	}

	// Success and failure share a reply tag; an order payload has a
	// non-zero id, a failure payload carries only a message.
	var order model.Order
	if err := reply.Bind(&order); err == nil && order.ID != 0 {
		return &order, nil
	}
	return nil, replyError(reply)
}

// UpdateMenuItem sets a menu item's price and stock quantity.
func (c *Client) UpdateMenuItem(ctx context.Context, update model.MenuItemUpdate) error {
	reply, err := c.call(ctx, protocol.TagUpdateMenuItem, update)
	if err != nil {
		return err
	}
	if reply.Tag != protocol.TagItemUpdated {
		return replyError(reply)
	}
	return nil
}

// AvailableReports asks the server which reports it can produce.
func (c *Client) AvailableReports(ctx context.Context) ([]string, error) {
	reply, err := c.call(ctx, protocol.TagReportManagement, nil)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := reply.Bind(&list); err != nil {
		return nil, fmt.Errorf("client: malformed report list reply: %w", err)
	}
	return list, nil
}

// IncomeReport fetches delivered-order revenue for the date range.
func (c *Client) IncomeReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error) {
	return c.rangeReport(ctx, protocol.TagIncomeReport, start, end, branch)
}

// OrdersReport fetches order counts for the date range.
func (c *Client) OrdersReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error) {
	return c.rangeReport(ctx, protocol.TagOrdersReport, start, end, branch)
}

// PerformanceReport fetches delivery punctuality for the date range.
func (c *Client) PerformanceReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error) {
	return c.rangeReport(ctx, protocol.TagPerformanceReport, start, end, branch)
}

func (c *Client) rangeReport(ctx context.Context, tag string, start, end time.Time, branch string) (*model.Report, error) {
	reply, err := c.call(ctx, tag, model.ReportRequest{
		StartDate: start.Format(reportDateLayout),
		EndDate:   end.Format(reportDateLayout),
		Identity:  branch,
	})
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := reply.Bind(&report); err != nil {
		return nil, fmt.Errorf("client: malformed report reply: %w", err)
	}
	return &report, nil
}

// QuarterlyReport fetches the aggregate for a calendar quarter.
func (c *Client) QuarterlyReport(ctx context.Context, quarter, year int, branch string) (*model.Report, error) {
	reply, err := c.call(ctx, protocol.TagQuarterlyReport, model.QuarterlyReportRequest{
		Quarter: quarter,
		Year:    year,
		Branch:  branch,
	})
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := reply.Bind(&report); err != nil {
		return nil, fmt.Errorf("client: malformed report reply: %w", err)
	}
	return &report, nil
}
