// Package main is a command line client for the biteme platform, mostly
// useful for poking at a running server during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/biteme/order-platform/pkg/client"
	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/notify"
)

const usage = `Usage: biteme-client [flags] command [args]

Commands:
  restaurants              List restaurants.
  menu <restaurantId>      Show a restaurant's menu.
  orders                   List the logged-in customer's orders.
  status <orderId> <to>    Move an order to a new status (requires manager login).
  watch                    Print pushed notifications until interrupted.

Flags:
  -url    Broker URL (default nats://127.0.0.1:4222, or BITEME_URL).
  -user   User id to log in as.
  -pass   Password.
`

func main() {
	defaultURL := os.Getenv("BITEME_URL")
	if defaultURL == "" {
		defaultURL = "nats://127.0.0.1:4222"
	}
	url := flag.String("url", defaultURL, "broker URL")
	user := flag.String("user", "", "user id")
	pass := flag.String("pass", "", "password")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	c, err := client.Connect(*url, client.Options{
		Name:    "biteme-client",
		Version: "1.0.0",
	})
	if err != nil {
		log.Fatalf("biteme-client: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *user != "" {
		if _, err := c.Login(ctx, *user, *pass); err != nil {
			log.Fatalf("biteme-client: login: %v", err)
		}
		defer c.Logout(context.Background())
	}

	if err := run(ctx, c, args); err != nil {
		log.Fatalf("biteme-client: %v", err)
	}
}

func run(ctx context.Context, c *client.Client, args []string) error {
	switch args[0] {
	case "restaurants":
		list, err := c.Restaurants(ctx)
		if err != nil {
			return err
		}
		for _, r := range list {
			fmt.Printf("%-16s %-24s %s\n", r.ID, r.Name, r.Branch)
		}
		return nil

	case "menu":
		if len(args) < 2 {
			return fmt.Errorf("menu: restaurant id required")
		}
		list, err := c.MenuItems(ctx, args[1])
		if err != nil {
			return err
		}
		for _, item := range list {
			fmt.Printf("%4d  %-24s %-12s %6.2f  (stock %d)\n", item.ID, item.Name, item.Category, item.Price, item.Quantity)
		}
		return nil

	case "orders":
		user := c.CurrentUser()
		if user == nil {
			return fmt.Errorf("orders: login required (-user, -pass)")
		}
		list, err := c.CustomerOrders(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, o := range list {
			fmt.Printf("%6d  %-12s %-16s %6.2f  %s\n", o.ID, o.Status, o.RestaurantID, o.TotalPrice, o.OrderTime.Format(time.RFC3339))
		}
		return nil

	case "status":
		if len(args) < 3 {
			return fmt.Errorf("status: order id and target status required")
		}
		orderID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("status: bad order id %q", args[1])
		}
		order, err := c.UpdateOrderStatus(ctx, orderID, model.OrderStatus(args[2]))
		if err != nil {
			return err
		}
		fmt.Printf("order %d is now %s\n", order.ID, order.Status)
		return nil

	case "watch":
		sub := c.Notifications().Subscribe(func(event notify.Event) {
			fmt.Printf("%s  %-20s order=%d status=%s %s\n",
				event.Timestamp.Format(time.RFC3339), event.Tag, event.OrderID, event.Status, event.Text)
		})
		defer sub.Unsubscribe()

		fmt.Println("watching notifications, ctrl-c to stop")
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
