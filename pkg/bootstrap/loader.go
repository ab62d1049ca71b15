package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/biteme/order-platform/pkg/model"
)

const logPrefix = "bootstrap:loader"

// LoadSeedConfig loads the seed data set from file paths or environment.
// It tries paths in order: first any paths passed in, then BITEME_SEED_FILE
// env, then defaults. So an explicit path (e.g. from "seed my.json") is
// tried before the env var.
func LoadSeedConfig(paths ...string) (*SeedConfig, error) {
	// Build path list: passed paths first, then env, then defaults
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("BITEME_SEED_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "seed/seed.json", "seed.json")
	paths = all

	for _, p := range paths {
		if p == "" {
			continue
		}

		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg SeedConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse seed file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded seed config from %s", logPrefix, p))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default seed config", logPrefix))
	return GetDefaultSeedConfig(), nil
}

// GetDefaultSeedConfig returns the embedded fallback seed data set: one
// restaurant per branch, a small menu each, and one account per role.
func GetDefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		Name:        "biteme-default-seed",
		Description: "Default development seed data",
		Users: []model.User{
			{ID: "alice", Password: "alice123", FirstName: "Alice", LastName: "Stone", Email: "alice@example.com", Phone: "050-1111111", Role: model.RoleCustomer, Branch: "north"},
			{ID: "bob", Password: "bob123", FirstName: "Bob", LastName: "Rivers", Email: "bob@example.com", Phone: "050-2222222", Role: model.RoleCustomer, Branch: "center"},
			{ID: "noa", Password: "noa123", FirstName: "Noa", LastName: "Levi", Email: "noa@pizza-north.example.com", Role: model.RoleRestaurantManager, Branch: "north"},
			{ID: "dana", Password: "dana123", FirstName: "Dana", LastName: "Gold", Email: "dana@example.com", Role: model.RoleBranchManager, Branch: "north"},
			{ID: "ceo", Password: "ceo123", FirstName: "Maya", LastName: "Katz", Email: "ceo@example.com", Role: model.RoleCEO},
		},
		Restaurants: []SeedRestaurant{
			{
				Restaurant: model.Restaurant{ID: "pizza-north", Name: "Pizza North", Branch: "north", Address: "12 Galil St", Phone: "04-1234567"},
				Menu: []model.MenuItem{
					{RestaurantID: "pizza-north", Name: "Margherita", Category: "pizza", Description: "Tomato, mozzarella, basil", Price: 45, Quantity: 50},
					{RestaurantID: "pizza-north", Name: "Pepperoni", Category: "pizza", Description: "Tomato, mozzarella, pepperoni", Price: 52, Quantity: 40},
					{RestaurantID: "pizza-north", Name: "Garlic Bread", Category: "sides", Price: 18, Quantity: 100},
				},
			},
			{
				Restaurant: model.Restaurant{ID: "sushi-center", Name: "Sushi Center", Branch: "center", Address: "8 Rothschild Blvd", Phone: "03-7654321"},
				Menu: []model.MenuItem{
					{RestaurantID: "sushi-center", Name: "Salmon Roll", Category: "rolls", Description: "8 pieces", Price: 38, Quantity: 60},
					{RestaurantID: "sushi-center", Name: "Avocado Maki", Category: "rolls", Description: "8 pieces", Price: 28, Quantity: 60},
					{RestaurantID: "sushi-center", Name: "Miso Soup", Category: "soups", Price: 14, Quantity: 80},
				},
			},
			{
				Restaurant: model.Restaurant{ID: "burger-south", Name: "Burger South", Branch: "south", Address: "3 Negev Rd", Phone: "08-9998877"},
				Menu: []model.MenuItem{
					{RestaurantID: "burger-south", Name: "Classic Burger", Category: "burgers", Description: "200g beef, lettuce, tomato", Price: 49, Quantity: 45},
					{RestaurantID: "burger-south", Name: "Fries", Category: "sides", Price: 16, Quantity: 120},
				},
			},
		},
	}
}
