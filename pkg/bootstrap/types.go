// Package bootstrap loads the seed data set the server populates an empty
// database with: restaurants, their menus, and initial user accounts.
package bootstrap

import "github.com/biteme/order-platform/pkg/model"

// SeedConfig is the top-level seed file structure.
type SeedConfig struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Users       []model.User     `json:"users"`
	Restaurants []SeedRestaurant `json:"restaurants"`
}

// SeedRestaurant is a restaurant plus its menu.
type SeedRestaurant struct {
	model.Restaurant
	Menu []model.MenuItem `json:"menu"`
}
