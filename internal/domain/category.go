package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCategory is returned when a value outside the closed category set is seen.
var ErrInvalidCategory = errors.New("invalid category")

// Category is the spending category assigned to a transaction.
type Category string

const (
	FoodDining     Category = "food_dining"
	Groceries      Category = "groceries"
	Shopping       Category = "shopping"
	Transportation Category = "transportation"
	Subscriptions  Category = "subscriptions"
	BillsUtilities Category = "bills_utilities"
	Entertainment  Category = "entertainment"
	HealthFitness  Category = "health_fitness"
	Travel         Category = "travel"
	Income         Category = "income"
	Transfer       Category = "transfer"
	Other          Category = "other"
)

// CategoryInfo is the display metadata of a category.
type CategoryInfo struct {
	ID    Category `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Color string   `json:"color" yaml:"color"`
}

// Categories lists every category in display order.
var Categories = []CategoryInfo{
	{ID: FoodDining, Label: "Food & Dining", Color: "#f97316"},
	{ID: Groceries, Label: "Groceries", Color: "#22c55e"},
	{ID: Shopping, Label: "Shopping", Color: "#ec4899"},
	{ID: Transportation, Label: "Transportation", Color: "#3b82f6"},
	{ID: Subscriptions, Label: "Subscriptions", Color: "#8b5cf6"},
	{ID: BillsUtilities, Label: "Bills & Utilities", Color: "#eab308"},
	{ID: Entertainment, Label: "Entertainment", Color: "#06b6d4"},
	{ID: HealthFitness, Label: "Health & Fitness", Color: "#14b8a6"},
	{ID: Travel, Label: "Travel", Color: "#6366f1"},
	{ID: Income, Label: "Income", Color: "#10b981"},
	{ID: Transfer, Label: "Transfer", Color: "#94a3b8"},
	{ID: Other, Label: "Other", Color: "#64748b"},
}

// DiscretionaryCategories are the non-essential spending categories.
var DiscretionaryCategories = []Category{FoodDining, Shopping, Entertainment, Subscriptions, Travel}

// Validate returns ErrInvalidCategory for values outside the enum.
func (c Category) Validate() error {
	for _, info := range Categories {
		if info.ID == c {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidCategory, string(c))
}

// IsSpending reports whether the category counts toward spending aggregates.
func (c Category) IsSpending() bool {
	return c != Income && c != Transfer
}

// Label returns the human-readable name, "Other" for unknown values.
func (c Category) Label() string {
	for _, info := range Categories {
		if info.ID == c {
			return info.Label
		}
	}
	return "Other"
}

// Color returns the chart colour for the category.
func (c Category) Color() string {
	for _, info := range Categories {
		if info.ID == c {
			return info.Color
		}
	}
	return "#64748b"
}
