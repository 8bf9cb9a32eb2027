package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Sentinel errors returned by the services.
var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrNoSession          = errors.New("no cooking session in progress")
	ErrInvalidInput       = errors.New("invalid input")
)

// Category is the fixed set of ingredient categories.
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryMeat      Category = "meat"
	CategoryDairy     Category = "dairy"
	CategorySeasoning Category = "seasoning"
	CategoryOther     Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryVegetable, CategoryMeat, CategoryDairy, CategorySeasoning, CategoryOther}

// ParseCategory maps free text onto a Category. Unknown values become
// CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	switch c {
	case "채소", "야채", "vegetables", "produce", "fruit", "과일":
		return CategoryVegetable
	case "육류", "고기", "생선", "해산물", "fish", "seafood":
		return CategoryMeat
	case "유제품", "계란", "dairy products", "eggs":
		return CategoryDairy
	case "양념", "조미료", "소스", "spice", "spices", "sauce":
		return CategorySeasoning
	}
	return CategoryOther
}

// QuantityStep is the granularity of inventory quantities.
const QuantityStep = 0.5

// RoundToStep rounds q to the nearest QuantityStep.
func RoundToStep(q float64) float64 {
	return math.Round(q/QuantityStep) * QuantityStep
}

// NoExpiry is the DaysRemaining value for ingredients without an expiry date.
const NoExpiry = math.MaxInt32

// InventoryIngredient is a perishable item owned by one user.
type InventoryIngredient struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     Category   `json:"category"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	AddedAt      time.Time  `json:"added_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Available reports whether any of the ingredient is left.
func (i InventoryIngredient) Available() bool {
	return i.Quantity > 0
}

// DaysRemaining returns whole days from today until the expiry date, negative
// once expired, or NoExpiry when no expiry date is set.
func (i InventoryIngredient) DaysRemaining(today time.Time) int {
	if i.ExpiryDate == nil {
		return NoExpiry
	}
	return DaysBetween(today, *i.ExpiryDate)
}

// DaysBetween counts calendar days from a to b, ignoring time of day. Both
// dates are read in a's location.
func DaysBetween(a, b time.Time) int {
	loc := a.Location()
	b = b.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DateLayout is the calendar date format used for input and display.
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// Fridge is a user's whole inventory, stored as one document.
type Fridge struct {
	ID          string                         `json:"id"`
	UserID      int64                          `json:"user_id"`
	Ingredients map[string]InventoryIngredient `json:"ingredients"` // ID -> ingredient
	LastUpdated time.Time                      `json:"last_updated"`
}

// RecipeIngredient is one line of a recipe's ingredient list.
type RecipeIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	// Available is carried by legacy sample data only and is never trusted.
	Available *bool `json:"available,omitempty"`
}

// Recipe is a read-only entry of the recipe corpus.
type Recipe struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []string           `json:"steps"`
	Difficulty  int                `json:"difficulty"`
	CookingTime int                `json:"cooking_time"` // minutes
	Servings    int                `json:"servings"`
	ImageURL    string             `json:"image_url,omitempty"`
	Author      string             `json:"author,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// IngredientNames returns the requirement names in recipe order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// UsedIngredient is the amount of an ingredient actually consumed when a
// recipe is cooked.
type UsedIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// ReceiptItem is one line extracted from a shopping receipt.
type ReceiptItem struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PurchaseDate string  `json:"purchase_date,omitempty"`
	ExpiryDate   string  `json:"expiry_date,omitempty"`
}

// CookingEntry is one adjustable line of a cooking confirmation.
type CookingEntry struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Owned    float64 `json:"owned"`
	Unit     string  `json:"unit"`
}

// CookingSession is a pending "I cooked this" confirmation.
type CookingSession struct {
	ID         string         `json:"id"`
	UserID     int64          `json:"user_id"`
	RecipeID   string         `json:"recipe_id"`
	RecipeName string         `json:"recipe_name"`
	Entries    []CookingEntry `json:"entries"`
	MessageID  int            `json:"message_id,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
}

// Used returns the session entries as consumption records.
func (s CookingSession) Used() []UsedIngredient {
	out := make([]UsedIngredient, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, UsedIngredient{Name: e.Name, Quantity: e.Quantity})
	}
	return out
}

// CookingStats is a user's cooking history.
type CookingStats struct {
	UserID       int64              `json:"user_id"`
	TotalCooked  int                `json:"total_cooked"`
	RecipeCounts map[string]int     `json:"recipe_counts"` // recipe name -> times cooked
	Consumed     map[string]float64 `json:"consumed"`      // ingredient name -> total used
	LastCookedAt time.Time          `json:"last_cooked_at,omitempty"`
}

// RecipeCount pairs a recipe name with how often it was cooked.
type RecipeCount struct {
	Name  string
	Count int
}
