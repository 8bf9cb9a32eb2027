// Package availability scores recipes against an inventory snapshot: which
// ingredients the user has, which are missing, and what share that is.
package availability

import (
	"math"
	"sort"

	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
)

// Result is a recipe's availability relative to one inventory.
type Result struct {
	// Ratio is the rounded percentage of requirements on hand, 0..100.
	Ratio int
	// Available and Missing hold requirement names in recipe order.
	// Duplicate requirements are kept as separate entries.
	Available []string
	Missing   []string
}

// Ranked is a recipe together with its availability.
type Ranked struct {
	Recipe       models.Recipe
	Availability Result
}

// Engine computes availability with a name matcher.
type Engine struct {
	matcher matcher.Matcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatcher replaces the default exact name matcher.
func WithMatcher(m matcher.Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// New creates an Engine. Without options names match exactly (trimmed,
// case-insensitive).
func New(opts ...Option) *Engine {
	e := &Engine{matcher: matcher.Exact{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Compute scores recipe against inventory with the default engine.
func Compute(recipe models.Recipe, inventory []models.InventoryIngredient) Result {
	return defaultEngine.Compute(recipe, inventory)
}

// Rank orders recipes by availability with the default engine.
func Rank(recipes []models.Recipe, inventory []models.InventoryIngredient) []Ranked {
	return defaultEngine.Rank(recipes, inventory)
}

// Compute scores recipe against inventory. A requirement is available when
// some inventory item of the same name has a positive quantity; the amount
// the recipe asks for is not compared. A recipe without ingredients scores 0.
func (e *Engine) Compute(recipe models.Recipe, inventory []models.InventoryIngredient) Result {
	res := Result{
		Available: make([]string, 0, len(recipe.Ingredients)),
		Missing:   make([]string, 0, len(recipe.Ingredients)),
	}
	for _, req := range recipe.Ingredients {
		if e.has(req.Name, inventory) {
			res.Available = append(res.Available, req.Name)
		} else {
			res.Missing = append(res.Missing, req.Name)
		}
	}
	if total := len(recipe.Ingredients); total > 0 {
		res.Ratio = int(math.Round(100 * float64(len(res.Available)) / float64(total)))
	}
	return res
}

func (e *Engine) has(name string, inventory []models.InventoryIngredient) bool {
	for _, item := range inventory {
		if item.Available() && e.matcher.Match(name, item.Name) {
			return true
		}
	}
	return false
}

// Rank scores every recipe against the same inventory and returns them by
// descending ratio. Equal ratios keep their input order. The input slice is
// not modified.
func (e *Engine) Rank(recipes []models.Recipe, inventory []models.InventoryIngredient) []Ranked {
	out := make([]Ranked, len(recipes))
	for i, r := range recipes {
		out[i] = Ranked{Recipe: r, Availability: e.Compute(r, inventory)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Availability.Ratio > out[j].Availability.Ratio
	})
	return out
}
