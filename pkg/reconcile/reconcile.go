// Package reconcile applies "used while cooking" amounts to an inventory
// snapshot and returns the inventory that results.
package reconcile

import (
	"math"
	"sort"

	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
)

// Policy decides what happens to items that reach zero.
type Policy int

const (
	// RetainZero keeps exhausted items with quantity 0.
	RetainZero Policy = iota
	// DeleteZero drops exhausted items from the result.
	DeleteZero
)

// String returns the policy name used in configuration.
func (p Policy) String() string {
	if p == DeleteZero {
		return "delete"
	}
	return "retain"
}

// Result is the reconciled inventory plus what changed.
type Result struct {
	// Inventory is the full new inventory in input order.
	Inventory []models.InventoryIngredient
	// Updated holds items whose quantity changed and which are still present.
	Updated []models.InventoryIngredient
	// Deleted holds items removed under DeleteZero, with quantity 0.
	Deleted []models.InventoryIngredient
	// Unmatched holds used entries no inventory item matched.
	Unmatched []models.UsedIngredient
}

type options struct {
	policy  Policy
	matcher matcher.Matcher
}

// Option configures Reconcile.
type Option func(*options)

// WithPolicy selects the zero-quantity policy. The default is RetainZero.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithMatcher replaces the exact name matcher.
func WithMatcher(m matcher.Matcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

// Reconcile subtracts each used amount from the matching inventory items and
// returns a new inventory; the input is never modified.
//
// Quantities never drop below zero and never grow: negative or NaN used
// amounts have no effect. Entries that match nothing are reported in
// Unmatched and otherwise ignored. When several items share a name, the one
// expiring soonest is consumed first and items without an expiry go last.
func Reconcile(inventory []models.InventoryIngredient, used []models.UsedIngredient, opts ...Option) Result {
	o := options{policy: RetainZero, matcher: matcher.Exact{}}
	for _, opt := range opts {
		opt(&o)
	}

	next := make([]models.InventoryIngredient, len(inventory))
	copy(next, inventory)
	changed := make([]bool, len(next))

	var res Result
	for _, u := range used {
		idx := matching(next, u.Name, o.matcher)
		if len(idx) == 0 {
			res.Unmatched = append(res.Unmatched, u)
			continue
		}
		remaining := u.Quantity
		if math.IsNaN(remaining) || remaining <= 0 {
			continue
		}
		for _, i := range idx {
			if remaining <= 0 {
				break
			}
			take := math.Min(next[i].Quantity, remaining)
			if take <= 0 {
				continue
			}
			next[i].Quantity = math.Max(0, next[i].Quantity-take)
			remaining -= take
			changed[i] = true
		}
		// Anything left over exceeded what the user owned and is dropped.
	}

	res.Inventory = make([]models.InventoryIngredient, 0, len(next))
	for i, item := range next {
		if o.policy == DeleteZero && changed[i] && item.Quantity <= 0 {
			item.Quantity = 0
			res.Deleted = append(res.Deleted, item)
			continue
		}
		res.Inventory = append(res.Inventory, item)
		if changed[i] {
			res.Updated = append(res.Updated, item)
		}
	}
	return res
}

// matching returns indexes of items matching name, soonest expiry first.
func matching(items []models.InventoryIngredient, name string, m matcher.Matcher) []int {
	var idx []int
	for i, item := range items {
		if m.Match(name, item.Name) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := items[idx[a]].ExpiryDate, items[idx[b]].ExpiryDate
		switch {
		case ea == nil:
			return false
		case eb == nil:
			return true
		default:
			return ea.Before(*eb)
		}
	})
	return idx
}
