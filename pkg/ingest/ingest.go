// Package ingest normalises what the outside world hands the bot (typed
// ingredient lists, receipt extractions, model-written recipe lines) into the
// canonical records used by the rest of the module.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/quantity"
)

// DefaultUnit is used when an entry names no unit.
const DefaultUnit = "개"

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// CleanName trims a name and drops a trailing parenthetical note such as
// "당근 (중간 크기)".
func CleanName(name string) string {
	if i := strings.Index(name, "("); i > 0 {
		name = name[:i]
	}
	return strings.Join(strings.Fields(name), " ")
}

// Requirement builds a recipe requirement from a name and a quantity text.
// Producers sometimes put both into the name ("당근 1/2개"); when the
// quantity text is empty the name is split with the quantity parser.
func Requirement(name, quantityText string) models.RecipeIngredient {
	name = CleanName(name)
	quantityText = strings.TrimSpace(quantityText)

	if quantityText == "" {
		if q, ok := quantity.Parse(name); ok && q.Name != "" && (q.HasMagnitude || q.UnitToken != "") {
			return models.RecipeIngredient{
				Name:     q.Name,
				Quantity: strings.TrimSpace(strings.TrimPrefix(name, q.Name)),
			}
		}
	}
	return models.RecipeIngredient{Name: name, Quantity: quantityText}
}

// Requirements applies Requirement to free-form lines and drops empty ones.
func Requirements(lines []string) []models.RecipeIngredient {
	out := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		req := Requirement(line, "")
		if req.Name != "" {
			out = append(out, req)
		}
	}
	return out
}

// FromReceipt converts extracted receipt lines to inventory records.
// Quantities are rounded to the 0.5 step and never fall below one step.
// A missing or unreadable purchase date becomes today; a missing or
// unreadable expiry date leaves the item without one.
func FromReceipt(items []models.ReceiptItem, now time.Time) []models.InventoryIngredient {
	loc := now.Location()
	today := midnight(now)

	out := make([]models.InventoryIngredient, 0, len(items))
	for _, item := range items {
		name := CleanName(item.Name)
		if name == "" {
			continue
		}

		qty := models.RoundToStep(item.Quantity)
		if qty < models.QuantityStep {
			qty = models.QuantityStep
		}
		unit := strings.TrimSpace(item.Unit)
		if unit == "" {
			unit = DefaultUnit
		}

		purchased := today
		if d, err := models.ParseDate(item.PurchaseDate, loc); err == nil {
			purchased = d
		}

		ing := models.InventoryIngredient{
			ID:           NewID(),
			Name:         name,
			Category:     models.ParseCategory(item.Category),
			Quantity:     qty,
			Unit:         unit,
			PurchaseDate: &purchased,
			AddedAt:      now,
			UpdatedAt:    now,
		}
		if d, err := models.ParseDate(item.ExpiryDate, loc); err == nil {
			ing.ExpiryDate = &d
		}
		out = append(out, ing)
	}
	return out
}

// ParseManualEntry reads typed ingredient entries, one per line or separated
// by commas:
//
//	당근 2 개 2026-10-25
//	우유 1l #유제품
//	양파
//
// Quantity defaults to 1 and unit to 개; an optional YYYY-MM-DD token sets
// the expiry date and an optional #tag sets the category. Entries that cannot
// be read are returned as errors alongside the ones that could.
func ParseManualEntry(text string, now time.Time) ([]models.InventoryIngredient, []error) {
	var (
		out  []models.InventoryIngredient
		errs []error
	)
	today := midnight(now)

	for _, entry := range splitEntries(text) {
		ing, err := parseEntry(entry, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ing.PurchaseDate = &today
		out = append(out, ing)
	}
	return out, errs
}

func splitEntries(text string) []string {
	var entries []string
	for _, line := range strings.Split(text, "\n") {
		for _, part := range strings.Split(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				entries = append(entries, part)
			}
		}
	}
	return entries
}

func parseEntry(entry string, now time.Time) (models.InventoryIngredient, error) {
	ing := models.InventoryIngredient{
		ID:        NewID(),
		Category:  models.CategoryOther,
		Quantity:  1,
		Unit:      DefaultUnit,
		AddedAt:   now,
		UpdatedAt: now,
	}

	var rest []string
	for _, tok := range strings.Fields(entry) {
		if strings.HasPrefix(tok, "#") && len(tok) > 1 {
			ing.Category = models.ParseCategory(tok[1:])
			continue
		}
		if d, err := models.ParseDate(tok, now.Location()); err == nil {
			ing.ExpiryDate = &d
			continue
		}
		rest = append(rest, tok)
	}

	q, ok := quantity.Parse(strings.Join(rest, " "))
	if !ok || q.Name == "" {
		return ing, fmt.Errorf("%w: cannot read %q", models.ErrInvalidInput, entry)
	}
	ing.Name = CleanName(q.Name)

	if q.HasMagnitude {
		ing.Quantity = models.RoundToStep(q.Magnitude)
		if ing.Quantity <= 0 {
			return ing, fmt.Errorf("%w: quantity of %q must be positive", models.ErrInvalidInput, ing.Name)
		}
	}
	if q.UnitToken != "" {
		ing.Unit = q.UnitToken
	}
	return ing, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
