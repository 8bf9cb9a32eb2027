package fridge

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/korjavin/freshfridge/pkg/ingest"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/reconcile"
	"github.com/korjavin/freshfridge/pkg/stats"
	"github.com/korjavin/freshfridge/pkg/storage"
)

// Service provides fridge management functionality
type Service struct {
	store   *storage.Store
	logger  *logger.Logger
	policy  reconcile.Policy
	matcher matcher.Matcher
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy selects what happens to ingredients used up by cooking.
func WithPolicy(p reconcile.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithMatcher replaces the exact name matcher used when cooking.
func WithMatcher(m matcher.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new fridge service
func New(store *storage.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  logger.New("fridge"),
		policy:  reconcile.RetainZero,
		matcher: matcher.Exact{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key is the storage key of a user's fridge.
func Key(userID int64) string {
	return fmt.Sprintf("fridge:%d", userID)
}

// GetFridge retrieves the fridge for a user. A user without one gets an
// empty fridge that is not saved until something is added.
func (s *Service) GetFridge(userID int64) (*models.Fridge, error) {
	fridge := models.Fridge{
		ID:          Key(userID),
		UserID:      userID,
		Ingredients: make(map[string]models.InventoryIngredient),
	}
	if err := s.store.Get(Key(userID), &fridge); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load fridge: %w", err)
	}
	if fridge.Ingredients == nil {
		fridge.Ingredients = make(map[string]models.InventoryIngredient)
	}
	return &fridge, nil
}

func (s *Service) save(fridge *models.Fridge) error {
	fridge.LastUpdated = s.now()
	if err := s.store.Set(fridge.ID, fridge); err != nil {
		return fmt.Errorf("failed to save fridge: %w", err)
	}
	return nil
}

// AddIngredient adds an ingredient to the fridge and returns it with its id
// and timestamps filled in.
func (s *Service) AddIngredient(userID int64, ing models.InventoryIngredient) (models.InventoryIngredient, error) {
	added, err := s.AddBatch(userID, []models.InventoryIngredient{ing})
	if err != nil {
		return models.InventoryIngredient{}, err
	}
	return added[0], nil
}

// AddBatch adds several ingredients in one write, e.g. everything read from
// a receipt. Nothing is stored if any ingredient is invalid.
func (s *Service) AddBatch(userID int64, ings []models.InventoryIngredient) ([]models.InventoryIngredient, error) {
	fridge, err := s.GetFridge(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	added := make([]models.InventoryIngredient, 0, len(ings))
	for _, ing := range ings {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			return nil, fmt.Errorf("%w: ingredient name is empty", models.ErrInvalidInput)
		}
		if ing.Quantity < 0 || math.IsNaN(ing.Quantity) {
			return nil, fmt.Errorf("%w: quantity of %s is not a valid amount", models.ErrInvalidInput, ing.Name)
		}
		ing.Quantity = models.RoundToStep(ing.Quantity)
		if ing.ID == "" {
			ing.ID = ingest.NewID()
		}
		if ing.Category == "" {
			ing.Category = models.CategoryOther
		}
		if ing.AddedAt.IsZero() {
			ing.AddedAt = now
		}
		ing.UpdatedAt = now
		fridge.Ingredients[ing.ID] = ing
		added = append(added, ing)
	}

	if err := s.save(fridge); err != nil {
		return nil, err
	}
	s.logger.Info("Added %d ingredient(s) for user %d", len(added), userID)
	return added, nil
}

// SetQuantity overwrites the quantity of one ingredient.
func (s *Service) SetQuantity(userID int64, id string, quantity float64) (models.InventoryIngredient, error) {
	if quantity < 0 {
		return models.InventoryIngredient{}, fmt.Errorf("%w: quantity is negative", models.ErrInvalidInput)
	}

	fridge, err := s.GetFridge(userID)
	if err != nil {
		return models.InventoryIngredient{}, err
	}
	ing, ok := fridge.Ingredients[id]
	if !ok {
		return models.InventoryIngredient{}, models.ErrIngredientNotFound
	}

	ing.Quantity = models.RoundToStep(quantity)
	ing.UpdatedAt = s.now()
	fridge.Ingredients[id] = ing
	return ing, s.save(fridge)
}

// RemoveIngredient removes an ingredient by id, or every ingredient whose
// name matches when no id does. It returns the removed ingredients.
func (s *Service) RemoveIngredient(userID int64, idOrName string) ([]models.InventoryIngredient, error) {
	fridge, err := s.GetFridge(userID)
	if err != nil {
		return nil, err
	}

	var removed []models.InventoryIngredient
	if ing, ok := fridge.Ingredients[idOrName]; ok {
		removed = append(removed, ing)
	} else {
		for _, ing := range sorted(fridge.Ingredients) {
			if s.matcher.Match(idOrName, ing.Name) {
				removed = append(removed, ing)
			}
		}
	}
	if len(removed) == 0 {
		return nil, models.ErrIngredientNotFound
	}

	for _, ing := range removed {
		delete(fridge.Ingredients, ing.ID)
	}
	if err := s.save(fridge); err != nil {
		return nil, err
	}
	return removed, nil
}

// ListIngredients returns every ingredient in the fridge, soonest expiry
// first, then by name.
func (s *Service) ListIngredients(userID int64) ([]models.InventoryIngredient, error) {
	fridge, err := s.GetFridge(userID)
	if err != nil {
		return nil, err
	}
	return sorted(fridge.Ingredients), nil
}

// ExpiringSoon returns ingredients that expire within days of today or have
// already expired. Used-up ingredients are left out.
func (s *Service) ExpiringSoon(userID int64, today time.Time, days int) ([]models.InventoryIngredient, error) {
	all, err := s.ListIngredients(userID)
	if err != nil {
		return nil, err
	}

	var out []models.InventoryIngredient
	for _, ing := range all {
		if ing.Available() && ing.DaysRemaining(today) <= days {
			out = append(out, ing)
		}
	}
	return out, nil
}

// ResetFridge empties the fridge for a user
func (s *Service) ResetFridge(userID int64) error {
	if err := s.store.Delete(Key(userID)); err != nil {
		return fmt.Errorf("failed to reset fridge: %w", err)
	}
	return nil
}

// Users returns the ids of every user with a stored fridge.
func (s *Service) Users() ([]int64, error) {
	keys, err := s.store.List("fridge:")
	if err != nil {
		return nil, err
	}

	users := make([]int64, 0, len(keys))
	for _, key := range keys {
		var id int64
		if _, err := fmt.Sscanf(key, "fridge:%d", &id); err != nil {
			s.logger.Warn("Skipping malformed fridge key %q", key)
			continue
		}
		users = append(users, id)
	}
	return users, nil
}

// CompleteCooking subtracts what was used for a recipe from the fridge and
// adds the cooking to the user's statistics in the same write. Keys listed
// in clear, such as the pending cooking session, are deleted in that write
// too.
func (s *Service) CompleteCooking(userID int64, recipeName string, used []models.UsedIngredient, clear ...string) (reconcile.Result, error) {
	fridge, err := s.GetFridge(userID)
	if err != nil {
		return reconcile.Result{}, err
	}
	var st models.CookingStats
	if err := s.store.Get(stats.Key(userID), &st); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return reconcile.Result{}, fmt.Errorf("failed to load statistics: %w", err)
		}
		st = stats.Empty(userID)
	}

	before := sorted(fridge.Ingredients)
	res := reconcile.Reconcile(before, used,
		reconcile.WithPolicy(s.policy),
		reconcile.WithMatcher(s.matcher),
	)

	now := s.now()
	consumed := make(map[string]float64)
	previous := make(map[string]float64, len(before))
	for _, ing := range before {
		previous[ing.ID] = ing.Quantity
	}
	for _, ing := range res.Updated {
		consumed[ing.Name] += previous[ing.ID] - ing.Quantity
	}
	for _, ing := range res.Deleted {
		consumed[ing.Name] += previous[ing.ID]
	}

	fridge.Ingredients = make(map[string]models.InventoryIngredient, len(res.Inventory))
	updated := make(map[string]bool, len(res.Updated))
	for _, ing := range res.Updated {
		updated[ing.ID] = true
	}
	for _, ing := range res.Inventory {
		if updated[ing.ID] {
			ing.UpdatedAt = now
		}
		fridge.Ingredients[ing.ID] = ing
	}
	fridge.LastUpdated = now
	stats.Apply(&st, recipeName, consumed, now)

	err = s.store.SetMany(map[string]interface{}{
		fridge.ID:          fridge,
		stats.Key(userID): st,
	}, clear...)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("failed to save cooking result: %w", err)
	}

	s.logger.Info("User %d cooked %q: %d updated, %d deleted, %d unmatched",
		userID, recipeName, len(res.Updated), len(res.Deleted), len(res.Unmatched))
	return res, nil
}

func sorted(ingredients map[string]models.InventoryIngredient) []models.InventoryIngredient {
	out := make([]models.InventoryIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}
