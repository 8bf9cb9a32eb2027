package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/storage"
)

// Service provides statistics functionality
type Service struct {
	store  *storage.Store
	logger *logger.Logger
}

// New creates a new statistics service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("stats"),
	}
}

// Key is the storage key of a user's statistics.
func Key(userID int64) string {
	return fmt.Sprintf("stats:%d", userID)
}

// Empty returns statistics for a user who has not cooked yet.
func Empty(userID int64) models.CookingStats {
	return models.CookingStats{
		UserID:       userID,
		RecipeCounts: make(map[string]int),
		Consumed:     make(map[string]float64),
	}
}

// Apply records one cooked recipe and the amounts it actually took out of
// the inventory. Zero and negative amounts are ignored.
func Apply(st *models.CookingStats, recipeName string, consumed map[string]float64, at time.Time) {
	if st.RecipeCounts == nil {
		st.RecipeCounts = make(map[string]int)
	}
	if st.Consumed == nil {
		st.Consumed = make(map[string]float64)
	}

	st.TotalCooked++
	if name := strings.TrimSpace(recipeName); name != "" {
		st.RecipeCounts[name]++
	}
	for name, amount := range consumed {
		if amount > 0 {
			st.Consumed[name] += amount
		}
	}
	st.LastCookedAt = at
}

// GetStatistics retrieves the statistics for a user. Users without history
// get empty statistics; nothing is written.
func (s *Service) GetStatistics(userID int64) (*models.CookingStats, error) {
	st := Empty(userID)
	err := s.store.Get(Key(userID), &st)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	return &st, nil
}

// RecordCooking stores one cooked recipe on its own. Cooking completed
// through the fridge service is recorded together with the inventory change
// instead.
func (s *Service) RecordCooking(userID int64, recipeName string, consumed map[string]float64) error {
	st, err := s.GetStatistics(userID)
	if err != nil {
		return err
	}
	Apply(st, recipeName, consumed, time.Now())

	if err := s.store.Set(Key(userID), st); err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	s.logger.Debug("Recorded %q for user %d", recipeName, userID)
	return nil
}

// TopRecipes returns the most cooked recipes, ties broken by name.
func (s *Service) TopRecipes(userID int64, limit int) ([]models.RecipeCount, error) {
	st, err := s.GetStatistics(userID)
	if err != nil {
		return nil, err
	}

	// Convert map to slice for sorting
	recipes := make([]models.RecipeCount, 0, len(st.RecipeCounts))
	for name, count := range st.RecipeCounts {
		recipes = append(recipes, models.RecipeCount{Name: name, Count: count})
	}

	sort.Slice(recipes, func(i, j int) bool {
		if recipes[i].Count != recipes[j].Count {
			return recipes[i].Count > recipes[j].Count
		}
		return recipes[i].Name < recipes[j].Name
	})

	// Take the top N recipes
	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}

	return recipes, nil
}
