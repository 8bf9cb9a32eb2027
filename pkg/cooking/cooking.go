// Package cooking keeps the pending "I cooked this" confirmation for each
// user: which owned ingredients the recipe used and how much of each, as
// adjusted by the user before the fridge is updated.
package cooking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/korjavin/freshfridge/pkg/fridge"
	"github.com/korjavin/freshfridge/pkg/ingest"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/quantity"
	"github.com/korjavin/freshfridge/pkg/reconcile"
	"github.com/korjavin/freshfridge/pkg/storage"
)

// Step is the amount one press of the stepper adds or removes.
const Step = models.QuantityStep

// Service provides cooking session management functionality
type Service struct {
	store         *storage.Store
	fridgeService *fridge.Service
	matcher       matcher.Matcher
	logger        *logger.Logger
}

// New creates a new cooking service. m may be nil for exact name matching.
func New(store *storage.Store, fridgeService *fridge.Service, m matcher.Matcher) *Service {
	if m == nil {
		m = matcher.Exact{}
	}
	return &Service{
		store:         store,
		fridgeService: fridgeService,
		matcher:       m,
		logger:        logger.New("cooking"),
	}
}

// Key is the storage key of a user's pending session.
func Key(userID int64) string {
	return fmt.Sprintf("cooking:%d", userID)
}

// DefaultUsage guesses how much of an owned ingredient a requirement uses:
// the parsed amount when it counts pieces or is in the inventory's unit,
// otherwise nothing. The guess never exceeds what is owned.
func DefaultUsage(requirement, inventoryUnit string, owned float64) float64 {
	q, ok := quantity.Parse(requirement)
	if !ok || !q.HasMagnitude {
		return 0
	}
	if q.Class != quantity.Count && !strings.EqualFold(q.UnitToken, strings.TrimSpace(inventoryUnit)) {
		return 0
	}
	return clamp(models.RoundToStep(q.Magnitude), owned)
}

func clamp(v, owned float64) float64 {
	return math.Max(0, math.Min(v, owned))
}

// Start opens a session for recipe, replacing any pending one. Each
// requirement the user owns becomes one entry; requirements that are not
// owned are left out.
func (s *Service) Start(userID int64, recipe *models.Recipe) (*models.CookingSession, error) {
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe is nil", models.ErrInvalidInput)
	}
	inventory, err := s.fridgeService.ListIngredients(userID)
	if err != nil {
		return nil, err
	}

	session := &models.CookingSession{
		ID:         ingest.NewID(),
		UserID:     userID,
		RecipeID:   recipe.ID,
		RecipeName: recipe.Name,
		Entries:    []models.CookingEntry{},
		StartedAt:  time.Now(),
	}

	seen := make(map[string]bool)
	for _, req := range recipe.Ingredients {
		key := strings.ToLower(strings.TrimSpace(req.Name))
		if seen[key] {
			continue
		}
		seen[key] = true

		var owned float64
		var unit string
		for _, ing := range inventory {
			if ing.Available() && s.matcher.Match(req.Name, ing.Name) {
				if unit == "" {
					unit = ing.Unit
				}
				owned += ing.Quantity
			}
		}
		if owned <= 0 {
			continue
		}

		session.Entries = append(session.Entries, models.CookingEntry{
			Name:     req.Name,
			Quantity: DefaultUsage(req.Quantity, unit, owned),
			Owned:    owned,
			Unit:     unit,
		})
	}

	if err := s.store.Set(Key(userID), session); err != nil {
		return nil, fmt.Errorf("failed to save cooking session: %w", err)
	}
	s.logger.Info("User %d started cooking %q with %d entries", userID, recipe.Name, len(session.Entries))
	return session, nil
}

// Get returns the pending session or models.ErrNoSession.
func (s *Service) Get(userID int64) (*models.CookingSession, error) {
	var session models.CookingSession
	if err := s.store.Get(Key(userID), &session); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.ErrNoSession
		}
		return nil, err
	}
	return &session, nil
}

// Adjust changes one entry by delta, keeping it on the 0.5 grid between
// nothing and everything owned.
func (s *Service) Adjust(userID int64, index int, delta float64) (*models.CookingSession, error) {
	session, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(session.Entries) {
		return nil, fmt.Errorf("%w: no entry %d", models.ErrInvalidInput, index)
	}

	e := &session.Entries[index]
	e.Quantity = clamp(models.RoundToStep(e.Quantity+delta), e.Owned)

	if err := s.store.Set(Key(userID), session); err != nil {
		return nil, fmt.Errorf("failed to save cooking session: %w", err)
	}
	return session, nil
}

// SetMessageID remembers the chat message showing the session so it can be
// edited in place.
func (s *Service) SetMessageID(userID int64, messageID int) error {
	session, err := s.Get(userID)
	if err != nil {
		return err
	}
	session.MessageID = messageID
	return s.store.Set(Key(userID), session)
}

// Confirm applies the session to the fridge and closes it.
func (s *Service) Confirm(userID int64) (*models.CookingSession, reconcile.Result, error) {
	session, err := s.Get(userID)
	if err != nil {
		return nil, reconcile.Result{}, err
	}

	res, err := s.fridgeService.CompleteCooking(userID, session.RecipeName, session.Used(), Key(userID))
	if err != nil {
		return nil, reconcile.Result{}, err
	}
	return session, res, nil
}

// Cancel drops the pending session without touching the fridge.
func (s *Service) Cancel(userID int64) error {
	if _, err := s.Get(userID); err != nil {
		return err
	}
	return s.store.Delete(Key(userID))
}
