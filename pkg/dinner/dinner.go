package dinner

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/korjavin/freshfridge/pkg/availability"
	"github.com/korjavin/freshfridge/pkg/fridge"
	"github.com/korjavin/freshfridge/pkg/ingest"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/storage"
)

//go:embed data/recipes.json
var seedRecipes []byte

// GeneratedAuthor is stamped on recipes written by the model.
const GeneratedAuthor = "AI"

// RecipeGenerator writes a recipe that uses only the given ingredients.
type RecipeGenerator interface {
	GenerateRecipe(ctx context.Context, available []string, preference string) (*models.Recipe, error)
}

// Service provides recipe corpus and recommendation functionality
type Service struct {
	store         *storage.Store
	fridgeService *fridge.Service
	generator     RecipeGenerator
	engine        *availability.Engine
	logger        *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher makes recommendations match names with m.
func WithMatcher(m matcher.Matcher) Option {
	return func(s *Service) { s.engine = availability.New(availability.WithMatcher(m)) }
}

// New creates a new dinner service. generator may be nil, in which case
// Generate fails.
func New(store *storage.Store, fridgeService *fridge.Service, generator RecipeGenerator, opts ...Option) *Service {
	s := &Service{
		store:         store,
		fridgeService: fridgeService,
		generator:     generator,
		engine:        availability.New(),
		logger:        logger.New("dinner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func recipeKey(id string) string {
	return "recipe:" + id
}

// seededKey records when the built-in recipes were written.
const seededKey = "meta:recipes_seeded"

// Recipes returns the whole recipe corpus, seeding it on first use.
func (s *Service) Recipes() ([]models.Recipe, error) {
	if err := s.ensureSeeded(); err != nil {
		return nil, err
	}

	keys, err := s.store.List("recipe:")
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]models.Recipe, 0, len(keys))
	for _, key := range keys {
		var recipe models.Recipe
		if err := s.store.Get(key, &recipe); err != nil {
			s.logger.Error("Failed to get recipe %s: %v", key, err)
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (s *Service) ensureSeeded() error {
	var seededAt time.Time
	err := s.store.Get(seededKey, &seededAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to check recipe seed: %w", err)
	}
	return s.seed()
}

func (s *Service) seed() error {
	var recipes []models.Recipe
	if err := json.Unmarshal(seedRecipes, &recipes); err != nil {
		return fmt.Errorf("failed to decode seed recipes: %w", err)
	}

	now := time.Now()
	values := make(map[string]interface{}, len(recipes)+1)
	for i := range recipes {
		recipes[i].CreatedAt = now
		values[recipeKey(recipes[i].ID)] = recipes[i]
	}
	values[seededKey] = now
	if err := s.store.SetMany(values); err != nil {
		return fmt.Errorf("failed to seed recipes: %w", err)
	}

	s.logger.Info("Seeded %d recipes", len(recipes))
	return nil
}

// GetRecipe returns one recipe by id.
func (s *Service) GetRecipe(id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.store.Get(recipeKey(id), &recipe); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// FindRecipe looks a recipe up by id, then by name.
func (s *Service) FindRecipe(query string) (*models.Recipe, error) {
	query = strings.TrimSpace(query)
	if recipe, err := s.GetRecipe(query); err == nil {
		return recipe, nil
	}

	recipes, err := s.Recipes()
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		if matcher.Matches(query, recipes[i].Name) {
			return &recipes[i], nil
		}
	}
	return nil, models.ErrRecipeNotFound
}

// SaveRecipe normalises and stores a recipe, assigning an id when it has
// none. A recipe must name at least one ingredient.
func (s *Service) SaveRecipe(recipe *models.Recipe) (*models.Recipe, error) {
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe is nil", models.ErrInvalidInput)
	}

	r := *recipe
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, fmt.Errorf("%w: recipe has no name", models.ErrInvalidInput)
	}

	ingredients := make([]models.RecipeIngredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		req := ingest.Requirement(ing.Name, ing.Quantity)
		if req.Name != "" {
			ingredients = append(ingredients, req)
		}
	}
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: recipe %s has no ingredients", models.ErrInvalidInput, r.Name)
	}
	r.Ingredients = ingredients

	if r.ID == "" {
		r.ID = ingest.NewID()
	}
	if r.Difficulty < 1 {
		r.Difficulty = 1
	} else if r.Difficulty > 5 {
		r.Difficulty = 5
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	if err := s.store.Set(recipeKey(r.ID), r); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	return &r, nil
}

// Recommend ranks the corpus against the user's fridge, most complete
// first, and returns at most limit recipes.
func (s *Service) Recommend(userID int64, limit int) ([]availability.Ranked, error) {
	recipes, err := s.Recipes()
	if err != nil {
		return nil, err
	}
	inventory, err := s.fridgeService.ListIngredients(userID)
	if err != nil {
		return nil, err
	}

	ranked := s.engine.Rank(recipes, inventory)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Check scores one recipe against the user's fridge.
func (s *Service) Check(userID int64, recipe *models.Recipe) (availability.Result, error) {
	if recipe == nil {
		return availability.Result{}, fmt.Errorf("%w: recipe is nil", models.ErrInvalidInput)
	}
	inventory, err := s.fridgeService.ListIngredients(userID)
	if err != nil {
		return availability.Result{}, err
	}
	return s.engine.Compute(*recipe, inventory), nil
}

// Generate asks the generator for a recipe built from what the user has,
// saves it to the corpus and returns it with its availability.
func (s *Service) Generate(ctx context.Context, userID int64, preference string) (*models.Recipe, availability.Result, error) {
	if s.generator == nil {
		return nil, availability.Result{}, errors.New("recipe generation is not configured")
	}

	inventory, err := s.fridgeService.ListIngredients(userID)
	if err != nil {
		return nil, availability.Result{}, err
	}
	var names []string
	seen := make(map[string]bool)
	for _, ing := range inventory {
		key := strings.ToLower(ing.Name)
		if ing.Available() && !seen[key] {
			seen[key] = true
			names = append(names, ing.Name)
		}
	}
	if len(names) == 0 {
		return nil, availability.Result{}, fmt.Errorf("%w: the fridge is empty", models.ErrInvalidInput)
	}

	s.logger.Info("Generating recipe for user %d from %d ingredients", userID, len(names))
	generated, err := s.generator.GenerateRecipe(ctx, names, preference)
	if err != nil {
		return nil, availability.Result{}, fmt.Errorf("failed to generate recipe: %w", err)
	}
	if generated == nil {
		return nil, availability.Result{}, errors.New("generator returned no recipe")
	}

	generated.ID = ""
	generated.Author = GeneratedAuthor
	recipe, err := s.SaveRecipe(generated)
	if err != nil {
		return nil, availability.Result{}, err
	}
	return recipe, s.engine.Compute(*recipe, inventory), nil
}
