package fridge

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/reconcile"
	"github.com/korjavin/freshfridge/pkg/stats"
	"github.com/korjavin/freshfridge/pkg/storage"
)

var today = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...Option) (*Service, *storage.Store) {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opts = append([]Option{WithClock(func() time.Time { return today.Add(19 * time.Hour) })}, opts...)
	return New(store, opts...), store
}

func expiring(days int) *time.Time {
	d := today.AddDate(0, 0, days)
	return &d
}

func TestGetFridgeForNewUser(t *testing.T) {
	s, _ := newService(t)

	fridge, err := s.GetFridge(1)
	require.NoError(t, err)
	assert.Equal(t, "fridge:1", fridge.ID)
	assert.Empty(t, fridge.Ingredients)

	users, err := s.Users()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestAddAndListIngredients(t *testing.T) {
	s, _ := newService(t)

	_, err := s.AddBatch(1, []models.InventoryIngredient{
		{Name: "양파", Quantity: 2, Unit: "개"},
		{Name: "우유", Quantity: 1, Unit: "l", ExpiryDate: expiring(5)},
		{Name: "당근", Quantity: 1, Unit: "개", ExpiryDate: expiring(2)},
		{Name: "감자", Quantity: 3, Unit: "개"},
	})
	require.NoError(t, err)

	list, err := s.ListIngredients(1)
	require.NoError(t, err)
	var names []string
	for _, ing := range list {
		names = append(names, ing.Name)
		assert.NotEmpty(t, ing.ID)
		assert.Equal(t, models.CategoryOther, ing.Category)
	}
	assert.Equal(t, []string{"당근", "우유", "감자", "양파"}, names)

	users, err := s.Users()
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, users)
}

func TestAddBatchRejectsInvalidIngredients(t *testing.T) {
	s, _ := newService(t)

	_, err := s.AddBatch(1, []models.InventoryIngredient{
		{Name: "양파", Quantity: 2},
		{Name: " ", Quantity: 1},
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.AddIngredient(1, models.InventoryIngredient{Name: "우유", Quantity: -1})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	list, err := s.ListIngredients(1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddBatchRoundsToStep(t *testing.T) {
	s, _ := newService(t)

	added, err := s.AddBatch(1, []models.InventoryIngredient{
		{Name: "우유", Quantity: 0.7},
		{Name: "계란", Quantity: 9.8},
		{Name: "버터", Quantity: 1.2},
	})
	require.NoError(t, err)
	require.Len(t, added, 3)
	assert.Equal(t, 0.5, added[0].Quantity)
	assert.Equal(t, 10.0, added[1].Quantity)
	assert.Equal(t, 1.0, added[2].Quantity)

	list, err := s.ListIngredients(1)
	require.NoError(t, err)
	for _, ing := range list {
		assert.Equal(t, models.RoundToStep(ing.Quantity), ing.Quantity, ing.Name)
	}

	_, err = s.AddIngredient(1, models.InventoryIngredient{Name: "치즈", Quantity: math.NaN()})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSetQuantityAndRemove(t *testing.T) {
	s, _ := newService(t)

	carrot, err := s.AddIngredient(1, models.InventoryIngredient{Name: "당근", Quantity: 2})
	require.NoError(t, err)
	_, err = s.AddIngredient(1, models.InventoryIngredient{Name: "당근", Quantity: 1, ExpiryDate: expiring(1)})
	require.NoError(t, err)

	got, err := s.SetQuantity(1, carrot.ID, 0.7)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Quantity)

	_, err = s.SetQuantity(1, "missing", 1)
	assert.ErrorIs(t, err, models.ErrIngredientNotFound)

	removed, err := s.RemoveIngredient(1, carrot.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	removed, err = s.RemoveIngredient(1, " 당근 ")
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	_, err = s.RemoveIngredient(1, "당근")
	assert.ErrorIs(t, err, models.ErrIngredientNotFound)
}

func TestExpiringSoon(t *testing.T) {
	s, _ := newService(t)

	_, err := s.AddBatch(1, []models.InventoryIngredient{
		{Name: "두부", Quantity: 1, ExpiryDate: expiring(-1)},
		{Name: "우유", Quantity: 1, ExpiryDate: expiring(3)},
		{Name: "당근", Quantity: 1, ExpiryDate: expiring(0)},
		{Name: "치즈", Quantity: 1, ExpiryDate: expiring(10)},
		{Name: "계란", Quantity: 0, ExpiryDate: expiring(1)},
		{Name: "쌀", Quantity: 5},
	})
	require.NoError(t, err)

	soon, err := s.ExpiringSoon(1, today, 3)
	require.NoError(t, err)
	var names []string
	for _, ing := range soon {
		names = append(names, ing.Name)
	}
	assert.Equal(t, []string{"두부", "당근", "우유"}, names)
}

func stirFryInventory() []models.InventoryIngredient {
	return []models.InventoryIngredient{
		{Name: "돼지고기", Quantity: 1, Unit: "개"},
		{Name: "양파", Quantity: 2, Unit: "개"},
		{Name: "계란", Quantity: 1, Unit: "개"},
	}
}

func TestCompleteCookingRetainsZero(t *testing.T) {
	s, store := newService(t)
	_, err := s.AddBatch(1, stirFryInventory())
	require.NoError(t, err)
	require.NoError(t, store.Set("cooking:1", "pending"))

	res, err := s.CompleteCooking(1, "제육볶음", []models.UsedIngredient{
		{Name: "돼지고기", Quantity: 1},
		{Name: "양파", Quantity: 0.5},
		{Name: "고추장", Quantity: 1},
	}, "cooking:1")
	require.NoError(t, err)
	assert.Len(t, res.Updated, 2)
	assert.Equal(t, []models.UsedIngredient{{Name: "고추장", Quantity: 1}}, res.Unmatched)

	list, err := s.ListIngredients(1)
	require.NoError(t, err)
	qty := make(map[string]float64)
	for _, ing := range list {
		qty[ing.Name] = ing.Quantity
	}
	assert.Equal(t, map[string]float64{"돼지고기": 0, "양파": 1.5, "계란": 1}, qty)

	var st models.CookingStats
	require.NoError(t, store.Get(stats.Key(1), &st))
	assert.Equal(t, 1, st.TotalCooked)
	assert.Equal(t, 1, st.RecipeCounts["제육볶음"])
	assert.Equal(t, map[string]float64{"돼지고기": 1, "양파": 0.5}, st.Consumed)

	var pending string
	assert.ErrorIs(t, store.Get("cooking:1", &pending), storage.ErrNotFound)
}

func TestCompleteCookingDeletesZero(t *testing.T) {
	s, _ := newService(t, WithPolicy(reconcile.DeleteZero))
	_, err := s.AddBatch(1, stirFryInventory())
	require.NoError(t, err)

	res, err := s.CompleteCooking(1, "계란찜", []models.UsedIngredient{{Name: "계란", Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, res.Deleted, 1)
	assert.Equal(t, "계란", res.Deleted[0].Name)

	list, err := s.ListIngredients(1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, ing := range list {
		assert.NotEqual(t, "계란", ing.Name)
	}
}

func TestCompleteCookingUsesSoonestBatchFirst(t *testing.T) {
	s, _ := newService(t)
	_, err := s.AddBatch(1, []models.InventoryIngredient{
		{Name: "우유", Quantity: 1, ExpiryDate: expiring(7)},
		{Name: "우유", Quantity: 1, ExpiryDate: expiring(1)},
		{Name: "우유", Quantity: 1},
	})
	require.NoError(t, err)

	_, err = s.CompleteCooking(1, "라떼", []models.UsedIngredient{{Name: "우유", Quantity: 1.5}})
	require.NoError(t, err)

	list, err := s.ListIngredients(1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 0.0, list[0].Quantity)
	assert.Equal(t, 0.5, list[1].Quantity)
	assert.Equal(t, 1.0, list[2].Quantity)
}
