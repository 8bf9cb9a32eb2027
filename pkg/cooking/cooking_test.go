package cooking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/freshfridge/pkg/fridge"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/stats"
	"github.com/korjavin/freshfridge/pkg/storage"
)

func TestDefaultUsage(t *testing.T) {
	tests := []struct {
		requirement, unit string
		owned, want       float64
	}{
		{"1/2개", "개", 2, 0.5},
		{"3개", "개", 2, 2},
		{"2쪽", "개", 5, 2},
		{"300g", "g", 500, 300},
		{"300g", "개", 1, 0},
		{"2큰술", "병", 1, 0},
		{"조금", "개", 1, 0},
		{"", "개", 1, 0},
		{"1~2개", "개", 3, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.requirement, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultUsage(tt.requirement, tt.unit, tt.owned))
		})
	}
}

func newService(t *testing.T) (*Service, *fridge.Service, *storage.Store) {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fs := fridge.New(store)
	_, err = fs.AddBatch(1, []models.InventoryIngredient{
		{Name: "돼지고기", Quantity: 300, Unit: "g"},
		{Name: "양파", Quantity: 2, Unit: "개"},
		{Name: "대파", Quantity: 0, Unit: "개"},
		{Name: "고추장", Quantity: 1, Unit: "통"},
	})
	require.NoError(t, err)
	return New(store, fs, nil), fs, store
}

var jeyuk = &models.Recipe{
	ID:   "seed-jeyuk",
	Name: "제육볶음",
	Ingredients: []models.RecipeIngredient{
		{Name: "돼지고기", Quantity: "300g"},
		{Name: "양파", Quantity: "1/2개"},
		{Name: "대파", Quantity: "1대"},
		{Name: "고추장", Quantity: "2큰술"},
		{Name: "양파", Quantity: "1개"},
		{Name: "설탕", Quantity: "1큰술"},
	},
}

func TestStartBuildsOwnedEntries(t *testing.T) {
	s, _, _ := newService(t)

	session, err := s.Start(1, jeyuk)
	require.NoError(t, err)
	assert.Equal(t, "제육볶음", session.RecipeName)
	assert.Equal(t, []models.CookingEntry{
		{Name: "돼지고기", Quantity: 300, Owned: 300, Unit: "g"},
		{Name: "양파", Quantity: 0.5, Owned: 2, Unit: "개"},
		{Name: "고추장", Quantity: 0, Owned: 1, Unit: "통"},
	}, session.Entries)

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = s.Start(1, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAdjustClampsToOwned(t *testing.T) {
	s, _, _ := newService(t)
	_, err := s.Start(1, jeyuk)
	require.NoError(t, err)

	session, err := s.Adjust(1, 1, Step)
	require.NoError(t, err)
	assert.Equal(t, 1.0, session.Entries[1].Quantity)

	for i := 0; i < 5; i++ {
		session, err = s.Adjust(1, 1, Step)
		require.NoError(t, err)
	}
	assert.Equal(t, 2.0, session.Entries[1].Quantity)

	session, err = s.Adjust(1, 2, -Step)
	require.NoError(t, err)
	assert.Equal(t, 0.0, session.Entries[2].Quantity)

	_, err = s.Adjust(1, 7, Step)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestConfirmUpdatesFridgeAndClosesSession(t *testing.T) {
	s, fs, store := newService(t)
	_, err := s.Start(1, jeyuk)
	require.NoError(t, err)
	_, err = s.Adjust(1, 2, Step)
	require.NoError(t, err)
	require.NoError(t, s.SetMessageID(1, 77))

	session, res, err := s.Confirm(1)
	require.NoError(t, err)
	assert.Equal(t, 77, session.MessageID)
	assert.Len(t, res.Updated, 3)

	list, err := fs.ListIngredients(1)
	require.NoError(t, err)
	qty := make(map[string]float64)
	for _, ing := range list {
		qty[ing.Name] = ing.Quantity
	}
	assert.Equal(t, map[string]float64{"돼지고기": 0, "양파": 1.5, "대파": 0, "고추장": 0.5}, qty)

	var st models.CookingStats
	require.NoError(t, store.Get(stats.Key(1), &st))
	assert.Equal(t, 1, st.RecipeCounts["제육볶음"])

	_, err = s.Get(1)
	assert.ErrorIs(t, err, models.ErrNoSession)
	_, _, err = s.Confirm(1)
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestCancel(t *testing.T) {
	s, fs, _ := newService(t)
	_, err := s.Start(1, jeyuk)
	require.NoError(t, err)

	require.NoError(t, s.Cancel(1))
	_, err = s.Get(1)
	assert.ErrorIs(t, err, models.ErrNoSession)
	assert.ErrorIs(t, s.Cancel(1), models.ErrNoSession)

	list, err := fs.ListIngredients(1)
	require.NoError(t, err)
	for _, ing := range list {
		if ing.Name == "양파" {
			assert.Equal(t, 2.0, ing.Quantity)
		}
	}
}
