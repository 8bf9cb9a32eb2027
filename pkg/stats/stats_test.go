package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/storage"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestApply(t *testing.T) {
	var st models.CookingStats
	at := time.Date(2026, 10, 18, 19, 0, 0, 0, time.UTC)

	Apply(&st, "김치볶음밥", map[string]float64{"김치": 1, "계란": 2, "파": 0}, at)
	Apply(&st, "김치볶음밥", map[string]float64{"김치": 0.5, "밥": -1}, at)

	assert.Equal(t, 2, st.TotalCooked)
	assert.Equal(t, 2, st.RecipeCounts["김치볶음밥"])
	assert.Equal(t, map[string]float64{"김치": 1.5, "계란": 2}, st.Consumed)
	assert.Equal(t, at, st.LastCookedAt)
}

func TestGetStatisticsForNewUser(t *testing.T) {
	s := newService(t)

	st, err := s.GetStatistics(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), st.UserID)
	assert.Zero(t, st.TotalCooked)
	assert.NotNil(t, st.RecipeCounts)
}

func TestRecordCookingAndTopRecipes(t *testing.T) {
	s := newService(t)

	for _, name := range []string{"된장찌개", "김치볶음밥", "된장찌개", "계란말이", "김치볶음밥", "된장찌개"} {
		require.NoError(t, s.RecordCooking(7, name, nil))
	}

	top, err := s.TopRecipes(7, 2)
	require.NoError(t, err)
	assert.Equal(t, []models.RecipeCount{{Name: "된장찌개", Count: 3}, {Name: "김치볶음밥", Count: 2}}, top)

	st, err := s.GetStatistics(7)
	require.NoError(t, err)
	assert.Equal(t, 6, st.TotalCooked)
}
