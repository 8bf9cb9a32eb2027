package availability

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
)

func recipe(id string, names ...string) models.Recipe {
	r := models.Recipe{ID: id, Name: id}
	for _, n := range names {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{Name: n, Quantity: "1개"})
	}
	return r
}

func stock(pairs ...any) []models.InventoryIngredient {
	var out []models.InventoryIngredient
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.InventoryIngredient{
			ID:       fmt.Sprintf("id-%d", i),
			Name:     pairs[i].(string),
			Quantity: pairs[i+1].(float64),
			Unit:     "개",
		})
	}
	return out
}

var stirFry = models.Recipe{
	ID:   "stir-fry",
	Name: "당근볶음",
	Ingredients: []models.RecipeIngredient{
		{Name: "당근", Quantity: "1개"},
		{Name: "마늘", Quantity: "2쪽"},
		{Name: "간장", Quantity: "1큰술"},
		{Name: "식용유", Quantity: "1큰술"},
	},
}

func TestComputeOnlyCarrotOwned(t *testing.T) {
	res := Compute(stirFry, stock("당근", 2.0))

	assert.Equal(t, 25, res.Ratio)
	assert.Equal(t, []string{"마늘", "간장", "식용유"}, res.Missing)
	assert.Equal(t, []string{"당근"}, res.Available)
}

func TestComputeZeroQuantityCountsAsMissing(t *testing.T) {
	res := Compute(stirFry, stock("당근", 2.0, "마늘", 0.0))

	assert.Equal(t, 25, res.Ratio)
	assert.Equal(t, []string{"마늘", "간장", "식용유"}, res.Missing)
}

func TestComputeFullPossession(t *testing.T) {
	inv := stock("당근", 1.0, "마늘", 0.5, "간장", 1.0, "식용유", 3.0)
	res := Compute(stirFry, inv)

	assert.Equal(t, 100, res.Ratio)
	assert.Empty(t, res.Missing)
}

func TestComputeIgnoresStaleAvailableFlag(t *testing.T) {
	yes := true
	r := models.Recipe{Ingredients: []models.RecipeIngredient{{Name: "두부", Quantity: "1모", Available: &yes}}}

	res := Compute(r, nil)
	assert.Equal(t, 0, res.Ratio)
	assert.Equal(t, []string{"두부"}, res.Missing)
}

func TestComputeCaseInsensitive(t *testing.T) {
	res := Compute(recipe("latte", "Milk", "espresso"), stock("milk", 1.0, " ESPRESSO ", 1.0))
	assert.Equal(t, 100, res.Ratio)
}

func TestComputeKeepsDuplicates(t *testing.T) {
	r := recipe("dup", "계란", "계란", "소금")
	res := Compute(r, stock("소금", 1.0))

	assert.Equal(t, []string{"계란", "계란"}, res.Missing)
	assert.Equal(t, 33, res.Ratio)
}

func TestComputeRounding(t *testing.T) {
	r := recipe("thirds", "a", "b", "c")
	assert.Equal(t, 67, Compute(r, stock("a", 1.0, "b", 1.0)).Ratio)
	assert.Equal(t, 33, Compute(r, stock("a", 1.0)).Ratio)

	r = recipe("eighths", "a", "b", "c", "d", "e", "f", "g", "h")
	// 100 * 1/8 = 12.5 rounds half away from zero.
	assert.Equal(t, 13, Compute(r, stock("a", 1.0)).Ratio)
}

func TestComputeEmptyRecipe(t *testing.T) {
	res := Compute(models.Recipe{Name: "nothing"}, stock("당근", 1.0))
	assert.Equal(t, 0, res.Ratio)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Available)
}

func TestComputeProperties(t *testing.T) {
	recipes := []models.Recipe{
		stirFry,
		recipe("a", "x"),
		recipe("b", "x", "y", "x", "z"),
		recipe("c"),
	}
	inventories := [][]models.InventoryIngredient{
		nil,
		stock("x", 1.0),
		stock("x", 0.0, "y", 2.0),
		stock("당근", 1.0, "마늘", 1.0, "간장", 1.0, "식용유", 1.0, "x", 1.0, "y", 1.0, "z", 1.0),
	}

	for _, r := range recipes {
		for i, inv := range inventories {
			t.Run(fmt.Sprintf("%s/%d", r.ID, i), func(t *testing.T) {
				res := Compute(r, inv)
				assert.GreaterOrEqual(t, res.Ratio, 0)
				assert.LessOrEqual(t, res.Ratio, 100)
				assert.Equal(t, len(r.Ingredients), len(res.Missing)+len(res.Available))
			})
		}
	}
}

func TestEngineWithSynonyms(t *testing.T) {
	r := recipe("pajeon", "대파", "밀가루")
	inv := stock("파", 1.0, "밀가루", 1.0)

	assert.Equal(t, 50, Compute(r, inv).Ratio)

	e := New(WithMatcher(matcher.NewSynonyms([]string{"대파", "파"})))
	assert.Equal(t, 100, e.Compute(r, inv).Ratio)
}

func TestRank(t *testing.T) {
	quarter := recipe("quarter", "a", "b", "c", "d")
	full := recipe("full", "a")
	half := recipe("half", "a", "z")
	input := []models.Recipe{quarter, full, half}
	inv := stock("a", 1.0)

	ranked := Rank(input, inv)

	require.Len(t, ranked, 3)
	assert.Equal(t, []int{100, 50, 25}, ratios(ranked))
	assert.Equal(t, []string{"full", "half", "quarter"}, ids(ranked))
	// Input untouched.
	assert.Equal(t, []string{"quarter", "full", "half"}, []string{input[0].ID, input[1].ID, input[2].ID})
	assert.Equal(t, quarter, ranked[2].Recipe)
}

func TestRankIsStable(t *testing.T) {
	input := []models.Recipe{
		recipe("first", "z"),
		recipe("second", "a"),
		recipe("third", "y"),
		recipe("fourth", "a", "b"),
		recipe("fifth", "a"),
	}
	ranked := Rank(input, stock("a", 1.0, "b", 1.0))

	assert.Equal(t, []string{"second", "fourth", "fifth", "first", "third"}, ids(ranked))
	rs := ratios(ranked)
	for i := 1; i < len(rs); i++ {
		assert.GreaterOrEqual(t, rs[i-1], rs[i])
	}
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, stock("a", 1.0)))
}

func ratios(rs []Ranked) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Availability.Ratio
	}
	return out
}

func ids(rs []Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Recipe.ID
	}
	return out
}
