package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  UnitClass
	}{
		{"개", Count},
		{"봉지", Count},
		{"공기", Count},
		{"g", WeightVolume},
		{"KG", WeightVolume},
		{"L", WeightVolume},
		{"T", WeightVolume},
		{"큰술", WeightVolume},
		{"작은술", WeightVolume},
		{" 숟가락 ", WeightVolume},
		{"조금", Abstract},
		{"적당량", Abstract},
		{"줌", Abstract},
		{"쪽", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.token))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text      string
		name      string
		magnitude float64
		hasMag    bool
		unit      string
		class     UnitClass
	}{
		{"1/2개", "", 0.5, true, "개", Count},
		{"조금", "", 0, false, "조금", Abstract},
		{"2큰술", "", 2, true, "큰술", WeightVolume},
		{"1~2개", "", 1.5, true, "개", Count},
		{"2-4 개", "", 3, true, "개", Count},
		{"0.5kg", "", 0.5, true, "kg", WeightVolume},
		{"200 ml", "", 200, true, "ml", WeightVolume},
		{"2쪽", "", 2, true, "쪽", Count},
		{"3", "", 3, true, "", Count},
		{"당근 1/2개", "당근", 0.5, true, "개", Count},
		{"고추장 1큰술", "고추장", 1, true, "큰술", WeightVolume},
		{"마늘 2쪽", "마늘", 2, true, "쪽", Count},
		{"소금 약간", "소금", 0, false, "약간", Abstract},
		{"후추약간", "후추", 0, false, "약간", Abstract},
		{"간장", "간장", 0, false, "", Abstract},
		{"green onion 2", "green onion", 2, true, "", Count},
		{"개", "", 1, true, "개", Count},
		{"  적당량  ", "", 0, false, "적당량", Abstract},
		{"1\t/2개", "", 0.5, true, "개", Count},
		{"1 /\t2 개", "", 0.5, true, "개", Count},
		{"한줌", "", 1, true, "줌", Count},
		{"반개", "", 0.5, true, "개", Count},
		{"시금치 한줌", "시금치", 1, true, "줌", Count},
		{"양파 반 개", "양파", 0.5, true, "개", Count},
		{"바나나 두송이", "바나나", 2, true, "송이", Count},
		{"두반장", "두반장", 0, false, "", Abstract},
		{"두부", "두부", 0, false, "", Abstract},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			q, ok := Parse(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.name, q.Name)
			assert.Equal(t, tt.hasMag, q.HasMagnitude)
			assert.InDelta(t, tt.magnitude, q.Magnitude, 1e-9)
			assert.Equal(t, tt.unit, q.UnitToken)
			assert.Equal(t, tt.class, q.Class)
		})
	}
}

func TestParseExactlyOneOfMagnitudeOrAbstract(t *testing.T) {
	for _, text := range []string{"1/2개", "조금", "2줌", "당근", "2큰술", "3", "양파 1~2개"} {
		q, ok := Parse(text)
		require.True(t, ok, text)
		assert.NotEqual(t, q.HasMagnitude, q.Class == Abstract, text)
	}
}

func TestParseRejectsUnreadableText(t *testing.T) {
	for _, text := range []string{"", "   ", "!!!", "1/0개", "?? 2개"} {
		t.Run(text, func(t *testing.T) {
			_, ok := Parse(text)
			assert.False(t, ok)
		})
	}
}
