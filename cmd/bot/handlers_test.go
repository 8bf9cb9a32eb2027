package main

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/freshfridge/pkg/models"
)

func TestCookingKeyboard(t *testing.T) {
	session := models.CookingSession{
		Entries: []models.CookingEntry{
			{Name: "당근", Quantity: 1, Owned: 3, Unit: "개"},
			{Name: "양파", Quantity: 0.5, Owned: 1, Unit: "개"},
		},
	}

	kb := cookingKeyboard(session)
	require.Len(t, kb.InlineKeyboard, 3)

	dec := kb.InlineKeyboard[1][0]
	inc := kb.InlineKeyboard[1][1]
	require.NotNil(t, dec.CallbackData)
	require.NotNil(t, inc.CallbackData)
	assert.Equal(t, "cook:dec:1", *dec.CallbackData)
	assert.Equal(t, "cook:inc:1", *inc.CallbackData)

	last := kb.InlineKeyboard[2]
	require.Len(t, last, 2)
	assert.Equal(t, "cook:done", *last[0].CallbackData)
	assert.Equal(t, "cook:cancel", *last[1].CallbackData)
}

func TestAuthorOf(t *testing.T) {
	assert.Equal(t, "", authorOf(nil))
	assert.Equal(t, "민지", authorOf(&tgbotapi.User{FirstName: "민지"}))
	assert.Equal(t, "@minji", authorOf(&tgbotapi.User{FirstName: "민지", UserName: "minji"}))
}
