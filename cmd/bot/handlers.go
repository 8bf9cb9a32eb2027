package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/korjavin/freshfridge/pkg/availability"
	"github.com/korjavin/freshfridge/pkg/config"
	"github.com/korjavin/freshfridge/pkg/cooking"
	"github.com/korjavin/freshfridge/pkg/dinner"
	"github.com/korjavin/freshfridge/pkg/fridge"
	"github.com/korjavin/freshfridge/pkg/ingest"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/messages"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/state"
	"github.com/korjavin/freshfridge/pkg/stats"
	"github.com/korjavin/freshfridge/pkg/telegram"
)

// receiptReader extracts grocery lines from a receipt photo.
type receiptReader interface {
	ExtractReceipt(ctx context.Context, photoURL string, today time.Time) ([]models.ReceiptItem, error)
}

type handlers struct {
	cfg      *config.Config
	bot      *telegram.Bot
	fridge   *fridge.Service
	dinner   *dinner.Service
	cooking  *cooking.Service
	stats    *stats.Service
	messages *messages.Service
	receipts receiptReader
	states   *state.Manager
	log      *logger.Logger
}

func (h *handlers) now() time.Time {
	return time.Now().In(h.cfg.Location)
}

func (h *handlers) today() time.Time {
	n := h.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}

func (h *handlers) send(chatID int64, text string) {
	if _, err := h.bot.SendMessage(chatID, text); err != nil {
		h.log.Error("Failed to send message to %d: %v", chatID, err)
	}
}

// fail logs err and tells the user what went wrong in plain words.
func (h *handlers) fail(chatID int64, action string, err error) {
	switch {
	case errors.Is(err, models.ErrRecipeNotFound):
		h.send(chatID, "🔍 그런 요리를 찾지 못했어요. /recipes 로 목록을 확인해 보세요.")
	case errors.Is(err, models.ErrIngredientNotFound):
		h.send(chatID, "🔍 냉장고에 그런 재료가 없어요.")
	case errors.Is(err, models.ErrNoSession):
		h.send(chatID, "진행 중인 요리가 없어요. /cook 요리이름 으로 시작하세요.")
	case errors.Is(err, models.ErrInvalidInput):
		h.send(chatID, "⚠️ "+err.Error())
	default:
		h.log.Error("Failed to %s for %d: %v", action, chatID, err)
		h.send(chatID, "😢 죄송해요, 처리 중 문제가 생겼어요. 잠시 후 다시 시도해 주세요.")
	}
}

func (h *handlers) commands() map[string]telegram.CommandHandler {
	return map[string]telegram.CommandHandler{
		"start":     h.start,
		"help":      func(m *tgbotapi.Message) { h.send(m.Chat.ID, messages.HelpText) },
		"fridge":    h.showFridge,
		"add":       h.add,
		"remove":    h.remove,
		"expiring":  h.expiring,
		"receipt":   h.receipt,
		"recipes":   h.recipes,
		"recipe":    h.recipe,
		"generate":  h.generate,
		"addrecipe": h.addRecipe,
		"cook":      h.cook,
		"stats":     h.showStats,
		"cancel":    h.cancel,
	}
}

func (h *handlers) callbacks() map[string]telegram.CallbackHandler {
	return map[string]telegram.CallbackHandler{
		"cook:":       h.onCookStep,
		"start_cook:": h.onStartCook,
		"done_adding": h.onDoneAdding,
	}
}

func (h *handlers) start(m *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	h.send(m.Chat.ID, h.messages.GenerateWelcomeMessage(ctx))
}

func (h *handlers) showFridge(m *tgbotapi.Message) {
	items, err := h.fridge.ListIngredients(m.Chat.ID)
	if err != nil {
		h.fail(m.Chat.ID, "list ingredients", err)
		return
	}
	h.send(m.Chat.ID, messages.FormatInventory(items, h.today()))
}

func (h *handlers) add(m *tgbotapi.Message) {
	text := strings.TrimSpace(m.CommandArguments())
	if text == "" {
		h.states.SetState(m.Chat.ID, state.StateAddingIngredients)
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("다 넣었어요", "done_adding"),
			),
		)
		_, err := h.bot.SendMessageWithKeyboard(m.Chat.ID,
			"📝 재료를 한 줄에 하나씩 보내 주세요.\n예) 당근 2개 2026-10-25\n    우유 1l #유제품", keyboard)
		if err != nil {
			h.log.Error("Failed to send add prompt: %v", err)
		}
		return
	}
	h.addText(m.Chat.ID, text)
}

func (h *handlers) addText(chatID int64, text string) {
	entries, errs := ingest.ParseManualEntry(text, h.now())
	for _, err := range errs {
		h.send(chatID, "⚠️ "+err.Error())
	}
	if len(entries) == 0 {
		return
	}

	added, err := h.fridge.AddBatch(chatID, entries)
	if err != nil {
		h.fail(chatID, "add ingredients", err)
		return
	}
	h.send(chatID, messages.FormatAdded(added, h.today()))
}

func (h *handlers) remove(m *tgbotapi.Message) {
	name := strings.TrimSpace(m.CommandArguments())
	if name == "" {
		h.send(m.Chat.ID, "삭제할 재료 이름을 적어 주세요. 예) /remove 당근")
		return
	}
	removed, err := h.fridge.RemoveIngredient(m.Chat.ID, name)
	if err != nil {
		h.fail(m.Chat.ID, "remove ingredient", err)
		return
	}
	h.send(m.Chat.ID, fmt.Sprintf("🗑 %s 삭제했어요 (%d개 항목).", name, len(removed)))
}

func (h *handlers) expiring(m *tgbotapi.Message) {
	today := h.today()
	items, err := h.fridge.ExpiringSoon(m.Chat.ID, today, h.cfg.ExpiryWarnDays)
	if err != nil {
		h.fail(m.Chat.ID, "list expiring ingredients", err)
		return
	}
	if len(items) == 0 {
		h.send(m.Chat.ID, fmt.Sprintf("👍 %d일 안에 유통기한이 끝나는 재료는 없어요.", h.cfg.ExpiryWarnDays))
		return
	}
	h.send(m.Chat.ID, messages.FormatExpiryReminder(items, today))
}

func (h *handlers) receipt(m *tgbotapi.Message) {
	h.states.SetState(m.Chat.ID, state.StateAwaitingReceipt)
	h.send(m.Chat.ID, "🧾 영수증 사진을 보내 주세요. 식재료를 찾아 냉장고에 넣어 드릴게요.")
}

func (h *handlers) importReceipt(m *tgbotapi.Message) {
	chatID := m.Chat.ID
	h.states.ClearState(chatID)

	// Telegram lists photo sizes smallest first.
	photo := m.Photo[len(m.Photo)-1]
	url, err := h.bot.GetFileURL(photo.FileID)
	if err != nil {
		h.fail(chatID, "download receipt", err)
		return
	}

	h.send(chatID, "🔎 영수증을 읽는 중이에요...")
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	items, err := h.receipts.ExtractReceipt(ctx, url, h.today())
	if err != nil {
		h.fail(chatID, "read receipt", err)
		return
	}
	entries := ingest.FromReceipt(items, h.now())
	if len(entries) == 0 {
		h.send(chatID, "영수증에서 식재료를 찾지 못했어요.")
		return
	}

	added, err := h.fridge.AddBatch(chatID, entries)
	if err != nil {
		h.fail(chatID, "add receipt items", err)
		return
	}
	h.send(chatID, messages.FormatAdded(added, h.today()))
}

func (h *handlers) recipes(m *tgbotapi.Message) {
	ranked, err := h.dinner.Recommend(m.Chat.ID, h.cfg.RecommendLimit)
	if err != nil {
		h.fail(m.Chat.ID, "recommend recipes", err)
		return
	}
	h.send(m.Chat.ID, messages.FormatRecommendations(ranked))
}

func (h *handlers) recipe(m *tgbotapi.Message) {
	query := strings.TrimSpace(m.CommandArguments())
	if query == "" {
		h.send(m.Chat.ID, "요리 이름을 적어 주세요. 예) /recipe 제육볶음")
		return
	}
	recipe, err := h.dinner.FindRecipe(query)
	if err != nil {
		h.fail(m.Chat.ID, "find recipe", err)
		return
	}
	res, err := h.dinner.Check(m.Chat.ID, recipe)
	if err != nil {
		h.fail(m.Chat.ID, "check recipe", err)
		return
	}
	h.showRecipe(m.Chat.ID, recipe, res)
}

func (h *handlers) showRecipe(chatID int64, recipe *models.Recipe, res availability.Result) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍳 이 요리 했어요", "start_cook:"+recipe.ID),
		),
	)
	if _, err := h.bot.SendMessageWithKeyboard(chatID, messages.FormatRecipe(*recipe, res), keyboard); err != nil {
		h.log.Error("Failed to send recipe: %v", err)
	}
}

func (h *handlers) generate(m *tgbotapi.Message) {
	chatID := m.Chat.ID
	h.send(chatID, "🧑‍🍳 냉장고 재료로 요리를 구상 중이에요... 잠시만 기다려 주세요.")

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	recipe, res, err := h.dinner.Generate(ctx, chatID, m.CommandArguments())
	if err != nil {
		h.fail(chatID, "generate recipe", err)
		return
	}
	h.showRecipe(chatID, recipe, res)
}

// addRecipe stores a user's own recipe: the first line is the name, every
// following line one ingredient such as "당근 1/2개".
func (h *handlers) addRecipe(m *tgbotapi.Message) {
	lines := strings.Split(strings.TrimSpace(m.CommandArguments()), "\n")
	if len(lines) < 2 {
		h.send(m.Chat.ID, "첫 줄에 요리 이름, 다음 줄부터 재료를 적어 주세요.\n예) /addrecipe 감자볶음\n감자 2개\n양파 1/2개")
		return
	}

	recipe, err := h.dinner.SaveRecipe(&models.Recipe{
		Name:        strings.TrimSpace(lines[0]),
		Ingredients: ingest.Requirements(lines[1:]),
		Author:      authorOf(m.From),
	})
	if err != nil {
		h.fail(m.Chat.ID, "save recipe", err)
		return
	}
	res, err := h.dinner.Check(m.Chat.ID, recipe)
	if err != nil {
		h.fail(m.Chat.ID, "check recipe", err)
		return
	}
	h.showRecipe(m.Chat.ID, recipe, res)
}

func (h *handlers) cook(m *tgbotapi.Message) {
	query := strings.TrimSpace(m.CommandArguments())
	if query == "" {
		h.send(m.Chat.ID, "만든 요리 이름을 적어 주세요. 예) /cook 김치볶음밥")
		return
	}
	recipe, err := h.dinner.FindRecipe(query)
	if err != nil {
		h.fail(m.Chat.ID, "find recipe", err)
		return
	}
	h.startCooking(m.Chat.ID, recipe)
}

func (h *handlers) startCooking(chatID int64, recipe *models.Recipe) {
	session, err := h.cooking.Start(chatID, recipe)
	if err != nil {
		h.fail(chatID, "start cooking", err)
		return
	}
	msg, err := h.bot.SendMessageWithKeyboard(chatID, messages.FormatCookingSession(*session), cookingKeyboard(*session))
	if err != nil {
		h.log.Error("Failed to send cooking session: %v", err)
		return
	}
	if err := h.cooking.SetMessageID(chatID, msg.MessageID); err != nil {
		h.log.Warn("Failed to remember cooking message: %v", err)
	}
}

// authorOf names the sender of a message, or returns "" when there is none,
// e.g. for channel posts.
func authorOf(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	if from.UserName != "" {
		return "@" + from.UserName
	}
	return from.FirstName
}

// cookingKeyboard has a -/+ row per entry and a confirm/cancel row.
func cookingKeyboard(session models.CookingSession) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(session.Entries)+1)
	for i, e := range session.Entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ "+e.Name, fmt.Sprintf("cook:dec:%d", i)),
			tgbotapi.NewInlineKeyboardButtonData("➕ "+e.Name, fmt.Sprintf("cook:inc:%d", i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ 확인", "cook:done"),
		tgbotapi.NewInlineKeyboardButtonData("취소", "cook:cancel"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *handlers) onStartCook(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	h.answer(cb, "")

	recipe, err := h.dinner.GetRecipe(strings.TrimPrefix(cb.Data, "start_cook:"))
	if err != nil {
		h.fail(chatID, "find recipe", err)
		return
	}
	h.startCooking(chatID, recipe)
}

func (h *handlers) onCookStep(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	parts := strings.Split(strings.TrimPrefix(cb.Data, "cook:"), ":")

	switch parts[0] {
	case "inc", "dec":
		if len(parts) != 2 {
			h.answer(cb, "")
			return
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			h.answer(cb, "")
			return
		}
		delta := cooking.Step
		if parts[0] == "dec" {
			delta = -cooking.Step
		}
		session, err := h.cooking.Adjust(chatID, idx, delta)
		if err != nil {
			h.answer(cb, "이미 끝난 요리예요")
			return
		}
		h.answer(cb, "")
		if _, err := h.bot.EditMessageWithKeyboard(chatID, messageID, messages.FormatCookingSession(*session), cookingKeyboard(*session)); err != nil {
			// Telegram rejects edits that change nothing, e.g. at the clamp.
			h.log.Debug("Cooking message not edited: %v", err)
		}

	case "done":
		session, res, err := h.cooking.Confirm(chatID)
		if err != nil {
			h.answer(cb, "")
			h.fail(chatID, "confirm cooking", err)
			return
		}
		h.answer(cb, "냉장고를 업데이트했어요")
		if _, err := h.bot.EditMessage(chatID, messageID, messages.FormatCookingResult(*session, res)); err != nil {
			h.log.Error("Failed to edit cooking message: %v", err)
		}

	case "cancel":
		if err := h.cooking.Cancel(chatID); err != nil && !errors.Is(err, models.ErrNoSession) {
			h.log.Error("Failed to cancel cooking: %v", err)
		}
		h.answer(cb, "취소했어요")
		if _, err := h.bot.EditMessage(chatID, messageID, "요리 기록을 취소했어요."); err != nil {
			h.log.Error("Failed to edit cooking message: %v", err)
		}

	default:
		h.answer(cb, "")
	}
}

func (h *handlers) onDoneAdding(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	h.states.ClearState(chatID)
	h.answer(cb, "냉장고를 업데이트했어요")
	if _, err := h.bot.EditMessage(chatID, cb.Message.MessageID, "✅ 재료 추가 완료! /fridge 로 확인하거나 /recipes 로 추천을 받아 보세요."); err != nil {
		h.log.Error("Failed to edit message: %v", err)
	}
}

func (h *handlers) answer(cb *tgbotapi.CallbackQuery, text string) {
	if err := h.bot.AnswerCallbackQuery(cb.ID, text); err != nil {
		h.log.Debug("Failed to answer callback: %v", err)
	}
}

func (h *handlers) showStats(m *tgbotapi.Message) {
	st, err := h.stats.GetStatistics(m.Chat.ID)
	if err != nil {
		h.fail(m.Chat.ID, "load statistics", err)
		return
	}
	top, err := h.stats.TopRecipes(m.Chat.ID, 5)
	if err != nil {
		h.fail(m.Chat.ID, "load statistics", err)
		return
	}
	h.send(m.Chat.ID, messages.FormatStats(*st, top))
}

func (h *handlers) cancel(m *tgbotapi.Message) {
	h.states.ClearState(m.Chat.ID)
	if err := h.cooking.Cancel(m.Chat.ID); err != nil && !errors.Is(err, models.ErrNoSession) {
		h.log.Error("Failed to cancel cooking: %v", err)
	}
	h.send(m.Chat.ID, "알겠어요, 진행 중이던 작업을 취소했어요.")
}

// handleUpdate deals with plain messages: ingredient lists while adding and
// receipt photos.
func (h *handlers) handleUpdate(update tgbotapi.Update) {
	m := update.Message
	if m == nil {
		return
	}
	chatID := m.Chat.ID

	switch h.states.GetState(chatID) {
	case state.StateAwaitingReceipt:
		if len(m.Photo) > 0 {
			h.importReceipt(m)
			return
		}
		if m.Text != "" {
			h.send(chatID, "🧾 영수증 사진을 보내 주세요. 그만하려면 /cancel")
		}
	case state.StateAddingIngredients:
		if m.Text != "" && !m.IsCommand() {
			// Touch the state so a long list does not time out mid-way.
			h.states.SetState(chatID, state.StateAddingIngredients)
			h.addText(chatID, m.Text)
		}
	default:
		if len(m.Photo) > 0 && strings.Contains(m.Caption, "영수증") {
			h.importReceipt(m)
		}
	}
}
