package messages

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/freshfridge/pkg/availability"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/reconcile"
)

// ChatWriter writes a short chat message for an intent.
type ChatWriter interface {
	GenerateChatMessage(ctx context.Context, intent string, data map[string]interface{}) (string, error)
}

// Service provides message generation functionality
type Service struct {
	writer ChatWriter
	logger *logger.Logger
}

// New creates a new message service. writer may be nil, in which case the
// fixed texts are used.
func New(writer ChatWriter) *Service {
	return &Service{
		writer: writer,
		logger: logger.New("messages"),
	}
}

const welcomeText = "👋 냉장고 관리 봇입니다! 재료를 등록하면 유통기한을 챙기고, 지금 만들 수 있는 요리를 추천해 드려요.\n\n" + HelpText

// HelpText lists the bot commands.
const HelpText = `📋 명령어
/fridge - 냉장고 보기
/add 당근 2개 2026-10-25 - 재료 추가 (여러 줄 가능)
/remove 당근 - 재료 삭제
/expiring - 유통기한 임박 재료
/receipt - 영수증 사진으로 재료 추가
/recipes - 추천 요리
/recipe 이름 - 요리 상세
/generate [요청] - 있는 재료로 새 요리 만들기
/addrecipe 이름 - 다음 줄부터 재료를 적어 요리 등록
/cook 이름 - 요리 완료하고 재료 차감
/stats - 요리 기록`

// GenerateWelcomeMessage generates a welcome message
func (s *Service) GenerateWelcomeMessage(ctx context.Context) string {
	if s.writer == nil {
		return welcomeText
	}
	msg, err := s.writer.GenerateChatMessage(ctx, "welcome", map[string]interface{}{
		"purpose":  "Track fridge ingredients and their expiry dates, and recommend recipes that use what is at hand",
		"language": "Korean",
	})
	if err != nil || strings.TrimSpace(msg) == "" {
		s.logger.Error("Failed to generate welcome message: %v", err)
		return welcomeText
	}
	return msg + "\n\n" + HelpText
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// FormatDaysLeft renders a days-remaining value as a short label.
func FormatDaysLeft(days int) string {
	switch {
	case days == models.NoExpiry:
		return "기한 없음"
	case days < 0:
		return fmt.Sprintf("%d일 지남", -days)
	case days == 0:
		return "오늘까지"
	default:
		return fmt.Sprintf("D-%d", days)
	}
}

func freshnessIcon(days int) string {
	switch {
	case days == models.NoExpiry:
		return "⚪"
	case days < 0:
		return "⛔"
	case days <= 3:
		return "🔴"
	case days <= 7:
		return "🟡"
	default:
		return "🟢"
	}
}

func formatItem(ing models.InventoryIngredient, today time.Time) string {
	days := ing.DaysRemaining(today)
	line := fmt.Sprintf("%s %s %s%s (%s)", freshnessIcon(days), ing.Name, FormatQuantity(ing.Quantity), ing.Unit, FormatDaysLeft(days))
	if !ing.Available() {
		line += " · 다 씀"
	}
	return line
}

// FormatInventory lists a fridge grouped by category.
func FormatInventory(items []models.InventoryIngredient, today time.Time) string {
	if len(items) == 0 {
		return "🧊 냉장고가 비어 있어요. /add 또는 /receipt 로 재료를 추가하세요."
	}

	byCategory := make(map[models.Category][]models.InventoryIngredient)
	for _, ing := range items {
		c := ing.Category
		if c == "" {
			c = models.CategoryOther
		}
		byCategory[c] = append(byCategory[c], ing)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧊 냉장고 (%d개 품목)\n", len(items))
	for _, c := range models.Categories {
		group := byCategory[c]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s]\n", CategoryLabel(c))
		for _, ing := range group {
			b.WriteString(formatItem(ing, today))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// CategoryLabel is the display name of a category.
func CategoryLabel(c models.Category) string {
	switch c {
	case models.CategoryVegetable:
		return "🥕 채소"
	case models.CategoryMeat:
		return "🥩 육류·해산물"
	case models.CategoryDairy:
		return "🥛 유제품·계란"
	case models.CategorySeasoning:
		return "🧂 양념"
	default:
		return "📦 기타"
	}
}

// FormatAdded confirms newly added ingredients.
func FormatAdded(added []models.InventoryIngredient, today time.Time) string {
	if len(added) == 0 {
		return "추가된 재료가 없어요."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %d개 재료를 추가했어요:\n", len(added))
	for _, ing := range added {
		b.WriteString(formatItem(ing, today))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatExpiryReminder is the daily reminder about ingredients to use up.
func FormatExpiryReminder(items []models.InventoryIngredient, today time.Time) string {
	var b strings.Builder
	b.WriteString("⏰ 유통기한이 얼마 남지 않은 재료가 있어요!\n\n")
	for _, ing := range items {
		b.WriteString(formatItem(ing, today))
		b.WriteString("\n")
	}
	b.WriteString("\n/recipes 로 이 재료를 쓰는 요리를 찾아보세요.")
	return b.String()
}

// FormatRecommendations lists ranked recipes with what is missing.
func FormatRecommendations(ranked []availability.Ranked) string {
	if len(ranked) == 0 {
		return "추천할 요리가 없어요."
	}

	var b strings.Builder
	b.WriteString("🍲 지금 만들 수 있는 요리\n")
	for i, r := range ranked {
		fmt.Fprintf(&b, "\n%d. %s · %d%% 보유", i+1, r.Recipe.Name, r.Availability.Ratio)
		if r.Recipe.CookingTime > 0 {
			fmt.Fprintf(&b, " · %d분", r.Recipe.CookingTime)
		}
		if len(r.Availability.Missing) > 0 {
			fmt.Fprintf(&b, "\n   없는 재료: %s", strings.Join(r.Availability.Missing, ", "))
		}
	}
	b.WriteString("\n\n/recipe 이름 으로 자세히 보기")
	return b.String()
}

// FormatRecipe shows a recipe with each requirement marked owned or missing.
func FormatRecipe(recipe models.Recipe, res availability.Result) string {
	missing := make(map[int]bool)
	// Missing keeps recipe order, so walk both lists together.
	j := 0
	for i, ing := range recipe.Ingredients {
		if j < len(res.Missing) && res.Missing[j] == ing.Name {
			missing[i] = true
			j++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍳 %s\n", recipe.Name)
	var meta []string
	if recipe.Difficulty > 0 {
		meta = append(meta, "난이도 "+strings.Repeat("★", recipe.Difficulty))
	}
	if recipe.CookingTime > 0 {
		meta = append(meta, fmt.Sprintf("%d분", recipe.CookingTime))
	}
	if recipe.Servings > 0 {
		meta = append(meta, fmt.Sprintf("%d인분", recipe.Servings))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · ") + "\n")
	}
	fmt.Fprintf(&b, "보유율 %d%%\n\n재료\n", res.Ratio)

	for i, ing := range recipe.Ingredients {
		mark := "✅"
		if missing[i] {
			mark = "❌"
		}
		line := mark + " " + ing.Name
		if ing.Quantity != "" {
			line += " " + ing.Quantity
		}
		b.WriteString(line + "\n")
	}

	if len(recipe.Steps) > 0 {
		b.WriteString("\n만드는 법\n")
		for i, step := range recipe.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	if recipe.Author != "" {
		fmt.Fprintf(&b, "\n출처: %s", recipe.Author)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCookingSession shows the amounts about to be taken out of the fridge.
func FormatCookingSession(session models.CookingSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👩‍🍳 %s 완료! 사용한 양을 확인해 주세요.\n\n", session.RecipeName)
	if len(session.Entries) == 0 {
		b.WriteString("냉장고에서 차감할 재료가 없어요.")
		return b.String()
	}
	for _, e := range session.Entries {
		fmt.Fprintf(&b, "• %s: %s / %s%s\n", e.Name, FormatQuantity(e.Quantity), FormatQuantity(e.Owned), e.Unit)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCookingResult reports what the fridge looks like after cooking.
func FormatCookingResult(session models.CookingSession, res reconcile.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 %s 기록 완료!\n", session.RecipeName)
	for _, ing := range res.Updated {
		fmt.Fprintf(&b, "• %s 남은 양 %s%s\n", ing.Name, FormatQuantity(ing.Quantity), ing.Unit)
	}
	for _, ing := range res.Deleted {
		fmt.Fprintf(&b, "• %s 다 써서 삭제했어요\n", ing.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStats summarises a user's cooking history.
func FormatStats(st models.CookingStats, top []models.RecipeCount) string {
	if st.TotalCooked == 0 {
		return "📊 아직 요리 기록이 없어요. /cook 으로 기록해 보세요."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 지금까지 %d번 요리했어요.\n", st.TotalCooked)
	if len(top) > 0 {
		b.WriteString("\n자주 만든 요리\n")
		for i, rc := range top {
			fmt.Fprintf(&b, "%d. %s (%d회)\n", i+1, rc.Name, rc.Count)
		}
	}
	if !st.LastCookedAt.IsZero() {
		fmt.Fprintf(&b, "\n마지막 요리: %s", st.LastCookedAt.Format(models.DateLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}
