package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/models"
)

// Client represents an OpenAI API client
type Client struct {
	client      *openai.Client
	model       string
	visionModel string
	logger      *logger.Logger
}

// New creates a new OpenAI client. visionModel reads receipt photos and
// defaults to model.
func New(apiKey, apiBase, model, visionModel string) *Client {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}
	if visionModel == "" {
		visionModel = model
	}

	client := openai.NewClientWithConfig(config)
	return &Client{
		client:      client,
		model:       model,
		visionModel: visionModel,
		logger:      logger.New("openai"),
	}
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI API")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))
	return content, nil
}

// generatedRecipe is the JSON shape the model is asked to produce.
type generatedRecipe struct {
	Name        string `json:"name"`
	Ingredients []struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
	} `json:"ingredients"`
	Steps       []string `json:"steps"`
	Difficulty  int      `json:"difficulty"`
	CookingTime int      `json:"cooking_time"`
	Servings    int      `json:"servings"`
}

// GenerateRecipe asks the model for one recipe that uses only the available
// ingredients. Ingredient names the model invents are mapped back onto an
// available name when one is contained in it ("다진 마늘" -> "마늘") and
// dropped otherwise.
func (c *Client) GenerateRecipe(ctx context.Context, available []string, preference string) (*models.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if strings.TrimSpace(preference) == "" {
		preference = "특별한 요청 없음"
	}
	prompt := fmt.Sprintf(`
Create one home-cooking recipe in Korean using ONLY these ingredients (you may use a subset):
%s

User request: %s

Rules:
- Every ingredient "name" must be copied exactly from the list above.
- "quantity" is free text such as "1/2개", "2큰술", "300g" or "약간".
- "difficulty" is 1 (easy) to 5 (hard); "cooking_time" is in minutes.

Return only JSON in this format:
{
  "name": "요리 이름",
  "ingredients": [{"name": "재료", "quantity": "양"}],
  "steps": ["1단계", "2단계"],
  "difficulty": 2,
  "cooking_time": 20,
  "servings": 2
}
`, strings.Join(available, ", "), preference)

	c.logger.Info("Requesting recipe from %d ingredients", len(available))
	c.logger.Debug("OpenAI prompt (first 100 chars): %s", truncateString(prompt, 100))

	content, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a Korean home-cooking expert who writes practical recipes from what is in the fridge.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.7,
	})
	if err != nil {
		return nil, err
	}

	recipe, err := parseRecipe(content, available)
	if err != nil {
		c.logger.Error("Failed to parse recipe: %v, Content: %s", err, truncateString(content, 500))
		return nil, err
	}

	c.logger.Info("Generated recipe %q with %d ingredients", recipe.Name, len(recipe.Ingredients))
	return recipe, nil
}

func parseRecipe(content string, available []string) (*models.Recipe, error) {
	var g generatedRecipe
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &g); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if strings.TrimSpace(g.Name) == "" {
		return nil, fmt.Errorf("generated recipe has no name")
	}

	recipe := &models.Recipe{
		Name:        strings.TrimSpace(g.Name),
		Steps:       g.Steps,
		Difficulty:  g.Difficulty,
		CookingTime: g.CookingTime,
		Servings:    g.Servings,
	}
	for _, ing := range g.Ingredients {
		name, ok := fromAvailable(ing.Name, available)
		if !ok {
			continue
		}
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			Name:     name,
			Quantity: strings.TrimSpace(ing.Quantity),
		})
	}
	if len(recipe.Ingredients) == 0 {
		return nil, fmt.Errorf("generated recipe uses none of the available ingredients")
	}
	return recipe, nil
}

// fromAvailable maps a generated ingredient name onto the available list.
func fromAvailable(name string, available []string) (string, bool) {
	for _, a := range available {
		if matcher.Matches(name, a) {
			return a, true
		}
	}
	lower := strings.ToLower(name)
	for _, a := range available {
		if a != "" && strings.Contains(lower, strings.ToLower(a)) {
			return a, true
		}
	}
	return "", false
}

// ExtractReceipt reads the grocery lines off a receipt photo.
func (c *Client) ExtractReceipt(ctx context.Context, photoURL string, today time.Time) ([]models.ReceiptItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`You read Korean grocery receipts. List every food item on the receipt.
Today is %s. Use the receipt date as purchase_date when it is printed.
Estimate expiry_date from typical shelf life when the item is perishable, otherwise leave it empty.
category is one of: vegetable, meat, dairy, seasoning, other.
Return only JSON in this format:
{"items": [{"name": "우유", "category": "dairy", "quantity": 1, "unit": "개", "purchase_date": "YYYY-MM-DD", "expiry_date": "YYYY-MM-DD"}]}
`, today.Format(models.DateLayout))

	c.logger.Info("Extracting items from receipt photo")
	c.logger.Debug("Reading receipt photo %s", photoPath(photoURL))

	content, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "영수증에 있는 식재료를 JSON으로 정리해 주세요.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: photoURL,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.2,
	})
	if err != nil {
		c.logger.Error("OpenAI API error: %v", err)
		return nil, err
	}

	items, err := parseReceipt(content)
	if err != nil {
		c.logger.Error("Failed to parse response: %v, Content: %s", err, truncateString(content, 500))
		return nil, err
	}

	c.logger.Info("Successfully extracted %d items from receipt", len(items))
	return items, nil
}

// parseReceipt accepts {"items": [...]} or a bare array.
func parseReceipt(content string) ([]models.ReceiptItem, error) {
	content = cleanJSONResponse(content)

	var wrapped struct {
		Items []models.ReceiptItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		return wrapped.Items, nil
	}

	var items []models.ReceiptItem
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	return items, nil
}

// GenerateChatMessage generates a chat message for a specific intent
func (c *Client) GenerateChatMessage(ctx context.Context, intent string, contextData map[string]interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// Convert context to JSON string
	contextJSON, err := json.Marshal(contextData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a friendly kitchen assistant bot on Telegram. Generate a short, engaging message for the following intent: "%s".
Use the context provided below to personalize the message. Keep it concise and mobile-friendly.
Add appropriate emojis for fun and readability.

Context:
%s

Return only the message text, no explanations or other text.
`, intent, string(contextJSON))

	c.logger.Info("Generating chat message for intent: %s", intent)

	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.7,
	})
}

// Helper functions

// photoPath strips the host and the bot token from a Telegram file URL
// (https://api.telegram.org/file/bot<token>/<path>) so it can be logged.
func photoPath(fileURL string) string {
	if _, rest, ok := strings.Cut(fileURL, "/file/bot"); ok {
		if _, p, ok := strings.Cut(rest, "/"); ok {
			return p
		}
		return ""
	}
	return path.Base(fileURL)
}

// truncateString truncates a string to at most maxLen bytes without
// splitting a UTF-8 character.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxLen {
			break
		}
		cut = i
	}
	return s[:cut] + "..."
}

// cleanJSONResponse cleans up the JSON response from OpenAI
// Sometimes the model returns markdown code blocks with ```json and ``` delimiters
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// Skip the first line, which might be "```json"
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	return s
}
