package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/korjavin/freshfridge/pkg/reconcile"
)

// Config holds all configuration for the application
type Config struct {
	// Telegram Bot configuration
	BotToken string `env:"BOT_TOKEN" env-required:"true"`

	// OpenAI configuration
	OpenAIAPIBase     string `env:"OPENAI_API_BASE"     env-default:"https://api.openai.com/v1"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"      env-required:"true"`
	OpenAIModel       string `env:"OPENAI_MODEL"        env-default:"gpt-4o-mini"`
	OpenAIVisionModel string `env:"OPENAI_VISION_MODEL" env-default:"gpt-4o"`

	// Application configuration
	DataDir            string `env:"DATA_DIR"             env-default:"./data"`
	LogLevel           string `env:"LOG_LEVEL"            env-default:"info"`
	Timezone           string `env:"TIMEZONE"             env-default:"Asia/Seoul"`
	ReminderHour       int    `env:"REMINDER_HOUR"        env-default:"9"`
	ExpiryWarnDays     int    `env:"EXPIRY_WARN_DAYS"     env-default:"3"`
	ZeroQuantityPolicy string `env:"ZERO_QUANTITY_POLICY" env-default:"retain"`
	RecommendLimit     int    `env:"RECOMMEND_LIMIT"      env-default:"5"`

	// Synonyms is a ";"-separated list of ","-separated alias groups,
	// e.g. "대파,파;계란,달걀". Empty means exact name matching only.
	Synonyms string `env:"INGREDIENT_SYNONYMS"`

	// Derived from the raw fields by validate.
	Location *time.Location   `env:"-"`
	Policy   reconcile.Policy `env:"-"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	logCfg.BotToken = redact(logCfg.BotToken)
	logCfg.OpenAIAPIKey = redact(logCfg.OpenAIAPIKey)
	log.Printf("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc

	switch strings.ToLower(strings.TrimSpace(c.ZeroQuantityPolicy)) {
	case "retain", "keep":
		c.Policy = reconcile.RetainZero
	case "delete", "remove":
		c.Policy = reconcile.DeleteZero
	default:
		return fmt.Errorf("invalid ZERO_QUANTITY_POLICY %q: want retain or delete", c.ZeroQuantityPolicy)
	}

	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("invalid REMINDER_HOUR %d: want 0-23", c.ReminderHour)
	}
	if c.ExpiryWarnDays < 0 {
		return fmt.Errorf("invalid EXPIRY_WARN_DAYS %d", c.ExpiryWarnDays)
	}
	if c.RecommendLimit <= 0 {
		c.RecommendLimit = 5
	}
	return nil
}

// SynonymGroups splits Synonyms into alias groups.
func (c *Config) SynonymGroups() [][]string {
	var groups [][]string
	for _, raw := range strings.Split(c.Synonyms, ";") {
		var group []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				group = append(group, name)
			}
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

func redact(secret string) string {
	if len(secret) > 8 {
		return secret[:8] + "...REDACTED..."
	}
	return secret
}
