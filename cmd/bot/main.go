package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/korjavin/freshfridge/pkg/config"
	"github.com/korjavin/freshfridge/pkg/cooking"
	"github.com/korjavin/freshfridge/pkg/dinner"
	"github.com/korjavin/freshfridge/pkg/fridge"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/matcher"
	"github.com/korjavin/freshfridge/pkg/messages"
	"github.com/korjavin/freshfridge/pkg/openai"
	"github.com/korjavin/freshfridge/pkg/scheduler"
	"github.com/korjavin/freshfridge/pkg/state"
	"github.com/korjavin/freshfridge/pkg/stats"
	"github.com/korjavin/freshfridge/pkg/storage"
	"github.com/korjavin/freshfridge/pkg/telegram"
)

func main() {
	// Initialize logger
	log := logger.Global
	log.Info("Starting FreshFridge bot...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(10 * time.Minute)

	// Initialize OpenAI client
	openaiClient := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel, cfg.OpenAIVisionModel)

	// Exact name matching unless alias groups are configured
	var names matcher.Matcher = matcher.Exact{}
	if groups := cfg.SynonymGroups(); len(groups) > 0 {
		names = matcher.NewSynonyms(groups...)
		log.Info("Using %d ingredient alias group(s)", len(groups))
	}

	// Initialize services
	fridgeService := fridge.New(store, fridge.WithPolicy(cfg.Policy), fridge.WithMatcher(names))
	dinnerService := dinner.New(store, fridgeService, openaiClient, dinner.WithMatcher(names))
	cookingService := cooking.New(store, fridgeService, names)
	statsService := stats.New(store)
	messageService := messages.New(openaiClient)
	stateManager := state.New()

	// Initialize Telegram bot
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		log.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	reminders := scheduler.New(store, bot, fridgeService, scheduler.Config{
		Location: cfg.Location,
		Hour:     cfg.ReminderHour,
		WarnDays: cfg.ExpiryWarnDays,
	})
	reminders.Start()
	defer reminders.Stop()

	h := &handlers{
		cfg:      cfg,
		bot:      bot,
		fridge:   fridgeService,
		dinner:   dinnerService,
		cooking:  cookingService,
		stats:    statsService,
		messages: messageService,
		receipts: openaiClient,
		states:   stateManager,
		log:      logger.New("bot"),
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		bot.Stop()
	}()

	// Start the bot
	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(h.commands(), h.callbacks(), h.handleUpdate); err != nil {
		log.Error("Error running bot: %v", err)
		os.Exit(1)
	}
	log.Info("Bot stopped")
}
