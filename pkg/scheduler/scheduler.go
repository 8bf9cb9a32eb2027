package scheduler

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/korjavin/freshfridge/pkg/fridge"
	"github.com/korjavin/freshfridge/pkg/logger"
	"github.com/korjavin/freshfridge/pkg/messages"
	"github.com/korjavin/freshfridge/pkg/models"
	"github.com/korjavin/freshfridge/pkg/storage"
)

// Notifier delivers a text message to a chat. *telegram.Bot satisfies it.
type Notifier interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
}

// Config controls when reminders go out.
type Config struct {
	Location *time.Location
	Hour     int // local hour at which reminders are sent
	WarnDays int // remind about items expiring within this many days
}

// Service provides scheduling functionality for expiry reminders
type Service struct {
	store         *storage.Store
	notifier      Notifier
	fridgeService *fridge.Service
	cfg           Config
	logger        *logger.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// New creates a new scheduler service
func New(store *storage.Store, notifier Notifier, fridgeService *fridge.Service, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		store:         store,
		notifier:      notifier,
		fridgeService: fridgeService,
		cfg:           cfg,
		logger:        logger.New("scheduler"),
		stopChan:      make(chan struct{}),
	}
}

func reminderKey(userID int64) string {
	return fmt.Sprintf("reminder:%d", userID)
}

// Start starts the scheduler
func (s *Service) Start() {
	s.logger.Info("Starting expiry reminders at %02d:00 %s", s.cfg.Hour, s.cfg.Location)
	go s.run()
}

// Stop stops the scheduler
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping expiry reminders")
		close(s.stopChan)
	})
}

func (s *Service) run() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(time.Now())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce sends today's reminders if now falls in the reminder hour. Each
// user is reminded at most once per day. It returns how many reminders were
// sent.
func (s *Service) RunOnce(now time.Time) int {
	now = now.In(s.cfg.Location)
	if now.Hour() != s.cfg.Hour {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	stamp := today.Format(models.DateLayout)

	users, err := s.fridgeService.Users()
	if err != nil {
		s.logger.Error("Failed to list users: %v", err)
		return 0
	}

	sent := 0
	for _, userID := range users {
		var last string
		err := s.store.Get(reminderKey(userID), &last)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Failed to read reminder mark for user %d: %v", userID, err)
			continue
		}
		if last == stamp {
			continue
		}

		items, err := s.fridgeService.ExpiringSoon(userID, today, s.cfg.WarnDays)
		if err != nil {
			s.logger.Error("Failed to check expiring items for user %d: %v", userID, err)
			continue
		}
		if len(items) == 0 {
			continue
		}

		if _, err := s.notifier.SendMessage(userID, messages.FormatExpiryReminder(items, today)); err != nil {
			s.logger.Error("Failed to send reminder to user %d: %v", userID, err)
			continue
		}
		if err := s.store.Set(reminderKey(userID), stamp); err != nil {
			s.logger.Error("Failed to save reminder mark for user %d: %v", userID, err)
		}
		sent++
	}

	if sent > 0 {
		s.logger.Info("Sent %d expiry reminder(s)", sent)
	}
	return sent
}
