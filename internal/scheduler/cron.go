package scheduler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"relay-bot/internal/config"
	"relay-bot/internal/store"
)

// Scheduler runs the periodic jobs: a keep-alive heartbeat, a daily
// statistics report and a pending-payment reminder for the owner.
type Scheduler struct {
	cron  *cron.Cron
	store *store.Store
	bot   *tgbotapi.BotAPI
	cfg   *config.Config
	beats atomic.Int64
}

func NewScheduler(st *store.Store, bot *tgbotapi.BotAPI, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		store: st,
		bot:   bot,
		cfg:   cfg,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 30s", s.heartbeat); err != nil {
		return fmt.Errorf("schedule heartbeat: %w", err)
	}
	if _, err := s.cron.AddFunc("0 9 * * *", s.dailyReport); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}
	if _, err := s.cron.AddFunc("0 */6 * * *", s.paymentReminder); err != nil {
		return fmt.Errorf("schedule payment reminder: %w", err)
	}

	s.cron.Start()
	slog.Info("Scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

// Heartbeats returns how many heartbeat ticks have fired since start.
func (s *Scheduler) Heartbeats() int64 {
	return s.beats.Load()
}

func (s *Scheduler) heartbeat() {
	n := s.beats.Add(1)
	slog.Debug("Heartbeat", "count", n)
}

func (s *Scheduler) dailyReport() {
	stats := s.store.Stats()

	text := fmt.Sprintf(`🌅 Daily Report
━━━━━━━━━━━━━━━━
👥 Total Users: %d
✅ Active Users: %d
🚫 Banned Users: %d
📋 Plans: %d
💳 Pending Payments: %d
🤖 Active Clones: %d`,
		stats.Users, stats.Active, stats.Banned,
		stats.Plans, stats.PendingPayments, stats.ActiveClones)

	if _, err := s.bot.Send(tgbotapi.NewMessage(s.cfg.OwnerID, text)); err != nil {
		slog.Error("Failed to send daily report", "error", err)
	}
}

// paymentReminder nudges the owner while reviews are queued. Quiet when
// the queue is empty.
func (s *Scheduler) paymentReminder() {
	pending := s.store.PendingPayments()
	if len(pending) == 0 {
		return
	}

	text := fmt.Sprintf("⏰ Reminder: %d payment(s) awaiting review.\n\nUse /start → Pending Payments.", len(pending))
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.cfg.OwnerID, text)); err != nil {
		slog.Error("Failed to send payment reminder", "error", err)
	}
}
