package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay-bot/internal/config"
	"relay-bot/internal/store"
)

type Service struct {
	bot   Sender
	api   *tgbotapi.BotAPI
	store *store.Store
	conv  *Tracker
	cfg   *config.Config
}

func New(cfg *config.Config, st *store.Store) (*Service, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	api.Debug = false

	// drop any webhook so long-polling works
	_, err = api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		slog.Warn("Failed to delete webhook", "error", err)
	}

	slog.Info("Authorized as telegram bot", "username", api.Self.UserName)

	service := &Service{
		bot:   api,
		api:   api,
		store: st,
		conv:  NewTracker(),
		cfg:   cfg,
	}

	if err := service.setCommands(); err != nil {
		slog.Warn("Failed to set command menu", "error", err)
	}

	return service, nil
}

// Bot exposes the underlying client for collaborators such as the
// scheduler.
func (s *Service) Bot() *tgbotapi.BotAPI {
	return s.api
}

func (s *Service) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			// updates are handled concurrently; per-actor locks and the
			// store's own lock keep state transitions serialized
			go s.handleUpdate(upd)
		}
	}
}

func (s *Service) handleUpdate(upd tgbotapi.Update) {
	if upd.Message != nil {
		s.handleMessage(upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		s.handleCallback(upd.CallbackQuery)
		return
	}
}

func (s *Service) isOwner(userID int64) bool {
	return userID == s.cfg.OwnerID
}

func (s *Service) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		s.handleCommand(msg)
		return
	}

	actorID := msg.From.ID
	lock := s.conv.ActorLock(actorID)
	lock.Lock()
	defer lock.Unlock()

	if s.isOwner(actorID) {
		conv := s.conv.Get(actorID)
		if conv.State != StateIdle {
			s.handleOwnerConversation(msg, conv)
			return
		}
		if msg.ReplyToMessage != nil {
			s.handleOwnerReply(msg)
		}
		// owner free text with no active flow and no reply target is ignored
		return
	}

	if s.store.IsBanned(actorID) {
		return
	}
	if err := s.store.UpsertUser(actorID, msg.From.UserName, msg.From.FirstName); err != nil {
		s.handleError(msg.Chat.ID, ErrStoragef("upsert user %d: %v", actorID, err))
		return
	}

	conv := s.conv.Get(actorID)
	switch {
	case conv.State == StateAwaitingToken && msg.Text != "":
		s.handleCloneToken(msg, conv)
	case conv.State == StateAwaitingScreenshot && msg.Photo != nil:
		s.handlePaymentScreenshot(msg, conv)
	default:
		s.forwardToOwner(msg)
	}
}

func (s *Service) handleCommand(msg *tgbotapi.Message) {
	cmd := Command(msg.Command())

	if !cmd.IsValid() {
		s.reply(msg.Chat.ID, "Unknown command. Use /start")
		return
	}

	switch cmd {
	case CmdStart:
		s.handleStart(msg)
	case CmdPlans:
		s.sendPlanList(msg.Chat.ID)
	case CmdCancel:
		s.conv.Clear(msg.From.ID)
		s.reply(msg.Chat.ID, "❌ Cancelled. Use /start to go back.")
	}
}

func (s *Service) handleStart(msg *tgbotapi.Message) {
	if s.isOwner(msg.From.ID) {
		s.sendOwnerPanel(msg.Chat.ID)
		return
	}

	if s.store.IsBanned(msg.From.ID) {
		s.reply(msg.Chat.ID, "⛔️ You are banned from using this bot.")
		return
	}

	if err := s.store.UpsertUser(msg.From.ID, msg.From.UserName, msg.From.FirstName); err != nil {
		s.handleError(msg.Chat.ID, ErrStoragef("upsert user %d: %v", msg.From.ID, err))
		return
	}
	s.sendUserPanel(msg.Chat.ID, msg.From.FirstName)
}

// handleCallback parses the button tag once and matches the resulting
// action exhaustively.
func (s *Service) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}

	c := ParseCallback(cb.Data)

	if c.Action.OwnerOnly() && !s.isOwner(cb.From.ID) {
		s.answerCallback(cb.ID, "You are not allowed to do that")
		return
	}

	switch c.Action {
	case ActionNone:
		// unrecognized tag, e.g. from a stale keyboard
		s.answerCallback(cb.ID, "")

	case ActionUserSend:
		s.handleUserSend(cb)
	case ActionUserPlans:
		s.answerCallback(cb.ID, "")
		s.sendPlanList(cb.Message.Chat.ID)
	case ActionUserMyBot:
		s.handleMyBot(cb)
	case ActionUserHelp:
		s.handleUserHelp(cb)
	case ActionCancelPayment:
		s.handleCancelPayment(cb)
	case ActionSelectPlan:
		s.handlePlanSelected(cb, int(c.ID))

	case ActionOwnerStats:
		s.handleOwnerStats(cb)
	case ActionOwnerActive:
		s.handleOwnerActive(cb)
	case ActionOwnerBanned:
		s.handleOwnerBanned(cb)
	case ActionOwnerBroadcast:
		s.handleOwnerBroadcastPrompt(cb)
	case ActionOwnerBan:
		s.handleOwnerBanPrompt(cb)
	case ActionOwnerUnban:
		s.handleOwnerUnbanPrompt(cb)
	case ActionOwnerPlans:
		s.handleOwnerPlans(cb)
	case ActionCreatePlan:
		s.handleCreatePlanPrompt(cb)
	case ActionDeletePlan:
		s.handleDeletePlanPrompt(cb)
	case ActionOwnerPayments:
		s.handleOwnerPayments(cb)
	case ActionUserInfo:
		s.handleUserInfo(cb, c.ID)
	case ActionBanUser:
		s.handleBanButton(cb, c.ID, true)
	case ActionUnbanUser:
		s.handleBanButton(cb, c.ID, false)
	case ActionApprovePayment:
		s.handlePaymentDecision(cb, int(c.ID), store.PaymentApproved)
	case ActionRejectPayment:
		s.handlePaymentDecision(cb, int(c.ID), store.PaymentRejected)
	}
}

func (s *Service) reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Service) answerCallback(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	s.bot.Request(callback)
}

func (s *Service) answerCallbackAlert(callbackID, text string) {
	callback := tgbotapi.NewCallbackWithAlert(callbackID, text)
	s.bot.Request(callback)
}

func (s *Service) editText(chatID int64, messageID int, text string) {
	editMsg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	s.bot.Send(editMsg)
}

func (s *Service) setCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "🚀 Open the panel"},
		{Command: "plans", Description: "📋 Subscription plans"},
		{Command: "cancel", Description: "❌ Cancel the current action"},
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	_, err := s.bot.Request(config)
	return err
}
