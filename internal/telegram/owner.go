package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay-bot/internal/store"
)

func (s *Service) sendOwnerPanel(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", Callback{Action: ActionOwnerStats}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Active Users", Callback{Action: ActionOwnerActive}.Data()),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Banned Users", Callback{Action: ActionOwnerBanned}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📢 Broadcast", Callback{Action: ActionOwnerBroadcast}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔨 Ban User", Callback{Action: ActionOwnerBan}.Data()),
			tgbotapi.NewInlineKeyboardButtonData("✅ Unban User", Callback{Action: ActionOwnerUnban}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Manage Plans", Callback{Action: ActionOwnerPlans}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Pending Payments", Callback{Action: ActionOwnerPayments}.Data())),
	)

	text := fmt.Sprintf("👑 Owner Panel - %s\n━━━━━━━━━━━━━━━━\nChoose an option below:", s.cfg.OwnerName)

	msgConfig := tgbotapi.NewMessage(chatID, text)
	msgConfig.ReplyMarkup = keyboard
	s.bot.Send(msgConfig)
}

// handleOwnerConversation consumes the owner's next message while a
// flow is active. Invalid input re-prompts and keeps the state; only
// valid input or /cancel leaves it.
func (s *Service) handleOwnerConversation(msg *tgbotapi.Message, conv Conversation) {
	actorID := msg.From.ID

	switch conv.State {
	case StateAwaitingBanID, StateAwaitingUnbanID:
		id, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
		if err != nil {
			s.reply(msg.Chat.ID, "❌ Invalid ID. Send numbers only:")
			return
		}
		ban := conv.State == StateAwaitingBanID
		if err := s.store.SetBanned(id, ban); err != nil {
			s.handleError(msg.Chat.ID, ErrStoragef("set banned %d: %v", id, err))
			return
		}
		s.conv.Clear(actorID)
		if ban {
			s.reply(msg.Chat.ID, fmt.Sprintf("✅ User %d has been banned!", id))
			slog.Info("User banned", "user_id", id)
		} else {
			s.reply(msg.Chat.ID, fmt.Sprintf("✅ User %d has been unbanned!", id))
			slog.Info("User unbanned", "user_id", id)
		}

	case StateAwaitingDeletePlanID:
		id, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil {
			s.reply(msg.Chat.ID, "❌ Invalid plan ID. Send numbers only:")
			return
		}
		s.conv.Clear(actorID)
		err = s.store.DeletePlan(id)
		switch {
		case errors.Is(err, store.ErrPlanNotFound):
			s.reply(msg.Chat.ID, fmt.Sprintf("❌ Plan #%d not found.", id))
		case err != nil:
			s.handleError(msg.Chat.ID, ErrStoragef("delete plan %d: %v", id, err))
		default:
			s.reply(msg.Chat.ID, fmt.Sprintf("✅ Plan #%d deleted!", id))
			slog.Info("Plan deleted", "plan_id", id)
		}

	case StateAwaitingPlanDays:
		days, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil || days <= 0 {
			s.reply(msg.Chat.ID, "❌ Invalid! Enter a positive number:")
			return
		}
		conv.PlanDays = days
		conv.State = StateAwaitingPlanPrice
		s.conv.Set(actorID, conv)
		s.reply(msg.Chat.ID, fmt.Sprintf("✅ Days: %d\n\nStep 2/3: Enter price in rupees\nExample: 1, 5, 100", days))

	case StateAwaitingPlanPrice:
		price, err := strconv.Atoi(strings.TrimSpace(msg.Text))
		if err != nil || price <= 0 {
			s.reply(msg.Chat.ID, "❌ Invalid! Enter a positive number:")
			return
		}
		conv.PlanPrice = price
		conv.State = StateAwaitingPlanUPI
		s.conv.Set(actorID, conv)
		s.reply(msg.Chat.ID, fmt.Sprintf("✅ Price: ₹%d\n\nStep 3/3: Enter your UPI ID\nExample: username@upi", price))

	case StateAwaitingPlanUPI:
		upi := strings.TrimSpace(msg.Text)
		if upi == "" {
			s.reply(msg.Chat.ID, "❌ Invalid! Send your UPI ID as text:")
			return
		}
		plan, err := s.store.CreatePlan(conv.PlanDays, conv.PlanPrice, upi)
		if err != nil {
			s.handleError(msg.Chat.ID, ErrStoragef("create plan: %v", err))
			return
		}
		s.conv.Clear(actorID)
		s.reply(msg.Chat.ID, fmt.Sprintf(
			"✅ Plan Created!\n\n📦 Plan #%d\n📅 Days: %d\n💰 Price: ₹%d\n🔗 UPI: %s",
			plan.ID, plan.Days, plan.Price, plan.UPI))
		slog.Info("Plan created", "plan_id", plan.ID, "days", plan.Days, "price", plan.Price)

	case StateAwaitingBroadcast:
		content := extractContent(msg)
		if content.Kind == ContentNone {
			s.reply(msg.Chat.ID, "❌ Nothing to broadcast. Send text or media, or /cancel:")
			return
		}
		s.conv.Clear(actorID)
		s.runBroadcast(msg.Chat.ID, content)
	}
}

// runBroadcast fans the content out and edits the status message into
// the final summary once the batch is done.
func (s *Service) runBroadcast(chatID int64, content Content) {
	status, statusErr := s.bot.Send(tgbotapi.NewMessage(chatID, "📤 Broadcasting..."))

	sent, failed, total := s.broadcast(content)

	summary := fmt.Sprintf(
		"✅ Broadcast Complete!\n\n📊 Results:\n✅ Sent: %d\n❌ Failed: %d\n📈 Total: %d",
		sent, failed, total)

	if statusErr != nil {
		s.reply(chatID, summary)
	} else {
		s.editText(chatID, status.MessageID, summary)
	}
	slog.Info("Broadcast finished", "sent", sent, "failed", failed, "total", total)
}

func (s *Service) handleOwnerStats(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")

	stats := s.store.Stats()

	text := fmt.Sprintf(`📊 Bot Statistics
━━━━━━━━━━━━━━━━
👥 Total Users: %d
✅ Active Users: %d
🚫 Banned Users: %d
📋 Plans: %d
💳 Pending Payments: %d
🤖 Active Clones: %d`,
		stats.Users, stats.Active, stats.Banned,
		stats.Plans, stats.PendingPayments, stats.ActiveClones)

	s.reply(cb.Message.Chat.ID, text)
}

// userListLimit caps how many per-user buttons one listing message
// carries; Telegram rejects oversized keyboards.
const userListLimit = 50

func (s *Service) sendUserList(chatID int64, title string, users []store.User) {
	if len(users) == 0 {
		s.reply(chatID, title+"\n\nNobody here yet.")
		return
	}

	shown := users
	if len(shown) > userListLimit {
		shown = shown[:userListLimit]
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, u := range shown {
		label := fmt.Sprintf("%s (%d)", u.Name, u.ID)
		btn := tgbotapi.NewInlineKeyboardButtonData(label, Callback{Action: ActionUserInfo, ID: u.ID}.Data())
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{btn})
	}

	text := fmt.Sprintf("%s\n\nTotal: %d", title, len(users))
	if len(users) > userListLimit {
		text += fmt.Sprintf("\nShowing first %d.", userListLimit)
	}

	msgConfig := tgbotapi.NewMessage(chatID, text)
	msgConfig.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	s.bot.Send(msgConfig)
}

func (s *Service) handleOwnerActive(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.sendUserList(cb.Message.Chat.ID, "👥 Active Users", s.store.ListActive())
}

func (s *Service) handleOwnerBanned(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.sendUserList(cb.Message.Chat.ID, "🚫 Banned Users", s.store.ListBanned())
}

func (s *Service) handleUserInfo(cb *tgbotapi.CallbackQuery, userID int64) {
	user, ok := s.store.GetUser(userID)
	if !ok {
		s.answerCallbackAlert(cb.ID, "❌ User not found!")
		return
	}
	s.answerCallback(cb.ID, "")

	username := user.Username
	if username == "" {
		username = "None"
	}

	status := "✅ Active"
	banButton := tgbotapi.NewInlineKeyboardButtonData("🔨 Ban", Callback{Action: ActionBanUser, ID: user.ID}.Data())
	if s.store.IsBanned(user.ID) {
		status = "🚫 Banned"
		banButton = tgbotapi.NewInlineKeyboardButtonData("✅ Unban", Callback{Action: ActionUnbanUser, ID: user.ID}.Data())
	}

	text := fmt.Sprintf(`👤 User Info
━━━━━━━━━━━━━━━━
🆔 ID: %d
👤 Name: %s
📱 Username: @%s
📅 Joined: %s
📌 Status: %s`,
		user.ID, user.Name, username, user.Joined.Format("2006-01-02"), status)

	msgConfig := tgbotapi.NewMessage(cb.Message.Chat.ID, text)
	msgConfig.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(banButton))
	s.bot.Send(msgConfig)
}

func (s *Service) handleBanButton(cb *tgbotapi.CallbackQuery, userID int64, ban bool) {
	if err := s.store.SetBanned(userID, ban); err != nil {
		s.handleError(cb.Message.Chat.ID, ErrStoragef("set banned %d: %v", userID, err))
		return
	}

	if ban {
		s.answerCallbackAlert(cb.ID, "✅ User banned!")
		s.editText(cb.Message.Chat.ID, cb.Message.MessageID, fmt.Sprintf("🔨 User %d has been banned.", userID))
		slog.Info("User banned", "user_id", userID)
	} else {
		s.answerCallbackAlert(cb.ID, "✅ User unbanned!")
		s.editText(cb.Message.Chat.ID, cb.Message.MessageID, fmt.Sprintf("✅ User %d has been unbanned.", userID))
		slog.Info("User unbanned", "user_id", userID)
	}
}

func (s *Service) handleOwnerBroadcastPrompt(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.conv.Set(cb.From.ID, Conversation{State: StateAwaitingBroadcast})
	s.reply(cb.Message.Chat.ID,
		"📢 Broadcast Message\n\nSend the message to broadcast to all active users.\nText, photos, videos and documents are supported.\n\nUse /cancel to abort.")
}

func (s *Service) handleOwnerBanPrompt(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.conv.Set(cb.From.ID, Conversation{State: StateAwaitingBanID})
	s.reply(cb.Message.Chat.ID, "🔨 Ban User\n\nSend the user ID to ban:\n\nUse /cancel to abort.")
}

func (s *Service) handleOwnerUnbanPrompt(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.conv.Set(cb.From.ID, Conversation{State: StateAwaitingUnbanID})
	s.reply(cb.Message.Chat.ID, "✅ Unban User\n\nSend the user ID to unban:\n\nUse /cancel to abort.")
}

func (s *Service) handleOwnerPlans(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")

	plans := s.store.Plans()

	var b strings.Builder
	b.WriteString("📋 Subscription Plans\n━━━━━━━━━━━━━━━━\n")
	if len(plans) == 0 {
		b.WriteString("\nNo plans created yet.")
	}
	for _, p := range plans {
		fmt.Fprintf(&b, "\n📦 Plan #%d: %d %s - ₹%d\n🔗 UPI: %s\n", p.ID, p.Days, dayWord(p.Days), p.Price, p.UPI)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Create Plan", Callback{Action: ActionCreatePlan}.Data()),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete Plan", Callback{Action: ActionDeletePlan}.Data()),
		),
	)

	msgConfig := tgbotapi.NewMessage(cb.Message.Chat.ID, b.String())
	msgConfig.ReplyMarkup = keyboard
	s.bot.Send(msgConfig)
}

func (s *Service) handleCreatePlanPrompt(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.conv.Set(cb.From.ID, Conversation{State: StateAwaitingPlanDays})
	s.reply(cb.Message.Chat.ID,
		"➕ Create Plan\n\nStep 1/3: Enter number of days\nExample: 1, 7, 30\n\nUse /cancel to abort.")
}

func (s *Service) handleDeletePlanPrompt(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")

	plans := s.store.Plans()
	if len(plans) == 0 {
		s.reply(cb.Message.Chat.ID, "📋 No plans to delete.")
		return
	}

	var b strings.Builder
	b.WriteString("🗑 Delete Plan\n\n")
	for _, p := range plans {
		fmt.Fprintf(&b, "📦 #%d: %d %s - ₹%d\n", p.ID, p.Days, dayWord(p.Days), p.Price)
	}
	b.WriteString("\nSend the plan ID to delete:\n\nUse /cancel to abort.")

	s.conv.Set(cb.From.ID, Conversation{State: StateAwaitingDeletePlanID})
	s.reply(cb.Message.Chat.ID, b.String())
}

func (s *Service) handleOwnerPayments(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")

	pending := s.store.PendingPayments()
	if len(pending) == 0 {
		s.reply(cb.Message.Chat.ID, "💳 No pending payments.")
		return
	}

	s.reply(cb.Message.Chat.ID, fmt.Sprintf("💳 Pending Payments: %d", len(pending)))

	for _, p := range pending {
		name := fmt.Sprintf("%d", p.UserID)
		username := "None"
		if u, ok := s.store.GetUser(p.UserID); ok {
			name = u.Name
			if u.Username != "" {
				username = u.Username
			}
		}
		if err := s.sendPaymentNotice(cb.Message.Chat.ID, p, name, username); err != nil {
			slog.Error("Failed to send payment card", "payment_id", p.ID, "error", err)
		}
	}
}

// handlePaymentDecision resolves a pending payment exactly once. A
// second press of either button on the same payment only gets an alert.
func (s *Service) handlePaymentDecision(cb *tgbotapi.CallbackQuery, paymentID int, status store.PaymentStatus) {
	payment, err := s.store.DecidePayment(paymentID, status)
	switch {
	case errors.Is(err, store.ErrPaymentNotFound):
		s.answerCallbackAlert(cb.ID, "❌ Payment not found!")
		return
	case errors.Is(err, store.ErrPaymentDecided):
		s.answerCallbackAlert(cb.ID, "⚠️ Already processed!")
		return
	case err != nil:
		s.answerCallback(cb.ID, "")
		s.handleError(cb.Message.Chat.ID, ErrStoragef("decide payment %d: %v", paymentID, err))
		return
	}

	if status == store.PaymentApproved {
		s.answerCallbackAlert(cb.ID, "✅ Approved!")
		s.editCaption(cb.Message, cb.Message.Caption+"\n\n✅ APPROVED - Waiting for bot token")

		if err := s.reply(payment.UserID, fmt.Sprintf(
			"🎉 Payment Approved!\n\n"+
				"✅ Your %d-day plan is confirmed.\n\n"+
				"🤖 Next step:\n"+
				"1. Open @BotFather\n"+
				"2. Create a new bot with /newbot\n"+
				"3. Copy the bot token\n"+
				"4. Send the token here", payment.PlanDays)); err != nil {
			slog.Error("Failed to notify user about approval", "payment_id", payment.ID, "user_id", payment.UserID, "error", err)
		}

		s.conv.Set(payment.UserID, Conversation{State: StateAwaitingToken, PlanDays: payment.PlanDays})
		slog.Info("Payment approved", "payment_id", payment.ID, "user_id", payment.UserID)
		return
	}

	s.answerCallbackAlert(cb.ID, "❌ Rejected!")
	s.editCaption(cb.Message, cb.Message.Caption+"\n\n❌ REJECTED")

	if err := s.reply(payment.UserID,
		"❌ Payment Rejected\n\nYour payment could not be verified.\nContact the owner if you think this is a mistake."); err != nil {
		slog.Error("Failed to notify user about rejection", "payment_id", payment.ID, "user_id", payment.UserID, "error", err)
	}
	slog.Info("Payment rejected", "payment_id", payment.ID, "user_id", payment.UserID)
}

func (s *Service) editCaption(msg *tgbotapi.Message, caption string) {
	edit := tgbotapi.NewEditMessageCaption(msg.Chat.ID, msg.MessageID, caption)
	s.bot.Send(edit)
}
