package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relay-bot/internal/store"
)

func (s *Service) sendUserPanel(chatID int64, firstName string) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📩 Send Message to Owner", Callback{Action: ActionUserSend}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 Purchase Bot Clone", Callback{Action: ActionUserPlans}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 My Clone Bot", Callback{Action: ActionUserMyBot}.Data())),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", Callback{Action: ActionUserHelp}.Data())),
	)

	text := fmt.Sprintf("👋 Welcome %s!\n\n🎯 User Panel\n━━━━━━━━━━━━━━━━\nChoose an option below:", firstName)

	msgConfig := tgbotapi.NewMessage(chatID, text)
	msgConfig.ReplyMarkup = keyboard
	s.bot.Send(msgConfig)
}

func (s *Service) handleUserSend(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")
	s.reply(cb.Message.Chat.ID,
		"📝 Send your message now:\n\n"+
			"You can send:\n"+
			"• Text messages\n"+
			"• Photos with captions\n"+
			"• Videos\n"+
			"• Documents\n"+
			"• Voice messages\n"+
			"• Audio files")
}

func dayWord(days int) string {
	if days == 1 {
		return "Day"
	}
	return "Days"
}

func (s *Service) sendPlanList(chatID int64) {
	plans := s.store.Plans()

	if len(plans) == 0 {
		s.reply(chatID, "📋 No subscription plans available yet.\n\nPlease check back later!")
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, plan := range plans {
		btn := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d %s - ₹%d", plan.Days, dayWord(plan.Days), plan.Price),
			Callback{Action: ActionSelectPlan, ID: int64(plan.ID)}.Data(),
		)
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{btn})
	}

	msgConfig := tgbotapi.NewMessage(chatID, "🤖 Clone Bot Subscription Plans\n━━━━━━━━━━━━━━━━\n\nChoose a plan:")
	msgConfig.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	s.bot.Send(msgConfig)
}

// handlePlanSelected shows the UPI payment details for a plan and arms
// the screenshot state: the user's next photo is treated as proof of
// payment.
func (s *Service) handlePlanSelected(cb *tgbotapi.CallbackQuery, planID int) {
	plan, err := s.store.GetPlan(planID)
	if err != nil {
		s.answerCallbackAlert(cb.ID, "❌ Plan not found!")
		return
	}

	s.answerCallback(cb.ID, "")

	// deep link opens the user's UPI app with the amount prefilled
	upiLink := fmt.Sprintf("upi://pay?pa=%s&am=%d&cu=INR&tn=%ddays", plan.UPI, plan.Price, plan.Days)

	text := fmt.Sprintf(`💳 Payment Details
━━━━━━━━━━━━━━━━
📦 Plan: %d %s
💰 Amount: ₹%d
🔗 UPI ID: %s

📝 Instructions:
1. Click "Pay Now" button below
2. Complete payment in your UPI app
3. Take a screenshot of payment
4. Send the screenshot here

⚠️ Note: Send only payment screenshot after completing payment!`,
		plan.Days, dayWord(plan.Days), plan.Price, plan.UPI)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Pay Now", upiLink)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", Callback{Action: ActionCancelPayment}.Data())),
	)

	msgConfig := tgbotapi.NewMessage(cb.Message.Chat.ID, text)
	msgConfig.ReplyMarkup = keyboard
	s.bot.Send(msgConfig)

	s.conv.Set(cb.From.ID, Conversation{State: StateAwaitingScreenshot, PlanID: planID})
}

// handlePaymentScreenshot records the pending payment and forwards the
// screenshot to the owner with approve/reject buttons.
func (s *Service) handlePaymentScreenshot(msg *tgbotapi.Message, conv Conversation) {
	user := msg.From
	screenshot := msg.Photo[len(msg.Photo)-1].FileID

	payment, err := s.store.CreatePendingPayment(user.ID, conv.PlanID, screenshot)
	if errors.Is(err, store.ErrPlanNotFound) {
		s.conv.Clear(user.ID)
		s.reply(msg.Chat.ID, "❌ That plan is no longer available. Use /start to pick another.")
		return
	}
	if err != nil {
		s.handleError(msg.Chat.ID, ErrStoragef("create pending payment: %v", err))
		return
	}
	s.conv.Clear(user.ID)

	s.reply(msg.Chat.ID, fmt.Sprintf(
		"✅ Payment screenshot received!\n\n"+
			"🔍 Your payment is under review.\n"+
			"⏳ Please wait for owner approval.\n\n"+
			"Payment ID: #%d", payment.ID))

	if err := s.sendPaymentNotice(s.cfg.OwnerID, payment, user.FirstName, user.UserName); err != nil {
		slog.Error("Failed to notify owner about payment", "payment_id", payment.ID, "error", err)
		return
	}

	slog.Info("Payment screenshot forwarded to owner", "payment_id", payment.ID, "user_id", user.ID)
}

// sendPaymentNotice sends the review card: screenshot photo, details
// caption, approve/reject buttons. The resulting message is correlated
// so the owner can also just reply to it.
func (s *Service) sendPaymentNotice(chatID int64, p store.PendingPayment, name, username string) error {
	if username == "" {
		username = "None"
	}

	caption := fmt.Sprintf(`💳 New Payment Received!
━━━━━━━━━━━━━━━━
Payment ID: #%d
👤 User: %s
🆔 ID: %d
📱 Username: @%s

📦 Plan: %d days
💰 Amount: ₹%d`,
		p.ID, name, p.UserID, username, p.PlanDays, p.PlanPrice)

	photoConfig := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(p.Screenshot))
	photoConfig.Caption = caption
	photoConfig.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", Callback{Action: ActionApprovePayment, ID: int64(p.ID)}.Data()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", Callback{Action: ActionRejectPayment, ID: int64(p.ID)}.Data()),
		),
	)

	sent, err := s.bot.Send(photoConfig)
	if err != nil {
		return err
	}
	return s.store.RecordCorrelation(sent.MessageID, p.UserID)
}

func (s *Service) handleMyBot(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")

	clone, err := s.store.GetClone(cb.From.ID)
	if err != nil {
		s.handleError(cb.Message.Chat.ID, ErrStoragef("get clone %d: %v", cb.From.ID, err))
		return
	}
	if clone == nil {
		s.reply(cb.Message.Chat.ID,
			"🤖 You don't have an active clone bot.\n\nPurchase a plan to get your own bot!")
		return
	}

	daysLeft := int(time.Until(clone.Expiry).Hours() / 24)

	text := fmt.Sprintf(`🤖 Your Clone Bot
━━━━━━━━━━━━━━━━
✅ Status: Active
📅 Days Left: %d
⏰ Expires: %s

🎯 Features:
✅ Send messages to users
✅ Receive messages from users
✅ Reply to user messages

Your bot is running! Users can start it and send you messages.`,
		daysLeft, clone.Expiry.Format("2006-01-02"))

	s.reply(cb.Message.Chat.ID, text)
}

func (s *Service) handleUserHelp(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "")

	s.reply(cb.Message.Chat.ID, `ℹ️ Help & Information
━━━━━━━━━━━━━━━━

🎯 How to use:

1️⃣ Send Message
   Send any message, photo, video, or document to the owner

2️⃣ Purchase Clone Bot
   - View available plans
   - Choose a plan
   - Pay via UPI (auto-filled)
   - Send payment screenshot
   - Wait for approval
   - Send your bot token
   - Your clone bot is ready!

3️⃣ Clone Bot Features
   - Receive messages from your users
   - Reply to user messages
   - All message formats supported

Need help? Send a message to the owner!`)
}

func (s *Service) handleCancelPayment(cb *tgbotapi.CallbackQuery) {
	s.answerCallback(cb.ID, "❌ Payment cancelled")

	if s.conv.Get(cb.From.ID).State == StateAwaitingScreenshot {
		s.conv.Clear(cb.From.ID)
	}
	s.reply(cb.Message.Chat.ID, "❌ Payment cancelled. Use /start to try again.")
}

// handleCloneToken consumes the bot token a user sends after their
// payment was approved and records the clone registration.
func (s *Service) handleCloneToken(msg *tgbotapi.Message, conv Conversation) {
	token := strings.TrimSpace(msg.Text)
	if token == "" {
		s.reply(msg.Chat.ID, "❌ Send your bot token as text:")
		return
	}

	if err := s.store.RegisterClone(msg.From.ID, token, conv.PlanDays); err != nil {
		s.handleError(msg.Chat.ID, ErrStoragef("register clone %d: %v", msg.From.ID, err))
		return
	}
	s.conv.Clear(msg.From.ID)

	s.reply(msg.Chat.ID, fmt.Sprintf(
		"🎉 Your clone bot is registered!\n\n📅 Active for %d days.\n\nUse /start → My Clone Bot to check its status.",
		conv.PlanDays))

	if err := s.reply(s.cfg.OwnerID, fmt.Sprintf("🤖 User %d submitted a bot token. Clone active for %d days.", msg.From.ID, conv.PlanDays)); err != nil {
		slog.Warn("Failed to notify owner about clone registration", "user_id", msg.From.ID, "error", err)
	}

	slog.Info("Clone registered", "user_id", msg.From.ID, "days", conv.PlanDays)
}
