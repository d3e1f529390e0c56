package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// extractContent pulls the one relayable payload out of a message.
// Kind is ContentNone for service messages (joins, pins, stickers).
func extractContent(msg *tgbotapi.Message) Content {
	switch {
	case msg.Text != "":
		return Content{Kind: ContentText, Text: msg.Text}
	case msg.Photo != nil:
		// Telegram sends several sizes; the last one is the largest
		photo := msg.Photo[len(msg.Photo)-1]
		return Content{Kind: ContentPhoto, FileID: photo.FileID, Caption: msg.Caption}
	case msg.Video != nil:
		return Content{Kind: ContentVideo, FileID: msg.Video.FileID, Caption: msg.Caption}
	case msg.Document != nil:
		return Content{Kind: ContentDocument, FileID: msg.Document.FileID, Caption: msg.Caption}
	case msg.Voice != nil:
		return Content{Kind: ContentVoice, FileID: msg.Voice.FileID}
	case msg.Audio != nil:
		return Content{Kind: ContentAudio, FileID: msg.Audio.FileID, Caption: msg.Caption}
	case msg.VideoNote != nil:
		return Content{Kind: ContentVideoNote, FileID: msg.VideoNote.FileID}
	}
	return Content{}
}

// sendContent delivers one payload to a chat. Both the relay path and
// the broadcast path go through here, so the content kinds are matched
// in exactly one place.
func (s *Service) sendContent(chatID int64, c Content) (tgbotapi.Message, error) {
	switch c.Kind {
	case ContentText:
		return s.bot.Send(tgbotapi.NewMessage(chatID, c.Text))
	case ContentPhoto:
		cfg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(c.FileID))
		cfg.Caption = c.Caption
		return s.bot.Send(cfg)
	case ContentVideo:
		cfg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(c.FileID))
		cfg.Caption = c.Caption
		return s.bot.Send(cfg)
	case ContentDocument:
		cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileID(c.FileID))
		cfg.Caption = c.Caption
		return s.bot.Send(cfg)
	case ContentVoice:
		cfg := tgbotapi.NewVoice(chatID, tgbotapi.FileID(c.FileID))
		cfg.Caption = c.Caption
		return s.bot.Send(cfg)
	case ContentAudio:
		cfg := tgbotapi.NewAudio(chatID, tgbotapi.FileID(c.FileID))
		cfg.Caption = c.Caption
		return s.bot.Send(cfg)
	case ContentVideoNote:
		return s.bot.Send(tgbotapi.NewVideoNote(chatID, 0, tgbotapi.FileID(c.FileID)))
	}
	return tgbotapi.Message{}, fmt.Errorf("no relayable content")
}

// forwardToOwner relays a user's message to the owner as a header
// notice plus the content itself. Every outbound message id is
// correlated back to the user so the owner can answer by replying.
func (s *Service) forwardToOwner(msg *tgbotapi.Message) {
	content := extractContent(msg)
	if content.Kind == ContentNone {
		return
	}

	from := msg.From
	username := from.UserName
	if username == "" {
		username = "None"
	}

	header := fmt.Sprintf(
		"📨 New Message from User\n━━━━━━━━━━━━━━━━\n👤 Name: %s\n🆔 ID: %d\n📱 Username: @%s\n\n💬 Content below:",
		from.FirstName, from.ID, username,
	)

	sent, err := s.bot.Send(tgbotapi.NewMessage(s.cfg.OwnerID, header))
	if err != nil {
		slog.Error("Failed to forward header to owner", "user_id", from.ID, "error", err)
		s.reply(msg.Chat.ID, "❌ Failed to send message. Please try again.")
		return
	}
	if err := s.store.RecordCorrelation(sent.MessageID, from.ID); err != nil {
		s.handleError(msg.Chat.ID, ErrStoragef("record correlation: %v", err))
		return
	}

	sent, err = s.sendContent(s.cfg.OwnerID, content)
	if err != nil {
		slog.Error("Failed to forward content to owner", "user_id", from.ID, "kind", content.Kind.String(), "error", err)
		s.reply(msg.Chat.ID, "❌ Failed to send message. Please try again.")
		return
	}
	if err := s.store.RecordCorrelation(sent.MessageID, from.ID); err != nil {
		s.handleError(msg.Chat.ID, ErrStoragef("record correlation: %v", err))
		return
	}

	s.reply(msg.Chat.ID, s.store.Greeting())
	slog.Info("Message forwarded to owner", "user_id", from.ID, "kind", content.Kind.String())
}

// handleOwnerReply routes an owner's reply back to the user the
// replied-to message was correlated with. Replies to uncorrelated
// messages are ignored: the owner may be replying to anything.
func (s *Service) handleOwnerReply(msg *tgbotapi.Message) {
	target, ok := s.store.ResolveCorrelation(msg.ReplyToMessage.MessageID)
	if !ok {
		return
	}

	content := extractContent(msg)
	if content.Kind == ContentNone {
		s.reply(msg.Chat.ID, "❌ Nothing to forward in that message.")
		return
	}

	if _, err := s.sendContent(target, content); err != nil {
		s.reply(msg.Chat.ID, fmt.Sprintf("❌ Failed to send: %v", err))
		return
	}

	s.reply(msg.Chat.ID, fmt.Sprintf("✅ Reply sent to user %d!", target))
	slog.Info("Owner reply delivered", "user_id", target, "kind", content.Kind.String())
}

// broadcast fans the content out to every active user. One recipient's
// failure never aborts the batch; failures are only counted.
func (s *Service) broadcast(content Content) (sent, failed, total int) {
	users := s.store.ListActive()
	total = len(users)

	for _, u := range users {
		if _, err := s.sendContent(u.ID, content); err != nil {
			slog.Warn("Broadcast delivery failed", "user_id", u.ID, "error", err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed, total
}
