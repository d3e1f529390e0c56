package telegram

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Error codes grouped by how they are recovered: input errors re-prompt,
// not-found errors abort the operation, delivery errors are contained
// per recipient, storage errors propagate.
const (
	ErrInvalidInput     = "INVALID_INPUT"
	ErrNotFound         = "NOT_FOUND"
	ErrDeliveryError    = "DELIVERY_ERROR"
	ErrStorageError     = "STORAGE_ERROR"
	ErrPermissionDenied = "PERMISSION_DENIED"
)

// BotError carries an internal code and log message alongside the
// short text shown to the actor who triggered it.
type BotError struct {
	Code        string
	Message     string
	UserMessage string
	Details     string
}

func (e *BotError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

func NewBotError(code, message, userMessage, details string) *BotError {
	return &BotError{
		Code:        code,
		Message:     message,
		UserMessage: userMessage,
		Details:     details,
	}
}

// handleError logs the error, reports it to the owner and replies with
// the user-facing text. User-facing messages never include internal
// identifiers beyond what the user already supplied.
func (s *Service) handleError(chatID int64, err error) {
	slog.Error("Bot error occurred", "error", err)

	var userMessage string

	if botErr, ok := err.(*BotError); ok {
		userMessage = botErr.UserMessage
		s.sendErrorReport(botErr)
	} else {
		userMessage = "Something went wrong. Please try again later."
		s.sendErrorReport(&BotError{
			Code:        "UNKNOWN_ERROR",
			Message:     "Unknown error occurred",
			UserMessage: userMessage,
			Details:     err.Error(),
		})
	}

	s.reply(chatID, "❌ "+userMessage)
}

// sendErrorReport forwards the full error to the owner chat.
func (s *Service) sendErrorReport(botErr *BotError) {
	if s.cfg.OwnerID == 0 {
		return
	}
	report := fmt.Sprintf("🚨 Bot error:\n\nCode: %s\nMessage: %s\nDetails: %s\n\nShown to user: %s",
		botErr.Code,
		botErr.Message,
		botErr.Details,
		botErr.UserMessage,
	)

	msg := tgbotapi.NewMessage(s.cfg.OwnerID, report)
	s.bot.Send(msg)
}

func ErrInvalidInputf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrInvalidInput,
		"Invalid input provided",
		"Invalid input. Please check the format and try again.",
		fmt.Sprintf(details, args...),
	)
}

func ErrNotFoundf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrNotFound,
		"Entity not found",
		"Not found. It may have been removed.",
		fmt.Sprintf(details, args...),
	)
}

func ErrDeliveryf(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrDeliveryError,
		"Outbound delivery failed",
		"Failed to deliver the message. Please try again.",
		fmt.Sprintf(details, args...),
	)
}

func ErrStoragef(details string, args ...interface{}) *BotError {
	return NewBotError(
		ErrStorageError,
		"Store operation failed",
		"Storage error. Please try again later.",
		fmt.Sprintf(details, args...),
	)
}

func ErrPermission(details string) *BotError {
	return NewBotError(
		ErrPermissionDenied,
		"Permission denied",
		"You are not allowed to do that.",
		details,
	)
}
