package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"kinoteka/internal/conversation"
)

// NewStartHandler returns a handler for the /start command. It registers the
// user on first contact and shows the main menu.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", from.ID)

	user, err := h.deps.Store.EnsureUser(ctx, from.ID, from.Username, fullName(from))
	if err != nil {
		log.ErrorContext(ctx, "Failed to ensure user", "error", err, "user_id", from.ID)
		_, sendErr := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   h.deps.Config.Messages.GeneralError,
		})
		if sendErr != nil {
			log.ErrorContext(ctx, "Failed to send error message", "error", sendErr, "chat_id", chatID)
		}
		return
	}

	prompts := h.deps.Engine.HandleEvent(ctx, user, conversation.Event{
		Kind: conversation.EventCommand,
		Text: "start",
	})
	sendPrompts(ctx, b, log, chatID, prompts)
}

// fullName joins the Telegram first and last name the way the chat client
// displays them.
func fullName(from *models.User) string {
	if from.LastName == "" {
		return from.FirstName
	}
	return from.FirstName + " " + from.LastName
}
