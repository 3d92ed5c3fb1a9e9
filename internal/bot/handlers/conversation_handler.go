package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"kinoteka/internal/conversation"
)

// NewConversationHandler returns the default handler: the presentation
// adapter between Telegram updates and the conversation engine. It classifies
// each message into a menu-selection or free-text event, ensures the sender
// is registered, runs the engine, and renders the resulting prompts.
func NewConversationHandler(deps HandlerDeps) bot.HandlerFunc {
	return conversationHandler{deps}.Handle
}

type conversationHandler struct {
	deps HandlerDeps
}

func (h conversationHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "conversation")

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	from := msg.From

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

	ev := conversation.Event{Kind: conversation.EventText, Text: msg.Text}
	if conversation.IsMenuLabel(msg.Text) {
		ev.Kind = conversation.EventMenu
	}

	prompts := h.deps.Engine.HandleEvent(ctx, user, ev)
	sendPrompts(ctx, b, log, chatID, prompts)
}
