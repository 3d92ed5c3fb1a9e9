package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"kinoteka/internal/conversation"
)

// sendPrompts renders engine prompts to a chat. A prompt with menu options
// is sent with a reply keyboard; a plain prompt removes any previous one.
func sendPrompts(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, prompts []conversation.Prompt) {
	for _, prompt := range prompts {
		params := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   prompt.Text,
		}

		if len(prompt.Menu) > 0 {
			params.ReplyMarkup = menuKeyboard(prompt.Menu)
		} else {
			params.ReplyMarkup = &models.ReplyKeyboardRemove{RemoveKeyboard: true}
		}

		if _, err := b.SendMessage(ctx, params); err != nil {
			log.ErrorContext(ctx, "Failed to send prompt", "error", err, "chat_id", chatID)
		}
	}
}

// menuKeyboard lays menu labels out two per row.
func menuKeyboard(labels []string) *models.ReplyKeyboardMarkup {
	var rows [][]models.KeyboardButton
	for i := 0; i < len(labels); i += 2 {
		row := []models.KeyboardButton{{Text: labels[i]}}
		if i+1 < len(labels) {
			row = append(row, models.KeyboardButton{Text: labels[i+1]})
		}
		rows = append(rows, row)
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}
