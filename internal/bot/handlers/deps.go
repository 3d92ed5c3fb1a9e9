package handlers

import (
	"log/slog"

	"kinoteka/internal/config"
	"kinoteka/internal/conversation"
	"kinoteka/internal/database"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Engine *conversation.Engine
}
